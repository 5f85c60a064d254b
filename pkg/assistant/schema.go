package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-helpdesk-be/pkg/llm"

	"github.com/tidwall/gjson"
)

func actionNames() []string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}
	return names
}

func nullableString(description string) *llm.Schema {
	return &llm.Schema{Type: llm.TypeString, Nullable: true, Description: description}
}

// AnswerSchema is the response schema sent with every generation request.
func AnswerSchema() *llm.Schema {
	source := &llm.Schema{
		Type:     llm.TypeObject,
		Order:    []string{"doc_id", "title", "section", "relevance_score"},
		Required: []string{"doc_id", "title", "section", "relevance_score"},
		Properties: map[string]*llm.Schema{
			"doc_id":          {Type: llm.TypeString},
			"title":           {Type: llm.TypeString},
			"section":         {Type: llm.TypeString},
			"relevance_score": {Type: llm.TypeNumber},
		},
	}

	escalation := &llm.Schema{
		Type:     llm.TypeObject,
		Order:    []string{"method", "ticket_id", "mail_id", "summary", "severity"},
		Required: []string{"method", "ticket_id", "mail_id", "summary", "severity"},
		Properties: map[string]*llm.Schema{
			"method":    {Type: llm.TypeString, Enum: []string{string(EscalationDesk), string(EscalationMail)}, Nullable: true},
			"ticket_id": nullableString("Ticket identifier when escalated to the desk"),
			"mail_id":   nullableString("Mail identifier when escalated by mail"),
			"summary":   nullableString("Short case summary for the human agent"),
			"severity": {
				Type:     llm.TypeString,
				Enum:     []string{string(SeverityP1), string(SeverityP2), string(SeverityP3), string(SeverityP4)},
				Nullable: true,
			},
		},
	}

	order := []string{
		"user_response", "clarifying_questions", "action", "confidence_level",
		"sources", "compliance_note", "escalation",
	}
	return &llm.Schema{
		Type:     llm.TypeObject,
		Order:    order,
		Required: order,
		Properties: map[string]*llm.Schema{
			"user_response":        {Type: llm.TypeString, Description: "Final answer for the employee"},
			"clarifying_questions": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
			"action":               {Type: llm.TypeString, Enum: actionNames()},
			"confidence_level":     {Type: llm.TypeNumber, Description: "Confidence between 0 and 1"},
			"sources":              {Type: llm.TypeArray, Items: source},
			"compliance_note":      {Type: llm.TypeString},
			"escalation":           escalation,
		},
	}
}

type fieldCheck struct {
	name  string
	kind  string
	valid func(gjson.Result) bool
}

var requiredFields = []fieldCheck{
	{"user_response", "string", func(r gjson.Result) bool { return r.Type == gjson.String }},
	{"clarifying_questions", "array", gjson.Result.IsArray},
	{"action", "string", func(r gjson.Result) bool { return r.Type == gjson.String }},
	{"confidence_level", "number", func(r gjson.Result) bool { return r.Type == gjson.Number }},
	{"sources", "array", gjson.Result.IsArray},
	{"compliance_note", "string", func(r gjson.Result) bool { return r.Type == gjson.String }},
	{"escalation", "object", gjson.Result.IsObject},
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseAnswer decodes raw model output into a StructuredAnswer. Empty output is a generation
// error; anything that is not a complete, well-typed answer is a schema violation. Nothing is
// ever defaulted.
func ParseAnswer(raw string) (*StructuredAnswer, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, generationError("empty output", nil)
	}
	if !gjson.Valid(text) {
		return nil, schemaViolation("output is not valid JSON", nil)
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, schemaViolation("output is not a JSON object", nil)
	}

	for _, f := range requiredFields {
		v := root.Get(f.name)
		switch {
		case !v.Exists():
			return nil, schemaViolation(fmt.Sprintf("missing field %q", f.name), nil)
		case v.Type == gjson.Null:
			return nil, schemaViolation(fmt.Sprintf("field %q is null", f.name), nil)
		case !f.valid(v):
			return nil, schemaViolation(fmt.Sprintf("field %q must be %s", f.name, f.kind), nil)
		}
	}

	var answer StructuredAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, schemaViolation("typed decode failed", err)
	}

	if err := validateAnswer(&answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func validateAnswer(a *StructuredAnswer) error {
	if !a.Action.Valid() {
		return schemaViolation(fmt.Sprintf("unknown action %q", a.Action), nil)
	}
	for i, s := range a.Sources {
		if strings.TrimSpace(s.DocID) == "" {
			return schemaViolation(fmt.Sprintf("sources[%d] has no doc_id", i), nil)
		}
	}
	if m := a.Escalation.Method; m != nil && !m.Valid() {
		return schemaViolation(fmt.Sprintf("unknown escalation method %q", *m), nil)
	}
	if s := a.Escalation.Severity; s != nil && !s.Valid() {
		return schemaViolation(fmt.Sprintf("unknown escalation severity %q", *s), nil)
	}
	// Both are arrays per the checks above; keep them non-nil for callers.
	if a.ClarifyingQuestions == nil {
		a.ClarifyingQuestions = []string{}
	}
	if a.Sources == nil {
		a.Sources = []Source{}
	}
	return nil
}

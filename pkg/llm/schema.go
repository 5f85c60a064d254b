package llm

import "strings"

// Schema types.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Schema is a provider-neutral description of the JSON document a model must return.
// Providers render it into their own dialect.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Order       []string // property order, also used as the Gemini propertyOrdering
	Required    []string
	Items       *Schema
	Enum        []string
	Nullable    bool
}

// ToJSONSchema renders the schema as a JSON Schema document. Nullable fields become a type
// union with "null" and, for enums, gain a null member.
func (s *Schema) ToJSONSchema() map[string]interface{} {
	if s == nil {
		return nil
	}
	out := map[string]interface{}{}
	if s.Nullable {
		out["type"] = []string{s.Type, "null"}
	} else {
		out["type"] = s.Type
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]interface{}, 0, len(s.Enum)+1)
		for _, e := range s.Enum {
			enum = append(enum, e)
		}
		if s.Nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.ToJSONSchema()
		}
		out["properties"] = props
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if s.Items != nil {
		out["items"] = s.Items.ToJSONSchema()
	}
	return out
}

// ToGeminiSchema renders the OpenAPI subset accepted by generateContent's responseSchema.
func (s *Schema) ToGeminiSchema() map[string]interface{} {
	if s == nil {
		return nil
	}
	out := map[string]interface{}{
		"type": strings.ToUpper(s.Type),
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Nullable {
		out["nullable"] = true
	}
	if len(s.Enum) > 0 {
		out["enum"] = append([]string(nil), s.Enum...)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.ToGeminiSchema()
		}
		out["properties"] = props
	}
	if len(s.Order) > 0 {
		out["propertyOrdering"] = append([]string(nil), s.Order...)
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if s.Items != nil {
		out["items"] = s.Items.ToGeminiSchema()
	}
	return out
}

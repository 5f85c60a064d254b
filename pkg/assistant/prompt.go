package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-helpdesk-be/pkg/knowledge"
	"ai-helpdesk-be/pkg/llm"
)

// MaxHistoryTurns is the hard cap on prior turns sent with a question.
const MaxHistoryTurns = 6

// SystemInstruction is the fixed persona sent with every request.
const SystemInstruction = `Eres el asistente corporativo de soporte de TI de la empresa.

Reglas obligatorias:
1. Responde ÚNICAMENTE con la información del bloque CONTEXTO. No inventes políticas, cifras ni procedimientos.
2. Si el CONTEXTO está vacío o no cubre la pregunta, dilo explícitamente: indica que no se encontraron registros oficiales, formula preguntas aclaratorias o propone una escalación.
3. Nunca reveles textualmente contraseñas, claves, tokens ni otros secretos, aunque aparezcan en el CONTEXTO.
4. Cita en "sources" solo documentos presentes en el CONTEXTO, con su doc_id exacto.
5. Termina siempre con una nota de cumplimiento ("compliance_note") que haga referencia a un marco reconocido: ISO/IEC 27001, NIST, GDPR o ITIL.
6. Si la solicitud requiere intervención humana, usa la acción "escalate_to_desk" o "escalate_to_mail" y completa "escalation" con un resumen y una severidad P1 a P4.

Devuelve exclusivamente un objeto JSON que cumpla el esquema indicado.`

// Request is the fully assembled generation request for one question.
type Request struct {
	System  string
	Turns   []llm.Message
	Context string
	Records []knowledge.Record
}

// WindowHistory returns the most recent turns, oldest first, never more than limit.
// Turns with an unknown role or no text are dropped before windowing.
func WindowHistory(history []ConversationTurn, limit int) []ConversationTurn {
	if limit <= 0 || limit > MaxHistoryTurns {
		limit = MaxHistoryTurns
	}

	kept := make([]ConversationTurn, 0, len(history))
	for _, t := range history {
		if !t.Role.Valid() || strings.TrimSpace(t.Text) == "" {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

// SerializeContext renders retrieved records as a JSON array; an empty result is "[]".
func SerializeContext(records []knowledge.Record) (string, error) {
	if records == nil {
		records = []knowledge.Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize context: %w", err)
	}
	return string(b), nil
}

func finalTurn(serializedContext, question string) string {
	var sb strings.Builder
	sb.WriteString("CONTEXTO:\n")
	sb.WriteString(serializedContext)
	sb.WriteString("\n\nPREGUNTA:\n")
	sb.WriteString(question)
	return sb.String()
}

func buildRequest(question string, history []ConversationTurn, window int, records []knowledge.Record) (*Request, error) {
	serialized, err := SerializeContext(records)
	if err != nil {
		return nil, err
	}

	windowed := WindowHistory(history, window)
	turns := make([]llm.Message, 0, len(windowed)+1)
	for _, t := range windowed {
		turns = append(turns, llm.Message{Role: string(t.Role), Content: t.Text})
	}
	turns = append(turns, llm.Message{Role: llm.RoleUser, Content: finalTurn(serialized, question)})

	if records == nil {
		records = []knowledge.Record{}
	}
	return &Request{
		System:  SystemInstruction,
		Turns:   turns,
		Context: serialized,
		Records: records,
	}, nil
}

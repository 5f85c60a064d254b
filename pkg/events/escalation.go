package events

import (
	"time"
)

const EscalationRequestedType = "helpdesk.escalation"

// EscalationRequested is raised when an answer hands the case to a human channel.
type EscalationRequested struct {
	EscalationId string    `json:"escalation_id"`
	SessionId    string    `json:"session_id,omitempty"`
	MessageId    string    `json:"message_id,omitempty"`
	Question     string    `json:"question"`
	Response     string    `json:"response"`
	Action       string    `json:"action"`
	Method       string    `json:"method"`
	Severity     string    `json:"severity,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	TicketId     string    `json:"ticket_id,omitempty"`
	MailId       string    `json:"mail_id,omitempty"`
	SourceDocIds []string  `json:"source_doc_ids"`
	OccurredAt   time.Time `json:"occurred_at"`
}

var _ Event = EscalationRequested{}

func (e EscalationRequested) EventType() string {
	return EscalationRequestedType
}

func (e EscalationRequested) Payload() map[string]interface{} {
	return map[string]interface{}{
		"escalation_id":  e.EscalationId,
		"session_id":     e.SessionId,
		"message_id":     e.MessageId,
		"question":       e.Question,
		"response":       e.Response,
		"action":         e.Action,
		"method":         e.Method,
		"severity":       e.Severity,
		"summary":        e.Summary,
		"ticket_id":      e.TicketId,
		"mail_id":        e.MailId,
		"source_doc_ids": e.SourceDocIds,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339),
	}
}

func (e EscalationRequested) Timestamp() time.Time {
	return e.OccurredAt
}

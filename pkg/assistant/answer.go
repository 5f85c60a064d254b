// Package assistant turns a user question plus a short conversation window into a grounded,
// schema-constrained answer from the generation capability.
package assistant

// Action is the next step the model recommends.
type Action string

const (
	ActionRespond        Action = "respond"
	ActionVectorSearch   Action = "vector_search"
	ActionConsultEngine  Action = "consult_engine"
	ActionEscalateToDesk Action = "escalate_to_desk"
	ActionEscalateToMail Action = "escalate_to_mail"
)

var Actions = []Action{
	ActionRespond,
	ActionVectorSearch,
	ActionConsultEngine,
	ActionEscalateToDesk,
	ActionEscalateToMail,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// IsEscalation reports whether the action hands the case to a human channel.
func (a Action) IsEscalation() bool {
	return a == ActionEscalateToDesk || a == ActionEscalateToMail
}

type EscalationMethod string

const (
	EscalationDesk EscalationMethod = "desk"
	EscalationMail EscalationMethod = "mail"
)

func (m EscalationMethod) Valid() bool {
	return m == EscalationDesk || m == EscalationMail
}

type Severity string

const (
	SeverityP1 Severity = "P1"
	SeverityP2 Severity = "P2"
	SeverityP3 Severity = "P3"
	SeverityP4 Severity = "P4"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityP1, SeverityP2, SeverityP3, SeverityP4:
		return true
	}
	return false
}

// Source cites a knowledge record the answer relies on.
type Source struct {
	DocID          string  `json:"doc_id"`
	Title          string  `json:"title"`
	Section        string  `json:"section"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Escalation is the hand-off metadata. Every field is nullable.
type Escalation struct {
	Method   *EscalationMethod `json:"method"`
	TicketID *string           `json:"ticket_id"`
	MailID   *string           `json:"mail_id"`
	Summary  *string           `json:"summary"`
	Severity *Severity         `json:"severity"`
}

// StructuredAnswer is the JSON contract the generation capability must satisfy.
type StructuredAnswer struct {
	UserResponse        string     `json:"user_response"`
	ClarifyingQuestions []string   `json:"clarifying_questions"`
	Action              Action     `json:"action"`
	ConfidenceLevel     float64    `json:"confidence_level"`
	Sources             []Source   `json:"sources"`
	ComplianceNote      string     `json:"compliance_note"`
	Escalation          Escalation `json:"escalation"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is one role-tagged message of the history supplied by the caller.
type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

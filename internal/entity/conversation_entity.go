package entity

import (
	"time"

	"ai-helpdesk-be/pkg/assistant"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessagePending   MessageStatus = "pending"
	MessageDelivered MessageStatus = "delivered"
	MessageFailed    MessageStatus = "failed"
)

// ConversationMessage is one bubble of a chat session. Assistant messages carry the structured
// answer they were rendered from; the greeting has none.
type ConversationMessage struct {
	Id                uuid.UUID                   `json:"id"`
	Role              assistant.Role              `json:"role"`
	Text              string                      `json:"text"`
	Status            MessageStatus               `json:"status"`
	Greeting          bool                        `json:"greeting,omitempty"`
	Answer            *assistant.StructuredAnswer `json:"answer,omitempty"`
	UnverifiedSources []assistant.Source          `json:"unverified_sources,omitempty"`
	ErrorKind         string                      `json:"error_kind,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
}

type Conversation struct {
	Id        uuid.UUID              `json:"id"`
	Messages  []*ConversationMessage `json:"messages"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (c *Conversation) FindMessage(id uuid.UUID) *ConversationMessage {
	for _, m := range c.Messages {
		if m.Id == id {
			return m
		}
	}
	return nil
}

// Turns returns the delivered exchange as assistant turns, oldest first. The greeting and failed
// messages are not part of the history sent to the model.
func (c *Conversation) Turns() []assistant.ConversationTurn {
	turns := make([]assistant.ConversationTurn, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Greeting || m.Status != MessageDelivered {
			continue
		}
		turns = append(turns, assistant.ConversationTurn{Role: m.Role, Text: m.Text})
	}
	return turns
}

// Clone copies the conversation and its messages. Structured answers are shared; they are never
// mutated after parsing.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]*ConversationMessage, len(c.Messages))
	for i, m := range c.Messages {
		msg := *m
		out.Messages[i] = &msg
	}
	return &out
}

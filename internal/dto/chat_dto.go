package dto

import (
	"time"

	"ai-helpdesk-be/pkg/assistant"

	"github.com/google/uuid"
)

type TurnRequest struct {
	Role string `json:"role" validate:"required,oneof=user assistant"`
	Text string `json:"text" validate:"required"`
}

// AskRequest is the stateless variant: the caller owns the history.
type AskRequest struct {
	Question string        `json:"question" validate:"required,max=4000"`
	History  []TurnRequest `json:"history,omitempty" validate:"max=50,dive"`
}

type AskResponse struct {
	Answer            *assistant.StructuredAnswer `json:"answer"`
	ContextDocIds     []string                    `json:"context_doc_ids"`
	UnverifiedSources []assistant.Source          `json:"unverified_sources,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type MessageResponse struct {
	Id                uuid.UUID                   `json:"id"`
	Role              string                      `json:"role"`
	Text              string                      `json:"text"`
	Status            string                      `json:"status"`
	Greeting          bool                        `json:"greeting,omitempty"`
	Answer            *assistant.StructuredAnswer `json:"answer,omitempty"`
	UnverifiedSources []assistant.Source          `json:"unverified_sources,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
}

type SessionResponse struct {
	Id        uuid.UUID         `json:"id"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ExchangeResponse is one question with its reply.
type ExchangeResponse struct {
	SessionId uuid.UUID       `json:"session_id"`
	Question  MessageResponse `json:"question"`
	Reply     MessageResponse `json:"reply"`
}

// FailedMessageData accompanies an error response so the client can offer a retry.
type FailedMessageData struct {
	Retryable bool       `json:"retryable"`
	MessageId *uuid.UUID `json:"message_id,omitempty"`
	Kind      string     `json:"kind,omitempty"`
}

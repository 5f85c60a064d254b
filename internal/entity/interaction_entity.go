package entity

import (
	"time"

	"ai-helpdesk-be/pkg/assistant"

	"github.com/google/uuid"
)

const (
	InteractionAnswered = "answered"
	InteractionFailed   = "failed"
)

type Interaction struct {
	Id            uuid.UUID
	SessionId     *uuid.UUID
	MessageId     *uuid.UUID
	Question      string
	Status        string
	ErrorKind     string
	Answer        *assistant.StructuredAnswer
	ContextDocIds []string
	Latency       time.Duration
	CreatedAt     time.Time
}

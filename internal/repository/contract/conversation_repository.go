package contract

import (
	"context"
	"errors"

	"ai-helpdesk-be/internal/entity"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository keeps live chat sessions. Sessions expire after the store's TTL.
type ConversationRepository interface {
	Save(ctx context.Context, conversation *entity.Conversation) error
	// Get returns ErrConversationNotFound for unknown or expired sessions.
	Get(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

package memory

import (
	"context"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type ConversationRepository struct {
	cache *cache.Cache
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository keeps sessions for ttl after their last save and purges expired
// items every 10 minutes.
func NewConversationRepository(ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	r.cache.Set(conversation.Id.String(), conversation.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.Conversation).Clone(), nil
	}
	return nil, contract.ErrConversationNotFound
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, found := r.cache.Get(id.String()); !found {
		return contract.ErrConversationNotFound
	}
	r.cache.Delete(id.String())
	return nil
}

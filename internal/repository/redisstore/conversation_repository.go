package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "helpdesk:conversation:"

// ConversationRepository stores sessions as JSON so every instance behind the load balancer
// sees the same conversation.
type ConversationRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository(rdb *redis.Client, ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ConversationRepository{rdb: rdb, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := r.rdb.Set(ctx, key(conversation.Id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	data, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contract.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var conv entity.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n == 0 {
		return contract.ErrConversationNotFound
	}
	return nil
}

package redisstore

import (
	"context"
	"testing"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/pkg/assistant"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T, ttl time.Duration) (*ConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewConversationRepository(client, ttl), mr
}

func TestConversationRepository_RoundTrip(t *testing.T) {
	repo, mr := setupRepo(t, time.Hour)
	ctx := context.Background()

	desk := assistant.EscalationDesk
	conv := &entity.Conversation{
		Id:        uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Messages: []*entity.ConversationMessage{
			{Id: uuid.New(), Role: assistant.RoleAssistant, Text: "Hola", Status: entity.MessageDelivered, Greeting: true},
			{Id: uuid.New(), Role: assistant.RoleUser, Text: "Mi laptop no enciende", Status: entity.MessageDelivered},
			{
				Id: uuid.New(), Role: assistant.RoleAssistant, Text: "Escalado", Status: entity.MessageDelivered,
				Answer: &assistant.StructuredAnswer{
					Action:     assistant.ActionEscalateToDesk,
					Sources:    []assistant.Source{},
					Escalation: assistant.Escalation{Method: &desk},
				},
			},
		},
	}

	require.NoError(t, repo.Save(ctx, conv))
	assert.True(t, mr.Exists(keyPrefix+conv.Id.String()))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+conv.Id.String()))

	got, err := repo.Get(ctx, conv.Id)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.True(t, got.Messages[0].Greeting)
	require.NotNil(t, got.Messages[2].Answer)
	assert.Equal(t, assistant.EscalationDesk, *got.Messages[2].Answer.Escalation.Method)
	assert.Len(t, got.Turns(), 2)
}

func TestConversationRepository_Expiry(t *testing.T) {
	repo, mr := setupRepo(t, time.Minute)
	ctx := context.Background()

	conv := &entity.Conversation{Id: uuid.New()}
	require.NoError(t, repo.Save(ctx, conv))

	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, conv.Id)
	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
}

func TestConversationRepository_Delete(t *testing.T) {
	repo, _ := setupRepo(t, time.Minute)
	ctx := context.Background()

	conv := &entity.Conversation{Id: uuid.New()}
	require.NoError(t, repo.Save(ctx, conv))

	require.NoError(t, repo.Delete(ctx, conv.Id))
	assert.ErrorIs(t, repo.Delete(ctx, conv.Id), contract.ErrConversationNotFound)
}

package memory

import (
	"context"
	"testing"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/pkg/assistant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRepository_SaveGetDelete(t *testing.T) {
	repo := NewConversationRepository(time.Hour)
	ctx := context.Background()

	conv := &entity.Conversation{Id: uuid.New(), CreatedAt: time.Now()}
	conv.Messages = append(conv.Messages, &entity.ConversationMessage{
		Id: uuid.New(), Role: assistant.RoleUser, Text: "hola", Status: entity.MessageDelivered,
	})
	require.NoError(t, repo.Save(ctx, conv))

	// mutations after Save are not visible to readers
	conv.Messages[0].Text = "changed"

	got, err := repo.Get(ctx, conv.Id)
	require.NoError(t, err)
	assert.Equal(t, "hola", got.Messages[0].Text)

	require.NoError(t, repo.Delete(ctx, conv.Id))
	_, err = repo.Get(ctx, conv.Id)
	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, conv.Id), contract.ErrConversationNotFound)
}

func TestConversationRepository_Expires(t *testing.T) {
	repo := NewConversationRepository(20 * time.Millisecond)
	conv := &entity.Conversation{Id: uuid.New()}
	require.NoError(t, repo.Save(context.Background(), conv))

	time.Sleep(40 * time.Millisecond)

	_, err := repo.Get(context.Background(), conv.Id)
	assert.ErrorIs(t, err, contract.ErrConversationNotFound)
}

package implementation

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.KnowledgeRecord{}, &model.Interaction{}))
	return db
}

func TestKnowledgeRecordRepository_SearchByTerms(t *testing.T) {
	db := openTestDB(t)
	repo := NewKnowledgeRecordRepository(db)
	ctx := context.Background()

	docId := "TEST-" + uuid.NewString()[:8]
	t.Cleanup(func() { db.Unscoped().Where("doc_id = ?", docId).Delete(&model.KnowledgeRecord{}) })

	rec := &entity.KnowledgeRecord{
		DocId:          docId,
		Title:          "Procedimiento de impresoras",
		Section:        "1.1 Alta de impresora",
		VersionDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Text:           "Las impresoras de red se solicitan por el portal.",
		RelevanceScore: 0.5,
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.RelevanceScore = 0.75
	require.NoError(t, repo.Upsert(ctx, rec))

	found, err := repo.FindOne(ctx, specification.ByDocID{DocID: docId})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.InDelta(t, 0.75, found.RelevanceScore, 1e-9)

	records, err := repo.SearchByTerms(ctx, []string{"impresoras"}, 10)
	require.NoError(t, err)
	var ids []string
	for _, r := range records {
		ids = append(ids, r.DocID)
	}
	assert.Contains(t, ids, docId)
}

func TestInteractionRepository_Create(t *testing.T) {
	db := openTestDB(t)
	repo := NewInteractionRepository(db)
	ctx := context.Background()

	session := uuid.New()
	t.Cleanup(func() { db.Where("session_id = ?", session).Delete(&model.Interaction{}) })

	i := &entity.Interaction{
		SessionId: &session,
		Question:  "¿monitor?",
		Status:    entity.InteractionAnswered,
		Answer:    &assistant.StructuredAnswer{Action: assistant.ActionRespond, ConfidenceLevel: 0.9},
		Latency:   time.Second,
	}
	require.NoError(t, repo.Create(ctx, i))
	assert.NotEqual(t, uuid.Nil, i.Id)

	count, err := repo.Count(ctx, specification.BySessionID{SessionID: session})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

package mapper

import (
	"testing"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestKnowledgeMapper_RecordConversion(t *testing.T) {
	m := NewKnowledgeMapper()
	fixed := knowledge.FixedRecords()[0]

	e, err := m.FromRecord(fixed)
	require.NoError(t, err)
	assert.Equal(t, 2024, e.VersionDate.Year())

	stored, err := m.ToEntity(m.ToModel(e))
	require.NoError(t, err)
	assert.Equal(t, fixed, m.ToRecord(stored))
}

func TestKnowledgeMapper_CorruptKeywords(t *testing.T) {
	_, err := NewKnowledgeMapper().ToEntity(&model.KnowledgeRecord{DocId: "POL-RW-2024", Keywords: datatypes.JSON(`{"copilot"`)})
	assert.ErrorContains(t, err, "POL-RW-2024")
}

func TestKnowledgeMapper_FromRecordRejectsBadDate(t *testing.T) {
	_, err := NewKnowledgeMapper().FromRecord(knowledge.Record{DocID: "X", VersionDate: "01/03/2024"})
	assert.Error(t, err)
}

func TestInteractionMapper_ToModel(t *testing.T) {
	session := uuid.New()
	i := &entity.Interaction{
		Id:            uuid.New(),
		SessionId:     &session,
		Question:      "¿monitor?",
		Status:        entity.InteractionAnswered,
		Answer:        &assistant.StructuredAnswer{Action: assistant.ActionRespond, ConfidenceLevel: 0.8},
		ContextDocIds: []string{"POL-RW-2024"},
		Latency:       1500 * time.Millisecond,
	}

	m, err := NewInteractionMapper().ToModel(i)

	require.NoError(t, err)
	require.NotNil(t, m.Action)
	assert.Equal(t, "respond", *m.Action)
	assert.Equal(t, int64(1500), m.LatencyMs)
	assert.Nil(t, m.ErrorKind)
	assert.JSONEq(t, `["POL-RW-2024"]`, string(m.ContextDocIds))

	back, err := NewInteractionMapper().ToEntity(m)
	require.NoError(t, err)
	assert.Equal(t, assistant.ActionRespond, back.Answer.Action)
	assert.Equal(t, []string{"POL-RW-2024"}, back.ContextDocIds)
}

func TestInteractionMapper_FailedHasNoAnswer(t *testing.T) {
	m, err := NewInteractionMapper().ToModel(&entity.Interaction{
		Question:  "x",
		Status:    entity.InteractionFailed,
		ErrorKind: "generation",
	})

	require.NoError(t, err)
	assert.Nil(t, m.Action)
	assert.Empty(t, m.Answer)
	require.NotNil(t, m.ErrorKind)
	assert.JSONEq(t, `[]`, string(m.ContextDocIds))
}

func TestInteractionMapper_CorruptStoredJSON(t *testing.T) {
	mapper := NewInteractionMapper()

	_, err := mapper.ToEntity(&model.Interaction{Id: uuid.New(), Answer: datatypes.JSON(`{"action":`)})
	assert.ErrorContains(t, err, "decode answer")

	_, err = mapper.ToEntity(&model.Interaction{Id: uuid.New(), ContextDocIds: datatypes.JSON(`"POL-RW-2024"`)})
	assert.ErrorContains(t, err, "decode context doc ids")
}

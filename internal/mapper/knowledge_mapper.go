package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/pkg/knowledge"

	"gorm.io/datatypes"
)

// VersionDateLayout is how version dates travel in retrieved context.
const VersionDateLayout = "2006-01-02"

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ToEntity(r *model.KnowledgeRecord) (*entity.KnowledgeRecord, error) {
	if r == nil {
		return nil, nil
	}

	var keywords []string
	if len(r.Keywords) > 0 {
		if err := json.Unmarshal(r.Keywords, &keywords); err != nil {
			return nil, fmt.Errorf("knowledge record %s: decode keywords: %w", r.DocId, err)
		}
	}

	return &entity.KnowledgeRecord{
		Id:             r.Id,
		DocId:          r.DocId,
		Title:          r.Title,
		Section:        r.Section,
		VersionDate:    time.Time(r.VersionDate),
		Text:           r.Text,
		RelevanceScore: r.RelevanceScore,
		Keywords:       keywords,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

func (m *KnowledgeMapper) ToModel(r *entity.KnowledgeRecord) *model.KnowledgeRecord {
	if r == nil {
		return nil
	}

	var keywords datatypes.JSON
	if len(r.Keywords) > 0 {
		keywords, _ = json.Marshal(r.Keywords)
	}

	return &model.KnowledgeRecord{
		Id:             r.Id,
		DocId:          r.DocId,
		Title:          r.Title,
		Section:        r.Section,
		VersionDate:    datatypes.Date(r.VersionDate),
		Text:           r.Text,
		RelevanceScore: r.RelevanceScore,
		Keywords:       keywords,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ToRecord is the shape handed to the assistant as retrieved context.
func (m *KnowledgeMapper) ToRecord(r *entity.KnowledgeRecord) knowledge.Record {
	return knowledge.Record{
		DocID:          r.DocId,
		Title:          r.Title,
		Section:        r.Section,
		VersionDate:    r.VersionDate.Format(VersionDateLayout),
		Text:           r.Text,
		RelevanceScore: r.RelevanceScore,
	}
}

func (m *KnowledgeMapper) FromRecord(r knowledge.Record) (*entity.KnowledgeRecord, error) {
	versionDate, err := time.Parse(VersionDateLayout, r.VersionDate)
	if err != nil {
		return nil, err
	}
	return &entity.KnowledgeRecord{
		DocId:          r.DocID,
		Title:          r.Title,
		Section:        r.Section,
		VersionDate:    versionDate,
		Text:           r.Text,
		RelevanceScore: r.RelevanceScore,
	}, nil
}

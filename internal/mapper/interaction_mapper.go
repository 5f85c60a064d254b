package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/pkg/assistant"

	"gorm.io/datatypes"
)

type InteractionMapper struct{}

func NewInteractionMapper() *InteractionMapper {
	return &InteractionMapper{}
}

func (m *InteractionMapper) ToModel(i *entity.Interaction) (*model.Interaction, error) {
	if i == nil {
		return nil, nil
	}

	out := &model.Interaction{
		Id:        i.Id,
		SessionId: i.SessionId,
		MessageId: i.MessageId,
		Question:  i.Question,
		Status:    i.Status,
		LatencyMs: i.Latency.Milliseconds(),
		CreatedAt: i.CreatedAt,
	}

	if i.ErrorKind != "" {
		kind := i.ErrorKind
		out.ErrorKind = &kind
	}

	if i.Answer != nil {
		raw, err := json.Marshal(i.Answer)
		if err != nil {
			return nil, err
		}
		out.Answer = datatypes.JSON(raw)
		action := string(i.Answer.Action)
		confidence := i.Answer.ConfidenceLevel
		out.Action = &action
		out.ConfidenceLevel = &confidence
	}

	docIds := i.ContextDocIds
	if docIds == nil {
		docIds = []string{}
	}
	raw, err := json.Marshal(docIds)
	if err != nil {
		return nil, err
	}
	out.ContextDocIds = datatypes.JSON(raw)

	return out, nil
}

func (m *InteractionMapper) ToEntity(i *model.Interaction) (*entity.Interaction, error) {
	if i == nil {
		return nil, nil
	}

	out := &entity.Interaction{
		Id:        i.Id,
		SessionId: i.SessionId,
		MessageId: i.MessageId,
		Question:  i.Question,
		Status:    i.Status,
		Latency:   time.Duration(i.LatencyMs) * time.Millisecond,
		CreatedAt: i.CreatedAt,
	}
	if i.ErrorKind != nil {
		out.ErrorKind = *i.ErrorKind
	}
	if len(i.Answer) > 0 {
		var answer assistant.StructuredAnswer
		if err := json.Unmarshal(i.Answer, &answer); err != nil {
			return nil, fmt.Errorf("interaction %s: decode answer: %w", i.Id, err)
		}
		out.Answer = &answer
	}
	if len(i.ContextDocIds) > 0 {
		if err := json.Unmarshal(i.ContextDocIds, &out.ContextDocIds); err != nil {
			return nil, fmt.Errorf("interaction %s: decode context doc ids: %w", i.Id, err)
		}
	}
	return out, nil
}

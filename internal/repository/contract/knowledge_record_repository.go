package contract

import (
	"context"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
)

type KnowledgeRecordRepository interface {
	Upsert(ctx context.Context, record *entity.KnowledgeRecord) error
	Delete(ctx context.Context, docId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

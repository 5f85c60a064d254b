package unitofwork

import (
	"context"

	"ai-helpdesk-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeRecordRepository() contract.KnowledgeRecordRepository
	InteractionRepository() contract.InteractionRepository
}

package implementation

import (
	"context"
	"errors"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/mapper"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/pkg/knowledge"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

var (
	_ contract.KnowledgeRecordRepository = (*KnowledgeRecordRepositoryImpl)(nil)
	_ knowledge.RecordStore              = (*KnowledgeRecordRepositoryImpl)(nil)
)

func NewKnowledgeRecordRepository(db *gorm.DB) *KnowledgeRecordRepositoryImpl {
	return &KnowledgeRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert inserts the record or refreshes the row with the same doc_id.
func (r *KnowledgeRecordRepositoryImpl) Upsert(ctx context.Context, record *entity.KnowledgeRecord) error {
	m := r.mapper.ToModel(record)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "section", "version_date", "text", "relevance_score", "keywords", "updated_at", "deleted_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	stored, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*record = *stored
	return nil
}

func (r *KnowledgeRecordRepositoryImpl) Delete(ctx context.Context, docId string) error {
	return r.db.WithContext(ctx).Where("doc_id = ?", docId).Delete(&model.KnowledgeRecord{}).Error
}

func (r *KnowledgeRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeRecord, error) {
	var m model.KnowledgeRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *KnowledgeRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeRecord, error) {
	var models []*model.KnowledgeRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.KnowledgeRecord, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *KnowledgeRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchByTerms backs the store retriever: records matching any term, best scored first.
func (r *KnowledgeRecordRepositoryImpl) SearchByTerms(ctx context.Context, terms []string, limit int) ([]knowledge.Record, error) {
	found, err := r.FindAll(ctx,
		specification.MatchingAnyTerm{Terms: terms},
		specification.OrderBy{Field: "relevance_score", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	records := make([]knowledge.Record, 0, len(found))
	for _, e := range found {
		records = append(records, r.mapper.ToRecord(e))
	}
	return records, nil
}

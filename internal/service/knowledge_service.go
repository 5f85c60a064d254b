package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/mapper"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/knowledge"

	"github.com/google/uuid"
)

const knowledgeModule = "KnowledgeService"

var (
	ErrKnowledgeStoreUnavailable = errors.New("knowledge store is not configured")
	ErrKnowledgeRecordNotFound   = errors.New("knowledge record not found")
)

type IKnowledgeService interface {
	Search(ctx context.Context, query string) ([]dto.KnowledgeRecordResponse, error)
	List(ctx context.Context) ([]dto.KnowledgeRecordResponse, error)
	Upsert(ctx context.Context, req *dto.UpsertKnowledgeRecordRequest) (*dto.KnowledgeRecordResponse, error)
	Delete(ctx context.Context, docId string) error
}

type knowledgeService struct {
	retriever  knowledge.Retriever
	uowFactory unitofwork.RepositoryFactory // nil without a database
	mapper     *mapper.KnowledgeMapper
	logger     logger.ILogger
}

func NewKnowledgeService(retriever knowledge.Retriever, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IKnowledgeService {
	return &knowledgeService{
		retriever:  retriever,
		uowFactory: uowFactory,
		mapper:     mapper.NewKnowledgeMapper(),
		logger:     log,
	}
}

// Search runs the same retrieval the assistant uses, without generation.
func (s *knowledgeService) Search(ctx context.Context, query string) ([]dto.KnowledgeRecordResponse, error) {
	records, err := s.retriever.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	res := make([]dto.KnowledgeRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, dto.KnowledgeRecordResponse{
			DocId:          r.DocID,
			Title:          r.Title,
			Section:        r.Section,
			VersionDate:    r.VersionDate,
			Text:           r.Text,
			RelevanceScore: r.RelevanceScore,
		})
	}
	return res, nil
}

func (s *knowledgeService) List(ctx context.Context) ([]dto.KnowledgeRecordResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrKnowledgeStoreUnavailable
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.KnowledgeRecordRepository().FindAll(ctx, specification.OrderBy{Field: "doc_id"})
	if err != nil {
		return nil, err
	}
	res := make([]dto.KnowledgeRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, toKnowledgeRecordResponse(r))
	}
	return res, nil
}

func (s *knowledgeService) Upsert(ctx context.Context, req *dto.UpsertKnowledgeRecordRequest) (*dto.KnowledgeRecordResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrKnowledgeStoreUnavailable
	}
	versionDate, err := time.Parse(mapper.VersionDateLayout, req.VersionDate)
	if err != nil {
		return nil, err
	}

	record := &entity.KnowledgeRecord{
		Id:             uuid.New(),
		DocId:          strings.TrimSpace(req.DocId),
		Title:          req.Title,
		Section:        req.Section,
		VersionDate:    versionDate,
		Text:           req.Text,
		RelevanceScore: req.RelevanceScore,
		Keywords:       req.Keywords,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.KnowledgeRecordRepository().Upsert(ctx, record); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info(knowledgeModule, "Knowledge record saved", map[string]interface{}{"doc_id": record.DocId})
	res := toKnowledgeRecordResponse(record)
	return &res, nil
}

func (s *knowledgeService) Delete(ctx context.Context, docId string) error {
	if s.uowFactory == nil {
		return ErrKnowledgeStoreUnavailable
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.KnowledgeRecordRepository().FindOne(ctx, specification.ByDocID{DocID: docId})
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrKnowledgeRecordNotFound
	}
	if err := uow.KnowledgeRecordRepository().Delete(ctx, docId); err != nil {
		return err
	}
	s.logger.Info(knowledgeModule, "Knowledge record deleted", map[string]interface{}{"doc_id": docId})
	return nil
}

func toKnowledgeRecordResponse(r *entity.KnowledgeRecord) dto.KnowledgeRecordResponse {
	return dto.KnowledgeRecordResponse{
		DocId:          r.DocId,
		Title:          r.Title,
		Section:        r.Section,
		VersionDate:    r.VersionDate.Format(mapper.VersionDateLayout),
		Text:           r.Text,
		RelevanceScore: r.RelevanceScore,
		Keywords:       r.Keywords,
	}
}

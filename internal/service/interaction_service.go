package service

import (
	"context"
	"time"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const defaultInteractionLimit = 20

type IInteractionService interface {
	List(ctx context.Context, req *dto.InteractionListRequest) (*dto.InteractionListResponse, error)
}

type interactionService struct {
	uowFactory unitofwork.RepositoryFactory // nil without a database
}

func NewInteractionService(uowFactory unitofwork.RepositoryFactory) IInteractionService {
	return &interactionService{uowFactory: uowFactory}
}

// InteractionFilters turns the request into query specifications. Pagination is not included.
func InteractionFilters(req *dto.InteractionListRequest) ([]specification.Specification, error) {
	var specs []specification.Specification
	if req.SessionId != "" {
		id, err := uuid.Parse(req.SessionId)
		if err != nil {
			return nil, err
		}
		specs = append(specs, specification.BySessionID{SessionID: id})
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: req.Status})
	}
	if req.Action != "" {
		specs = append(specs, specification.ByAction{Action: req.Action})
	}
	if req.Since != "" {
		since, err := time.Parse("2006-01-02", req.Since)
		if err != nil {
			return nil, err
		}
		specs = append(specs, specification.CreatedSince{Since: since})
	}
	return specs, nil
}

func (s *interactionService) List(ctx context.Context, req *dto.InteractionListRequest) (*dto.InteractionListResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrKnowledgeStoreUnavailable
	}

	filters, err := InteractionFilters(req)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultInteractionLimit
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).InteractionRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	items, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.InteractionListResponse{
		Items: make([]dto.InteractionResponse, 0, len(items)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, i := range items {
		res.Items = append(res.Items, toInteractionResponse(i))
	}
	return res, nil
}

func toInteractionResponse(i *entity.Interaction) dto.InteractionResponse {
	res := dto.InteractionResponse{
		Id:            i.Id,
		SessionId:     i.SessionId,
		MessageId:     i.MessageId,
		Question:      i.Question,
		Status:        i.Status,
		ErrorKind:     i.ErrorKind,
		ContextDocIds: i.ContextDocIds,
		LatencyMs:     i.Latency.Milliseconds(),
		CreatedAt:     i.CreatedAt,
	}
	if res.ContextDocIds == nil {
		res.ContextDocIds = []string{}
	}
	if i.Answer != nil {
		res.Action = string(i.Answer.Action)
		confidence := i.Answer.ConfidenceLevel
		res.ConfidenceLevel = &confidence
	}
	return res
}

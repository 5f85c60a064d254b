package service

import (
	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/logger"
)

const defaultLogLimit = 50

type ILogService interface {
	List(req *dto.LogListRequest) ([]dto.LogResponse, error)
	Show(id string) (*dto.LogResponse, error)
}

type logService struct {
	reader logger.LogReader
}

func NewLogService(reader logger.LogReader) ILogService {
	return &logService{reader: reader}
}

func (s *logService) List(req *dto.LogListRequest) ([]dto.LogResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	entries, err := s.reader.GetLogs(req.Level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	res := make([]dto.LogResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toLogResponse(e))
	}
	return res, nil
}

func (s *logService) Show(id string) (*dto.LogResponse, error) {
	entry, err := s.reader.GetLogById(id)
	if err != nil {
		return nil, err
	}
	res := toLogResponse(*entry)
	return &res, nil
}

func toLogResponse(e logger.LogEntry) dto.LogResponse {
	return dto.LogResponse{
		Id:        e.Id,
		Timestamp: e.Timestamp,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		Details:   e.Details,
	}
}

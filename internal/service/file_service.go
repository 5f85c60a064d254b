package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/pkg/knowledgefiles"

	"github.com/gofiber/fiber/v2"
)

const fileModule = "FileService"

var allowedFileExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
}

// FileStore is the remote knowledge-file API.
type FileStore interface {
	List(ctx context.Context) ([]knowledgefiles.File, error)
	Upload(ctx context.Context, filename string, content io.Reader) (*knowledgefiles.File, error)
	Delete(ctx context.Context, fileID string) error
}

type IFileService interface {
	List(ctx context.Context) ([]dto.KnowledgeFileResponse, error)
	Upload(ctx context.Context, filename string, content io.Reader) (*dto.KnowledgeFileResponse, error)
	Delete(ctx context.Context, fileId string) error
}

type fileService struct {
	store  FileStore
	logger logger.ILogger
}

func NewFileService(store FileStore, log logger.ILogger) IFileService {
	return &fileService{store: store, logger: log}
}

func (s *fileService) List(ctx context.Context) ([]dto.KnowledgeFileResponse, error) {
	files, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dto.KnowledgeFileResponse, 0, len(files))
	for _, f := range files {
		res = append(res, toFileResponse(f))
	}
	return res, nil
}

func (s *fileService) Upload(ctx context.Context, filename string, content io.Reader) (*dto.KnowledgeFileResponse, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == "/" || name == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file name is required")
	}
	if !allowedFileExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unsupported file type")
	}

	file, err := s.store.Upload(ctx, name, content)
	if err != nil {
		s.logger.Error(fileModule, "Upload failed", map[string]interface{}{"file": name, "error": err})
		return nil, err
	}

	s.logger.Info(fileModule, "Knowledge file uploaded", map[string]interface{}{"file": name, "id": file.ID})
	res := toFileResponse(*file)
	return &res, nil
}

func (s *fileService) Delete(ctx context.Context, fileId string) error {
	if strings.TrimSpace(fileId) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "file id is required")
	}
	if err := s.store.Delete(ctx, fileId); err != nil {
		return err
	}
	s.logger.Info(fileModule, "Knowledge file deleted", map[string]interface{}{"id": fileId})
	return nil
}

func toFileResponse(f knowledgefiles.File) dto.KnowledgeFileResponse {
	res := dto.KnowledgeFileResponse{
		Id:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		Status:      f.Status,
	}
	if !f.UploadedAt.IsZero() {
		uploaded := f.UploadedAt
		res.UploadedAt = &uploaded
	}
	return res
}

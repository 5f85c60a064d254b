package dto

import "time"

type KnowledgeFileResponse struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Size        int64      `json:"size"`
	ContentType string     `json:"content_type,omitempty"`
	Status      string     `json:"status,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
}

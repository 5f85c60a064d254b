package dto

import (
	"time"

	"github.com/google/uuid"
)

type InteractionListRequest struct {
	SessionId string `query:"session_id" validate:"omitempty,uuid"`
	Status    string `query:"status" validate:"omitempty,oneof=answered failed"`
	Action    string `query:"action" validate:"omitempty,oneof=respond vector_search consult_engine escalate_to_desk escalate_to_mail"`
	Since     string `query:"since" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `query:"page" validate:"gte=0"`
	Limit     int    `query:"limit" validate:"gte=0,lte=100"`
}

type InteractionResponse struct {
	Id              uuid.UUID  `json:"id"`
	SessionId       *uuid.UUID `json:"session_id,omitempty"`
	MessageId       *uuid.UUID `json:"message_id,omitempty"`
	Question        string     `json:"question"`
	Status          string     `json:"status"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	Action          string     `json:"action,omitempty"`
	ConfidenceLevel *float64   `json:"confidence_level,omitempty"`
	ContextDocIds   []string   `json:"context_doc_ids"`
	LatencyMs       int64      `json:"latency_ms"`
	CreatedAt       time.Time  `json:"created_at"`
}

type InteractionListResponse struct {
	Items []InteractionResponse `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

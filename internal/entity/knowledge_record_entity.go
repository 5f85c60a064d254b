package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeRecord struct {
	Id             uuid.UUID
	DocId          string
	Title          string
	Section        string
	VersionDate    time.Time
	Text           string
	RelevanceScore float64
	Keywords       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

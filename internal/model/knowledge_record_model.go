package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeRecord struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocId          string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Title          string         `gorm:"type:text;not null"`
	Section        string         `gorm:"type:text;not null"`
	VersionDate    datatypes.Date `gorm:"not null"`
	Text           string         `gorm:"type:text;not null"`
	RelevanceScore float64        `gorm:"type:numeric(4,3);not null;default:0"`
	Keywords       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (KnowledgeRecord) TableName() string {
	return "knowledge_records"
}

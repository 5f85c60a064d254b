package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Interaction is the audit row written for every answered (or failed) question.
type Interaction struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId       *uuid.UUID     `gorm:"type:uuid;index"`
	MessageId       *uuid.UUID     `gorm:"type:uuid"`
	Question        string         `gorm:"type:text;not null"`
	Status          string         `gorm:"type:varchar(20);not null;index"`
	Action          *string        `gorm:"type:varchar(32);index"`
	ConfidenceLevel *float64       `gorm:"type:numeric(4,3)"`
	ErrorKind       *string        `gorm:"type:varchar(32)"`
	Answer          datatypes.JSON `gorm:"type:jsonb"`
	ContextDocIds   datatypes.JSON `gorm:"type:jsonb"`
	LatencyMs       int64          `gorm:"not null;default:0"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index"`
}

func (Interaction) TableName() string {
	return "interactions"
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of state transitions. Rows are written by
// the audit worker and never updated or deleted.
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActorID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ActionType   string    `gorm:"type:varchar(50);not null"`
	ResourceType string    `gorm:"type:varchar(50);not null"`
	ResourceID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OldValue     *string   `gorm:"type:text"`
	NewValue     *string   `gorm:"type:text"`
	CreatedAt    time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification delivery statuses.
const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationError   = "ERROR"
)

// Notification is one delivery attempt record per recipient. The notification
// worker inserts rows and attempts webhook delivery; the retry cron re-drives
// rows stuck in PENDING with next_retry_at in the past.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Event       string    `gorm:"type:varchar(50);not null"`
	ActorID     uuid.UUID `gorm:"type:uuid;not null"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Payload     string    `gorm:"type:jsonb;not null;default:'{}'"`
	Status      string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RetryCount  int       `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

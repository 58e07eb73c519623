package model

import (
	"time"

	"github.com/google/uuid"
)

// Schedule statuses. Archived schedules are read-only history and are never
// touched by conflict recomputation.
const (
	ScheduleDraft     = "DRAFT"
	SchedulePublished = "PUBLISHED"
	ScheduleArchived  = "ARCHIVED"
)

// ConflictTimeOff marks an entry overlapping an approved absence. The flag is
// advisory — downstream schedulers resolve it manually.
const ConflictTimeOff = "TIME_OFF"

// Schedule is a venue rota covering a date span.
type Schedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VenueID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Venue *Venue `gorm:"foreignKey:VenueID"`
}

// ScheduleEntry is a single shift assignment.
type ScheduleEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Date       time.Time `gorm:"type:date;not null"`
	StartTime  string    `gorm:"type:varchar(5);not null"` // HH:MM
	EndTime    string    `gorm:"type:varchar(5);not null"` // HH:MM
	// ConflictType is nil while the entry is clean; set to ConflictTimeOff
	// when an approved absence overlaps it.
	ConflictType *string `gorm:"type:varchar(30)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Schedule *Schedule `gorm:"foreignKey:ScheduleID"`
}

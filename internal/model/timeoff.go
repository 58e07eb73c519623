package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Time-off request statuses. PENDING is the only non-terminal state.
const (
	TimeOffPending   = "PENDING"
	TimeOffApproved  = "APPROVED"
	TimeOffRejected  = "REJECTED"
	TimeOffCancelled = "CANCELLED"
)

// TimeOffRequest is the only mutable shared resource in the request workflow.
// Status/reviewer fields are written exclusively through the version-guarded
// conditional update in TimeOffRepository — no other code path may touch them.
type TimeOffRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	// Days is the inclusive span in days, fractional for half-day policies.
	Days       decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	Reason     *string         `gorm:"type:varchar(500)"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ReviewerID *uuid.UUID      `gorm:"type:uuid"`
	ReviewedAt *time.Time
	Notes      *string `gorm:"type:varchar(500)"`
	// Version increments exactly once per successful review transition.
	Version   int `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User     *User `gorm:"foreignKey:UserID"`
	Reviewer *User `gorm:"foreignKey:ReviewerID"`
}

// Terminal reports whether the request has left PENDING. All terminal states
// are absorbing.
func (r *TimeOffRequest) Terminal() bool { return r.Status != TimeOffPending }

// Overlaps applies the inclusive overlap test against another date range.
func (r *TimeOffRequest) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

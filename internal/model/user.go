package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User stores system users with role-based access.
// Role: "STAFF" | "MANAGER" | "ADMIN"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// LeaveBalanceDays is the remaining time-off allowance in days.
	// Fractional values allow half-day policies.
	LeaveBalanceDays decimal.Decimal `gorm:"type:decimal(6,2);not null;default:25"`
	Active           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

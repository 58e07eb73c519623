package model

import (
	"time"

	"github.com/google/uuid"
)

// Venue is the tenant-like scoping unit. Deactivating a venue must
// instantaneously remove all access derived from it — every resolver query
// joins against Active = true, so membership rows never need touching.
type Venue struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Timezone  string    `gorm:"type:varchar(64);not null;default:'UTC'"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links a user to a venue. At most one membership per user may be
// primary; the partial unique index enforcing that lives in the schema patches.
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_venue"`
	VenueID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_venue"`
	IsPrimary bool      `gorm:"not null;default:false"`
	CreatedAt time.Time

	User  *User  `gorm:"foreignKey:UserID"`
	Venue *Venue `gorm:"foreignKey:VenueID"`
}

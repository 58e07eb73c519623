package repository

import (
	"context"

	"staffhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VenueRepository covers venues and memberships. Every query that feeds the
// access layer joins against venues.active = true so inactive venues are
// excluded at the source — no downstream consumer filters them out again.
type VenueRepository interface {
	Create(ctx context.Context, v *model.Venue) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venue, error)
	List(ctx context.Context, includeInactive bool) ([]model.Venue, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	AddMember(ctx context.Context, m *model.Membership) error
	RemoveMember(ctx context.Context, userID, venueID uuid.UUID) error
	SetPrimary(ctx context.Context, userID, venueID uuid.UUID) error

	// ActiveVenueIDs returns venue IDs where the user holds a membership AND
	// the venue is active.
	ActiveVenueIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// PrimaryActiveVenueID returns the primary membership's venue when that
	// venue is active; nil when no such row exists.
	PrimaryActiveVenueID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	// HasActiveMembership reports an active-venue membership at one venue.
	HasActiveMembership(ctx context.Context, userID, venueID uuid.UUID) (bool, error)
	// UserIDsInVenues returns distinct user IDs holding a membership in any of
	// the given active venues.
	UserIDsInVenues(ctx context.Context, venueIDs []uuid.UUID, includeInactiveUsers bool) ([]uuid.UUID, error)
}

type venueRepo struct{ db *gorm.DB }

func NewVenueRepository(db *gorm.DB) VenueRepository { return &venueRepo{db: db} }

func (r *venueRepo) Create(ctx context.Context, v *model.Venue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *venueRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	var v model.Venue
	err := r.db.WithContext(ctx).First(&v, id).Error
	return &v, err
}

func (r *venueRepo) List(ctx context.Context, includeInactive bool) ([]model.Venue, error) {
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = true")
	}
	var venues []model.Venue
	err := q.Order("name").Find(&venues).Error
	return venues, err
}

func (r *venueRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Venue{}).Where("id = ?", id).Update("active", active).Error
}

func (r *venueRepo) AddMember(ctx context.Context, m *model.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *venueRepo) RemoveMember(ctx context.Context, userID, venueID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND venue_id = ?", userID, venueID).
		Delete(&model.Membership{}).Error
}

// SetPrimary clears any existing primary flag for the user and sets the new
// one inside a single transaction, preserving the at-most-one-primary
// invariant even under concurrent calls (the partial unique index backstops).
func (r *venueRepo) SetPrimary(ctx context.Context, userID, venueID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Membership{}).
			Where("user_id = ? AND is_primary = true", userID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Membership{}).
			Where("user_id = ? AND venue_id = ?", userID, venueID).
			Update("is_primary", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *venueRepo) ActiveVenueIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Joins("JOIN venues ON venues.id = memberships.venue_id AND venues.active = true").
		Where("memberships.user_id = ?", userID).
		Pluck("memberships.venue_id", &ids).Error
	return ids, err
}

func (r *venueRepo) PrimaryActiveVenueID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Joins("JOIN venues ON venues.id = memberships.venue_id AND venues.active = true").
		Where("memberships.user_id = ? AND memberships.is_primary = true", userID).
		Limit(1).
		Pluck("memberships.venue_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}

func (r *venueRepo) HasActiveMembership(ctx context.Context, userID, venueID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Joins("JOIN venues ON venues.id = memberships.venue_id AND venues.active = true").
		Where("memberships.user_id = ? AND memberships.venue_id = ?", userID, venueID).
		Count(&count).Error
	return count > 0, err
}

func (r *venueRepo) UserIDsInVenues(ctx context.Context, venueIDs []uuid.UUID, includeInactiveUsers bool) ([]uuid.UUID, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&model.Membership{}).
		Joins("JOIN venues ON venues.id = memberships.venue_id AND venues.active = true").
		Where("memberships.venue_id IN ?", venueIDs)
	if !includeInactiveUsers {
		q = q.Joins("JOIN users ON users.id = memberships.user_id AND users.active = true")
	}
	var ids []uuid.UUID
	err := q.Distinct().Pluck("memberships.user_id", &ids).Error
	return ids, err
}

package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"staffhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict signals an optimistic-lock loss: the row was modified
// between the caller's read and its conditional write.
var ErrVersionConflict = errors.New("record was modified by another operation")

// ErrNotPending signals a conditional update that found the request already in
// a terminal state.
var ErrNotPending = errors.New("request is no longer pending")

// OverlapError reports an existing PENDING/APPROVED request whose inclusive
// date range intersects the one being created.
type OverlapError struct {
	ExistingID     uuid.UUID
	ExistingStatus string
}

func (e *OverlapError) Error() string {
	return "overlapping " + e.ExistingStatus + " request exists"
}

// ReviewPatch carries the fields written by the version-guarded review update.
type ReviewPatch struct {
	Status     string
	ReviewerID uuid.UUID
	ReviewedAt time.Time
	Notes      *string
}

type TimeOffRepository interface {
	// CreateIfNoOverlap inserts the request inside a single transaction that
	// first locks and checks the owner's PENDING/APPROVED requests for an
	// inclusive date-range overlap. Returns *OverlapError on conflict.
	CreateIfNoOverlap(ctx context.Context, req *model.TimeOffRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TimeOffRequest, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.TimeOffRequest, error)
	// ListScoped lists requests whose owner is inside the scope predicate.
	ListScoped(ctx context.Context, scope OwnerScope, statuses []string) ([]model.TimeOffRequest, error)
	// ListApprovedInRange lists APPROVED requests for a set of owners whose
	// range intersects [start, end] — feeds the venue report.
	ListApprovedInRange(ctx context.Context, scope OwnerScope, start, end time.Time) ([]model.TimeOffRequest, error)
	// ReviewCAS performs the sole status mutation path for reviews:
	// UPDATE ... WHERE id = ? AND version = ?, incrementing version. Zero rows
	// matched means another reviewer won the race → ErrVersionConflict.
	ReviewCAS(ctx context.Context, id uuid.UUID, expectedVersion int, patch ReviewPatch) error
	// CancelPending flips PENDING → CANCELLED conditionally on the current
	// status; zero rows matched → ErrNotPending.
	CancelPending(ctx context.Context, id uuid.UUID) error
}

type timeOffRepo struct{ db *gorm.DB }

func NewTimeOffRepository(db *gorm.DB) TimeOffRepository { return &timeOffRepo{db: db} }

func (r *timeOffRepo) CreateIfNoOverlap(ctx context.Context, req *model.TimeOffRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the owner's actionable requests so a concurrent create against
		// the same rows serializes behind this transaction.
		var existing model.TimeOffRequest
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("user_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
				req.UserID, []string{model.TimeOffPending, model.TimeOffApproved},
				req.EndDate, req.StartDate).
			First(&existing).Error
		switch {
		case err == nil:
			return &OverlapError{ExistingID: existing.ID, ExistingStatus: existing.Status}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(req).Error
	})
	// The exclusion constraint (see infra schema patches) backstops the race
	// where two transactions insert disjoint-locked rows concurrently. Map its
	// violation to the same overlap error the in-transaction check produces.
	if err != nil && isExclusionViolation(err) {
		return &OverlapError{ExistingStatus: "existing"}
	}
	return err
}

// isExclusionViolation detects SQLSTATE 23P01 (exclusion_violation) from the
// timeoff_no_overlap constraint without importing the pgx error types here.
func isExclusionViolation(err error) bool {
	return strings.Contains(err.Error(), "timeoff_no_overlap") ||
		strings.Contains(err.Error(), "23P01")
}

func (r *timeOffRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TimeOffRequest, error) {
	var req model.TimeOffRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	return &req, err
}

func (r *timeOffRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.TimeOffRequest, error) {
	var reqs []model.TimeOffRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("start_date DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *timeOffRepo) ListScoped(ctx context.Context, scope OwnerScope, statuses []string) ([]model.TimeOffRequest, error) {
	if scope.MatchesNone() {
		// Provably-empty scope: skip the round trip entirely.
		return nil, nil
	}
	q := scope.Apply(r.db.WithContext(ctx), "user_id")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var reqs []model.TimeOffRequest
	err := q.Order("start_date DESC").Find(&reqs).Error
	return reqs, err
}

func (r *timeOffRepo) ListApprovedInRange(ctx context.Context, scope OwnerScope, start, end time.Time) ([]model.TimeOffRequest, error) {
	if scope.MatchesNone() {
		return nil, nil
	}
	var reqs []model.TimeOffRequest
	err := scope.Apply(r.db.WithContext(ctx), "user_id").
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.TimeOffApproved, end, start).
		Order("start_date").
		Find(&reqs).Error
	return reqs, err
}

func (r *timeOffRepo) ReviewCAS(ctx context.Context, id uuid.UUID, expectedVersion int, patch ReviewPatch) error {
	res := r.db.WithContext(ctx).Model(&model.TimeOffRequest{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":      patch.Status,
			"reviewer_id": patch.ReviewerID,
			"reviewed_at": patch.ReviewedAt,
			"notes":       patch.Notes,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *timeOffRepo) CancelPending(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.TimeOffRequest{}).
		Where("id = ? AND status = ?", id, model.TimeOffPending).
		Update("status", model.TimeOffCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

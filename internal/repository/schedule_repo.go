package repository

import (
	"context"
	"time"

	"staffhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, s *model.Schedule) error
	FindScheduleByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	ListByVenue(ctx context.Context, venueID uuid.UUID) ([]model.Schedule, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateEntry(ctx context.Context, e *model.ScheduleEntry) error
	ListEntries(ctx context.Context, scheduleID uuid.UUID) ([]model.ScheduleEntry, error)
	// EntriesForUserInRange returns the user's entries dated inside
	// [start, end] whose parent schedule is not archived. Archived rotas are
	// history; conflict recomputation must leave them untouched.
	EntriesForUserInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.ScheduleEntry, error)
	FlagConflict(ctx context.Context, entryID uuid.UUID, conflictType string) error
}

type scheduleRepo struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) ScheduleRepository { return &scheduleRepo{db: db} }

func (r *scheduleRepo) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *scheduleRepo) FindScheduleByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var s model.Schedule
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *scheduleRepo) ListByVenue(ctx context.Context, venueID uuid.UUID) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Order("start_date DESC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Schedule{}).
		Where("id = ?", id).Update("status", status).Error
}

func (r *scheduleRepo) CreateEntry(ctx context.Context, e *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *scheduleRepo) ListEntries(ctx context.Context, scheduleID uuid.UUID) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("date, start_time").
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) EntriesForUserInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).Model(&model.ScheduleEntry{}).
		Joins("JOIN schedules ON schedules.id = schedule_entries.schedule_id AND schedules.status <> ?", model.ScheduleArchived).
		Where("schedule_entries.user_id = ? AND schedule_entries.date BETWEEN ? AND ?", userID, start, end).
		Find(&entries).Error
	return entries, err
}

func (r *scheduleRepo) FlagConflict(ctx context.Context, entryID uuid.UUID, conflictType string) error {
	return r.db.WithContext(ctx).Model(&model.ScheduleEntry{}).
		Where("id = ?", entryID).
		Update("conflict_type", conflictType).Error
}

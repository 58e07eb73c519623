package service

import (
	"context"
	"errors"
	"time"

	"staffhub/internal/apperror"
	"staffhub/internal/dto"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleService manages venue rotas and their shift entries. All operations
// are venue-scoped: writes need schedule:write at the rota's venue, reads need
// schedule:read there.
type ScheduleService interface {
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	ListByVenue(ctx context.Context, actorID, venueID uuid.UUID) ([]dto.ScheduleResponse, error)
	SetStatus(ctx context.Context, actorID, scheduleID uuid.UUID, status string) error
	AddEntry(ctx context.Context, actorID, scheduleID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error)
	ListEntries(ctx context.Context, actorID, scheduleID uuid.UUID) ([]dto.EntryResponse, error)
}

type scheduleService struct {
	repo    repository.ScheduleRepository
	timeoff repository.TimeOffRepository
	perms   PermissionService
}

func NewScheduleService(repo repository.ScheduleRepository, timeoff repository.TimeOffRepository, perms PermissionService) ScheduleService {
	return &scheduleService{repo: repo, timeoff: timeoff, perms: perms}
}

func (s *scheduleService) Create(ctx context.Context, actorID uuid.UUID, req dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		return nil, apperror.Validation("venue_id must be a UUID")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, apperror.Validation("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, apperror.Validation("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperror.Validation("end_date must not be before start_date")
	}
	if err := s.perms.RequireVenuePermission(ctx, actorID, "schedule", "write", venueID); err != nil {
		return nil, err
	}

	schedule := &model.Schedule{
		VenueID:   venueID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Status:    model.ScheduleDraft,
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, apperror.Storage(err)
	}
	resp := scheduleResponse(schedule)
	return &resp, nil
}

func (s *scheduleService) ListByVenue(ctx context.Context, actorID, venueID uuid.UUID) ([]dto.ScheduleResponse, error) {
	if err := s.perms.RequireVenuePermission(ctx, actorID, "schedule", "read", venueID); err != nil {
		return nil, err
	}
	schedules, err := s.repo.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]dto.ScheduleResponse, len(schedules))
	for i := range schedules {
		resp[i] = scheduleResponse(&schedules[i])
	}
	return resp, nil
}

func (s *scheduleService) SetStatus(ctx context.Context, actorID, scheduleID uuid.UUID, status string) error {
	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.perms.RequireVenuePermission(ctx, actorID, "schedule", "write", schedule.VenueID); err != nil {
		return err
	}
	// Archived rotas are immutable history.
	if schedule.Status == model.ScheduleArchived {
		return apperror.InvalidState("schedule is archived")
	}
	if err := s.repo.SetStatus(ctx, scheduleID, status); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *scheduleService) AddEntry(ctx context.Context, actorID, scheduleID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequireVenuePermission(ctx, actorID, "schedule", "write", schedule.VenueID); err != nil {
		return nil, err
	}
	if schedule.Status == model.ScheduleArchived {
		return nil, apperror.InvalidState("schedule is archived")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.Validation("user_id must be a UUID")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperror.Validation("date must be YYYY-MM-DD")
	}
	if date.Before(schedule.StartDate) || date.After(schedule.EndDate) {
		return nil, apperror.Validation("date falls outside the schedule range")
	}

	entry := &model.ScheduleEntry{
		ScheduleID: scheduleID,
		UserID:     userID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	// An entry born inside an already-approved absence is flagged at creation
	// rather than waiting for the next review to recompute.
	approved, err := s.timeoff.ListApprovedInRange(ctx, repository.ScopeOwners([]uuid.UUID{userID}), date, date)
	if err == nil && len(approved) > 0 {
		ct := model.ConflictTimeOff
		entry.ConflictType = &ct
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, apperror.Storage(err)
	}
	resp := entryResponse(entry)
	return &resp, nil
}

func (s *scheduleService) ListEntries(ctx context.Context, actorID, scheduleID uuid.UUID) ([]dto.EntryResponse, error) {
	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequireVenuePermission(ctx, actorID, "schedule", "read", schedule.VenueID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, scheduleID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryResponse(&entries[i])
	}
	return resp, nil
}

func (s *scheduleService) findSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	schedule, err := s.repo.FindScheduleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("schedule %s not found", id)
		}
		return nil, apperror.Storage(err)
	}
	return schedule, nil
}

func scheduleResponse(s *model.Schedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:        s.ID.String(),
		VenueID:   s.VenueID.String(),
		Name:      s.Name,
		StartDate: s.StartDate.Format(dateLayout),
		EndDate:   s.EndDate.Format(dateLayout),
		Status:    s.Status,
	}
}

func entryResponse(e *model.ScheduleEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:           e.ID.String(),
		ScheduleID:   e.ScheduleID.String(),
		UserID:       e.UserID.String(),
		Date:         e.Date.Format(dateLayout),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		ConflictType: e.ConflictType,
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"staffhub/internal/apperror"
	"staffhub/internal/infra"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReportService produces the monthly per-venue absence summary as a PDF.
type ReportService interface {
	// MonthlyTimeOff renders all approved absences of the venue's members that
	// touch the given month. Returns the path of the generated file.
	MonthlyTimeOff(ctx context.Context, actorID, venueID uuid.UUID, month time.Time) (string, error)
}

type reportService struct {
	venues      repository.VenueRepository
	users       repository.UserRepository
	timeoff     repository.TimeOffRepository
	perms       PermissionService
	storagePath string
}

func NewReportService(
	venues repository.VenueRepository,
	users repository.UserRepository,
	timeoff repository.TimeOffRepository,
	perms PermissionService,
	storagePath string,
) ReportService {
	return &reportService{
		venues:      venues,
		users:       users,
		timeoff:     timeoff,
		perms:       perms,
		storagePath: storagePath,
	}
}

func (s *reportService) MonthlyTimeOff(ctx context.Context, actorID, venueID uuid.UUID, month time.Time) (string, error) {
	if err := s.perms.RequireVenuePermission(ctx, actorID, "timeoff", "report", venueID); err != nil {
		return "", err
	}

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("venue %s not found", venueID)
		}
		return "", apperror.Storage(err)
	}

	memberIDs, err := s.venues.UserIDsInVenues(ctx, []uuid.UUID{venueID}, true)
	if err != nil {
		return "", apperror.Storage(err)
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	approved, err := s.timeoff.ListApprovedInRange(ctx, repository.ScopeOwners(memberIDs), monthStart, monthEnd)
	if err != nil {
		return "", apperror.Storage(err)
	}

	names, err := s.displayNames(ctx, approved)
	if err != nil {
		return "", apperror.Storage(err)
	}

	rows := make([]infra.TimeOffReportRow, len(approved))
	for i := range approved {
		r := &approved[i]
		row := infra.TimeOffReportRow{
			StaffName: names[r.UserID],
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			Days:      r.Days.String(),
		}
		if r.ReviewerID != nil {
			row.ReviewerName = names[*r.ReviewerID]
		}
		rows[i] = row
	}

	path, err := infra.GenerateTimeOffReportPDF(venue.Name, monthStart, rows, s.storagePath)
	if err != nil {
		return "", apperror.Storage(err)
	}
	log.Info().
		Str("venue", venue.Name).
		Str("month", monthStart.Format("2006-01")).
		Int("rows", len(rows)).
		Str("path", path).
		Msg("time-off report generated")
	return path, nil
}

// displayNames resolves owner and reviewer names for the report rows in one
// query.
func (s *reportService) displayNames(ctx context.Context, requests []model.TimeOffRequest) (map[uuid.UUID]string, error) {
	idSet := make(map[uuid.UUID]struct{}, len(requests)*2)
	for i := range requests {
		idSet[requests[i].UserID] = struct{}{}
		if requests[i].ReviewerID != nil {
			idSet[*requests[i].ReviewerID] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].Name
	}
	return names, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staffhub/internal/apperror"
	"staffhub/internal/dto"
	"staffhub/internal/model"
	"staffhub/internal/repository"
	"staffhub/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// EventDispatcher is the side-effect boundary. *worker.Dispatcher implements
// it in production; tests substitute a recorder. Every call through it is
// fire-and-forget: failures are logged here and never returned to callers.
type EventDispatcher interface {
	EnqueueNotification(ctx context.Context, payload worker.NotificationJobPayload) error
	EnqueueAudit(ctx context.Context, payload worker.AuditJobPayload) error
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// TimeOffService drives the request lifecycle:
//
//	PENDING → {CANCELLED, APPROVED, REJECTED}
//
// PENDING is the only non-terminal state; all three terminal states absorb.
// The version-guarded conditional update in the repository is the sole path
// that mutates status/reviewer fields.
type TimeOffService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error)
	Cancel(ctx context.Context, ownerID, requestID uuid.UUID) error
	Review(ctx context.Context, reviewerID, requestID uuid.UUID, req dto.ReviewTimeOffRequest) (*dto.TimeOffResponse, error)
	ListOwn(ctx context.Context, ownerID uuid.UUID) ([]dto.TimeOffResponse, error)
	// ListVisible returns requests owned by anyone sharing an active venue
	// with the caller — the tenant-isolation listing for reviewers.
	ListVisible(ctx context.Context, userID uuid.UUID, statuses []string) ([]dto.TimeOffResponse, error)
}

type timeOffService struct {
	repo       repository.TimeOffRepository
	users      repository.UserRepository
	schedules  repository.ScheduleRepository
	venues     VenueService
	perms      PermissionService
	dispatcher EventDispatcher
	// now is injected so tests can pin "today" for the create lower bound.
	now func() time.Time
}

func NewTimeOffService(
	repo repository.TimeOffRepository,
	users repository.UserRepository,
	schedules repository.ScheduleRepository,
	venues VenueService,
	perms PermissionService,
	dispatcher EventDispatcher,
) TimeOffService {
	return &timeOffService{
		repo:       repo,
		users:      users,
		schedules:  schedules,
		venues:     venues,
		perms:      perms,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *timeOffService) Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error) {
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
	today := s.today()
	if start.Before(today) {
		return nil, apperror.Validation("start_date must not be in the past")
	}

	if err := s.perms.RequirePermission(ctx, ownerID, "timeoff", "create"); err != nil {
		return nil, err
	}

	// Inclusive span: Dec 1–5 is 5 days.
	days := decimal.NewFromInt(int64(end.Sub(start).Hours()/24) + 1)

	request := &model.TimeOffRequest{
		UserID:    ownerID,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Reason:    req.Reason,
		Status:    model.TimeOffPending,
		Version:   1,
	}

	// Overlap check + insert commit as one atomic unit; see the repository
	// transaction and the exclusion-constraint backstop.
	if err := s.repo.CreateIfNoOverlap(ctx, request); err != nil {
		var overlap *repository.OverlapError
		if errors.As(err, &overlap) {
			return nil, apperror.Overlapping("request overlaps an existing %s request", overlap.ExistingStatus)
		}
		return nil, apperror.Storage(err)
	}

	s.notifyReviewers(ctx, ownerID, request, "timeoff.submitted")

	resp := timeOffResponse(request)
	return &resp, nil
}

// today truncates the injected clock to date precision in server-local time.
func (s *timeOffService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func (s *timeOffService) Cancel(ctx context.Context, ownerID, requestID uuid.UUID) error {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("time-off request %s not found", requestID)
		}
		return apperror.Storage(err)
	}
	if request.UserID != ownerID {
		return apperror.Forbidden("only the request owner may cancel it")
	}
	if request.Terminal() {
		return apperror.InvalidState("request is already %s", request.Status)
	}

	if err := s.repo.CancelPending(ctx, requestID); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			// Lost a race against a concurrent review/cancel; re-read for the
			// message rather than reporting the stale status.
			if current, rerr := s.repo.FindByID(ctx, requestID); rerr == nil {
				return apperror.InvalidState("request is already %s", current.Status)
			}
			return apperror.InvalidState("request is no longer pending")
		}
		return apperror.Storage(err)
	}

	request.Status = model.TimeOffCancelled
	s.notifyReviewers(ctx, ownerID, request, "timeoff.cancelled")
	return nil
}

// ── Review ───────────────────────────────────────────────────────────────────

func (s *timeOffService) Review(ctx context.Context, reviewerID, requestID uuid.UUID, req dto.ReviewTimeOffRequest) (*dto.TimeOffResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("time-off request %s not found", requestID)
		}
		return nil, apperror.Storage(err)
	}

	// Self-review is rejected before any venue lookup: it must hold even for
	// a reviewer who would otherwise fully qualify.
	if reviewerID == request.UserID {
		return nil, apperror.Forbidden("reviewers cannot review their own requests")
	}

	// Venue-scoped authorization against the owner's primary venue; when the
	// owner has no active primary, fall back to the global grant.
	primaryVenue, err := s.venues.PrimaryVenueOf(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	if primaryVenue != nil {
		if err := s.perms.RequireVenuePermission(ctx, reviewerID, "timeoff", "approve", *primaryVenue); err != nil {
			return nil, err
		}
	} else {
		if err := s.perms.RequirePermission(ctx, reviewerID, "timeoff", "approve"); err != nil {
			return nil, err
		}
	}

	// Defense in depth beyond the permission check: the reviewer must share
	// an active venue with the owner.
	shared, err := s.venues.UsersShareAnyVenue(ctx, reviewerID, request.UserID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, apperror.Forbidden("reviewer shares no active venue with the request owner")
	}

	if request.Terminal() {
		return nil, apperror.InvalidState("request is already %s", request.Status)
	}

	reviewedAt := s.now()
	patch := repository.ReviewPatch{
		Status:     req.Decision,
		ReviewerID: reviewerID,
		ReviewedAt: reviewedAt,
		Notes:      req.Notes,
	}
	// The caller reviews against the version it last saw, not the one this
	// handler read: a stale token must lose even if the row changed between
	// the client's read and ours.
	if err := s.repo.ReviewCAS(ctx, requestID, req.Version, patch); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperror.Conflict()
		}
		return nil, apperror.Storage(err)
	}

	request.Status = req.Decision
	request.ReviewerID = &reviewerID
	request.ReviewedAt = &reviewedAt
	request.Notes = req.Notes
	request.Version = req.Version + 1

	s.emitReviewEffects(ctx, reviewerID, request, req.Decision)

	if req.Decision == model.TimeOffApproved {
		s.recomputeScheduleConflicts(ctx, request)
		s.deductLeaveBalance(ctx, request)
	}

	resp := timeOffResponse(request)
	return &resp, nil
}

// emitReviewEffects records the audit transition and notifies the owner.
// Both are best-effort relative to the committed review.
func (s *timeOffService) emitReviewEffects(ctx context.Context, reviewerID uuid.UUID, request *model.TimeOffRequest, decision string) {
	oldStatus := model.TimeOffPending
	if err := s.dispatcher.EnqueueAudit(ctx, worker.AuditJobPayload{
		ActorID:      reviewerID,
		ActionType:   "timeoff." + decision,
		ResourceType: "timeoff_request",
		ResourceID:   request.ID,
		OldValue:     &oldStatus,
		NewValue:     &decision,
	}); err != nil {
		log.Error().Err(err).Str("request_id", request.ID.String()).Msg("failed to enqueue audit record")
	}

	if err := s.dispatcher.EnqueueNotification(ctx, worker.NotificationJobPayload{
		Event:        "timeoff.reviewed",
		ActorID:      reviewerID,
		SubjectID:    request.ID,
		RecipientIDs: []uuid.UUID{request.UserID},
		Payload: map[string]string{
			"decision":   decision,
			"start_date": request.StartDate.Format(dateLayout),
			"end_date":   request.EndDate.Format(dateLayout),
		},
	}); err != nil {
		log.Error().Err(err).Str("request_id", request.ID.String()).Msg("failed to enqueue review notification")
	}

	owner, err := s.users.FindByID(ctx, request.UserID)
	if err != nil || owner.Email == nil {
		return
	}
	subject := fmt.Sprintf("Your time-off request was %s", decision)
	body := fmt.Sprintf("Your request for %s to %s was %s.",
		request.StartDate.Format(dateLayout), request.EndDate.Format(dateLayout), decision)
	if err := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: *owner.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		log.Error().Err(err).Str("request_id", request.ID.String()).Msg("failed to enqueue review email")
	}
}

// recomputeScheduleConflicts flags every non-archived schedule entry of the
// owner that falls inside the approved range. Best-effort: a failure here is
// logged for operator follow-up and never reverts the approval.
func (s *timeOffService) recomputeScheduleConflicts(ctx context.Context, request *model.TimeOffRequest) {
	entries, err := s.schedules.EntriesForUserInRange(ctx, request.UserID, request.StartDate, request.EndDate)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", request.ID.String()).
			Msg("conflict recompute: failed to load schedule entries — needs operator follow-up")
		return
	}

	flagged := 0
	for i := range entries {
		if err := s.schedules.FlagConflict(ctx, entries[i].ID, model.ConflictTimeOff); err != nil {
			log.Error().
				Err(err).
				Str("entry_id", entries[i].ID.String()).
				Msg("conflict recompute: failed to flag entry")
			continue
		}
		flagged++
	}
	if flagged > 0 {
		log.Info().
			Int("flagged", flagged).
			Str("request_id", request.ID.String()).
			Msg("schedule entries flagged with time-off conflict")
	}
}

// deductLeaveBalance charges the approved days against the owner's allowance.
// Best-effort like the conflict recompute.
func (s *timeOffService) deductLeaveBalance(ctx context.Context, request *model.TimeOffRequest) {
	if err := s.users.AdjustLeaveBalance(ctx, request.UserID, request.Days.Neg().String()); err != nil {
		log.Error().
			Err(err).
			Str("user_id", request.UserID.String()).
			Str("days", request.Days.String()).
			Msg("failed to deduct leave balance — needs operator follow-up")
	}
}

// ── Listing ──────────────────────────────────────────────────────────────────

func (s *timeOffService) ListOwn(ctx context.Context, ownerID uuid.UUID) ([]dto.TimeOffResponse, error) {
	requests, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return timeOffResponses(requests), nil
}

func (s *timeOffService) ListVisible(ctx context.Context, userID uuid.UUID, statuses []string) ([]dto.TimeOffResponse, error) {
	if err := s.perms.RequirePermission(ctx, userID, "timeoff", "read"); err != nil {
		return nil, err
	}
	scope, err := s.venues.ScopeFilterFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	requests, err := s.repo.ListScoped(ctx, scope, statuses)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return timeOffResponses(requests), nil
}

// ── Reviewer fan-out ─────────────────────────────────────────────────────────

// notifyReviewers dispatches a submitted/cancelled event to every active user
// who shares an active venue with the owner and holds venue-scoped review
// permission there. Admins are excluded by policy: they watch organization-
// wide channels handled outside this subsystem.
func (s *timeOffService) notifyReviewers(ctx context.Context, ownerID uuid.UUID, request *model.TimeOffRequest, event string) {
	recipients, err := s.reviewerAudience(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Str("request_id", request.ID.String()).Msg("failed to resolve reviewer audience")
		return
	}
	if len(recipients) == 0 {
		return
	}
	if err := s.dispatcher.EnqueueNotification(ctx, worker.NotificationJobPayload{
		Event:        event,
		ActorID:      ownerID,
		SubjectID:    request.ID,
		RecipientIDs: recipients,
		Payload: map[string]string{
			"start_date": request.StartDate.Format(dateLayout),
			"end_date":   request.EndDate.Format(dateLayout),
			"status":     request.Status,
		},
	}); err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to enqueue reviewer notification")
	}
}

func (s *timeOffService) reviewerAudience(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	ownerVenues, err := s.venues.ActiveVenuesOf(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(ownerVenues) == 0 {
		return nil, nil
	}
	candidateIDs, err := s.venues.SharedUsers(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}
	candidates, err := s.users.FindByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	var recipients []uuid.UUID
	for i := range candidates {
		c := &candidates[i]
		if c.Role == RoleAdmin {
			continue
		}
		for _, venueID := range ownerVenues {
			ok, err := s.perms.HasVenuePermission(ctx, c.ID, "timeoff", "approve", venueID)
			if err != nil {
				return nil, err
			}
			if ok {
				recipients = append(recipients, c.ID)
				break
			}
		}
	}
	return recipients, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func timeOffResponse(r *model.TimeOffRequest) dto.TimeOffResponse {
	resp := dto.TimeOffResponse{
		ID:        r.ID.String(),
		UserID:    r.UserID.String(),
		StartDate: r.StartDate.Format(dateLayout),
		EndDate:   r.EndDate.Format(dateLayout),
		Days:      r.Days.String(),
		Reason:    r.Reason,
		Status:    r.Status,
		Notes:     r.Notes,
		Version:   r.Version,
	}
	if r.ReviewerID != nil {
		id := r.ReviewerID.String()
		resp.ReviewerID = &id
	}
	if r.ReviewedAt != nil {
		at := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}

func timeOffResponses(requests []model.TimeOffRequest) []dto.TimeOffResponse {
	out := make([]dto.TimeOffResponse, len(requests))
	for i := range requests {
		out[i] = timeOffResponse(&requests[i])
	}
	return out
}

package service

import (
	"context"
	"errors"

	"staffhub/internal/apperror"
	"staffhub/internal/dto"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VenueService is the membership resolver plus venue/membership management.
// Every resolver operation is defined purely over ACTIVE venues: deactivating
// a venue silently removes all access derived from it, with no membership-row
// cleanup. The exclusion happens in the repository joins, never post-hoc here.
type VenueService interface {
	// Resolver operations
	ActiveVenuesOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	PrimaryVenueOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	SharedUsers(ctx context.Context, userID uuid.UUID, includeInactiveUsers bool) ([]uuid.UUID, error)
	UsersShareAnyVenue(ctx context.Context, a, b uuid.UUID) (bool, error)
	SharedVenuesOfAll(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
	// ScopeFilterFor builds the reusable "owned by someone in my shared
	// venues" predicate for entity queries.
	ScopeFilterFor(ctx context.Context, userID uuid.UUID) (repository.OwnerScope, error)

	// Management operations
	Create(ctx context.Context, actorID uuid.UUID, req dto.CreateVenueRequest) (*dto.VenueResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.VenueResponse, error)
	SetActive(ctx context.Context, actorID, venueID uuid.UUID, active bool) error
	AddMember(ctx context.Context, actorID, venueID, userID uuid.UUID, isPrimary bool) error
	RemoveMember(ctx context.Context, actorID, venueID, userID uuid.UUID) error
	SetPrimary(ctx context.Context, actorID, userID, venueID uuid.UUID) error
}

type venueService struct {
	repo  repository.VenueRepository
	perms PermissionService
}

func NewVenueService(repo repository.VenueRepository, perms PermissionService) VenueService {
	return &venueService{repo: repo, perms: perms}
}

// ── Resolver ─────────────────────────────────────────────────────────────────

func (s *venueService) ActiveVenuesOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.ActiveVenueIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return ids, nil
}

func (s *venueService) PrimaryVenueOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	id, err := s.repo.PrimaryActiveVenueID(ctx, userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	// A primary membership pointing at an inactive venue resolves to none —
	// the repository join already dropped it.
	return id, nil
}

func (s *venueService) SharedUsers(ctx context.Context, userID uuid.UUID, includeInactiveUsers bool) ([]uuid.UUID, error) {
	venues, err := s.ActiveVenuesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(venues) == 0 {
		// No venues ⇒ no shared users, and no user query is issued.
		return nil, nil
	}
	ids, err := s.repo.UserIDsInVenues(ctx, venues, includeInactiveUsers)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	// The caller is never part of their own shared-user set.
	out := ids[:0]
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *venueService) UsersShareAnyVenue(ctx context.Context, a, b uuid.UUID) (bool, error) {
	venuesA, err := s.ActiveVenuesOf(ctx, a)
	if err != nil {
		return false, err
	}
	if len(venuesA) == 0 {
		return false, nil
	}
	venuesB, err := s.ActiveVenuesOf(ctx, b)
	if err != nil {
		return false, err
	}
	return intersect(venuesA, venuesB), nil
}

func (s *venueService) SharedVenuesOfAll(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	shared, err := s.ActiveVenuesOf(ctx, userIDs[0])
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs[1:] {
		if len(shared) == 0 {
			return nil, nil
		}
		next, err := s.ActiveVenuesOf(ctx, id)
		if err != nil {
			return nil, err
		}
		shared = intersection(shared, next)
	}
	return shared, nil
}

func (s *venueService) ScopeFilterFor(ctx context.Context, userID uuid.UUID) (repository.OwnerScope, error) {
	users, err := s.SharedUsers(ctx, userID, false)
	if err != nil {
		return repository.OwnerScope{}, err
	}
	return repository.ScopeOwners(users), nil
}

func intersect(a, b []uuid.UUID) bool {
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func intersection(a, b []uuid.UUID) []uuid.UUID {
	set := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ── Management ───────────────────────────────────────────────────────────────

func (s *venueService) Create(ctx context.Context, actorID uuid.UUID, req dto.CreateVenueRequest) (*dto.VenueResponse, error) {
	if err := s.perms.RequirePermission(ctx, actorID, "venue", "manage"); err != nil {
		return nil, err
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	venue := &model.Venue{Name: req.Name, Timezone: tz, Active: true}
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, apperror.Storage(err)
	}
	resp := venueResponse(venue)
	return &resp, nil
}

func (s *venueService) List(ctx context.Context, includeInactive bool) ([]dto.VenueResponse, error) {
	venues, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]dto.VenueResponse, len(venues))
	for i := range venues {
		resp[i] = venueResponse(&venues[i])
	}
	return resp, nil
}

func (s *venueService) SetActive(ctx context.Context, actorID, venueID uuid.UUID, active bool) error {
	if err := s.perms.RequirePermission(ctx, actorID, "venue", "manage"); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, venueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("venue %s not found", venueID)
		}
		return apperror.Storage(err)
	}
	if err := s.repo.SetActive(ctx, venueID, active); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *venueService) AddMember(ctx context.Context, actorID, venueID, userID uuid.UUID, isPrimary bool) error {
	if err := s.perms.RequirePermission(ctx, actorID, "venue", "manage"); err != nil {
		return err
	}
	m := &model.Membership{UserID: userID, VenueID: venueID}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return apperror.Storage(err)
	}
	if isPrimary {
		if err := s.repo.SetPrimary(ctx, userID, venueID); err != nil {
			return apperror.Storage(err)
		}
	}
	return nil
}

func (s *venueService) RemoveMember(ctx context.Context, actorID, venueID, userID uuid.UUID) error {
	if err := s.perms.RequirePermission(ctx, actorID, "venue", "manage"); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, userID, venueID); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *venueService) SetPrimary(ctx context.Context, actorID, userID, venueID uuid.UUID) error {
	if err := s.perms.RequirePermission(ctx, actorID, "venue", "manage"); err != nil {
		return err
	}
	if err := s.repo.SetPrimary(ctx, userID, venueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("no membership for user %s at venue %s", userID, venueID)
		}
		return apperror.Storage(err)
	}
	return nil
}

func venueResponse(v *model.Venue) dto.VenueResponse {
	return dto.VenueResponse{
		ID:       v.ID.String(),
		Name:     v.Name,
		Timezone: v.Timezone,
		Active:   v.Active,
	}
}

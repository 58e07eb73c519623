package service

import (
	"context"
	"errors"

	"staffhub/internal/apperror"
	"staffhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionService resolves whether a user's role grants a resource+action
// capability, globally or scoped to a venue. The boolean variants feed
// conditional query/UI logic; the Require variants are the fail-closed guards
// used at mutating entry points.
type PermissionService interface {
	HasPermission(ctx context.Context, userID uuid.UUID, resource, action string) (bool, error)
	HasVenuePermission(ctx context.Context, userID uuid.UUID, resource, action string, venueID uuid.UUID) (bool, error)
	RequirePermission(ctx context.Context, userID uuid.UUID, resource, action string) error
	RequireVenuePermission(ctx context.Context, userID uuid.UUID, resource, action string, venueID uuid.UUID) error
}

type permissionService struct {
	users  repository.UserRepository
	venues repository.VenueRepository
	perms  *PermissionConfig
}

func NewPermissionService(users repository.UserRepository, venues repository.VenueRepository, perms *PermissionConfig) PermissionService {
	return &permissionService{users: users, venues: venues, perms: perms}
}

// grantFor loads the user and resolves the grant scope. An inactive user
// fails every check; a missing user row fails closed rather than erroring the
// caller out of a conditional path.
func (s *permissionService) grantFor(ctx context.Context, userID uuid.UUID, resource, action string) (GrantScope, bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, apperror.Storage(err)
	}
	if !user.Active {
		return 0, false, nil
	}
	scope, ok := s.perms.Grant(user.Role, resource, action)
	return scope, ok, nil
}

func (s *permissionService) HasPermission(ctx context.Context, userID uuid.UUID, resource, action string) (bool, error) {
	scope, ok, err := s.grantFor(ctx, userID, resource, action)
	if err != nil || !ok {
		return false, err
	}
	// The unscoped check only honors grants valid everywhere.
	return scope == ScopeGlobal, nil
}

func (s *permissionService) HasVenuePermission(ctx context.Context, userID uuid.UUID, resource, action string, venueID uuid.UUID) (bool, error) {
	scope, ok, err := s.grantFor(ctx, userID, resource, action)
	if err != nil || !ok {
		return false, err
	}
	if scope == ScopeGlobal {
		return true, nil
	}
	// Venue-scoped grant: the user must hold an active membership at the
	// venue being evaluated.
	member, err := s.venues.HasActiveMembership(ctx, userID, venueID)
	if err != nil {
		return false, apperror.Storage(err)
	}
	return member, nil
}

func (s *permissionService) RequirePermission(ctx context.Context, userID uuid.UUID, resource, action string) error {
	ok, err := s.HasPermission(ctx, userID, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("missing permission %s:%s", resource, action)
	}
	return nil
}

func (s *permissionService) RequireVenuePermission(ctx context.Context, userID uuid.UUID, resource, action string, venueID uuid.UUID) error {
	ok, err := s.HasVenuePermission(ctx, userID, resource, action, venueID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("missing permission %s:%s at venue %s", resource, action, venueID)
	}
	return nil
}

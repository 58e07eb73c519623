package tests

// permission_test.go — role grants, fail-closed lookups, and the
// manager-at-venue semantics of venue-scoped permissions.

import (
	"context"
	"testing"

	"staffhub/internal/apperror"
	"staffhub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissions_GlobalVsVenueScope(t *testing.T) {
	f := newVenueFixture(t)
	perms := service.NewPermissionService(f.users, f.venues, service.DefaultPermissions())
	ctx := context.Background()

	// Staff hold timeoff:create globally.
	ok, err := perms.HasPermission(ctx, f.alice.ID, "timeoff", "create")
	require.NoError(t, err)
	assert.True(t, ok)

	// Managers hold timeoff:approve venue-scoped only — the unscoped check
	// must not honor it.
	ok, err = perms.HasPermission(ctx, f.bob.ID, "timeoff", "approve")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = perms.HasVenuePermission(ctx, f.bob.ID, "timeoff", "approve", f.north.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPermissions_VenueScopeNeedsMembership(t *testing.T) {
	f := newVenueFixture(t)
	perms := service.NewPermissionService(f.users, f.venues, service.DefaultPermissions())
	ctx := context.Background()

	other := f.venues.addVenue("Other", true)

	// Bob is a manager but holds no membership at Other.
	ok, err := perms.HasVenuePermission(ctx, f.bob.ID, "timeoff", "approve", other.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Membership at an inactive venue does not count either.
	ok, err = perms.HasVenuePermission(ctx, f.bob.ID, "timeoff", "approve", f.closed.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissions_AdminGlobalPassesAnyVenue(t *testing.T) {
	f := newVenueFixture(t)
	admin := f.users.add("root", service.RoleAdmin, true)
	perms := service.NewPermissionService(f.users, f.venues, service.DefaultPermissions())

	// Global grants skip the membership check entirely.
	ok, err := perms.HasVenuePermission(context.Background(), admin.ID, "timeoff", "approve", f.south.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPermissions_FailClosed(t *testing.T) {
	f := newVenueFixture(t)
	perms := service.NewPermissionService(f.users, f.venues, service.DefaultPermissions())
	ctx := context.Background()

	// Inactive user fails every check.
	f.alice.Active = false
	ok, err := perms.HasPermission(ctx, f.alice.ID, "timeoff", "create")
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown user ID fails without erroring.
	ok, err = perms.HasPermission(ctx, uuid.New(), "timeoff", "create")
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown role has zero grants.
	ghost := f.users.add("ghost", "CONTRACTOR", true)
	ok, err = perms.HasPermission(ctx, ghost.ID, "timeoff", "create")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequirePermission_ForbiddenKind(t *testing.T) {
	f := newVenueFixture(t)
	perms := service.NewPermissionService(f.users, f.venues, service.DefaultPermissions())

	err := perms.RequirePermission(context.Background(), f.alice.ID, "venue", "manage")
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	err = perms.RequireVenuePermission(context.Background(), f.alice.ID, "timeoff", "approve", f.north.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

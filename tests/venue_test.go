package tests

// venue_test.go — membership resolver properties: active-venue-only results,
// shared-user symmetry, and the no-query guarantee for provably empty scopes.

import (
	"context"
	"testing"

	"staffhub/internal/model"
	"staffhub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type venueFixture struct {
	users  *stubUserRepo
	venues *stubVenueRepo
	svc    service.VenueService

	north, south, closed *model.Venue
	alice, bob, carol    *model.User
	dave                 *model.User
}

// newVenueFixture builds:
//
//	north (active):  alice, bob
//	south (active):  bob
//	closed (inactive): bob, carol
//	dave: no memberships
func newVenueFixture(t *testing.T) *venueFixture {
	t.Helper()
	users := newStubUserRepo()
	venues := newStubVenueRepo(users)

	f := &venueFixture{users: users, venues: venues}
	f.north = venues.addVenue("North", true)
	f.south = venues.addVenue("South", true)
	f.closed = venues.addVenue("Closed", false)

	f.alice = users.add("alice", service.RoleStaff, true)
	f.bob = users.add("bob", service.RoleManager, true)
	f.carol = users.add("carol", service.RoleStaff, true)
	f.dave = users.add("dave", service.RoleStaff, true)

	venues.addMember(f.alice.ID, f.north.ID, true)
	venues.addMember(f.bob.ID, f.north.ID, false)
	venues.addMember(f.bob.ID, f.south.ID, true)
	venues.addMember(f.bob.ID, f.closed.ID, false)
	venues.addMember(f.carol.ID, f.closed.ID, true)

	perms := service.NewPermissionService(users, venues, service.DefaultPermissions())
	f.svc = service.NewVenueService(venues, perms)
	return f
}

func TestActiveVenues_ExcludesInactive(t *testing.T) {
	f := newVenueFixture(t)

	got, err := f.svc.ActiveVenuesOf(context.Background(), f.bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.north.ID, f.south.ID}, got)

	// Carol's only membership points at the inactive venue.
	got, err = f.svc.ActiveVenuesOf(context.Background(), f.carol.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrimaryVenue_InactiveResolvesToNone(t *testing.T) {
	f := newVenueFixture(t)

	// Carol's primary membership is at the inactive venue — resolves to none,
	// with no fallback to another membership.
	got, err := f.svc.PrimaryVenueOf(context.Background(), f.carol.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Alice's primary is at an active venue.
	got, err = f.svc.PrimaryVenueOf(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.north.ID, *got)
}

func TestSharedUsers_ExcludesCaller(t *testing.T) {
	f := newVenueFixture(t)

	got, err := f.svc.SharedUsers(context.Background(), f.alice.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.bob.ID}, got)
	assert.NotContains(t, got, f.alice.ID)
}

func TestSharedUsers_NoVenues_NoUserQuery(t *testing.T) {
	f := newVenueFixture(t)

	got, err := f.svc.SharedUsers(context.Background(), f.dave.ID, false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, f.venues.userQueryCount, "no user query may be issued for an empty venue set")
}

func TestSharedUsers_InactiveUsersFiltered(t *testing.T) {
	f := newVenueFixture(t)
	f.bob.Active = false

	got, err := f.svc.SharedUsers(context.Background(), f.alice.ID, false)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.SharedUsers(context.Background(), f.alice.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.bob.ID}, got)
}

func TestUsersShareAnyVenue_Symmetry(t *testing.T) {
	f := newVenueFixture(t)
	ctx := context.Background()

	ab, err := f.svc.UsersShareAnyVenue(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	ba, err := f.svc.UsersShareAnyVenue(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, ab)
	assert.Equal(t, ab, ba)

	// Bob and carol only co-occur at the inactive venue.
	bc, err := f.svc.UsersShareAnyVenue(ctx, f.bob.ID, f.carol.ID)
	require.NoError(t, err)
	assert.False(t, bc)
}

func TestSharedVenuesOfAll(t *testing.T) {
	f := newVenueFixture(t)
	ctx := context.Background()

	// Empty input is empty output.
	got, err := f.svc.SharedVenuesOfAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A single user resolves to their own active set.
	got, err = f.svc.SharedVenuesOfAll(ctx, []uuid.UUID{f.bob.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.north.ID, f.south.ID}, got)

	// Intersection of alice and bob is north only.
	got, err = f.svc.SharedVenuesOfAll(ctx, []uuid.UUID{f.alice.ID, f.bob.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.north.ID}, got)

	// Any member with an empty active set collapses the whole intersection.
	got, err = f.svc.SharedVenuesOfAll(ctx, []uuid.UUID{f.alice.ID, f.dave.ID, f.bob.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScopeFilter_EmptySetMatchesNothing(t *testing.T) {
	f := newVenueFixture(t)

	scope, err := f.svc.ScopeFilterFor(context.Background(), f.dave.ID)
	require.NoError(t, err)
	assert.True(t, scope.MatchesNone())
	assert.False(t, scope.Contains(f.alice.ID))
}

func TestVenueDeactivation_RevokesDerivedAccess(t *testing.T) {
	f := newVenueFixture(t)
	ctx := context.Background()

	before, err := f.svc.SharedUsers(ctx, f.alice.ID, false)
	require.NoError(t, err)
	assert.NotEmpty(t, before)

	f.north.Active = false

	after, err := f.svc.SharedUsers(ctx, f.alice.ID, false)
	require.NoError(t, err)
	assert.Empty(t, after, "deactivating the venue removes all access derived from it")

	// Reactivation restores access with no membership rewrites.
	f.north.Active = true
	restored, err := f.svc.SharedUsers(ctx, f.alice.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, restored)
}

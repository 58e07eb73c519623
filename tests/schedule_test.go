package tests

// schedule_test.go — rota lifecycle: venue-scoped write access, archived
// immutability, and pre-flagging of entries born inside approved absences.

import (
	"context"
	"testing"
	"time"

	"staffhub/internal/apperror"
	"staffhub/internal/dto"
	"staffhub/internal/model"
	"staffhub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleFixture struct {
	*venueFixture
	schedules *stubScheduleRepo
	timeoff   *stubTimeOffRepo
	svc       service.ScheduleService
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	vf := newVenueFixture(t)
	f := &scheduleFixture{
		venueFixture: vf,
		schedules:    newStubScheduleRepo(),
		timeoff:      newStubTimeOffRepo(),
	}
	perms := service.NewPermissionService(vf.users, vf.venues, service.DefaultPermissions())
	f.svc = service.NewScheduleService(f.schedules, f.timeoff, perms)
	return f
}

func (f *scheduleFixture) mustCreateSchedule(t *testing.T, actor uuid.UUID, venueID string) *dto.ScheduleResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), actor, dto.CreateScheduleRequest{
		VenueID:   venueID,
		Name:      "Week rota",
		StartDate: futureDay(1),
		EndDate:   futureDay(30),
	})
	require.NoError(t, err)
	return resp
}

func TestScheduleCreate_NeedsWriteAtVenue(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	// Bob manages north: allowed, starts as draft.
	resp := f.mustCreateSchedule(t, f.bob.ID, f.north.ID.String())
	assert.Equal(t, model.ScheduleDraft, resp.Status)

	// Staff never hold schedule:write.
	_, err := f.svc.Create(ctx, f.alice.ID, dto.CreateScheduleRequest{
		VenueID: f.north.ID.String(), Name: "Nope",
		StartDate: futureDay(1), EndDate: futureDay(7),
	})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	// A manager with no membership at the venue is rejected too.
	other := f.venues.addVenue("Other", true)
	_, err = f.svc.Create(ctx, f.bob.ID, dto.CreateScheduleRequest{
		VenueID: other.ID.String(), Name: "Nope",
		StartDate: futureDay(1), EndDate: futureDay(7),
	})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestScheduleSetStatus_ArchivedIsImmutable(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	resp := f.mustCreateSchedule(t, f.bob.ID, f.north.ID.String())
	id, _ := uuid.Parse(resp.ID)

	require.NoError(t, f.svc.SetStatus(ctx, f.bob.ID, id, model.SchedulePublished))
	require.NoError(t, f.svc.SetStatus(ctx, f.bob.ID, id, model.ScheduleArchived))

	err := f.svc.SetStatus(ctx, f.bob.ID, id, model.ScheduleDraft)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
}

func TestScheduleAddEntry_DateRangeAndArchived(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	resp := f.mustCreateSchedule(t, f.bob.ID, f.north.ID.String())
	id, _ := uuid.Parse(resp.ID)

	// Outside the rota range.
	_, err := f.svc.AddEntry(ctx, f.bob.ID, id, dto.CreateEntryRequest{
		UserID: f.alice.ID.String(), Date: futureDay(40),
		StartTime: "09:00", EndTime: "17:00",
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	// Inside the range is fine.
	entry, err := f.svc.AddEntry(ctx, f.bob.ID, id, dto.CreateEntryRequest{
		UserID: f.alice.ID.String(), Date: futureDay(5),
		StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	assert.Nil(t, entry.ConflictType)

	// Archived rotas take no new entries.
	require.NoError(t, f.svc.SetStatus(ctx, f.bob.ID, id, model.ScheduleArchived))
	_, err = f.svc.AddEntry(ctx, f.bob.ID, id, dto.CreateEntryRequest{
		UserID: f.alice.ID.String(), Date: futureDay(6),
		StartTime: "09:00", EndTime: "17:00",
	})
	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
}

func TestScheduleAddEntry_PreFlagsApprovedAbsence(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	// Alice already has an approved absence covering day 5.
	approved := &model.TimeOffRequest{
		UserID:    f.alice.ID,
		StartDate: time.Now().AddDate(0, 0, 4),
		EndDate:   time.Now().AddDate(0, 0, 6),
		Status:    model.TimeOffApproved,
		Version:   2,
	}
	require.NoError(t, f.timeoff.CreateIfNoOverlap(ctx, approved))

	resp := f.mustCreateSchedule(t, f.bob.ID, f.north.ID.String())
	id, _ := uuid.Parse(resp.ID)

	entry, err := f.svc.AddEntry(ctx, f.bob.ID, id, dto.CreateEntryRequest{
		UserID: f.alice.ID.String(), Date: futureDay(5),
		StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	require.NotNil(t, entry.ConflictType)
	assert.Equal(t, model.ConflictTimeOff, *entry.ConflictType)
}

func TestScheduleListEntries_NeedsReadAtVenue(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	resp := f.mustCreateSchedule(t, f.bob.ID, f.north.ID.String())
	id, _ := uuid.Parse(resp.ID)

	// Alice is a member at north: read allowed.
	_, err := f.svc.ListEntries(ctx, f.alice.ID, id)
	require.NoError(t, err)

	// Dave holds no membership anywhere.
	_, err = f.svc.ListEntries(ctx, f.dave.ID, id)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

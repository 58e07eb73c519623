package tests

// stubs_test.go
// In-memory repository stubs shared by the unit suites. They mirror the SQL
// semantics of the real repositories (active-venue joins, overlap checks,
// version-guarded updates) so the services under test see the same contract.

import (
	"context"
	"sync"
	"time"

	"staffhub/internal/config"
	"staffhub/internal/model"
	"staffhub/internal/repository"
	"staffhub/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DefaultLeaveDays:   25,
	}
}

// ── User repository stub ──────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) add(name, role string, active bool) *model.User {
	u := &model.User{
		ID:               uuid.New(),
		Username:         name,
		Name:             name,
		Role:             role,
		LeaveBalanceDays: decimal.NewFromInt(25),
		Active:           active,
	}
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) AdjustLeaveBalance(_ context.Context, id uuid.UUID, deltaDays string) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delta, err := decimal.NewFromString(deltaDays)
	if err != nil {
		return err
	}
	u.LeaveBalanceDays = u.LeaveBalanceDays.Add(delta)
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}

// ── Venue repository stub ─────────────────────────────────────────────────────

type stubVenueRepo struct {
	venues      map[uuid.UUID]*model.Venue
	memberships []*model.Membership
	users       *stubUserRepo
	// userQueryCount counts UserIDsInVenues calls so tests can assert the
	// no-query-on-empty-set guarantee.
	userQueryCount int
}

func newStubVenueRepo(users *stubUserRepo) *stubVenueRepo {
	return &stubVenueRepo{venues: make(map[uuid.UUID]*model.Venue), users: users}
}

func (r *stubVenueRepo) addVenue(name string, active bool) *model.Venue {
	v := &model.Venue{ID: uuid.New(), Name: name, Timezone: "UTC", Active: active}
	r.venues[v.ID] = v
	return v
}

func (r *stubVenueRepo) addMember(userID, venueID uuid.UUID, primary bool) {
	r.memberships = append(r.memberships, &model.Membership{
		ID: uuid.New(), UserID: userID, VenueID: venueID, IsPrimary: primary,
	})
}

func (r *stubVenueRepo) Create(_ context.Context, v *model.Venue) error {
	v.ID = uuid.New()
	r.venues[v.ID] = v
	return nil
}

func (r *stubVenueRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venue, error) {
	v, ok := r.venues[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVenueRepo) List(_ context.Context, includeInactive bool) ([]model.Venue, error) {
	var out []model.Venue
	for _, v := range r.venues {
		if includeInactive || v.Active {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubVenueRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	v, ok := r.venues[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Active = active
	return nil
}

func (r *stubVenueRepo) AddMember(_ context.Context, m *model.Membership) error {
	m.ID = uuid.New()
	r.memberships = append(r.memberships, m)
	return nil
}

func (r *stubVenueRepo) RemoveMember(_ context.Context, userID, venueID uuid.UUID) error {
	out := r.memberships[:0]
	for _, m := range r.memberships {
		if !(m.UserID == userID && m.VenueID == venueID) {
			out = append(out, m)
		}
	}
	r.memberships = out
	return nil
}

func (r *stubVenueRepo) SetPrimary(_ context.Context, userID, venueID uuid.UUID) error {
	var target *model.Membership
	for _, m := range r.memberships {
		if m.UserID == userID && m.VenueID == venueID {
			target = m
		}
	}
	if target == nil {
		return gorm.ErrRecordNotFound
	}
	for _, m := range r.memberships {
		if m.UserID == userID {
			m.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

func (r *stubVenueRepo) venueActive(id uuid.UUID) bool {
	v, ok := r.venues[id]
	return ok && v.Active
}

func (r *stubVenueRepo) ActiveVenueIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, m := range r.memberships {
		if m.UserID == userID && r.venueActive(m.VenueID) {
			out = append(out, m.VenueID)
		}
	}
	return out, nil
}

func (r *stubVenueRepo) PrimaryActiveVenueID(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	for _, m := range r.memberships {
		if m.UserID == userID && m.IsPrimary && r.venueActive(m.VenueID) {
			id := m.VenueID
			return &id, nil
		}
	}
	return nil, nil
}

func (r *stubVenueRepo) HasActiveMembership(_ context.Context, userID, venueID uuid.UUID) (bool, error) {
	for _, m := range r.memberships {
		if m.UserID == userID && m.VenueID == venueID && r.venueActive(m.VenueID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubVenueRepo) UserIDsInVenues(_ context.Context, venueIDs []uuid.UUID, includeInactiveUsers bool) ([]uuid.UUID, error) {
	r.userQueryCount++
	inSet := make(map[uuid.UUID]struct{}, len(venueIDs))
	for _, id := range venueIDs {
		inSet[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, m := range r.memberships {
		if _, ok := inSet[m.VenueID]; !ok || !r.venueActive(m.VenueID) {
			continue
		}
		if !includeInactiveUsers {
			if u, ok := r.users.users[m.UserID]; !ok || !u.Active {
				continue
			}
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m.UserID)
	}
	return out, nil
}

// ── Time-off repository stub ──────────────────────────────────────────────────

type stubTimeOffRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.TimeOffRequest
}

func newStubTimeOffRepo() *stubTimeOffRepo {
	return &stubTimeOffRepo{requests: make(map[uuid.UUID]*model.TimeOffRequest)}
}

func (r *stubTimeOffRepo) CreateIfNoOverlap(_ context.Context, req *model.TimeOffRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.UserID != req.UserID {
			continue
		}
		if existing.Status != model.TimeOffPending && existing.Status != model.TimeOffApproved {
			continue
		}
		if existing.Overlaps(req.StartDate, req.EndDate) {
			return &repository.OverlapError{ExistingID: existing.ID, ExistingStatus: existing.Status}
		}
	}
	req.ID = uuid.New()
	r.requests[req.ID] = req
	return nil
}

func (r *stubTimeOffRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TimeOffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *stubTimeOffRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.TimeOffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TimeOffRequest
	for _, req := range r.requests {
		if req.UserID == ownerID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubTimeOffRepo) ListScoped(_ context.Context, scope repository.OwnerScope, statuses []string) ([]model.TimeOffRequest, error) {
	if scope.MatchesNone() {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TimeOffRequest
	for _, req := range r.requests {
		if !scope.Contains(req.UserID) {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, req.Status) {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (r *stubTimeOffRepo) ListApprovedInRange(_ context.Context, scope repository.OwnerScope, start, end time.Time) ([]model.TimeOffRequest, error) {
	if scope.MatchesNone() {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TimeOffRequest
	for _, req := range r.requests {
		if scope.Contains(req.UserID) && req.Status == model.TimeOffApproved && req.Overlaps(start, end) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubTimeOffRepo) ReviewCAS(_ context.Context, id uuid.UUID, expectedVersion int, patch repository.ReviewPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	req.Status = patch.Status
	reviewer := patch.ReviewerID
	req.ReviewerID = &reviewer
	at := patch.ReviewedAt
	req.ReviewedAt = &at
	req.Notes = patch.Notes
	req.Version++
	return nil
}

func (r *stubTimeOffRepo) CancelPending(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != model.TimeOffPending {
		return repository.ErrNotPending
	}
	req.Status = model.TimeOffCancelled
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ── Schedule repository stub ──────────────────────────────────────────────────

type stubScheduleRepo struct {
	schedules map[uuid.UUID]*model.Schedule
	entries   map[uuid.UUID]*model.ScheduleEntry
}

func newStubScheduleRepo() *stubScheduleRepo {
	return &stubScheduleRepo{
		schedules: make(map[uuid.UUID]*model.Schedule),
		entries:   make(map[uuid.UUID]*model.ScheduleEntry),
	}
}

func (r *stubScheduleRepo) CreateSchedule(_ context.Context, s *model.Schedule) error {
	s.ID = uuid.New()
	r.schedules[s.ID] = s
	return nil
}

func (r *stubScheduleRepo) FindScheduleByID(_ context.Context, id uuid.UUID) (*model.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubScheduleRepo) ListByVenue(_ context.Context, venueID uuid.UUID) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, s := range r.schedules {
		if s.VenueID == venueID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubScheduleRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	s, ok := r.schedules[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubScheduleRepo) CreateEntry(_ context.Context, e *model.ScheduleEntry) error {
	e.ID = uuid.New()
	r.entries[e.ID] = e
	return nil
}

func (r *stubScheduleRepo) ListEntries(_ context.Context, scheduleID uuid.UUID) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range r.entries {
		if e.ScheduleID == scheduleID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubScheduleRepo) EntriesForUserInRange(_ context.Context, userID uuid.UUID, start, end time.Time) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range r.entries {
		parent, ok := r.schedules[e.ScheduleID]
		if !ok || parent.Status == model.ScheduleArchived {
			continue
		}
		if e.UserID == userID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubScheduleRepo) FlagConflict(_ context.Context, entryID uuid.UUID, conflictType string) error {
	e, ok := r.entries[entryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ct := conflictType
	e.ConflictType = &ct
	return nil
}

// ── Dispatcher recorder ───────────────────────────────────────────────────────

// recordingDispatcher captures enqueued side effects instead of touching Redis.
type recordingDispatcher struct {
	mu            sync.Mutex
	notifications []worker.NotificationJobPayload
	audits        []worker.AuditJobPayload
	emails        []worker.EmailJobPayload
}

func (d *recordingDispatcher) EnqueueNotification(_ context.Context, p worker.NotificationJobPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, p)
	return nil
}

func (d *recordingDispatcher) EnqueueAudit(_ context.Context, p worker.AuditJobPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audits = append(d.audits, p)
	return nil
}

func (d *recordingDispatcher) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails = append(d.emails, p)
	return nil
}

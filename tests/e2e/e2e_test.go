//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests for StaffHub using real Postgres + Redis via
// testcontainers. Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   T-E2E-1: Full request cycle (login → venue setup → submit → approve)
//   T-E2E-2: Overlap rejected by the exclusion constraint under HTTP
//   T-E2E-3: Stale-version review yields 409
//   T-E2E-4: Cancel transitions and terminal-state reporting
//   T-E2E-5: Cross-venue isolation of the visible listing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staffhub/internal/config"
	"staffhub/internal/infra"
	"staffhub/internal/model"
	"staffhub/internal/router"
	"staffhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func day(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type timeOffJSON struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Days    string `json:"days"`
	Version int    `json:"version"`
}

type testEnv struct {
	server *httptest.Server
	admin  string // admin JWT
	engine *gin.Engine

	venueID   string
	staffTok  string
	staffID   string
	mgrTok    string
	managerID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("staffhub_test"),
		tcPostgres.WithUsername("staffhub"),
		tcPostgres.WithPassword("staffhub"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		DefaultLeaveDays:   25,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	// Seed the bootstrap admin directly; everything else goes through the API.
	hash, err := bcrypt.GenerateFromPassword([]byte("staffhub2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:         "admin",
		Name:             "Admin E2E",
		PasswordHash:     string(hash),
		Role:             service.RoleAdmin,
		LeaveBalanceDays: decimal.NewFromInt(25),
		Active:           true,
	}).Error)

	webhookCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, webhookCB)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv, engine: r}
	env.admin = login(t, srv, "admin", "staffhub2026")

	// Venue + one staff + one manager, both members (staff primary).
	var venue struct {
		ID string `json:"id"`
	}
	venueResp := do(t, srv, "POST", "/v1/venues",
		jsonBody(t, map[string]any{"name": "Harbour Bar", "timezone": "Europe/London"}), env.admin)
	require.Equal(t, http.StatusCreated, venueResp.StatusCode)
	decodeJSON(t, venueResp, &venue)
	env.venueID = venue.ID

	env.staffID = createUser(t, env, "staff1", "staffpass1", service.RoleStaff)
	env.managerID = createUser(t, env, "manager1", "managerpass1", service.RoleManager)
	addMember(t, env, venue.ID, env.staffID, true)
	addMember(t, env, venue.ID, env.managerID, false)

	env.staffTok = login(t, srv, "staff1", "staffpass1")
	env.mgrTok = login(t, srv, "manager1", "managerpass1")
	return env
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func createUser(t *testing.T, env *testEnv, username, password, role string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/users",
		jsonBody(t, map[string]any{
			"username": username, "name": "E2E " + username,
			"password": password, "role": role,
		}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &body)
	return body.ID
}

func addMember(t *testing.T, env *testEnv, venueID, userID string, primary bool) {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/venues/"+venueID+"/members",
		jsonBody(t, map[string]any{"user_id": userID, "is_primary": primary}), env.admin)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func submitRequest(t *testing.T, env *testEnv, token string, startOffset, endOffset int) timeOffJSON {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/timeoff",
		jsonBody(t, map[string]any{"start_date": day(startOffset), "end_date": day(endOffset)}), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body timeOffJSON
	decodeJSON(t, resp, &body)
	return body
}

// ── Tests ────────────────────────────────────────────────────────────────────

// T-E2E-1: Full request cycle
func TestE2E_FullRequestCycle(t *testing.T) {
	env := setupTestEnv(t)

	req := submitRequest(t, env, env.staffTok, 10, 14)
	assert.Equal(t, "PENDING", req.Status)
	assert.Equal(t, "5", req.Days)
	assert.Equal(t, 1, req.Version)

	// Manager sees it in the shared-venue listing.
	listResp := do(t, env.server, "GET", "/v1/timeoff?status=PENDING", nil, env.mgrTok)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var visible []timeOffJSON
	decodeJSON(t, listResp, &visible)
	require.Len(t, visible, 1)
	assert.Equal(t, req.ID, visible[0].ID)

	// Approve against the version just read.
	reviewResp := do(t, env.server, "POST", "/v1/timeoff/"+req.ID+"/review",
		jsonBody(t, map[string]any{"decision": "APPROVED", "version": req.Version}), env.mgrTok)
	require.Equal(t, http.StatusOK, reviewResp.StatusCode)
	var reviewed timeOffJSON
	decodeJSON(t, reviewResp, &reviewed)
	assert.Equal(t, "APPROVED", reviewed.Status)
	assert.Equal(t, 2, reviewed.Version)

	// The owner's leave balance was charged the five approved days.
	userResp := do(t, env.server, "GET", "/v1/users/"+env.staffID, nil, env.admin)
	require.Equal(t, http.StatusOK, userResp.StatusCode)
	var user struct {
		LeaveBalanceDays string `json:"leave_balance_days"`
	}
	decodeJSON(t, userResp, &user)
	assert.Equal(t, "20", user.LeaveBalanceDays)

	// Owner sees the terminal state under /mine.
	mineResp := do(t, env.server, "GET", "/v1/timeoff/mine", nil, env.staffTok)
	require.Equal(t, http.StatusOK, mineResp.StatusCode)
	var mine []timeOffJSON
	decodeJSON(t, mineResp, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "APPROVED", mine[0].Status)
}

// T-E2E-2: Overlap rejected under HTTP
func TestE2E_OverlapRejected(t *testing.T) {
	env := setupTestEnv(t)

	submitRequest(t, env, env.staffTok, 10, 14)

	resp := do(t, env.server, "POST", "/v1/timeoff",
		jsonBody(t, map[string]any{"start_date": day(14), "end_date": day(16)}), env.staffTok)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// A disjoint range right after the first is accepted.
	second := submitRequest(t, env, env.staffTok, 15, 16)
	assert.Equal(t, "PENDING", second.Status)
}

// T-E2E-3: Stale-version review
func TestE2E_StaleVersionReview(t *testing.T) {
	env := setupTestEnv(t)

	req := submitRequest(t, env, env.staffTok, 10, 12)

	first := do(t, env.server, "POST", "/v1/timeoff/"+req.ID+"/review",
		jsonBody(t, map[string]any{"decision": "REJECTED", "version": 1}), env.mgrTok)
	require.Equal(t, http.StatusOK, first.StatusCode)
	first.Body.Close()

	// The same version token again: the row is terminal now, reported as an
	// invalid transition rather than a concurrency loss.
	second := do(t, env.server, "POST", "/v1/timeoff/"+req.ID+"/review",
		jsonBody(t, map[string]any{"decision": "APPROVED", "version": 1}), env.mgrTok)
	assert.Equal(t, http.StatusUnprocessableEntity, second.StatusCode)
	second.Body.Close()
}

// T-E2E-4: Cancel transitions
func TestE2E_CancelFlow(t *testing.T) {
	env := setupTestEnv(t)

	req := submitRequest(t, env, env.staffTok, 10, 12)

	// Only the owner may cancel.
	forbidden := do(t, env.server, "DELETE", "/v1/timeoff/"+req.ID, nil, env.mgrTok)
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)
	forbidden.Body.Close()

	ok := do(t, env.server, "DELETE", "/v1/timeoff/"+req.ID, nil, env.staffTok)
	assert.Equal(t, http.StatusNoContent, ok.StatusCode)
	ok.Body.Close()

	// Cancelling again reports the terminal state.
	again := do(t, env.server, "DELETE", "/v1/timeoff/"+req.ID, nil, env.staffTok)
	assert.Equal(t, http.StatusUnprocessableEntity, again.StatusCode)
	again.Body.Close()

	// A cancelled request frees the range for a new submission.
	refiled := submitRequest(t, env, env.staffTok, 10, 12)
	assert.Equal(t, "PENDING", refiled.Status)
}

// T-E2E-5: Cross-venue isolation
func TestE2E_CrossVenueIsolation(t *testing.T) {
	env := setupTestEnv(t)

	// Second venue with its own staff member.
	var other struct {
		ID string `json:"id"`
	}
	venueResp := do(t, env.server, "POST", "/v1/venues",
		jsonBody(t, map[string]any{"name": "Riverside Cafe", "timezone": "Europe/London"}), env.admin)
	require.Equal(t, http.StatusCreated, venueResp.StatusCode)
	decodeJSON(t, venueResp, &other)

	outsiderID := createUser(t, env, "outsider1", "outsiderpass", service.RoleStaff)
	addMember(t, env, other.ID, outsiderID, true)
	outsiderTok := login(t, env.server, "outsider1", "outsiderpass")

	submitRequest(t, env, env.staffTok, 10, 12)
	theirs := submitRequest(t, env, outsiderTok, 10, 12)

	// The manager at Harbour Bar never sees the Riverside request.
	listResp := do(t, env.server, "GET", "/v1/timeoff", nil, env.mgrTok)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var visible []timeOffJSON
	decodeJSON(t, listResp, &visible)
	for _, v := range visible {
		assert.NotEqual(t, theirs.ID, v.ID)
	}

	// And cannot review it either.
	reviewResp := do(t, env.server, "POST", "/v1/timeoff/"+theirs.ID+"/review",
		jsonBody(t, map[string]any{"decision": "APPROVED", "version": 1}), env.mgrTok)
	assert.Equal(t, http.StatusForbidden, reviewResp.StatusCode)
	reviewResp.Body.Close()
}

package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/config"
	"github.com/caridad-unsta/caridad/internal/model"
	sqliteRepo "github.com/caridad-unsta/caridad/internal/repository/sqlite"
)

const testSecret = "test-secret-that-is-long-enough-32b"

// testEnv runs the real router over an in-memory database.
type testEnv struct {
	t       *testing.T
	db      *sqliteRepo.DB
	handler http.Handler
	tokens  *auth.TokenService
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:                    8080,
		DBPath:                  ":memory:",
		JWTSecret:               testSecret,
		TokenTTL:                time.Hour,
		EnforceActivityCapacity: true,
		LogLevel:                "error",
		LogFormat:               "text",
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), cfg, db, logger)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	return &testEnv{t: t, db: db, handler: srv.Handler(), tokens: tokens}
}

// user creates an account and returns it with a valid bearer token.
func (e *testEnv) user(email, name string, role model.Role) (*model.User, string) {
	e.t.Helper()
	u := &model.User{Email: email, Name: name, Role: role}
	require.NoError(e.t, e.db.Users().Create(context.Background(), u))
	token, err := e.tokens.Generate(u.ID)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Field   string            `json:"field"`
	Fields  map[string]string `json:"fields"`
}

// =========================================================================
// AUTHENTICATION & AUTHORIZATION
// =========================================================================

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)
	member, token := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)

	rr := env.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[model.User](t, rr)
	assert.Equal(t, member.ID, me.ID)
	assert.Equal(t, model.RoleMember, me.Role)
}

func TestAdminRoutesRejectMembers(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users/all"},
		{http.MethodPost, "/api/donation-sections"},
		{http.MethodGet, "/api/donations"},
		{http.MethodPost, "/api/activities"},
		{http.MethodGet, "/api/admin/overview"},
		{http.MethodDelete, "/api/festive-campaigns?id=x"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := env.do(tc.method, tc.path, token, map[string]string{})
			assert.Equal(t, http.StatusForbidden, rr.Code)
		})
	}
}

func TestBootstrapAdminPasswordLogin(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.AdminEmail = "admin@unsta.edu.ar"
		cfg.AdminPassword = "correct horse battery"
		cfg.AdminName = "Secretaría"
	})

	rr := env.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@unsta.edu.ar", "password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@unsta.edu.ar", "password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session, "session cookie not set")
	assert.True(t, session.HttpOnly)

	result := decode[struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}](t, rr)
	assert.Equal(t, model.RoleAdmin, result.User.Role)
	assert.Equal(t, "Secretaría", result.User.Name)

	rr = env.do(http.MethodGet, "/api/admin/overview", result.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestGoogleLoginNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(http.MethodGet, "/auth/google/login", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// =========================================================================
// USERS
// =========================================================================

func TestUserSelfService(t *testing.T) {
	env := newTestEnv(t, nil)
	ana, anaToken := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)
	leo, _ := env.user("leo@unsta.edu.ar", "Leo", model.RoleMember)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)

	rr := env.do(http.MethodPut, "/api/users/update-name", anaToken, map[string]string{"name": "Ana María"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ana María", decode[model.User](t, rr).Name)

	rr = env.do(http.MethodPut, "/api/users/update-name", anaToken, map[string]string{"id": leo.ID, "name": "Hacked"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(http.MethodPut, "/api/users/update-student-code", anaToken, map[string]string{"memberCode": "A-1234"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "A-1234", decode[model.User](t, rr).MemberCode)

	rr = env.do(http.MethodPut, "/api/users/update-role", adminToken, map[string]string{"id": ana.ID, "role": "Admin"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.RoleAdmin, decode[model.User](t, rr).Role)

	rr = env.do(http.MethodPut, "/api/users/update-role", adminToken, map[string]string{"id": ana.ID, "role": "Owner"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/users/all?role=Admin&sort=name", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.User](t, rr), 2)

	rr = env.do(http.MethodPost, "/api/users/create", adminToken, map[string]string{"email": "LEO@unsta.edu.ar", "name": "Dup"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUserRoleLookup(t *testing.T) {
	env := newTestEnv(t, nil)
	u := &model.User{Email: "g@unsta.edu.ar", Name: "G", Role: model.RoleMember, ExternalID: "google:42"}
	require.NoError(t, env.db.Users().Create(context.Background(), u))
	token, err := env.tokens.Generate(u.ID)
	require.NoError(t, err)

	rr := env.do(http.MethodGet, "/api/users/role/google:42", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"role": "Member"}, decode[map[string]string](t, rr))

	rr = env.do(http.MethodGet, "/api/users/role/google:43", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// =========================================================================
// SECTIONS & DONATIONS
// =========================================================================

func TestDonationFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	jane, janeToken := env.user("jane@unsta.edu.ar", "Jane Doe", model.RoleMember)
	_, otherToken := env.user("leo@unsta.edu.ar", "Leo", model.RoleMember)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)

	rr := env.do(http.MethodPost, "/api/donation-sections", adminToken, map[string]string{"name": "Clothing"})
	require.Equal(t, http.StatusCreated, rr.Code)
	section := decode[model.DonationSection](t, rr)
	assert.Equal(t, "clothing", section.Slug)

	rr = env.do(http.MethodPost, "/api/donation-sections", adminToken, map[string]string{"name": "clothing"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// In-kind donation, confirmed by an admin.
	rr = env.do(http.MethodPost, "/api/donations", janeToken, map[string]any{
		"sectionId": section.ID, "amount": 0, "description": "3 coats", "donorName": "Jane",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	donation := decode[model.DonationView](t, rr)
	assert.Equal(t, model.StatusPending, donation.Status)
	assert.Equal(t, model.KindInKind, donation.Kind)
	assert.Equal(t, jane.ID, donation.UserID)

	rr = env.do(http.MethodPut, "/api/donations/"+donation.ID, adminToken, map[string]string{"status": "Confirmed"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.StatusConfirmed, decode[model.DonationView](t, rr).Status)

	rr = env.do(http.MethodGet, "/api/donations/stats?sectionId="+section.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[model.DonationStats](t, rr)
	assert.Equal(t, 1, stats.CountByStatus[model.StatusConfirmed])
	assert.Equal(t, 1, stats.InKindCount)

	// Jane heard about it.
	rr = env.do(http.MethodGet, "/api/users/notifications/unread-count", janeToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rr)["unread"])

	// Ownership.
	rr = env.do(http.MethodGet, "/api/donations/"+donation.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = env.do(http.MethodGet, "/api/donations/"+donation.ID, janeToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Section with donations cannot be deleted.
	rr = env.do(http.MethodDelete, "/api/donation-sections/"+section.ID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDonationAnonymity(t *testing.T) {
	env := newTestEnv(t, nil)
	_, janeToken := env.user("jane@unsta.edu.ar", "Jane Doe", model.RoleMember)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)
	section := &model.DonationSection{Name: "Monetary", Slug: "monetary", IsActive: true}
	require.NoError(t, env.db.Sections().Create(context.Background(), section))

	rr := env.do(http.MethodPost, "/api/donations", janeToken, map[string]any{
		"sectionId": section.ID, "amount": 500, "isAnonymous": true,
		"donorName": "Jane", "donorEmail": "jane@unsta.edu.ar",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	for _, path := range []string{"/api/donations", "/api/admin/recent-donations", "/api/donations/mine"} {
		token := adminToken
		if path == "/api/donations/mine" {
			token = janeToken
		}
		rr := env.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		views := decode[[]map[string]any](t, rr)
		require.Len(t, views, 1, path)
		assert.Equal(t, model.AnonymousDonor, views[0]["donorName"], path)
		assert.NotContains(t, views[0], "donorEmail", path)
	}

	rr = env.do(http.MethodGet, "/api/admin/export/donations.csv", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.AnonymousDonor, records[1][7])
	assert.Empty(t, records[1][8])
}

func TestDonationSubmitValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.user("jane@unsta.edu.ar", "Jane", model.RoleMember)

	rr := env.do(http.MethodPost, "/api/donations", token, map[string]any{"amount": -5})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "validation_error", body.Error)
	assert.Contains(t, body.Fields, "sectionId")
	assert.Contains(t, body.Fields, "amount")

	rr = env.do(http.MethodPost, "/api/donations", token, map[string]any{"sectionId": "nope", "amount": 5})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "sectionId", decode[errorBody](t, rr).Field)

	req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(`{"sectionId":`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =========================================================================
// CAMPAIGNS
// =========================================================================

func TestCampaignFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)
	_, memberToken := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)

	rr := env.do(http.MethodPost, "/api/festive-campaigns", adminToken, map[string]any{
		"name": "Winter Drive", "description": "Coats for July",
		"startDate": "2026-06-01", "endDate": "2026-07-31",
		"items": []string{"A", "B"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	campaign := decode[model.FestiveCampaign](t, rr)
	require.NotNil(t, campaign.SectionID)
	assert.Equal(t, []string{"A", "B"}, campaign.Items)

	rr = env.do(http.MethodGet, "/api/donation-sections/slug/winter-drive", memberToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	section := decode[model.DonationSection](t, rr)
	assert.Equal(t, *campaign.SectionID, section.ID)

	rr = env.do(http.MethodPost, "/api/festive-campaigns", adminToken, map[string]any{
		"name": "Backwards", "startDate": "2026-08-01", "endDate": "2026-07-01",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodPut, "/api/festive-campaigns", adminToken, map[string]any{
		"id": campaign.ID, "isEnabled": false,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[model.FestiveCampaign](t, rr).IsEnabled)

	rr = env.do(http.MethodGet, "/api/festive-campaigns/"+campaign.ID, memberToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"A", "B"}, decode[model.FestiveCampaign](t, rr).Items)

	rr = env.do(http.MethodDelete, "/api/festive-campaigns", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodDelete, "/api/festive-campaigns?id="+campaign.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, "/api/festive-campaigns/"+campaign.ID, memberToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// =========================================================================
// ACTIVITIES
// =========================================================================

func TestActivityFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)
	_, anaToken := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)
	_, leoToken := env.user("leo@unsta.edu.ar", "Leo", model.RoleMember)

	rr := env.do(http.MethodPost, "/api/activities", adminToken, map[string]any{
		"title": "Cleanup", "date": "2026-10-21T15:00:00Z", "location": "Parque 9 de Julio",
		"maxParticipants": 1,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	activity := decode[model.Activity](t, rr)

	rr = env.do(http.MethodPost, "/api/activities/"+activity.ID+"/join", anaToken, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = env.do(http.MethodPost, "/api/activities/"+activity.ID+"/join", anaToken, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = env.do(http.MethodPost, "/api/activities/"+activity.ID+"/join", leoToken, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "activity is full")

	rr = env.do(http.MethodGet, "/api/activities?from=2026-10-19&to=2026-10-25", leoToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Activity](t, rr), 1)

	rr = env.do(http.MethodGet, "/api/activities?from=2026-10-26&to=2026-11-01", leoToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]model.Activity](t, rr))

	rr = env.do(http.MethodGet, "/api/activities?from=tomorrow", leoToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/activities/"+activity.ID+"/participants", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Participant](t, rr), 1)

	rr = env.do(http.MethodGet, "/api/activities/mine", anaToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Activity](t, rr), 1)

	rr = env.do(http.MethodDelete, "/api/activities/"+activity.ID+"/join", anaToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(http.MethodDelete, "/api/activities/"+activity.ID+"/join", anaToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Members only ever see active activities.
	rr = env.do(http.MethodPut, "/api/activities/"+activity.ID, adminToken, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(http.MethodGet, "/api/activities?active=false", leoToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]model.Activity](t, rr))
	rr = env.do(http.MethodGet, "/api/activities?active=false", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Activity](t, rr), 1)

	// Everyone was told about the new activity.
	rr = env.do(http.MethodGet, "/api/users/notifications", leoToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	feed := decode[[]model.Notification](t, rr)
	require.Len(t, feed, 1)
	assert.Equal(t, model.NotificationActivity, feed[0].Type)
}

func TestActivityAdvisoryCapacity(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.EnforceActivityCapacity = false })
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)

	rr := env.do(http.MethodPost, "/api/activities", adminToken, map[string]any{
		"title": "Cleanup", "date": "2026-10-21T15:00:00Z", "maxParticipants": 1,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	activity := decode[model.Activity](t, rr)

	for _, email := range []string{"a@unsta.edu.ar", "b@unsta.edu.ar"} {
		_, token := env.user(email, email, model.RoleMember)
		rr := env.do(http.MethodPost, "/api/activities/"+activity.ID+"/join", token, nil)
		assert.Equal(t, http.StatusCreated, rr.Code, email)
	}
}

// =========================================================================
// ADMIN DASHBOARD
// =========================================================================

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)
	env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)

	rr := env.do(http.MethodGet, "/api/admin/overview", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	overview := decode[model.Overview](t, rr)
	assert.Equal(t, 2, overview.TotalUsers)
	assert.Equal(t, 1, overview.AdminUsers)

	rr = env.do(http.MethodGet, "/api/admin/charts/donations-by-month?months=3", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.SeriesPoint](t, rr), 3)

	rr = env.do(http.MethodGet, "/api/admin/charts/user-growth?months=2", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	growth := decode[[]model.SeriesPoint](t, rr)
	require.Len(t, growth, 2)
	assert.Equal(t, 2, growth[1].Count)

	rr = env.do(http.MethodGet, "/api/admin/charts/pie", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodGet, "/api/admin/recent-activities?limit=x", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/admin/export/users.csv", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="users.csv"`)

	rr = env.do(http.MethodGet, "/api/admin/export/passwords.csv", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminNotifications(t *testing.T) {
	env := newTestEnv(t, nil)
	_, adminToken := env.user("admin@unsta.edu.ar", "Admin", model.RoleAdmin)
	_, anaToken := env.user("ana@unsta.edu.ar", "Ana", model.RoleMember)

	rr := env.do(http.MethodPost, "/api/admin/notifications", adminToken, map[string]string{
		"title": "Colecta", "message": "Mañana juntamos ropa",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	n := decode[model.Notification](t, rr)
	assert.True(t, n.IsGlobal)

	rr = env.do(http.MethodPost, "/api/users/notifications/"+n.ID+"/read", anaToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, "/api/users/notifications", anaToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	feed := decode[[]model.Notification](t, rr)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].Read)

	rr = env.do(http.MethodPost, "/api/users/notifications/read-all", anaToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rr)["marked"])

	rr = env.do(http.MethodDelete, "/api/admin/notifications/"+n.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, "/api/admin/notifications/"+n.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[model.Notification](t, rr).IsActive)

	rr = env.do(http.MethodGet, "/api/admin/notifications/ghost", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = env.do(http.MethodDelete, "/api/admin/notifications/ghost", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodGet, "/api/users/notifications", anaToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]model.Notification](t, rr))
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dailybread/handlers"
	"dailybread/models"
	"dailybread/repository"
	"dailybread/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t     *testing.T
	store *repository.MemoryStore
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()

	auth := services.NewAuthService(store, store, store, time.Hour, logger)
	churches := &services.ChurchService{Churches: store, Users: store, Audit: store, Logger: logger}
	admin := &services.AdminService{Churches: store, Users: store, Roles: store, Audit: store, Logger: logger}
	giving := services.NewGivingService(store, store, store, store, logger)
	dashboard := services.NewDashboardService(store, store, store, store, "https://app.example.org")
	statements := services.NewStatementService(store, store, store, nil, logger)
	statements.Render = func(context.Context, []byte) ([]byte, error) { return []byte("%PDF-1.4"), nil }

	h := SetupRoutes(Handlers{
		Auth:       auth,
		User:       &handlers.UserHandler{Auth: auth, Logger: logger},
		Church:     &handlers.ChurchHandler{Churches: churches, Dashboard: dashboard, Logger: logger},
		Giving:     &handlers.GivingHandler{Giving: giving, Dashboard: dashboard, Logger: logger},
		Admin:      &handlers.AdminHandler{Admin: admin, Logger: logger},
		PDF:        &handlers.PDFHandler{Statements: statements, Logger: logger},
		Contact:    &handlers.ContactHandler{Contact: &services.ContactService{Messages: store, Logger: logger}, Logger: logger},
		CORSOrigin: "https://app.example.org",
		Logger:     logger,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{t: t, store: store, srv: srv}
}

func (s *testServer) do(method, path, token string, body interface{}) (*http.Response, envelope) {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (s *testServer) signUp(email string) services.AuthResult {
	s.t.Helper()
	resp, env := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":            email,
		"password":         "secret1",
		"confirm_password": "secret1",
		"first_name":       "Ana",
		"last_name":        "Lopez",
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, env.Message)
	var res services.AuthResult
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res
}

func redirectOf(t *testing.T, env envelope) string {
	t.Helper()
	var data struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Redirect
}

func TestHealthAndPricing(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "https://app.example.org", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, env = s.do(http.MethodGet, "/api/pricing", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var p services.Pricing
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(30), p.ChurchFeeFixedCents)

	resp, _ = s.do(http.MethodOptions, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuards(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/auth", redirectOf(t, env))

	resp, env = s.do(http.MethodGet, "/api/dashboard", "not-a-session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/auth", redirectOf(t, env))

	donor := s.signUp("ana@example.com")

	resp, env = s.do(http.MethodGet, "/api/church-admin/dashboard", donor.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/dashboard", redirectOf(t, env))

	resp, env = s.do(http.MethodGet, "/api/platform-admin/churches", donor.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/dashboard", redirectOf(t, env))

	resp, env = s.do(http.MethodGet, "/api/church-admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/auth", redirectOf(t, env))
}

func TestSignupValidationAndLogin(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "abc", "confirm_password": "abc",
		"first_name": "Ana", "last_name": "Lopez",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password must be at least 6 characters", env.Message)

	s.signUp("ana@example.com")
	resp, env = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "secret1", "confirm_password": "secret1",
		"first_name": "Ana", "last_name": "Lopez",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "An account with this email already exists. Try logging in.", env.Message)

	resp, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", env.Message)

	resp, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please enter a valid email", env.Message)

	resp, env = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret1", "portal": "donor",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "/dashboard", res.Landing)

	resp, _ = s.do(http.MethodGet, "/api/auth/session", res.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/auth/logout", res.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/api/auth/session", res.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDonorFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	city := "Austin"
	church := &models.Church{Name: "Grace Chapel", Slug: "grace-chapel", City: &city, Status: models.ChurchActive}
	require.NoError(t, s.store.CreateChurch(ctx, church))
	donor := s.signUp("ana@example.com")

	resp, env := s.do(http.MethodGet, "/api/churches/search?q=grace", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []models.PublicChurch
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)

	resp, env = s.do(http.MethodPost, "/api/my-church/join", donor.Token, map[string]int64{"church_id": church.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You're now giving to Grace Chapel!", env.Message)

	resp, _ = s.do(http.MethodPut, "/api/settings", donor.Token, map[string]interface{}{"multiplier": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for range 3 {
		resp, env = s.do(http.MethodPost, "/api/roundups", donor.Token, map[string]interface{}{
			"amount": "4.01", "merchant": "Cafe",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	}
	var last services.PurchaseResult
	require.NoError(t, json.Unmarshal(env.Data, &last))
	require.NotNil(t, last.Donation)
	assert.Equal(t, int64(891), last.Donation.GrossCents)

	resp, env = s.do(http.MethodGet, "/api/dashboard", donor.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash services.DonorDashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, "Grace Chapel", dash.Church.Name)

	resp, env = s.do(http.MethodPut, "/api/settings", donor.Token, map[string]interface{}{"multiplier": 4})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Multiplier must be 1x, 2x or 3x", env.Message)

	year := time.Now().UTC().Year()
	resp, _ = s.do(http.MethodGet, fmt.Sprintf("/api/donations/statement?year=%d", year), donor.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestChurchReviewFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, env := s.do(http.MethodPost, "/api/auth/church-signup", "", map[string]string{
		"email": "pastor@example.com", "password": "secret1", "confirm_password": "secret1",
		"first_name": "Sam", "last_name": "Reed",
		"church_name": "Grace Chapel", "city": "Austin", "state": "TX",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var pastor services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &pastor))
	assert.Equal(t, "/church-admin", pastor.Landing)
	churchID, ok := models.AdminChurchID(pastor.Roles)
	require.True(t, ok)

	// Pending churches are hidden from donors.
	resp, _ = s.do(http.MethodGet, "/api/churches/slug/grace-chapel", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/church-admin/dashboard", pastor.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	admin := s.signUp("admin@example.com")
	require.NoError(t, s.store.AssignRole(ctx, &models.UserRole{UserID: admin.User.ID, Role: models.RolePlatformAdmin}))

	resp, env = s.do(http.MethodGet, "/api/platform-admin/churches?status=pending", admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing services.ChurchListing
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Churches, 1)

	path := fmt.Sprintf("/api/platform-admin/churches/%d/approve", churchID)
	resp, env = s.do(http.MethodPost, path, admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Grace Chapel has been approved", env.Message)

	resp, env = s.do(http.MethodPost, path, admin.Token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Only pending churches can be reviewed", env.Message)

	resp, _ = s.do(http.MethodGet, "/api/churches/slug/grace-chapel", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = s.do(http.MethodGet, "/api/platform-admin/audit", admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []models.AuditEvent
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.NotEmpty(t, events)
	assert.Equal(t, models.AuditChurchApproved, events[0].Action)

	resp, _ = s.do(http.MethodGet, "/api/church-admin/donations.csv", pastor.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/church-admin/church/logo", &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+pastor.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRecoverWrapper(t *testing.T) {
	h := handlers.RecoverWrapper(zap.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

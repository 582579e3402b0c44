package integration__test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/fittrack/internal/auth"
	"github.com/geocoder89/fittrack/internal/cache"
	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/db"
	apphttp "github.com/geocoder89/fittrack/internal/http"
	"github.com/geocoder89/fittrack/internal/observability"
	"github.com/geocoder89/fittrack/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      testSecret,
		JWTTTL:         time.Hour,
		MaxBodyBytes:   1 << 20,
		AdminEmail:     "admin@example.com",
		AdminPassword:  "admin-password",
		AdminFirstName: "Test Admin",
	}
}

type testApp struct {
	router http.Handler
	users  *memory.UsersRepo
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testConfig()

	users := memory.NewUsersRepo()
	workouts := memory.NewWorkoutsRepo()

	_, err := db.EnsureAdminUser(context.Background(), users, cfg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:          users,
		Workouts:       workouts,
		Tokens:         auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		ProfileCache:   cache.NewMemoryProfileCache(time.Minute),
		Metrics:        observability.NewProm(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	return &testApp{router: router, users: users}
}

// helpers

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) register(t *testing.T, email, password string) {
	t.Helper()

	w := a.do(t, http.MethodPost, "/users/register", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var e errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestRegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	app.register(t, "ada@example.com", "correct-horse")

	dup := app.do(t, http.MethodPost, "/users/register", "", map[string]string{"email": "ADA@example.com", "password": "other-password"})
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "email_taken", decodeError(t, dup).Error.Code)

	all, err := app.users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2) // ada plus the seeded admin

	bad := app.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	token := app.login(t, "ada@example.com", "correct-horse")

	profile := app.do(t, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Contains(t, profile.Body.String(), `"email":"ada@example.com"`)
	assert.NotContains(t, profile.Body.String(), "$2a$")
}

func TestAuthMiddleware_Outcomes(t *testing.T) {
	app := setupApp(t)
	app.register(t, "ada@example.com", "correct-horse")
	token := app.login(t, "ada@example.com", "correct-horse")

	t.Run("no header", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/workouts", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		e := decodeError(t, w)
		assert.Equal(t, "no_token", e.Error.Code)
		assert.Equal(t, "No Token Provided", e.Error.Message)
		assert.NotEmpty(t, e.Error.RequestID)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
		req.Header.Set("Authorization", "Basic "+token)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_auth_scheme", decodeError(t, w).Error.Code)
	})

	t.Run("raw token without scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
		req.Header.Set("Authorization", token)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_auth_scheme", decodeError(t, w).Error.Code)
	})

	t.Run("lowercase bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		forged := strings.Replace(string(payload), `"isAdmin":false`, `"isAdmin":true`, 1)
		require.NotEqual(t, string(payload), forged)
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

		w := app.do(t, http.MethodGet, "/admin/users", strings.Join(parts, "."), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		e := decodeError(t, w)
		assert.Equal(t, "invalid_token", e.Error.Code)
		assert.True(t, strings.HasPrefix(e.Error.Message, "Authentication Failed: "), e.Error.Message)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other, err := auth.NewManager("another-secret", time.Hour).Issue(auth.Identity{ID: "x", Email: "x@example.com"})
		require.NoError(t, err)

		w := app.do(t, http.MethodGet, "/workouts", other, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAdminGuard(t *testing.T) {
	app := setupApp(t)
	app.register(t, "ada@example.com", "correct-horse")

	userToken := app.login(t, "ada@example.com", "correct-horse")
	adminToken := app.login(t, "admin@example.com", "admin-password")

	w := app.do(t, http.MethodGet, "/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Error.Code)

	w = app.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestRootHealthAndMetrics(t *testing.T) {
	app := setupApp(t)

	w := app.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fitness Tracker API is running!", w.Body.String())

	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/readyz", "", nil).Code)

	// one failed auth so the counter has a sample
	app.do(t, http.MethodGet, "/workouts", "", nil)

	m := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "fittrack_http_requests_total")
	assert.Contains(t, m.Body.String(), `fittrack_auth_results_total{result="no_token"} 1`)
}

package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"agora/internal/config"
	"agora/internal/middleware"
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesTestSecret = "test-secret-key-12345678901234567890123456789012"

// newRoutesTestApp wires a Server with no DB or Redis and registers the full
// route table. Useful for exercising auth gates and input validation, which
// reject requests before any repository call.
func newRoutesTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{JWTSecret: routesTestSecret, Env: "test"}
	middleware.InitMiddleware(cfg)

	s := &Server{config: cfg}
	app := fiber.New()
	s.SetupRoutes(app)
	return app
}

func routesTestToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":            strconv.FormatUint(uint64(userID), 10),
		"role":           role,
		"email_verified": true,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routesTestSecret))
	require.NoError(t, err)
	return token
}

func TestRoutes_ProtectedRequireAuth(t *testing.T) {
	app := newRoutesTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodPost, "/api/posts/1/comments"},
		{http.MethodPost, "/api/posts/1/vote"},
		{http.MethodDelete, "/api/posts/1/vote"},
		{http.MethodPost, "/api/posts/1/favorite"},
		{http.MethodPost, "/api/posts/1/subscription"},
		{http.MethodPut, "/api/posts/1/status"},
		{http.MethodPut, "/api/posts/1/solution/2"},
		{http.MethodDelete, "/api/posts/1/solution/2"},
		{http.MethodPost, "/api/comments/1/vote"},
		{http.MethodPut, "/api/comments/1/status"},
		{http.MethodDelete, "/api/comments/1"},
		{http.MethodGet, "/api/favorites"},
		{http.MethodGet, "/api/users/me"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRoutes_AdminOnlyRejectRegularUser(t *testing.T) {
	app := newRoutesTestApp(t)
	token := routesTestToken(t, 7, models.RoleUser)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/posts/1/status"},
		{http.MethodPut, "/api/comments/1/status"},
		{http.MethodGet, "/api/users"},
		{http.MethodPut, "/api/users/3/role"},
		{http.MethodPost, "/api/categories"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestRoutes_InvalidIDParamRejectedBeforeLookup(t *testing.T) {
	app := newRoutesTestApp(t)
	token := routesTestToken(t, 7, models.RoleUser)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/posts/abc/vote"},
		{http.MethodPost, "/api/posts/abc/favorite"},
		{http.MethodDelete, "/api/comments/abc/vote"},
		{http.MethodDelete, "/api/comments/0"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRoutes_MalformedVoteBodyRejected(t *testing.T) {
	app := newRoutesTestApp(t)
	token := routesTestToken(t, 7, models.RoleUser)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/1/vote",
		strings.NewReader(`{"value": 5`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_LivenessCheck(t *testing.T) {
	app := newRoutesTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

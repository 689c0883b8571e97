package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"katalog/internal/domain"
	"katalog/internal/logger"
	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, *services.SessionClaims, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	claims, _ := args.Get(1).(*services.SessionClaims)
	return user, claims, args.Error(2)
}

func statusOnly(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return c.SendStatus(fiber.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		return c.SendStatus(fiber.StatusForbidden)
	default:
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

func newAuthApp(auth middleware.Authenticator, role models.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: statusOnly})
	app.Get("/me", middleware.AuthRequired(auth), func(c *fiber.Ctx) error {
		return c.SendString(middleware.CurrentUser(c).Email)
	})
	app.Get("/admin", middleware.AuthRequired(auth), middleware.RequireRole(role), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/bare", middleware.RequireRole(role), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	customer := &models.User{ID: "u1", Email: "ana@example.com", Roles: models.Roles{models.RoleCustomer}}
	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "good").Return(customer, &services.SessionClaims{}, nil)
	auth.On("Authenticate", mock.Anything, "bad").Return(nil, nil, domain.ErrUnauthorized)
	app := newAuthApp(auth, models.RoleAdmin)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"bearer", "Bearer good", "", http.StatusOK},
		{"lowercase scheme", "bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"bad token", "Bearer bad", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", "good", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	customer := &models.User{ID: "u1", Roles: models.Roles{models.RoleCustomer}}
	admin := &models.User{ID: "u2", Roles: models.Roles{models.RoleCustomer, models.RoleAdmin}}
	superuser := &models.User{ID: "u3", IsSuperuser: true}

	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "customer").Return(customer, &services.SessionClaims{}, nil)
	auth.On("Authenticate", mock.Anything, "admin").Return(admin, &services.SessionClaims{}, nil)
	auth.On("Authenticate", mock.Anything, "super").Return(superuser, &services.SessionClaims{}, nil)
	app := newAuthApp(auth, models.RoleAdmin)

	for token, want := range map[string]int{
		"customer": http.StatusForbidden,
		"admin":    http.StatusOK,
		"super":    http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, token)
	}

	// Without AuthRequired in front there is no user at all.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bare", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestTimer(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: statusOnly})
	app.Use(middleware.RequestTimer(logger.Nop()))
	app.Get("/work", func(c *fiber.Ctx) error {
		stats := logger.QueryStatsFrom(c.UserContext())
		require.NotNil(t, stats)
		stats.Record(2 * time.Millisecond)
		stats.Record(3 * time.Millisecond)
		return c.SendString("done")
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return domain.ErrForbidden
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/work", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(middleware.HeaderDBQueryCount))
	assert.Equal(t, "0.005s", resp.Header.Get(middleware.HeaderDBQueryTime))
	assert.Regexp(t, `^\d+\.\d{3}s$`, resp.Header.Get(middleware.HeaderTotalTime))

	// Errors are rendered before the headers are written.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get(middleware.HeaderDBQueryCount))
}

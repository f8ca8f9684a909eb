package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icondo/parcel-service/internal/domain"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

func newTestApp(tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.SendString(principal.Username)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	residentToken, _, err := tm.GenerateToken(resident101())
	require.NoError(t, err)
	staffToken, _, err := tm.GenerateToken(&domain.User{ID: 1, Username: "staff01", Role: domain.RoleStaff})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		guard      fiber.Handler
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: apperrors.CodeUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: apperrors.CodeUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: apperrors.CodeUnauthorized},
		{name: "resident ok", header: "Bearer " + residentToken, guard: RequireAnyRole(), wantStatus: http.StatusOK, wantBody: "resident101"},
		{name: "resident blocked from staff route", header: "Bearer " + residentToken, guard: RequireStaff(), wantStatus: http.StatusForbidden, wantBody: apperrors.CodeForbidden},
		{name: "staff ok", header: "bearer " + staffToken, guard: RequireStaff(), wantStatus: http.StatusOK, wantBody: "staff01"},
		{name: "staff blocked from resident route", header: "Bearer " + staffToken, guard: RequireResident(), wantStatus: http.StatusForbidden, wantBody: apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var guards []fiber.Handler
			if tt.guard != nil {
				guards = append(guards, tt.guard)
			}
			app := newTestApp(tm, guards...)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

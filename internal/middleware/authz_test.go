package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// Admin-protected routes chain JWTAuth and RequireRole, so an invalid or
// missing token answers 401 while a valid token with the wrong role
// answers 403.
func TestAdminRouteAuthorizationStateMachine(t *testing.T) {
	e := echo.New()
	e.POST("/admin-only", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, JWTAuth(testSecret), RequireRole("admin"))

	serve := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("no token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(""))
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("garbage"))
	})

	t.Run("valid token wrong role", func(t *testing.T) {
		access, err := utils.NewAccessToken(testSecret, 2, "bob", "registrado", 7)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, serve(access.Token))
	})

	t.Run("valid admin token", func(t *testing.T) {
		access, err := utils.NewAccessToken(testSecret, 1, "ana", "admin", 7)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, serve(access.Token))
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexvia/nexvia_portal_backend/models"
)

func roleRequest(role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	return c, rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	c, rec := roleRequest(models.RoleAdmin)

	called := false
	handler := RequireRole(models.RoleAdmin, models.RoleEmployee)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	c, rec := roleRequest(models.RoleRetailer)

	handler := RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	c, rec := roleRequest("")

	handler := RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractUserIDFallsBackToClaims(t *testing.T) {
	c, _ := roleRequest("")
	assert.Empty(t, ExtractUserID(c))

	c.Set("userId", "abc123")
	assert.Equal(t, "abc123", ExtractUserID(c))
}

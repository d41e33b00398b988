package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/response"
)

func runRoleCheck(t *testing.T, role interface{}, allowed ...model.Role) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/tickets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	reached := false
	h := RequireRole(allowed...)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestRequireRoleAllows(t *testing.T) {
	rec, reached := runRoleCheck(t, model.RoleAdmin, model.RoleAdmin)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// A member hitting an admin route holds a perfectly valid session, so the
// refusal must say FORBIDDEN, not UNAUTHORIZED.
func TestRequireRoleWrongRoleIsForbidden(t *testing.T) {
	rec, reached := runRoleCheck(t, model.RoleMember, model.RoleAdmin)
	assert.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, response.CodeForbidden, env.Code)
}

func TestRequireRoleMissingRole(t *testing.T) {
	rec, reached := runRoleCheck(t, nil, model.RoleAdmin)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

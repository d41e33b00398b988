package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
)

// currentUserID extracts the authenticated user id stored in the context by
// the JWT middleware.
func currentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok && id != 0
}

// currentRole extracts the authenticated role stored by the JWT middleware.
func currentRole(c echo.Context) (model.Role, bool) {
	r, ok := c.Get("role").(model.Role)
	return r, ok
}

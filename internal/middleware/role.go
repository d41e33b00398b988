package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/response"
)

// RequireRole returns a middleware that enforces that the authenticated
// user has one of the specified roles.  It assumes JWTAuth has stored the
// role in the context under "role".  Requests with a missing or disallowed
// role get 403 FORBIDDEN; UNAUTHORIZED is reserved for missing or invalid
// sessions and never used here.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(model.Role)
			if !ok || !allowed[role] {
				return response.Fail(c, http.StatusForbidden, response.CodeForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

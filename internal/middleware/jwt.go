package middleware // reusable HTTP middleware shared by the API routes

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/response"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request context.
// The provided secret must match the one used when issuing tokens.
// Handlers behind this middleware read the authenticated user via
// c.Get("user_id") (uint64) and c.Get("role") (model.Role).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sess, err := parseSession(raw, secret)
			if err != nil {
				return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token")
			}
			c.Set("user_id", sess.UserID)
			c.Set("role", sess.Role)
			return next(c)
		}
	}
}

// Session is the authenticated identity extracted from an access token.
type Session struct {
	UserID uint64
	Role   model.Role
}

// parseSession validates an HS256 access token and extracts its claims.
func parseSession(raw, secret string) (*Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.ErrUnauthorized
	}
	sub, ok := claims["sub"].(float64) // numeric claims decode as float64
	if !ok || sub <= 0 {
		return nil, echo.ErrUnauthorized
	}
	roleRaw, _ := claims["role"].(string)
	role, ok := model.ParseRole(roleRaw)
	if !ok {
		return nil, echo.ErrUnauthorized
	}
	return &Session{UserID: uint64(sub), Role: role}, nil
}

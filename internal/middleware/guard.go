package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
)

// Navigation prefixes guarded by Decide.
const (
	pathHome      = "/"
	pathDashboard = "/dashboard"
	authPrefix    = "/auth"
	adminPrefix   = "/admin"
)

// publicPaths lists navigation paths reachable without a session.  Auth
// pages are listed so anonymous users can reach the forms; Decide still
// bounces authenticated users away from them.
var publicPaths = map[string]bool{
	pathHome:            true,
	"/auth/login":       true,
	"/auth/register":    true,
	"/auth/verify":      true,
	"/blog":             true,
	"/newsletter":       true,
	"/mentions-legales": true,
}

// Decision is the outcome of evaluating a navigation request.
type Decision struct {
	Proceed  bool
	Redirect string // target path when Proceed is false
}

func proceed() Decision               { return Decision{Proceed: true} }
func redirect(target string) Decision { return Decision{Redirect: target} }

// Decide is the single route-guard decision function.  It is pure: given
// the current session (nil when unauthenticated) and the requested path it
// returns proceed or a redirect target.  It holds no state and must be
// re-evaluated on every navigation because the session can change between
// requests.
//
// Rules, in order:
//  1. public paths proceed regardless of session
//  2. no session on a non-public path redirects to home, preserving the
//     requested path as a return target
//  3. a session on an auth page redirects home
//  4. the admin prefix requires the ADMIN role
//  5. a session at the root redirects to the dashboard
//  6. everything else proceeds
func Decide(sess *Session, path string) Decision {
	isAuthPage := strings.HasPrefix(path, authPrefix)

	if sess == nil {
		if publicPaths[path] {
			return proceed()
		}
		return redirect(pathHome + "?next=" + url.QueryEscape(path))
	}
	if isAuthPage {
		return redirect(pathHome)
	}
	if strings.HasPrefix(path, adminPrefix) && sess.Role != model.RoleAdmin {
		return redirect(pathHome)
	}
	if path == pathHome {
		return redirect(pathDashboard)
	}
	return proceed()
}

// RouteGuard applies Decide to navigation (non-API) requests.  The session
// is read from the Authorization header or the access_token cookie; an
// invalid token counts as no session.
func RouteGuard(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/api") || path == "/healthz" {
				return next(c)
			}
			sess := sessionFrom(c, jwtSecret)
			d := Decide(sess, path)
			if d.Proceed {
				return next(c)
			}
			return c.Redirect(http.StatusFound, d.Redirect)
		}
	}
}

// sessionFrom extracts a session from the request, or nil.
func sessionFrom(c echo.Context, secret string) *Session {
	raw := ""
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	} else if ck, err := c.Cookie("access_token"); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		return nil
	}
	sess, err := parseSession(raw, secret)
	if err != nil {
		return nil
	}
	return sess
}

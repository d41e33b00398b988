package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/ratelimit"
	"github.com/amicale/member-portal/internal/response"
)

// RateLimit returns a fixed-window request limiter keyed by client address.
// The counter store is injected: an in-process map for single-node
// deployments or a Redis-backed store when several processes must share one
// limit.  Store failures fail open so a counter outage never takes the API
// down with it.
func RateLimit(cfg config.RateLimitConfig, store ratelimit.Store) echo.MiddlewareFunc {
	if !cfg.Enabled || store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := cfg.Prefix + ":ip:" + ip

			count, windowStart, err := store.Increment(c.Request().Context(), key, cfg.Window)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] store error for key=%s: %v", key, err)
				}
				return next(c)
			}

			remaining := int64(cfg.MaxRequests) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.MaxRequests) {
				retry := time.Until(windowStart.Add(cfg.Window))
				secs := int(retry.Seconds())
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("[ratelimit] block key=%s count=%d retry=%ds", key, count, secs)
				}
				return response.Fail(c, http.StatusTooManyRequests, response.CodeRateLimited, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/ratelimit"
)

func limitedEcho(t *testing.T, cfg config.RateLimitConfig, store ratelimit.Store) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(RateLimit(cfg, store))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	return e
}

func TestRateLimitAllowsExactlyMaxPerWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStoreWithClock(func() time.Time { return now })
	cfg := config.RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 3, Prefix: "rl"}
	e := limitedEcho(t, cfg, store)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStoreWithClock(func() time.Time { return now })
	cfg := config.RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 1, Prefix: "rl"}
	e := limitedEcho(t, cfg, store)

	fire := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, fire())
	assert.Equal(t, http.StatusTooManyRequests, fire())

	now = now.Add(time.Minute) // window boundary resets the count
	assert.Equal(t, http.StatusOK, fire())
}

func TestRateLimitKeysClientsSeparately(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := config.RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 1, Prefix: "rl"}
	e := limitedEcho(t, cfg, store)

	fire := func(addr string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, fire("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, fire("10.0.0.1:2222")) // same IP, different port
	assert.Equal(t, http.StatusOK, fire("10.0.0.2:1111"))
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false}
	e := limitedEcho(t, cfg, ratelimit.NewMemoryStore())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

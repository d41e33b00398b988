package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures the fixed-window request limiter.  Window and
// MaxRequests are policy values fixed at startup; they are not adjustable at
// runtime.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration // length of a counting window
	MaxRequests int           // requests allowed per client key per window
	Prefix      string        // key namespace for the shared store
	Debug       bool
}

// LoadRateLimitConfig reads environment variables and applies sane bounds.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Window:      envDur("RATE_LIMIT_WINDOW", time.Minute),
		MaxRequests: envInt("RATE_LIMIT_MAX", 60),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

// QuotaConfig carries per-category purchase bounds.  The observed cinema
// policy (monthly cap 5, orders of 1-5 units) is only the default; both
// values are configuration inputs, not constants.
type QuotaConfig struct {
	MonthlyCap  int // max total units per user per calendar month and category
	MaxPerOrder int // max units in a single order
}

// LoadQuotaConfig reads quota bounds from the environment.
func LoadQuotaConfig() QuotaConfig {
	cfg := QuotaConfig{
		MonthlyCap:  envInt("CINEMA_MONTHLY_QUOTA", 5),
		MaxPerOrder: envInt("CINEMA_MAX_PER_ORDER", 5),
	}
	if cfg.MonthlyCap < 1 {
		cfg.MonthlyCap = 1
	}
	if cfg.MaxPerOrder < 1 {
		cfg.MaxPerOrder = 1
	}
	if cfg.MaxPerOrder > cfg.MonthlyCap {
		cfg.MaxPerOrder = cfg.MonthlyCap
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil && dur > 0 {
		return dur
	}
	return d
}

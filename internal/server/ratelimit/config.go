package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GenerationLimit and GenerationWindow bound every completion-backed route and the admin usage route.
const (
	GenerationLimit  = 5
	GenerationWindow = time.Minute
)

// Route is a request budget for one method on one path. A Path ending in "/" covers every path below it,
// and each concrete path still gets its own bucket.
type Route struct {
	Path      string
	Method    string
	Limit     int
	Window    time.Duration
	Burst     int // defaults to Limit
	Unlimited bool
}

func (r Route) matches(path, method string) bool {
	if r.Method != method {
		return false
	}
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return r.Path == path
}

// DefaultRoutes returns the budgets for the rate-limited API surface with the given per-window limit.
func DefaultRoutes(limit int) []Route {
	return []Route{
		{Path: "/admin/token-usage", Method: "POST", Limit: limit, Window: GenerationWindow},
		{Path: "/api/", Method: "POST", Limit: limit, Window: GenerationWindow},
	}
}

// matchRoute returns the first route covering path and method. Exact routes are listed before prefixes.
func matchRoute(path, method string, routes []Route) (Route, bool) {
	for _, r := range routes {
		if r.matches(path, method) {
			return r, true
		}
	}
	return Route{}, false
}

// LoadConfig reads RATE_LIMIT_* variables. Unset or malformed values fall back to the defaults.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		Routes:          DefaultRoutes(envInt("RATE_LIMIT_GENERATION_LIMIT", GenerationLimit)),
	}
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// parseIPList splits a comma-separated client list into a set.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}

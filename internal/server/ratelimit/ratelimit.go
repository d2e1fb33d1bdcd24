// Package ratelimit provides per-identity, per-route rate limiting on top of golang.org/x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucket pairs a token bucket with the settings it was built from.
type bucket struct {
	limiter  *rate.Limiter
	capacity int
	every    time.Duration
}

// newBucket creates a full bucket allowing limit requests per window with the given burst.
func newBucket(limit int, window time.Duration, burst int) *bucket {
	if burst <= 0 {
		burst = limit
	}
	every := window / time.Duration(limit)
	return &bucket{
		limiter:  rate.NewLimiter(rate.Every(every), burst),
		capacity: burst,
		every:    every,
	}
}

// take consumes one token at now when available. When it is not, the returned duration is how long
// the caller must wait for the next token.
func (b *bucket) take(now time.Time) (bool, time.Duration) {
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, b.every
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// status reports the whole tokens left at now and when the bucket will be full again.
func (b *bucket) status(now time.Time) (remaining int, resetTime time.Time) {
	tokens := b.limiter.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	remaining = int(tokens)
	missing := float64(b.capacity) - tokens
	if missing <= 0 {
		return remaining, now
	}
	return remaining, now.Add(time.Duration(missing * float64(b.every)))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients using token buckets.
type Limiter struct {
	buckets       map[string]*bucket // Client ID + route -> bucket
	lastAccess    map[string]time.Time
	mu            sync.Mutex
	config        *Config
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
	now           func() time.Time
}

// Config holds rate limiting configuration. Requests matching no route use the default budget.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Routes          []Route
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
			Routes:          DefaultRoutes(GenerationLimit),
		}
	}

	limiter := &Limiter{
		buckets:    make(map[string]*bucket),
		lastAccess: make(map[string]time.Time),
		config:     config,
		now:        time.Now,
	}

	// Start cleanup goroutine if enabled
	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow takes one token from the bucket for clientID on endpoint and reports the resulting budget.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	route, ok := matchRoute(endpoint, method, l.config.Routes)
	if !ok {
		route = Route{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if route.Unlimited || route.Limit <= 0 || route.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + ":" + method + " " + endpoint
	b := l.getBucket(key, route, now)

	allowed, retryAfter := b.take(now)
	remaining, resetTime := b.status(now)

	return allowed, Info{
		Allowed:    allowed,
		Limit:      route.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// getBucket gets or creates the bucket for key and records the access.
func (l *Limiter) getBucket(key string, route Route, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = newBucket(route.Limit, route.Window, route.Burst)
		l.buckets[key] = b
	}
	l.lastAccess[key] = now
	return b
}

// cleanup removes old unused buckets to prevent memory leaks.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets(l.now().Add(-1 * time.Hour))
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets that have not been accessed since cutoff.
func (l *Limiter) cleanupBuckets(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}

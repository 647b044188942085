package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements a sliding-window limiter keyed by client and
// endpoint, so a burst against one route does not starve the others.
// Keys whose windows have fully expired are swept once per window, so
// clients that go quiet do not pin map entries forever.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	rate      int           // requests per window
	window    time.Duration // time window
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request for the key and reports whether it fits in the
// window. The second return value is the wait until the oldest request
// leaves the window, for the Retry-After hint.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	kept := l.windows[key][:0]
	for _, t := range l.windows[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.rate {
		l.windows[key] = kept
		return false, kept[0].Sub(cutoff)
	}

	l.windows[key] = append(kept, now)
	return true, 0
}

// sweep removes keys whose newest entry has left the window. Timestamps
// are appended in order, so checking the last one is enough.
func (l *RateLimiter) sweep(cutoff time.Time) {
	for key, times := range l.windows {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}

// RateLimit middleware limits requests per client IP and endpoint
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		key := c.ClientIP() + " " + c.FullPath()

		ok, wait := limiter.Allow(key)
		if !ok {
			retryAfter := int(wait.Seconds()) + 1

			slog.Warn("rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.FullPath(),
				"request_id", GetRequestID(c),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", retryAfter),
			})
			return
		}

		c.Next()
	}
}

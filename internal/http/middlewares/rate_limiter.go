package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key, held in process memory.
// Limits are per replica.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	windows map[string]*window
	now     func() time.Time

	// expired windows are swept every sweepEvery new windows
	sweepEvery int
	opened     int
}

type window struct {
	count int
	ends  time.Time
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:      limit,
		window:     per,
		windows:    make(map[string]*window),
		now:        time.Now,
		sweepEvery: 1024,
	}
}

// allow counts one request for key. When the key is over its limit it
// reports how long until the window resets.
func (rl *RateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.ends) {
		rl.maybeSweep(now)
		rl.windows[key] = &window{count: 1, ends: now.Add(rl.window)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, w.ends.Sub(now)
	}
	w.count++
	return true, 0
}

// RateLimiterMiddleware enforces the limit for the key keyFn derives. An
// empty key falls back to the client IP.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		ok, wait := rl.allow(key, rl.now())
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}
		c.Next()
	}
}

func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// KeyByUserOrIP keys signed-in callers by account so a shared NAT does not
// throttle them together.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != "" {
		return "user:" + id
	}
	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}

func (rl *RateLimiter) maybeSweep(now time.Time) {
	rl.opened++
	if rl.opened < rl.sweepEvery {
		return
	}
	rl.opened = 0

	for k, w := range rl.windows {
		if now.After(w.ends) {
			delete(rl.windows, k)
		}
	}
}

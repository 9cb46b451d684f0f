package middlewares

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is the single owner of rate-limit state: fixed-window
// counters keyed by (bucket, client IP). One instance is created at
// boot and injected into the router; there is no ambient global map.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]map[string]*rateEntry
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]map[string]*rateEntry),
	}
}

// Limit returns a middleware enforcing at most max requests per window
// for the named bucket, per client IP. Responses carry X-RateLimit
// headers; excess requests get 429.
func (rl *RateLimiter) Limit(bucket string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		store, ok := rl.buckets[bucket]
		if !ok {
			store = make(map[string]*rateEntry)
			rl.buckets[bucket] = store
		}

		entry := store[key]
		if entry == nil || !entry.resetAt.After(now) {
			entry = &rateEntry{resetAt: now.Add(window)}
			store[key] = entry
		}
		entry.count++

		remaining := max - entry.count
		if remaining < 0 {
			remaining = 0
		}
		over := entry.count > max
		resetAt := entry.resetAt

		if len(store) > 4096 {
			rl.evictExpired(store, now)
		}
		rl.mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) evictExpired(store map[string]*rateEntry, now time.Time) {
	for key, entry := range store {
		if !entry.resetAt.After(now) {
			delete(store, key)
		}
	}
}

// NewStrictLimiter is a process-wide token bucket for abuse-prone
// endpoints such as registration, layered on top of the bucketed
// limiter.
func NewStrictLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(r, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}

package httpserver

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit configures a per-client token bucket.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops buckets not touched for this long.
	IdleTTL time.Duration
}

// StrictRateLimit is used on the OTP routes.
func StrictRateLimit() RateLimit {
	return RateLimit{RequestsPerSecond: 0.2, Burst: 5, IdleTTL: 10 * time.Minute}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	cfg       RateLimit
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(cfg RateLimit) *rateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &rateLimiter{cfg: cfg, buckets: make(map[string]*bucket), now: time.Now}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.cfg.IdleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > rl.cfg.IdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// rateLimited rejects clients, keyed by IP, that exceed the bucket with 429.
func rateLimited(cfg RateLimit) gin.HandlerFunc {
	rl := newRateLimiter(cfg)
	retryAfter := "1"
	if cfg.RequestsPerSecond > 0 && cfg.RequestsPerSecond < 1 {
		retryAfter = strconv.Itoa(int(1/cfg.RequestsPerSecond + 0.5))
	}
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}

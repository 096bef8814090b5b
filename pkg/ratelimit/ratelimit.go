package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	// Rate is the number of requests allowed per second
	Rate float64
	// Burst is the maximum number of requests allowed in a burst
	Burst int
	// CleanupInterval is how often to clean up stale entries
	CleanupInterval time.Duration
	// MaxAge is how long to keep an entry after last access
	MaxAge time.Duration
}

// DefaultAPIConfig paces calls to the product REST API: 5 req/s per host, burst of 10.
// The product throttles tenants well below what a parallel run can issue.
func DefaultAPIConfig() Config {
	return Config{
		Rate:            5,
		Burst:           10,
		CleanupInterval: time.Minute,
		MaxAge:          5 * time.Minute,
	}
}

// DefaultReceiverConfig protects the webhook receiver: 50 req/s per client IP, burst of 100.
func DefaultReceiverConfig() Config {
	return Config{
		Rate:            50,
		Burst:           100,
		CleanupInterval: time.Minute,
		MaxAge:          5 * time.Minute,
	}
}

// entry holds rate limiter and last access time for a key
type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// KeyedLimiter keeps one token bucket per key (host name, client IP) with
// automatic cleanup of idle keys.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	config   Config
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed limiter with the given configuration
func New(cfg Config) *KeyedLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	rl := &KeyedLimiter{
		entries: make(map[string]*entry),
		config:  cfg,
		done:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *KeyedLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.entries[key]
	if !exists {
		limit := rate.Limit(rl.config.Rate)
		if rl.config.Rate <= 0 {
			limit = rate.Inf
		}
		e = &entry{limiter: rate.NewLimiter(limit, rl.config.Burst)}
		rl.entries[key] = e
	}
	e.lastAccess = time.Now()
	return e.limiter
}

// Allow reports whether a request for key may happen now.
func (rl *KeyedLimiter) Allow(key string) bool {
	return rl.limiterFor(key).Allow()
}

// Wait blocks until a request for key may happen or ctx is done.
func (rl *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiterFor(key).Wait(ctx)
}

// Middleware limits requests per client IP. Rejected requests get a 429 with
// Retry-After set to whole seconds until the next token.
func (rl *KeyedLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := rl.limiterFor(c.ClientIP())
		if lim.Allow() {
			c.Next()
			return
		}
		if r := rl.config.Rate; r > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/r))))
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded, please try again later",
		})
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *KeyedLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

func (rl *KeyedLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, e := range rl.entries {
		if now.Sub(e.lastAccess) > rl.config.MaxAge {
			delete(rl.entries, key)
		}
	}
}

// Len returns the current number of tracked keys (for testing/metrics)
func (rl *KeyedLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.entries)
}

// Config returns a copy of the current configuration (for testing)
func (rl *KeyedLimiter) Config() Config {
	return rl.config
}

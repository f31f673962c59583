package security

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
}

// RateLimitResult is the outcome of one rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a per-caller token bucket limiter. Buckets refill
// continuously at the configured per-minute rate and idle buckets are
// reaped by a background goroutine.
type RateLimiter struct {
	config *RateLimitConfig
	logger *logrus.Logger

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	stop    chan struct{}
	stopped bool
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
func NewRateLimiter(config *RateLimitConfig, logger *logrus.Logger) *RateLimiter {
	if config.BurstSize == 0 {
		config.BurstSize = config.RequestsPerMinute
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		config:  config,
		logger:  logger,
		buckets: make(map[string]*tokenBucket),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes one token for the key if available.
func (rl *RateLimiter) Allow(key string) *RateLimitResult {
	if !rl.config.Enabled {
		return &RateLimitResult{Allowed: true, Remaining: rl.config.BurstSize}
	}

	now := time.Now()
	perSecond := float64(rl.config.RequestsPerMinute) / 60.0

	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(rl.config.BurstSize), lastRefill: now}
		rl.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.tokens += elapsed * perSecond
	if bucket.tokens > float64(rl.config.BurstSize) {
		bucket.tokens = float64(rl.config.BurstSize)
	}
	bucket.lastRefill = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return &RateLimitResult{Allowed: true, Remaining: int(bucket.tokens)}
	}

	retry := time.Duration((1 - bucket.tokens) / perSecond * float64(time.Second))
	return &RateLimitResult{Allowed: false, Remaining: 0, RetryAfter: retry}
}

// Reset clears the bucket for a key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.stopped {
		return
	}
	rl.stopped = true
	close(rl.stop)
}

// Middleware enforces the limit per caller, keyed by credential when
// present and by client address otherwise.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := TokenFromRequest(r)
			if key == "" {
				key = ClientIP(r)
			}

			result := rl.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				rl.logger.WithFields(logrus.Fields{
					"key_prefix": MaskKey(key),
					"path":       r.URL.Path,
				}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":{"message":"rate limit exceeded","type":"rate_limit_error","code":429},"timestamp":%d}`, time.Now().Unix())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops buckets idle for more than two cleanup intervals.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-2 * rl.config.CleanupInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.WithField("removed", removed).Debug("Cleaned up idle rate limit buckets")
	}
}

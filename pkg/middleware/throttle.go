package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"petstop/backend/pkg/errors"
	"petstop/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ThrottleOptions configures the global request throttle
type ThrottleOptions struct {
	// Limit defines requests per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// ExpiryDuration defines how long to keep client state in memory
	ExpiryDuration time.Duration
	// KeyFunc extracts the limiting key from a request
	KeyFunc func(*gin.Context) string
}

// DefaultThrottleOptions returns the defaults used when none are given
func DefaultThrottleOptions() ThrottleOptions {
	return ThrottleOptions{
		Limit:          20,
		Burst:          40,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// client represents a throttled client
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a token-bucket limit applied to every API request per client.
// It is independent of the attempt counters guarding signup and login.
type Throttle struct {
	mu      sync.Mutex
	options ThrottleOptions
	clients map[string]*client
	logger  *logger.Logger
}

// NewThrottle creates a new throttle
func NewThrottle(log *logger.Logger, options ...ThrottleOptions) *Throttle {
	opts := DefaultThrottleOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = DefaultThrottleOptions().KeyFunc
	}
	if opts.ExpiryDuration <= 0 {
		opts.ExpiryDuration = time.Hour
	}

	return &Throttle{
		options: opts,
		clients: make(map[string]*client),
		logger:  log,
	}
}

// Middleware returns a Gin middleware enforcing the throttle
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := t.options.KeyFunc(c)

		if !t.getLimiter(key).Allow() {
			t.logger.Warn("Throttle exceeded",
				"client", key,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			c.Header("Retry-After", "1")
			c.Header("X-RateLimit-Limit", strconv.Itoa(t.options.Burst))
			_ = c.Error(errors.NewTooManyRequestsError("THROTTLED", "Too many requests. Please try again later."))
			c.Abort()
			return
		}

		c.Next()
	}
}

// getLimiter returns the token bucket for the given key
func (t *Throttle) getLimiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, exists := t.clients[key]
	if !exists {
		limiter := rate.NewLimiter(t.options.Limit, t.options.Burst)
		t.clients[key] = &client{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops clients idle for longer than ExpiryDuration, every interval, until ctx is done
func (t *Throttle) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.evictIdle(time.Now())
		}
	}
}

func (t *Throttle) evictIdle(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, v := range t.clients {
		if now.Sub(v.lastSeen) > t.options.ExpiryDuration {
			delete(t.clients, k)
			removed++
		}
	}
	return removed
}

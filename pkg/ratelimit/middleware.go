package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultClientIPHeader carries the client address behind the edge proxy
const DefaultClientIPHeader = "CF-Connecting-IP"

// TooManyAttemptsMessage is the body of every 429 answered by Middleware
const TooManyAttemptsMessage = "Too many attempts. Please try again later."

// MiddlewareConfig configures Middleware
type MiddlewareConfig struct {
	Class Class
	// Header holds the client key. Defaults to DefaultClientIPHeader.
	Header string
	// OnDeny runs after a denial has been written
	OnDeny func(c *gin.Context, key string, d Decision)
}

// ClientKey reads the client key from header, falling back to UnknownKey
func ClientKey(c *gin.Context, header string) string {
	if header == "" {
		header = DefaultClientIPHeader
	}
	if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
		return v
	}
	return UnknownKey
}

// Middleware counts one attempt per request and answers 429 once the class
// budget for the client key is spent. It panics if the class is unregistered.
func (l *Limiter) Middleware(cfg MiddlewareConfig) gin.HandlerFunc {
	if _, ok := l.policies[cfg.Class]; !ok {
		panic("ratelimit: middleware for unregistered class " + string(cfg.Class))
	}

	return func(c *gin.Context) {
		key := ClientKey(c, cfg.Header)

		d := l.Allow(c.Request.Context(), cfg.Class, key)
		if d.Allowed {
			c.Next()
			return
		}

		if d.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": TooManyAttemptsMessage})

		if cfg.OnDeny != nil {
			cfg.OnDeny(c, key, d)
		}
	}
}

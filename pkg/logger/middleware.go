package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key holding the request-scoped *Logger.
const ContextKey = "logger"

// Middleware returns a Gin middleware function that logs requests.
// It expects the request ID middleware to have run first.
func Middleware(base *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := base.WithRequestID(c.GetString("requestID"))

		c.Set(ContextKey, reqLogger)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), reqLogger))

		start := time.Now()
		c.Next()

		reqLogger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// FromGin returns the request-scoped logger, or the global one outside a request.
func FromGin(c *gin.Context) *Logger {
	if v, ok := c.Get(ContextKey); ok {
		if l, ok := v.(*Logger); ok {
			return l
		}
	}
	return GetGlobal()
}

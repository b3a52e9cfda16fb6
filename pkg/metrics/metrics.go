// Package metrics records request-envelope outcomes as OpenTelemetry instruments.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "petstop/backend"

// Recorder holds the instruments. A nil *Recorder records nothing.
type Recorder struct {
	rateLimited  metric.Int64Counter
	authRejected metric.Int64Counter
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewRecorder creates the instruments on provider
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	rateLimited, err := meter.Int64Counter("petstop_rate_limited_total",
		metric.WithDescription("Attempts denied by the rate limiter"))
	if err != nil {
		return nil, err
	}
	authRejected, err := meter.Int64Counter("petstop_auth_rejected_total",
		metric.WithDescription("Requests rejected by the auth gate"))
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter("petstop_http_requests_total",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("petstop_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		rateLimited:  rateLimited,
		authRejected: authRejected,
		requests:     requests,
		duration:     duration,
	}, nil
}

// RateLimited counts one denied attempt for class
func (r *Recorder) RateLimited(ctx context.Context, class string) {
	if r == nil {
		return
	}
	r.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

// AuthRejected counts one rejected request by reason
func (r *Recorder) AuthRejected(ctx context.Context, reason string) {
	if r == nil {
		return
	}
	r.authRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Middleware records count and latency per route template and status
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		ctx := c.Request.Context()
		r.requests.Add(ctx, 1, attrs)
		r.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

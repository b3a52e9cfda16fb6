// Package redis builds the Redis client shared by the attempt counters and the cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the client
type Options struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the startup connectivity check
	PingTimeout time.Duration
}

// NewClient connects and pings Redis. The client is closed on ping failure.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Checker adapts a client to the health checker
type Checker struct {
	client redis.UniversalClient
}

// NewChecker creates a health check for client
func NewChecker(client redis.UniversalClient) *Checker {
	return &Checker{client: client}
}

// Check pings Redis
func (c *Checker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

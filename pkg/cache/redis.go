package cache

import (
	"context"
	"errors"
	"time"

	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis behind a circuit breaker, so an
// unreachable Redis degrades to cache misses instead of slow requests.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewRedisCache creates a cache using keys "<prefix>:<key>"
func NewRedisCache(client redis.UniversalClient, prefix string, breaker *resilience.CircuitBreaker, log *logger.Logger) *RedisCache {
	if log == nil {
		log = logger.GetGlobal()
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-cache"), log)
	}
	return &RedisCache{client: client, prefix: prefix, breaker: breaker, log: log}
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := c.breaker.Execute(func() error {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		val = b
		return err
	})
	if err != nil {
		c.logFailure(err, "get", key)
		return nil, false
	}
	return val, val != nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	err := c.breaker.Execute(func() error {
		return c.client.Set(ctx, c.key(key), value, ttl).Err()
	})
	if err != nil {
		c.logFailure(err, "set", key)
	}
}

// Delete implements Cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	err := c.breaker.Execute(func() error {
		return c.client.Del(ctx, full...).Err()
	})
	if err != nil {
		c.logFailure(err, "delete", keys[0])
	}
}

// Breaker exposes the circuit breaker for health reporting
func (c *RedisCache) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

func (c *RedisCache) logFailure(err error, op, key string) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.log.Debug("Cache bypassed, circuit open", "op", op, "key", key)
		return
	}
	c.log.LogError(err, "Cache operation failed", "op", op, "key", key)
}

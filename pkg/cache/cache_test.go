package cache

import (
	"context"
	"testing"
	"time"

	"petstop/backend/pkg/logger"
	"petstop/backend/pkg/resilience"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCache(2)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", []byte("1"), time.Minute)
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok, "expired entries are misses")

	c.deleteExpired()
	assert.Equal(t, 0, c.Count())

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), 2*time.Minute)
	c.Set(ctx, "c", []byte("3"), 3*time.Minute)
	assert.Equal(t, 2, c.Count())
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok, "entry closest to expiry is evicted first")

	c.Delete(ctx, "b", "c")
	assert.Equal(t, 0, c.Count())
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, "petstop", nil, logger.Discard())

	_, ok := c.Get(ctx, "petsitter:1")
	assert.False(t, ok)

	c.Set(ctx, "petsitter:1", []byte(`{"id":1}`), time.Minute)
	assert.True(t, mr.Exists("petstop:petsitter:1"))

	v, ok := c.Get(ctx, "petsitter:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(v))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "petsitter:1")
	assert.False(t, ok)

	c.Set(ctx, "petsitter:2", []byte("x"), 0)
	c.Delete(ctx, "petsitter:2")
	assert.False(t, mr.Exists("petstop:petsitter:2"))
}

func TestRedisCacheOpensBreaker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "redis-cache",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Hour,
	}, logger.Discard())
	c := NewRedisCache(client, "", breaker, logger.Discard())

	mr.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", []byte("v"), time.Minute)

	assert.Equal(t, resilience.StateOpen, c.Breaker().GetState())
}

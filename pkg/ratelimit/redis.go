package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps failures talking to Redis
var ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")

// attemptScript applies the fixed-window rules atomically on a hash
// {count, start}. start and now are unix milliseconds.
// Returns {allowed, count, start}.
var attemptScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
local start = tonumber(redis.call('HGET', KEYS[1], 'start'))

if count == nil or start == nil or (now - start) > window then
  redis.call('HSET', KEYS[1], 'count', 1, 'start', now)
  redis.call('PEXPIRE', KEYS[1], ttl)
  return {1, 1, now}
end

if count >= max then
  return {0, count, start}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, start}
`)

// RedisStore keeps counters in Redis so several processes share them
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store using keys "<prefix>:<class>:<key>"
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) counterKey(class Class, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, class, key)
}

// Attempt implements Store
func (s *RedisStore) Attempt(ctx context.Context, class Class, key string, policy Policy, now time.Time) (Decision, error) {
	windowMs := policy.Window.Milliseconds()
	// keep the hash a little past the window so the strict > comparison still sees it
	ttlMs := windowMs + time.Second.Milliseconds()

	res, err := attemptScript.Run(ctx, s.client,
		[]string{s.counterKey(class, key)},
		now.UnixMilli(), windowMs, policy.MaxAttempts, ttlMs,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}

	d := Decision{
		Allowed:     res[0] == 1,
		Count:       int(res[1]),
		WindowStart: time.UnixMilli(res[2]),
	}
	if !d.Allowed {
		d.RetryAfter = d.WindowStart.Add(policy.Window).Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d, nil
}

// Reset implements Store
func (s *RedisStore) Reset(ctx context.Context, classes []Class, key string) error {
	if len(classes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(classes))
	for _, class := range classes {
		keys = append(keys, s.counterKey(class, key))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

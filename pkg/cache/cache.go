// Package cache stores serialized read models with a TTL.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a byte-oriented key/value cache. Misses and backend failures both
// report ok=false; a cache never fails a request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Item represents a cached item with expiration
type Item struct {
	Value      []byte
	Expiration int64
}

// Expired checks if the cache item has expired at now (unix nanoseconds)
func (item Item) Expired(now int64) bool {
	if item.Expiration == 0 {
		return false
	}
	return now > item.Expiration
}

// MemoryCache is a thread-safe in-memory cache with expiration
type MemoryCache struct {
	items    map[string]Item
	mu       sync.RWMutex
	maxItems int
	now      func() time.Time
}

// NewMemoryCache creates a cache holding at most maxItems entries (0 means unbounded)
func NewMemoryCache(maxItems int) *MemoryCache {
	return &MemoryCache{
		items:    make(map[string]Item),
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Set adds an item to the cache; ttl <= 0 means no expiry
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = c.now().Add(ttl).UnixNano()
	}

	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = Item{Value: buf, Expiration: exp}
}

// Get retrieves an item from the cache
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired(c.now().UnixNano()) {
		return nil, false
	}
	return item.Value, true
}

// Delete removes items from the cache
func (c *MemoryCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
}

// Count returns the number of items in the cache (including expired items)
func (c *MemoryCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// StartCleanup removes expired items every interval until ctx is done
func (c *MemoryCache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.deleteExpired()
			}
		}
	}()
}

// deleteExpired deletes all expired items from the cache
func (c *MemoryCache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for k, v := range c.items {
		if v.Expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime int64
	first := true

	for k, v := range c.items {
		if v.Expiration == 0 {
			continue
		}
		if first || v.Expiration < oldestTime {
			oldestKey = k
			oldestTime = v.Expiration
			first = false
		}
	}
	if first {
		// only non-expiring items; drop any
		for k := range c.items {
			oldestKey = k
			break
		}
	}

	delete(c.items, oldestKey)
}

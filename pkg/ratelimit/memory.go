package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// MemoryStore keeps counters in process memory.
// One mutex serializes all attempts, so same-key increments never race.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[Class]map[string]*counter
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[Class]map[string]*counter),
	}
}

// Attempt implements Store
func (s *MemoryStore) Attempt(_ context.Context, class Class, key string, policy Policy, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.counters[class]
	if !ok {
		ns = make(map[string]*counter)
		s.counters[class] = ns
	}

	c, exists := ns[key]
	var d Decision
	if exists {
		d = decide(true, c.count, c.windowStart, policy, now)
	} else {
		d = decide(false, 0, time.Time{}, policy, now)
	}

	if d.Allowed {
		ns[key] = &counter{count: d.Count, windowStart: d.WindowStart, window: policy.Window}
	}
	return d, nil
}

// Reset implements Store
func (s *MemoryStore) Reset(_ context.Context, classes []Class, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, class := range classes {
		if ns, ok := s.counters[class]; ok {
			delete(ns, key)
		}
	}
	return nil
}

// Sweep drops counters whose window has elapsed. Such counters would be
// restarted on their next attempt anyway, so removing them changes nothing
// observable. It returns the number of counters removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, ns := range s.counters {
		for key, c := range ns {
			if now.Sub(c.windowStart) > c.window {
				delete(ns, key)
				removed++
			}
		}
	}
	return removed
}

// StartJanitor sweeps expired counters every interval until ctx is done
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}

// Len returns the number of live counters
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ns := range s.counters {
		n += len(ns)
	}
	return n
}

// Package ratelimit bounds attempts per client key on sensitive endpoints
// using fixed-window counters.
//
// A counter is {count, windowStart} per (class, key). The first attempt
// opens a window; attempts are allowed while count < MaxAttempts; once
// now - windowStart > Window the counter restarts at 1. A denied attempt
// leaves the counter untouched.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petstop/backend/pkg/logger"
)

// UnknownKey is the client key used when a request carries no address
const UnknownKey = "unknown"

// Class names an independent counter namespace
type Class string

// Endpoint classes
const (
	ClassSignup Class = "signup"
	ClassLogin  Class = "login"
)

// ErrUnknownClass is set on the Decision for a class with no registered policy
var ErrUnknownClass = errors.New("ratelimit: unknown class")

// Policy bounds attempts per key for one class
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

func (p Policy) validate() error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("ratelimit: MaxAttempts must be positive, got %d", p.MaxAttempts)
	}
	if p.Window <= 0 {
		return fmt.Errorf("ratelimit: Window must be positive, got %s", p.Window)
	}
	return nil
}

// Decision is the outcome of one attempt
type Decision struct {
	Allowed     bool
	Count       int
	WindowStart time.Time
	// RetryAfter is set on denial to the time left in the current window
	RetryAfter time.Duration
	// Err is set when the attempt was denied without a counter decision
	Err error
}

// Store keeps attempt counters. Attempt must be atomic per (class, key).
type Store interface {
	Attempt(ctx context.Context, class Class, key string, policy Policy, now time.Time) (Decision, error)
	Reset(ctx context.Context, classes []Class, key string) error
}

// Limiter applies per-class policies on top of a Store
type Limiter struct {
	store    Store
	policies map[Class]Policy
	classes  []Class
	now      func() time.Time
	log      *logger.Logger
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock overrides the limiter's time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLogger sets the logger used for denials and store failures
func WithLogger(log *logger.Logger) Option {
	return func(l *Limiter) {
		l.log = log
	}
}

// New builds a Limiter. It panics on a nil store, an empty policy set or a
// policy with non-positive MaxAttempts or Window: those are wiring bugs.
func New(store Store, policies map[Class]Policy, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimit: nil store")
	}
	if len(policies) == 0 {
		panic("ratelimit: no policies")
	}

	l := &Limiter{
		store:    store,
		policies: make(map[Class]Policy, len(policies)),
		now:      time.Now,
		log:      logger.GetGlobal(),
	}
	for class, p := range policies {
		if err := p.validate(); err != nil {
			panic(fmt.Sprintf("%v (class %s)", err, class))
		}
		l.policies[class] = p
		l.classes = append(l.classes, class)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the policy registered for class
func (l *Limiter) Policy(class Class) (Policy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Classes returns the registered classes
func (l *Limiter) Classes() []Class {
	out := make([]Class, len(l.classes))
	copy(out, l.classes)
	return out
}

// Allow records an attempt for key in class and reports whether it may proceed.
// An empty key is counted as UnknownKey. Unknown classes and store failures deny.
func (l *Limiter) Allow(ctx context.Context, class Class, key string) Decision {
	if key == "" {
		key = UnknownKey
	}

	policy, ok := l.policies[class]
	if !ok {
		l.log.LogError(ErrUnknownClass, "Rate limit check for unregistered class", "class", string(class), "key", key)
		return Decision{Err: ErrUnknownClass}
	}

	d, err := l.store.Attempt(ctx, class, key, policy, l.now())
	if err != nil {
		l.log.LogError(err, "Rate limit store failed, denying attempt", "class", string(class), "key", key)
		return Decision{RetryAfter: policy.Window, Err: err}
	}

	if !d.Allowed {
		l.log.Warn("Rate limit exceeded", "class", string(class), "key", key, "attempts", d.Count)
	}
	return d
}

// Reset clears key in every registered class
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		key = UnknownKey
	}
	if err := l.store.Reset(ctx, l.classes, key); err != nil {
		return fmt.Errorf("reset %q: %w", key, err)
	}
	l.log.Info("Rate limiter reset", "key", key)
	return nil
}

// decide applies the fixed-window rules to a counter snapshot.
// exists is false when no counter is stored for the key.
func decide(exists bool, count int, windowStart time.Time, policy Policy, now time.Time) Decision {
	if !exists || now.Sub(windowStart) > policy.Window {
		return Decision{Allowed: true, Count: 1, WindowStart: now}
	}
	if count >= policy.MaxAttempts {
		retry := windowStart.Add(policy.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Count: count, WindowStart: windowStart, RetryAfter: retry}
	}
	return Decision{Allowed: true, Count: count + 1, WindowStart: windowStart}
}

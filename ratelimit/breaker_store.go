package ratelimit

import (
	"context"
	"time"

	"github.com/kbukum/careerauth/resilience"
)

// BreakerStore guards a remote Store with a circuit breaker. While the
// circuit is open Hit returns resilience.ErrCircuitOpen at once, so the
// limiter fails open without waiting on the remote store's timeout.
type BreakerStore struct {
	next Store
	cb   *resilience.CircuitBreaker
}

// NewBreakerStore wraps next with cb.
func NewBreakerStore(next Store, cb *resilience.CircuitBreaker) *BreakerStore {
	return &BreakerStore{next: next, cb: cb}
}

// Hit implements Store.
func (s *BreakerStore) Hit(ctx context.Context, key string, window time.Duration) (Record, error) {
	var rec Record
	err := s.cb.Execute(func() error {
		var err error
		rec, err = s.next.Hit(ctx, key, window)
		return err
	})
	return rec, err
}

// Reset implements Store.
func (s *BreakerStore) Reset(ctx context.Context, key string) error {
	return s.cb.Execute(func() error {
		return s.next.Reset(ctx, key)
	})
}

// State returns the breaker state.
func (s *BreakerStore) State() resilience.State {
	return s.cb.State()
}

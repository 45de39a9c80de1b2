package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/resilience"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int64
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the whole number of seconds, rounded up and at least 1,
	// until the window resets. Zero when Allowed.
	RetryAfter int
}

// Limiter applies one Policy to identity keys.
type Limiter struct {
	store   Store
	policy  Policy
	log     *logger.Logger
	now     func() time.Time
	onLimit func(policy string)
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used for store failures and rejections.
func WithLogger(l *logger.Logger) Option {
	return func(lim *Limiter) { lim.log = l }
}

// WithNow sets the time source used to compute RetryAfter.
func WithNow(now func() time.Time) Option {
	return func(lim *Limiter) { lim.now = now }
}

// WithOnLimit registers a callback invoked with the policy name on every rejection.
func WithOnLimit(fn func(policy string)) Option {
	return func(lim *Limiter) { lim.onLimit = fn }
}

// New creates a Limiter for policy over store.
func New(store Store, policy Policy, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		policy: policy,
		log:    logger.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithComponent("ratelimit")
	return l
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy { return l.policy }

// Allow records one attempt for identity and decides whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, identity string) Decision {
	rec, err := l.store.Hit(ctx, l.recordKey(identity), l.policy.Window)
	if err != nil {
		fields := logger.Fields(logger.FieldPolicy, l.policy.Name)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// Logged once by the breaker's state change.
			l.log.Debug("Rate limit store circuit open, allowing request", fields)
		} else {
			l.log.WithError(err).Warn("Rate limit store unavailable, allowing request", fields)
		}
		return Decision{
			Allowed:   true,
			Limit:     l.policy.MaxAttempts,
			Remaining: l.policy.MaxAttempts,
			ResetAt:   l.now().Add(l.policy.Window),
		}
	}

	d := Decision{
		Allowed:   rec.Count <= int64(l.policy.MaxAttempts),
		Count:     rec.Count,
		Limit:     l.policy.MaxAttempts,
		Remaining: max(l.policy.MaxAttempts-int(rec.Count), 0),
		ResetAt:   rec.ResetAt,
	}
	if !d.Allowed {
		d.RetryAfter = retryAfter(rec.ResetAt.Sub(l.now()))
		l.log.Debug("Rate limit exceeded", logger.Fields(
			logger.FieldPolicy, l.policy.Name,
			"count", rec.Count,
			"retry_after", d.RetryAfter,
		))
		if l.onLimit != nil {
			l.onLimit(l.policy.Name)
		}
	}
	return d
}

// Reset clears the counter for identity.
func (l *Limiter) Reset(ctx context.Context, identity string) error {
	return l.store.Reset(ctx, l.recordKey(identity))
}

func (l *Limiter) recordKey(identity string) string {
	return identity + ":" + l.policy.Name
}

func retryAfter(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in process memory. Records are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now           func() time.Time
	sweepInterval time.Duration
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// WithSweepInterval sets how often expired records are dropped.
// Zero or negative disables the background sweep.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.sweepInterval = d }
}

// NewMemoryStore creates a MemoryStore and starts its sweeper. Call Close
// to stop it.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := memoryOptions{now: time.Now, sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	s := &MemoryStore{
		records: make(map[string]Record),
		now:     o.now,
		stop:    make(chan struct{}),
	}
	if o.sweepInterval > 0 {
		go s.sweepLoop(o.sweepInterval)
	}
	return s
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[key]
	if !ok || now.After(rec.ResetAt) {
		rec = Record{Count: 1, ResetAt: now.Add(window)}
	} else {
		rec.Count++
	}
	s.records[key] = rec
	return rec, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len returns the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep drops every record whose window has ended.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, rec := range s.records {
		if now.After(rec.ResetAt) {
			delete(s.records, key)
		}
	}
}

// Close stops the background sweeper. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

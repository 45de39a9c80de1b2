package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

// MemoryStore keeps sessions in process memory using bigcache. Sessions do
// not survive a restart.
type MemoryStore struct {
	// mu serializes writes so Touch cannot race with Delete.
	mu    sync.Mutex
	cache *bigcache.BigCache
}

// NewMemoryStore creates a store whose entries are evicted ttl after their
// last write. Manager touches a session on every lookup, so eviction
// follows the sliding expiry.
func NewMemoryStore(ctx context.Context, ttl time.Duration) (*MemoryStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = time.Minute
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("session: create cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Set(s.ID, data)
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	return m.get(id)
}

// Touch implements Store.
func (m *MemoryStore) Touch(_ context.Context, id string, seen time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.LastSeenAt = seen
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return m.cache.Set(id, data)
}

func (m *MemoryStore) get(id string) (*Session, error) {
	data, err := m.cache.Get(id)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &s, nil
}

// Delete implements Store. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.cache.Delete(id)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Len returns the number of stored entries, including ones not yet evicted.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close stops the cache's cleanup goroutine.
func (m *MemoryStore) Close() error {
	return m.cache.Close()
}

package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// Record is the state of one counter after a hit.
type Record struct {
	Count   int64
	ResetAt time.Time
}

// Store counts hits per key in fixed windows.
//
// Hit increments the counter for key and returns the result. The first hit
// on an absent or expired key starts a new window of the given length.
// Implementations must make each Hit atomic per key.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Record, error)
	Reset(ctx context.Context, key string) error
}

func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

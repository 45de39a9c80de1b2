// Package session implements server-side sessions referenced by a signed
// opaque cookie.
//
// The cookie value is "<id>.<hex hmac-sha256(secret, id)>". A cookie whose
// signature does not match is treated exactly like a missing one. Sessions
// expire after TTL of absence: every successful Lookup extends them.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session is missing, expired or its cookie
// fails signature verification.
var ErrNotFound = errors.New("session: not found")

// Session is the server-side record behind a cookie.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// Store persists sessions by id. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// Touch sets LastSeenAt on an existing session. It returns ErrNotFound
	// when the session is gone and must never recreate a deleted entry.
	Touch(ctx context.Context, id string, seen time.Time) error
}

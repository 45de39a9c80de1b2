// Package authctx carries the authenticated principal through a request
// context.
//
// Usage:
//
//	// In middleware, after a resolver succeeds
//	ctx = authctx.WithPrincipal(ctx, p)
//
//	// In handlers
//	p, ok := authctx.PrincipalFrom(ctx)
//
// The generic Set/Get pair remains available for callers that attach their
// own value types.
package authctx

import (
	"context"
	"errors"
)

// Source records how a principal was authenticated.
type Source string

const (
	// SourceBearer means a JWT from the Authorization header or token cookie.
	SourceBearer Source = "bearer"
	// SourceSession means a signed server-side session cookie.
	SourceSession Source = "session"
)

// Principal is the identity resolved for a request.
type Principal struct {
	UserID string
	Email  string
	Source Source
	// Token is the raw bearer token. Empty for session principals.
	Token string
	// SessionID is the server-side session id. Empty for bearer principals.
	SessionID string
}

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when nothing is stored in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores an authentication value in the context.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get retrieves a typed authentication value from the context.
// Returns the zero value and false if missing or of another type.
func Get[T any](ctx context.Context) (T, bool) {
	val := ctx.Value(claimsKey)
	if val == nil {
		var zero T
		return zero, false
	}
	claims, ok := val.(T)
	return claims, ok
}

// GetOrError is Get returning ErrNoClaims instead of a bool.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		var zero T
		return zero, ErrNoClaims
	}
	return claims, nil
}

// WithPrincipal stores p in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return Set(ctx, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := Get[*Principal](ctx)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

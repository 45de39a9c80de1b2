package authctx

import (
	"context"
	"errors"
	"testing"
)

func TestPrincipalRoundTrip(t *testing.T) {
	p := &Principal{UserID: "u-1", Email: "alice@example.com", Source: SourceBearer, Token: "t"}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFrom(ctx)
	if !ok {
		t.Fatal("expected principal in context")
	}
	if got != p {
		t.Errorf("expected same principal, got %+v", got)
	}
}

func TestPrincipalFrom_Missing(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Error("expected no principal in empty context")
	}
	ctx := WithPrincipal(context.Background(), nil)
	if _, ok := PrincipalFrom(ctx); ok {
		t.Error("nil principal should not count as present")
	}
}

func TestGet_WrongType(t *testing.T) {
	ctx := Set(context.Background(), "not a principal")
	if _, ok := Get[*Principal](ctx); ok {
		t.Error("expected type mismatch to return false")
	}
	if _, err := GetOrError[*Principal](ctx); !errors.Is(err, ErrNoClaims) {
		t.Errorf("expected ErrNoClaims, got %v", err)
	}
}

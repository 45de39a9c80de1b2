package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/careerauth/redis"
	"github.com/kbukum/careerauth/resilience"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewFromClient(rdb, "test:", nil)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RejectsAfterMax(t *testing.T) {
	store, mr := newRedisStore(t)
	lim := New(store, Policy{Name: "login", MaxAttempts: 5, Window: 15 * time.Minute})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if d := lim.Allow(ctx, "10.0.0.1"); !d.Allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}
	d := lim.Allow(ctx, "10.0.0.1")
	if d.Allowed {
		t.Fatal("6th attempt should be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 900 {
		t.Errorf("expected RetryAfter in (0, 900], got %d", d.RetryAfter)
	}

	if v, _ := mr.Get("test:rl:10.0.0.1:login"); v != "6" {
		t.Errorf("expected counter 6 in redis, got %q", v)
	}
	if ttl := mr.TTL("test:rl:10.0.0.1:login"); ttl != 15*time.Minute {
		t.Errorf("expected window TTL to be set once, got %s", ttl)
	}
}

func TestRedisStore_WindowExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	lim := New(store, Policy{Name: "register", MaxAttempts: 1, Window: time.Hour})
	ctx := context.Background()

	lim.Allow(ctx, "ip")
	if lim.Allow(ctx, "ip").Allowed {
		t.Fatal("2nd attempt should be rejected")
	}

	mr.FastForward(time.Hour + time.Second)

	d := lim.Allow(ctx, "ip")
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("expected fresh window with count 1, got %+v", d)
	}
}

func TestRedisStore_Reset(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if _, err := store.Hit(ctx, "k:login", time.Minute); err != nil {
		t.Fatalf("Hit failed: %v", err)
	}
	if err := store.Reset(ctx, "k:login"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if mr.Exists("test:rl:k:login") {
		t.Error("expected key to be deleted")
	}
}

func TestRedisStore_FailsOpenWhenDown(t *testing.T) {
	store, mr := newRedisStore(t)
	lim := New(store, Policy{Name: "login", MaxAttempts: 1, Window: time.Minute})
	mr.Close()

	if d := lim.Allow(context.Background(), "k"); !d.Allowed {
		t.Error("expected fail-open when redis is unreachable")
	}
}

func TestBreakerStore_OpensWhenRedisDown(t *testing.T) {
	store, mr := newRedisStore(t)
	bs := NewBreakerStore(store, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		Timeout:     time.Hour,
	}))
	lim := New(bs, Policy{Name: "login", MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if d := lim.Allow(ctx, "k"); !d.Allowed || d.Count != 1 {
		t.Fatalf("expected first attempt counted in redis, got %+v", d)
	}
	mr.Close()

	for i := 0; i < 2; i++ {
		if _, err := bs.Hit(ctx, "k:login", time.Minute); err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("hit %d: expected a redis error, got %v", i, err)
		}
	}
	if bs.State() != resilience.StateOpen {
		t.Fatalf("expected open breaker, got %s", bs.State())
	}
	if _, err := bs.Hit(ctx, "k:login", time.Minute); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if d := lim.Allow(ctx, "k"); !d.Allowed {
		t.Error("expected fail-open while the breaker is open")
	}
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	store, mr := newRedisStore(t)
	bs := NewBreakerStore(store, resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("test")))
	ctx := context.Background()

	rec, err := bs.Hit(ctx, "k:register", time.Hour)
	if err != nil || rec.Count != 1 {
		t.Fatalf("unexpected hit result %+v, %v", rec, err)
	}
	if err := bs.Reset(ctx, "k:register"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if mr.Exists("test:rl:k:register") {
		t.Error("expected key to be deleted")
	}
	if bs.State() != resilience.StateClosed {
		t.Errorf("expected closed breaker, got %s", bs.State())
	}
}

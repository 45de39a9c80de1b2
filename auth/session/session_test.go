package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/auth/authctx"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *testClock) {
	t.Helper()
	store, err := NewMemoryStore(context.Background(), DefaultTTL)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{t: time.Now()}
	m, err := NewManager(store, Config{Secret: []byte("session-secret")}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m, store, clock
}

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("k"))
	v := s.Sign("abc")
	id, ok := s.Unsign(v)
	if !ok || id != "abc" {
		t.Fatalf("expected abc, got %q %v", id, ok)
	}

	for _, bad := range []string{"", "abc", "abc.", ".deadbeef", "abc.zz", "abd" + v[3:]} {
		if _, ok := s.Unsign(bad); ok {
			t.Errorf("expected %q to fail", bad)
		}
	}
	if _, ok := NewSigner([]byte("other")).Unsign(v); ok {
		t.Error("expected signature from another secret to fail")
	}
}

func TestManager_CreateLookup(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s, cookie, err := m.Create(ctx, "u-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(s.ID) != idBytes*2 {
		t.Errorf("expected %d hex chars of id, got %d", idBytes*2, len(s.ID))
	}
	if !strings.HasPrefix(cookie, s.ID+".") {
		t.Errorf("cookie should carry the id, got %q", cookie)
	}

	got, err := m.Lookup(ctx, cookie)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.UserID != "u-1" || got.Email != "alice@example.com" {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestManager_SlidingExpiry(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()
	_, cookie, _ := m.Create(ctx, "u-1", "a@x.io")

	// Each lookup within the TTL pushes expiry forward.
	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Hour)
		if _, err := m.Lookup(ctx, cookie); err != nil {
			t.Fatalf("lookup %d after 20h should succeed: %v", i, err)
		}
	}

	clock.Advance(DefaultTTL + time.Second)
	if _, err := m.Lookup(ctx, cookie); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after TTL of absence, got %v", err)
	}
	clock.Advance(-DefaultTTL)
	if _, err := m.Lookup(ctx, cookie); err != ErrNotFound {
		t.Fatal("expired session must be deleted, not just hidden")
	}
}

func TestManager_TamperedCookie(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	s, cookie, _ := m.Create(ctx, "u-1", "a@x.io")

	tampered := cookie[:len(cookie)-1] + "0"
	if tampered == cookie {
		tampered = cookie[:len(cookie)-1] + "1"
	}
	for _, v := range []string{tampered, s.ID, s.ID + ".", "garbage"} {
		if _, err := m.Lookup(ctx, v); err != ErrNotFound {
			t.Errorf("expected ErrNotFound for %q, got %v", v, err)
		}
	}
}

func TestManager_Destroy(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()
	_, cookie, _ := m.Create(ctx, "u-1", "a@x.io")

	if err := m.Destroy(ctx, cookie); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := m.Lookup(ctx, cookie); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after destroy, got %v", err)
	}
	if err := m.Destroy(ctx, cookie); err != nil {
		t.Errorf("second Destroy should be a no-op, got %v", err)
	}
	if err := m.Destroy(ctx, "garbage"); err != nil {
		t.Errorf("Destroy of garbage should be a no-op, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

// destroyAfterGet ends a session right after it has been read, the way a
// concurrent logout would.
type destroyAfterGet struct {
	*MemoryStore
	onGet func()
}

func (s *destroyAfterGet) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.MemoryStore.Get(ctx, id)
	if s.onGet != nil {
		hook := s.onGet
		s.onGet = nil
		hook()
	}
	return sess, err
}

func TestManager_LookupDoesNotResurrectDestroyed(t *testing.T) {
	mem, err := NewMemoryStore(context.Background(), DefaultTTL)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })
	store := &destroyAfterGet{MemoryStore: mem}

	m, err := NewManager(store, Config{Secret: []byte("session-secret")})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	ctx := context.Background()
	_, cookie, _ := m.Create(ctx, "u-1", "a@x.io")

	store.onGet = func() {
		if err := m.Destroy(ctx, cookie); err != nil {
			t.Errorf("Destroy failed: %v", err)
		}
	}
	if _, err := m.Lookup(ctx, cookie); err != ErrNotFound {
		t.Errorf("expected ErrNotFound when destroyed mid-lookup, got %v", err)
	}
	if _, err := m.Lookup(ctx, cookie); err != ErrNotFound {
		t.Fatalf("session resolved again after logout, got %v", err)
	}
	if mem.Len() != 0 {
		t.Errorf("expected empty store, got %d", mem.Len())
	}
}

func TestMemoryStore_TouchMissing(t *testing.T) {
	_, store, _ := newTestManager(t)
	if err := store.Touch(context.Background(), "gone", time.Now()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("Touch must not create entries")
	}
}

func TestManager_Cookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _, _ := newTestManager(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetCookie(c, "id.sig")

	header := w.Header().Get("Set-Cookie")
	for _, want := range []string{"sid=id.sig", "HttpOnly", "SameSite=Lax", "Path=/", "Max-Age=86400"} {
		if !strings.Contains(header, want) {
			t.Errorf("expected %q in %q", want, header)
		}
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	m.ClearCookie(c)
	if header := w.Header().Get("Set-Cookie"); !strings.Contains(header, "Max-Age=0") {
		t.Errorf("expected cleared cookie, got %q", header)
	}
}

func TestResolver(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, cookie, _ := m.Create(context.Background(), "u-1", "alice@example.com")
	r := m.Resolver()

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	p, ok := r.Resolve(req)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.UserID != "u-1" || p.Source != authctx.SourceSession || p.SessionID != s.ID {
		t.Errorf("unexpected principal %+v", p)
	}

	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: s.ID + ".00"})
	if _, ok := r.Resolve(req); ok {
		t.Error("tampered cookie must not resolve")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Secret: []byte("s")}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Cookie.SameSite = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad same_site")
	}
	if err := (&Config{TTL: time.Hour}).Validate(); err == nil {
		t.Error("expected error for missing secret")
	}
}

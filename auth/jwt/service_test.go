package jwt

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/careerauth/auth/authctx"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Now()}
	svc, err := NewService(Config{Secret: "test-secret"}, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, clock
}

func TestNewService_RequiresSecret(t *testing.T) {
	if _, err := NewService(Config{}, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewService(Config{Secret: "s", Method: "RS256"}, nil); err == nil {
		t.Fatal("expected error for non-HMAC method")
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Issue(Payload{UserID: "u-1", Email: "alice@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "alice@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.Purpose != "" {
		t.Errorf("expected no purpose, got %q", claims.Purpose)
	}
	if claims.TokenID() == "" {
		t.Error("expected a jti")
	}
	if claims.IssuedAt == nil {
		t.Error("expected iat")
	}
}

func TestIssue_ZeroLifetimeUsesAccessTTL(t *testing.T) {
	svc, clock := newTestService(t)
	token, err := svc.Issue(Payload{UserID: "u", Email: "e@x.io"}, 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, _ := svc.Verify(token)
	got := claims.Expiry().Sub(clock.Now().Truncate(time.Second))
	if got != DefaultAccessTokenTTL {
		t.Errorf("expected %s lifetime, got %s", DefaultAccessTokenTTL, got)
	}
}

func TestVerify_Expired(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := svc.Issue(Payload{UserID: "u", Email: "e@x.io"}, -time.Second)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	other, err := NewService(Config{Secret: "another-secret"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	foreign, _ := other.IssueAccess("u", "e@x.io")

	noEmail, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Claims{
		UserID:           "u",
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))

	noExp, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Claims{
		UserID: "u", Email: "e@x.io",
	}).SignedString([]byte("test-secret"))

	wrongAlg, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS512, &Claims{
		UserID: "u", Email: "e@x.io",
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))

	valid, _ := svc.IssueAccess("u", "e@x.io")
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", foreign},
		{"missing email", noEmail},
		{"missing exp", noExp},
		{"wrong algorithm", wrongAlg},
		{"tampered payload", tampered},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Verify(tc.token); err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIssueReset(t *testing.T) {
	svc, clock := newTestService(t)
	token, err := svc.IssueReset("u-1", "alice@example.com")
	if err != nil {
		t.Fatalf("IssueReset failed: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Purpose != PurposePasswordReset {
		t.Errorf("expected purpose %q, got %q", PurposePasswordReset, claims.Purpose)
	}
	if got := claims.Expiry().Sub(clock.Now().Truncate(time.Second)); got != 15*time.Minute {
		t.Errorf("expected 15m lifetime, got %s", got)
	}

	clock.Advance(16 * time.Minute)
	if _, err := svc.Verify(token); err == nil {
		t.Error("reset token should expire after 15m")
	}
}

func TestDecode(t *testing.T) {
	svc, _ := newTestService(t)
	expired, _ := svc.Issue(Payload{UserID: "u-1", Email: "e@x.io"}, -time.Minute)

	claims, ok := svc.Decode(expired)
	if !ok {
		t.Fatal("Decode should parse an expired token")
	}
	if claims.UserID != "u-1" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if _, ok := svc.Decode("garbage"); ok {
		t.Error("Decode should fail on garbage")
	}
}

func TestRefreshIfNeeded(t *testing.T) {
	svc, clock := newTestService(t)
	token, _ := svc.IssueAccess("u-1", "alice@example.com")

	if _, ok := svc.RefreshIfNeeded(token, 30*time.Minute); ok {
		t.Fatal("fresh token should not be refreshed")
	}

	clock.Advance(105 * time.Minute)
	fresh, ok := svc.RefreshIfNeeded(token, 30*time.Minute)
	if !ok {
		t.Fatal("token within threshold should be refreshed")
	}
	claims, err := svc.Verify(fresh)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "alice@example.com" {
		t.Errorf("refresh changed identity: %+v", claims)
	}
	if remaining := claims.Expiry().Sub(clock.Now()); remaining < time.Hour {
		t.Errorf("expected fresh lifetime, got %s remaining", remaining)
	}

	clock.Advance(time.Hour)
	if _, ok := svc.RefreshIfNeeded(token, 30*time.Minute); ok {
		t.Error("expired token must not be refreshed")
	}
}

func TestRefreshIfNeeded_NeverForPurposeTokens(t *testing.T) {
	svc, clock := newTestService(t)
	reset, _ := svc.IssueReset("u-1", "alice@example.com")
	clock.Advance(14 * time.Minute)

	if _, ok := svc.RefreshIfNeeded(reset, 30*time.Minute); ok {
		t.Error("reset tokens must never be refreshed")
	}
}

func TestResolver(t *testing.T) {
	svc, _ := newTestService(t)
	access, _ := svc.IssueAccess("u-1", "alice@example.com")
	reset, _ := svc.IssueReset("u-1", "alice@example.com")
	r := svc.Resolver()

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		p, ok := r.Resolve(req)
		if !ok {
			t.Fatal("expected principal")
		}
		if p.UserID != "u-1" || p.Source != authctx.SourceBearer || p.Token != access {
			t.Errorf("unexpected principal %+v", p)
		}
	})

	t.Run("token cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: access})
		if _, ok := r.Resolve(req); !ok {
			t.Fatal("expected principal from cookie")
		}
	})

	t.Run("reset token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set("Authorization", "Bearer "+reset)
		if _, ok := r.Resolve(req); ok {
			t.Fatal("reset token must not resolve as an identity")
		}
	})

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		if _, ok := r.Resolve(req); ok {
			t.Fatal("expected no principal")
		}
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set("Authorization", "Basic "+access)
		if _, ok := r.Resolve(req); ok {
			t.Fatal("basic scheme must not resolve")
		}
	})
}

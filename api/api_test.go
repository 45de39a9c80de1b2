package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"github.com/kbukum/careerauth/account"
	"github.com/kbukum/careerauth/auth"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/auth/session"
	"github.com/kbukum/careerauth/component"
	"github.com/kbukum/careerauth/database"
	"github.com/kbukum/careerauth/encryption"
	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/ratelimit"
	"github.com/kbukum/careerauth/server"
)

const (
	aliceEmail    = "alice@example.com"
	alicePassword = "Str0ng!Pass"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	dbComp := database.NewComponent(database.Config{
		Enabled: true, Driver: database.DriverSQLite, DSN: ":memory:", AutoMigrate: true, LogLevel: "silent",
	}, log).WithAutoMigrate(account.Models()...)
	if err := dbComp.Start(ctx); err != nil {
		t.Fatalf("database start failed: %v", err)
	}
	t.Cleanup(func() { _ = dbComp.Stop(ctx) })

	key, err := encryption.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	enc, err := encryption.NewService(key)
	if err != nil {
		t.Fatalf("encryption.NewService failed: %v", err)
	}

	tokens, err := jwt.NewService(jwt.Config{Secret: "api-test-token-secret"}, log)
	if err != nil {
		t.Fatalf("jwt.NewService failed: %v", err)
	}
	store, err := session.NewMemoryStore(ctx, session.DefaultTTL)
	if err != nil {
		t.Fatalf("session store failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	sessions, err := session.NewManager(store, session.Config{Secret: []byte("api-test-session-secret")})
	if err != nil {
		t.Fatalf("session.NewManager failed: %v", err)
	}

	accounts, err := account.NewService(account.Deps{
		Repo:     account.NewGormRepository(dbComp.DB(), enc),
		Hasher:   password.NewArgon2Hasher(password.WithArgon2Memory(1024), password.WithArgon2Threads(1)),
		Tokens:   tokens,
		Sessions: sessions,
	})
	if err != nil {
		t.Fatalf("account.NewService failed: %v", err)
	}

	rlStore := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(0))
	t.Cleanup(func() { _ = rlStore.Close() })
	set, err := ratelimit.NewSet(rlStore, ratelimit.DefaultPolicies())
	if err != nil {
		t.Fatalf("ratelimit.NewSet failed: %v", err)
	}
	limiters, err := LimitersFromSet(set)
	if err != nil {
		t.Fatalf("LimitersFromSet failed: %v", err)
	}

	chain := auth.NewChain()
	chain.Register("bearer", tokens.Resolver())
	chain.Register("session", sessions.Resolver())

	registry := component.NewRegistry(log)
	if err := registry.Register(dbComp); err != nil {
		t.Fatalf("registry.Register failed: %v", err)
	}

	srv := server.New(server.Config{}, log)
	srv.RegisterHealth("careerauth", registry)
	RegisterRoutes(srv.GinEngine(), Deps{
		Accounts:         accounts,
		Sessions:         sessions,
		Tokens:           tokens,
		Resolver:         chain,
		Limiters:         limiters,
		RefreshThreshold: auth.DefaultRefreshThreshold,
	})
	return srv.Handler()
}

type authBody struct {
	Data struct {
		User  account.View `json:"user"`
		Token string       `json:"token"`
	} `json:"data"`
}

func register(t *testing.T, h http.Handler, email string) (authBody, *http.Cookie) {
	t.Helper()
	res := apitest.New().
		Handler(h).
		Post("/register").
		JSON(fmt.Sprintf(`{"email":%q,"password":%q,"securityQuestion":"Favorite movie","securityAnswer":"Inception","name":"Alice"}`, email, alicePassword)).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.data.user.email", email)).
		Assert(jsonpath.Equal("$.data.user.name", "Alice")).
		Assert(jsonpath.Present("$.data.token")).
		Assert(jsonpath.NotPresent("$.data.user.passwordHash")).
		Assert(jsonpath.NotPresent("$.data.user.securityAnswer")).
		CookiePresent("sid").
		End()

	var body authBody
	res.JSON(&body)
	return body, findCookie(res.Response, "sid")
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func login(t *testing.T, h http.Handler, pw string, status int) apitest.Result {
	t.Helper()
	return apitest.New().
		Handler(h).
		Post("/login").
		JSON(fmt.Sprintf(`{"email":%q,"password":%q}`, aliceEmail, pw)).
		Expect(t).
		Status(status).
		End()
}

func TestAliceScenario(t *testing.T) {
	h := newTestApp(t)
	register(t, h, aliceEmail)

	login(t, h, alicePassword, http.StatusOK)
	apitest.New().
		Handler(h).
		Post("/login").
		JSON(fmt.Sprintf(`{"email":%q,"password":"Wr0ng!Pass"}`, aliceEmail)).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error.code", "INVALID_CREDENTIALS")).
		Assert(jsonpath.Equal("$.error.message", "invalid email or password")).
		End()

	apitest.New().
		Handler(h).
		Post("/find-account").
		JSON(`{"email":"alice@example.com"}`).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"data":{"email":"alice@example.com","securityQuestion":"Favorite movie"}}`).
		End()

	res := apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"inception"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.data.resetToken")).
		Assert(jsonpath.Equal("$.data.expiresIn", float64(900))).
		End()
	var grant struct {
		Data account.ResetGrant `json:"data"`
	}
	res.JSON(&grant)

	apitest.New().
		Handler(h).
		Post("/reset-password").
		JSON(fmt.Sprintf(`{"resetToken":%q,"newPassword":"N3w!Secret"}`, grant.Data.ResetToken)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data.user.email", aliceEmail)).
		Assert(jsonpath.Present("$.data.token")).
		End()

	login(t, h, "N3w!Secret", http.StatusOK)
	login(t, h, alicePassword, http.StatusUnauthorized)
}

func TestLogin_RateLimited(t *testing.T) {
	h := newTestApp(t)
	register(t, h, aliceEmail)

	for i := 0; i < 5; i++ {
		login(t, h, "Wr0ng!Pass", http.StatusUnauthorized)
	}

	apitest.New().
		Handler(h).
		Post("/login").
		JSON(fmt.Sprintf(`{"email":%q,"password":%q}`, aliceEmail, alicePassword)).
		Expect(t).
		Status(http.StatusTooManyRequests).
		HeaderPresent("Retry-After").
		Header("X-RateLimit-Remaining", "0").
		Assert(jsonpath.Equal("$.error.code", "RATE_LIMITED")).
		Assert(jsonpath.Equal("$.error.retryable", true)).
		Assert(jsonpath.Present("$.error.details.retryAfter")).
		End()

	// Other policies are unaffected.
	apitest.New().
		Handler(h).
		Get("/security-questions").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Contains("$.data", "Favorite movie")).
		End()
}

func TestGetAccount_Authorization(t *testing.T) {
	h := newTestApp(t)
	alice, _ := register(t, h, aliceEmail)
	bob, _ := register(t, h, "bob@example.com")

	apitest.New().
		Handler(h).
		Get("/user/"+alice.Data.User.ID).
		Header("Authorization", "Bearer "+alice.Data.Token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data.user.id", alice.Data.User.ID)).
		End()

	apitest.New().
		Handler(h).
		Get("/user/"+bob.Data.User.ID).
		Header("Authorization", "Bearer "+alice.Data.Token).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.error.code", "FORBIDDEN")).
		End()

	apitest.New().
		Handler(h).
		Get("/user/" + bob.Data.User.ID).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestWhoAmI_SessionAndBearer(t *testing.T) {
	h := newTestApp(t)
	body, sid := register(t, h, aliceEmail)
	if sid == nil || !sid.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", sid)
	}

	apitest.New().
		Handler(h).
		Get("/user").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error.code", "UNAUTHORIZED")).
		End()

	apitest.New().
		Handler(h).
		Get("/user").
		Cookie("sid", sid.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data.user.email", aliceEmail)).
		End()

	apitest.New().
		Handler(h).
		Get("/user").
		Cookie("token", body.Data.Token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.data.user.id", body.Data.User.ID)).
		End()

	apitest.New().
		Handler(h).
		Post("/logout").
		Cookie("sid", sid.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.data.message")).
		End()

	apitest.New().
		Handler(h).
		Get("/user").
		Cookie("sid", sid.Value).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	// Logout does not revoke bearer tokens.
	apitest.New().
		Handler(h).
		Get("/user").
		Header("Authorization", "Bearer "+body.Data.Token).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestResetToken_IsNotAnIdentity(t *testing.T) {
	h := newTestApp(t)
	register(t, h, aliceEmail)

	res := apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"  INCEPTION "}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	var grant struct {
		Data account.ResetGrant `json:"data"`
	}
	res.JSON(&grant)

	apitest.New().
		Handler(h).
		Get("/user").
		Header("Authorization", "Bearer "+grant.Data.ResetToken).
		Expect(t).
		Status(http.StatusUnauthorized).
		HeaderNotPresent("X-New-Token").
		End()
}

func TestValidationErrors(t *testing.T) {
	h := newTestApp(t)

	apitest.New().
		Handler(h).
		Post("/register").
		JSON(`{"email":"nope","password":"Str0ng!Pass","securityQuestion":"Favorite movie","securityAnswer":"x"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error.code", "INVALID_INPUT")).
		Assert(jsonpath.Equal("$.error.details.fields[0].field", "email")).
		End()

	apitest.New().
		Handler(h).
		Post("/login").
		Body(`not json`).
		Header("Content-Type", "application/json").
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error.code", "INVALID_INPUT")).
		End()

	apitest.New().
		Handler(h).
		Post("/find-account").
		JSON(`{"email":"nobody@example.com"}`).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.error.code", "NOT_FOUND")).
		End()
}

func TestHealth(t *testing.T) {
	h := newTestApp(t)

	apitest.New().
		Handler(h).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "healthy")).
		Assert(jsonpath.Equal("$.components[0].name", "database")).
		End()
}

func TestRecovery_StepsHaveSeparateBudgets(t *testing.T) {
	h := newTestApp(t)
	register(t, h, aliceEmail)

	apitest.New().
		Handler(h).
		Post("/find-account").
		JSON(`{"email":"alice@example.com"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"Interstellar"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	res := apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"INCEPTION"}`).
		Expect(t).
		Status(http.StatusOK).
		Header("X-RateLimit-Remaining", "1").
		End()
	var grant struct {
		Data account.ResetGrant `json:"data"`
	}
	res.JSON(&grant)

	apitest.New().
		Handler(h).
		Post("/reset-password").
		JSON(fmt.Sprintf(`{"resetToken":%q,"newPassword":"N3w!Secret"}`, grant.Data.ResetToken)).
		Expect(t).
		Status(http.StatusOK).
		Header("X-RateLimit-Remaining", "2").
		End()

	apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"Inception"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(h).
		Post("/verify-security-answer").
		JSON(`{"email":"alice@example.com","securityAnswer":"Inception"}`).
		Expect(t).
		Status(http.StatusTooManyRequests).
		End()
}

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/auth/authctx"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/logger"
)

// idBytes is the entropy of a session id.
const idBytes = 32

// Manager creates, looks up and destroys sessions and manages their cookie.
type Manager struct {
	store    Store
	signer   Signer
	cfg      Config
	sameSite http.SameSite
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a Manager over store.
func NewManager(store Store, cfg Config, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sameSite, _ := parseSameSite(cfg.Cookie.SameSite)

	m := &Manager{
		store:    store,
		signer:   NewSigner(cfg.Secret),
		cfg:      cfg,
		sameSite: sameSite,
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("session")
	return m, nil
}

// TTL returns the sliding expiry.
func (m *Manager) TTL() time.Duration { return m.cfg.TTL }

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string { return m.cfg.Cookie.Name }

// Create starts a session for the user and returns it with its cookie value.
func (m *Manager) Create(ctx context.Context, userID, email string) (*Session, string, error) {
	id, err := password.GenerateToken(idBytes)
	if err != nil {
		return nil, "", fmt.Errorf("session: generate id: %w", err)
	}
	now := m.now()
	s := &Session{ID: id, UserID: userID, Email: email, CreatedAt: now, LastSeenAt: now}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, "", err
	}
	m.log.Debug("Session created", logger.Fields(logger.FieldUserID, userID))
	return s, m.signer.Sign(id), nil
}

// Lookup returns the live session for a cookie value and extends it.
// Tampered, unknown and expired cookies all yield ErrNotFound.
func (m *Manager) Lookup(ctx context.Context, cookieValue string) (*Session, error) {
	id, ok := m.signer.Unsign(cookieValue)
	if !ok {
		if cookieValue != "" {
			m.log.Debug("Session cookie signature mismatch")
		}
		return nil, ErrNotFound
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if now.Sub(s.LastSeenAt) > m.cfg.TTL {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	// A Destroy that lands after Get makes Touch fail.
	if err := m.store.Touch(ctx, id, now); err != nil {
		return nil, err
	}
	s.LastSeenAt = now
	return s, nil
}

// Destroy ends the session behind a cookie value. Unknown or tampered
// values are ignored.
func (m *Manager) Destroy(ctx context.Context, cookieValue string) error {
	id, ok := m.signer.Unsign(cookieValue)
	if !ok {
		return nil
	}
	return m.Revoke(ctx, id)
}

// Revoke ends a session by id.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// CookieValue returns the session cookie carried by r, if any.
func (m *Manager) CookieValue(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.Cookie.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(c *gin.Context, value string) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cfg.Cookie.Name, value, int(m.cfg.TTL.Seconds()),
		m.cfg.Cookie.Path, m.cfg.Cookie.Domain, m.cfg.Cookie.Secure, true)
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cfg.Cookie.Name, "", -1,
		m.cfg.Cookie.Path, m.cfg.Cookie.Domain, m.cfg.Cookie.Secure, true)
}

// CookieResolver resolves a session principal from the session cookie.
type CookieResolver struct {
	m *Manager
}

// Resolver returns a resolver backed by m.
func (m *Manager) Resolver() *CookieResolver {
	return &CookieResolver{m: m}
}

// Resolve looks up the request's session cookie.
func (r *CookieResolver) Resolve(req *http.Request) (*authctx.Principal, bool) {
	value, ok := r.m.CookieValue(req)
	if !ok {
		return nil, false
	}
	s, err := r.m.Lookup(req.Context(), value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.m.log.WithError(err).Warn("Session lookup failed")
		}
		return nil, false
	}
	return &authctx.Principal{
		UserID:    s.UserID,
		Email:     s.Email,
		Source:    authctx.SourceSession,
		SessionID: s.ID,
	}, true
}

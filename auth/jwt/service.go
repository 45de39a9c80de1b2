// Package jwt issues and verifies the HS256 tokens used for bearer
// authentication and password reset.
//
// Usage:
//
//	svc, err := jwt.NewService(jwt.Config{Secret: secret}, log)
//	token, err := svc.IssueAccess(userID, email)
//	claims, err := svc.Verify(token)
//
// Verification failures are reported to callers as ErrInvalidToken only.
// The reason (expired, bad signature, missing claims) is logged at debug.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/careerauth/logger"
)

// ErrInvalidToken is the only verification error callers see.
var ErrInvalidToken = errors.New("jwt: invalid token")

var (
	errExpired = errors.New("token expired")
	errInvalid = errors.New("token invalid")
)

// Service issues and verifies tokens.
type Service struct {
	cfg Config
	key []byte
	log *logger.Logger
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for issuing and verifying. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a token service. The secret is required.
func NewService(cfg Config, log *logger.Logger, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		cfg: cfg,
		key: []byte(cfg.Secret),
		log: log.WithComponent("jwt"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the lifetime of authentication tokens.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTokenTTL }

// ResetTTL returns the lifetime of password-reset tokens.
func (s *Service) ResetTTL() time.Duration { return s.cfg.ResetTokenTTL }

// Issue signs a token for p that expires after lifetime. A zero lifetime
// means the access token lifetime.
func (s *Service) Issue(p Payload, lifetime time.Duration) (string, error) {
	if lifetime == 0 {
		lifetime = s.cfg.AccessTokenTTL
	}
	now := s.now()
	claims := &Claims{
		UserID:  p.UserID,
		Email:   p.Email,
		Purpose: p.Purpose,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	signed, err := gojwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess signs a general authentication token.
func (s *Service) IssueAccess(userID, email string) (string, error) {
	return s.Issue(Payload{UserID: userID, Email: email}, s.cfg.AccessTokenTTL)
}

// IssueReset signs a single-purpose password-reset token.
func (s *Service) IssueReset(userID, email string) (string, error) {
	return s.Issue(Payload{UserID: userID, Email: email, Purpose: PurposePasswordReset}, s.cfg.ResetTokenTTL)
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (s *Service) Verify(token string) (*Claims, error) {
	claims, err := s.verify(token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, errExpired) {
			reason = "expired"
		}
		s.log.Debug("Token rejected", logger.Fields(
			logger.FieldReason, reason,
			logger.FieldError, err.Error(),
		))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) verify(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty", errInvalid)
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", errInvalid, err)
	}
	if !parsed.Valid {
		return nil, errInvalid
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing id or email", errInvalid)
	}
	return claims, nil
}

// Decode parses the token without checking the signature or expiry.
// The result must not be trusted for authentication.
func (s *Service) Decode(token string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// RefreshIfNeeded issues a replacement access token when token is valid,
// carries no purpose and expires within threshold.
func (s *Service) RefreshIfNeeded(token string, threshold time.Duration) (string, bool) {
	claims, err := s.Verify(token)
	if err != nil || claims.IsPurpose() {
		return "", false
	}
	if claims.Expiry().Sub(s.now()) >= threshold {
		return "", false
	}

	fresh, err := s.IssueAccess(claims.UserID, claims.Email)
	if err != nil {
		s.log.WithError(err).Error("Token refresh failed")
		return "", false
	}
	s.log.Debug("Token refreshed", logger.Fields(
		logger.FieldUserID, claims.UserID,
		logger.FieldTokenID, claims.TokenID(),
	))
	return fresh, true
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (s *Service) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.cfg.signingMethod().Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return s.key, nil
}

func (s *Service) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	return opts
}

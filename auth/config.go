package auth

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/auth/session"
	"github.com/kbukum/careerauth/encryption"
)

// secretBytes is the length of generated fallback secrets.
const secretBytes = 32

// DefaultRefreshThreshold is the remaining token lifetime below which a
// bearer token is rotated.
const DefaultRefreshThreshold = 30 * time.Minute

// Warnings are non-fatal configuration problems found by Init.
type Warnings []string

// Config holds the secrets and lifetimes of the authentication core.
// Loadable from YAML/env via mapstructure tags; the secrets are normally
// supplied as AUTH_SESSION_SECRET, AUTH_TOKEN_SECRET and AUTH_ENCRYPTION_KEY.
type Config struct {
	// SessionSecret signs session cookies.
	SessionSecret string `mapstructure:"session_secret"`

	// TokenSecret signs JWTs.
	TokenSecret string `mapstructure:"token_secret"`

	// EncryptionKey is the hex encoded 32-byte field encryption key.
	EncryptionKey string `mapstructure:"encryption_key"`

	// Issuer is the optional "iss" claim.
	Issuer string `mapstructure:"issuer"`

	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	ResetTokenTTL    time.Duration `mapstructure:"reset_token_ttl"`
	RefreshThreshold time.Duration `mapstructure:"refresh_threshold"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`

	Cookie session.CookieConfig `mapstructure:"cookie"`

	encryptionKey []byte
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = jwt.DefaultAccessTokenTTL
	}
	if c.ResetTokenTTL == 0 {
		c.ResetTokenTTL = jwt.DefaultResetTokenTTL
	}
	if c.RefreshThreshold == 0 {
		c.RefreshThreshold = DefaultRefreshThreshold
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = session.DefaultTTL
	}
}

// Validate checks lifetimes. Secrets are checked by Init.
func (c *Config) Validate() error {
	if c.AccessTokenTTL <= 0 || c.ResetTokenTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("auth: token and session lifetimes must be > 0")
	}
	if c.RefreshThreshold < 0 {
		return fmt.Errorf("auth: refresh_threshold must not be negative")
	}
	if c.RefreshThreshold >= c.AccessTokenTTL {
		return fmt.Errorf("auth: refresh_threshold (%s) must be below access_token_ttl (%s)",
			c.RefreshThreshold, c.AccessTokenTTL)
	}
	return nil
}

// Init applies defaults and fills in missing secrets with random
// per-process values. A malformed encryption key is replaced as well.
// Each substitution is reported as a warning: tokens, sessions and
// encrypted fields will not survive a restart. The error is reserved for a
// failing random source.
func (c *Config) Init() (Warnings, error) {
	c.ApplyDefaults()
	var warns Warnings

	if c.TokenSecret == "" {
		s, err := randomHex()
		if err != nil {
			return warns, err
		}
		c.TokenSecret = s
		warns = append(warns, "AUTH_TOKEN_SECRET is not set; using a random per-process secret, tokens will not survive a restart")
	}

	if c.SessionSecret == "" {
		s, err := randomHex()
		if err != nil {
			return warns, err
		}
		c.SessionSecret = s
		warns = append(warns, "AUTH_SESSION_SECRET is not set; using a random per-process secret, sessions will not survive a restart")
	}

	key, err := encryption.ParseKey(strings.TrimSpace(c.EncryptionKey))
	if err != nil {
		if c.EncryptionKey == "" {
			warns = append(warns, "AUTH_ENCRYPTION_KEY is not set; using a random per-process key, encrypted fields will be unreadable after a restart")
		} else {
			warns = append(warns, fmt.Sprintf("AUTH_ENCRYPTION_KEY is invalid (%v); using a random per-process key", err))
		}
		key, err = encryption.GenerateKey()
		if err != nil {
			return warns, fmt.Errorf("auth: generate encryption key: %w", err)
		}
		c.EncryptionKey = hex.EncodeToString(key)
	}
	c.encryptionKey = key

	return warns, nil
}

// EncryptionKeyBytes returns the parsed encryption key. Nil before Init.
func (c *Config) EncryptionKeyBytes() []byte {
	return c.encryptionKey
}

// JWT returns the token service configuration.
func (c *Config) JWT() jwt.Config {
	return jwt.Config{
		Secret:         c.TokenSecret,
		Method:         jwt.HS256,
		Issuer:         c.Issuer,
		AccessTokenTTL: c.AccessTokenTTL,
		ResetTokenTTL:  c.ResetTokenTTL,
	}
}

// Session returns the session manager configuration.
func (c *Config) Session() session.Config {
	return session.Config{
		Secret: []byte(c.SessionSecret),
		TTL:    c.SessionTTL,
		Cookie: c.Cookie,
	}
}

func randomHex() (string, error) {
	b, err := password.GenerateSecret(secretBytes)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	return hex.EncodeToString(b), nil
}

package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL = 2 * time.Hour
	DefaultResetTokenTTL  = 15 * time.Minute
)

// Config configures the token service.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method"`

	// Issuer is the "iss" claim (optional). When set, Verify requires it.
	Issuer string `mapstructure:"issuer"`

	// AccessTokenTTL is the lifetime of authentication tokens (default: 2h).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// ResetTokenTTL is the lifetime of password-reset tokens (default: 15m).
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.ResetTokenTTL == 0 {
		c.ResetTokenTTL = DefaultResetTokenTTL
	}
}

// Validate checks the secret and signing method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return errors.New("jwt: unsupported signing method: " + string(c.Method))
	}
	if c.Secret == "" {
		return errors.New("jwt: secret is required")
	}
	if c.AccessTokenTTL < 0 || c.ResetTokenTTL < 0 {
		return errors.New("jwt: token lifetimes must not be negative")
	}
	return nil
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

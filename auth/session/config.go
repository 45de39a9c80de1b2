package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL is the sliding absence expiry.
const DefaultTTL = 24 * time.Hour

// CookieConfig controls the session cookie attributes. The cookie is
// always HttpOnly.
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

// Config configures a Manager.
type Config struct {
	// Secret signs session ids. Required.
	Secret []byte `mapstructure:"-"`
	// TTL is the absence period after which a session expires.
	TTL    time.Duration `mapstructure:"ttl"`
	Cookie CookieConfig  `mapstructure:"cookie"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "sid"
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/"
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "lax"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Secret) == 0 {
		return fmt.Errorf("session: secret is required")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("session: ttl must be > 0")
	}
	if _, err := parseSameSite(c.Cookie.SameSite); err != nil {
		return err
	}
	return nil
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("session: invalid same_site %q", v)
	}
}

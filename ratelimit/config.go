package ratelimit

import (
	"fmt"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// PolicyConfig overrides one built-in policy. Zero fields keep the default.
type PolicyConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	Window      string `mapstructure:"window"`
}

// BreakerConfig configures the circuit breaker in front of the redis store.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive store errors that opens it.
	MaxFailures int `mapstructure:"max_failures"`
	// Timeout is how long it stays open before a trial call.
	Timeout string `mapstructure:"timeout"`
}

// Config selects the store and overrides policy budgets.
type Config struct {
	// Disabled turns rate limiting off for every route. Limiting is on
	// unless this is set.
	Disabled bool `mapstructure:"disabled"`
	// Store is "memory" or "redis".
	Store string `mapstructure:"store"`
	// SweepInterval controls how often the memory store drops expired windows.
	SweepInterval string `mapstructure:"sweep_interval"`
	// Breaker guards the redis store.
	Breaker BreakerConfig `mapstructure:"breaker"`

	Login         PolicyConfig `mapstructure:"login"`
	Register      PolicyConfig `mapstructure:"register"`
	PasswordReset PolicyConfig `mapstructure:"password_reset"`
	API           PolicyConfig `mapstructure:"api"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1m"
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.Timeout == "" {
		c.Breaker.Timeout = "30s"
	}
}

// Validate checks the store name and every policy after overrides.
func (c *Config) Validate() error {
	if c.Store != StoreMemory && c.Store != StoreRedis {
		return fmt.Errorf("ratelimit: unknown store %q", c.Store)
	}
	if _, err := parseDuration(c.SweepInterval); err != nil {
		return fmt.Errorf("ratelimit: invalid sweep_interval %q: %w", c.SweepInterval, err)
	}
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("ratelimit: breaker.max_failures must be positive")
	}
	if _, err := c.BreakerTimeout(); err != nil {
		return fmt.Errorf("ratelimit: invalid breaker.timeout %q: %w", c.Breaker.Timeout, err)
	}
	policies, err := c.Policies()
	if err != nil {
		return err
	}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Policies returns the built-in policies with configured overrides applied.
func (c *Config) Policies() (map[string]Policy, error) {
	policies := DefaultPolicies()
	overrides := map[string]PolicyConfig{
		PolicyLogin:         c.Login,
		PolicyRegister:      c.Register,
		PolicyPasswordReset: c.PasswordReset,
		PolicyAPI:           c.API,
	}
	for name, o := range overrides {
		p := policies[name]
		if o.MaxAttempts > 0 {
			p.MaxAttempts = o.MaxAttempts
		}
		if o.Window != "" {
			w, err := parseDuration(o.Window)
			if err != nil {
				return nil, fmt.Errorf("ratelimit: %s: invalid window %q: %w", name, o.Window, err)
			}
			p.Window = w
		}
		policies[name] = p
	}
	return policies, nil
}

// BreakerTimeout returns the parsed breaker timeout.
func (c *Config) BreakerTimeout() (time.Duration, error) {
	return parseDuration(c.Breaker.Timeout)
}

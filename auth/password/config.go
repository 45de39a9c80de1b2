package password

import "fmt"

// Config configures password hashing and the strength policy.
// Loadable from YAML/env via mapstructure tags.
type Config struct {
	// Argon2Time is the number of argon2id iterations (default: 1).
	Argon2Time uint32 `mapstructure:"argon2_time"`

	// Argon2Memory is the argon2id memory cost in KiB (default: 65536 = 64MB).
	Argon2Memory uint32 `mapstructure:"argon2_memory"`

	// Argon2Threads is the argon2id parallelism (default: 4).
	Argon2Threads uint8 `mapstructure:"argon2_threads"`

	// KeyLength is the derived key length in bytes (default: 32).
	KeyLength uint32 `mapstructure:"key_length"`

	// SaltLength is the random salt length in bytes (default: 16).
	SaltLength int `mapstructure:"salt_length"`

	// MinLength is the minimum password length (default: 8).
	MinLength int `mapstructure:"min_length"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.KeyLength == 0 {
		c.KeyLength = 32
	}
	if c.SaltLength == 0 {
		c.SaltLength = 16
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.KeyLength < 16 {
		return fmt.Errorf("key_length must be >= 16 (got: %d)", c.KeyLength)
	}
	if c.SaltLength < 8 {
		return fmt.Errorf("salt_length must be >= 8 (got: %d)", c.SaltLength)
	}
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be >= 1 (got: %d)", c.MinLength)
	}
	return nil
}

// NewHasher creates an argon2id Hasher from configuration.
func NewHasher(cfg Config) *Argon2Hasher {
	cfg.ApplyDefaults()
	return NewArgon2Hasher(
		WithArgon2Time(cfg.Argon2Time),
		WithArgon2Memory(cfg.Argon2Memory),
		WithArgon2Threads(cfg.Argon2Threads),
		WithKeyLength(cfg.KeyLength),
		WithSaltLength(cfg.SaltLength),
	)
}

// NewPolicy creates the strength Policy from configuration.
func NewPolicy(cfg Config) Policy {
	cfg.ApplyDefaults()
	return Policy{MinLength: cfg.MinLength}
}

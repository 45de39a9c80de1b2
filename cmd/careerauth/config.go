package main

import (
	"fmt"

	"github.com/kbukum/careerauth/auth"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/config"
	"github.com/kbukum/careerauth/database"
	"github.com/kbukum/careerauth/observability"
	"github.com/kbukum/careerauth/ratelimit"
	"github.com/kbukum/careerauth/redis"
	"github.com/kbukum/careerauth/server"
	"github.com/kbukum/careerauth/version"
)

const serviceName = "careerauth"

// Config is the full careerauth configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config              `yaml:"server" mapstructure:"server"`
	Auth      auth.Config                `yaml:"auth" mapstructure:"auth"`
	Password  password.Config            `yaml:"password" mapstructure:"password"`
	RateLimit ratelimit.Config           `yaml:"ratelimit" mapstructure:"ratelimit"`
	Database  database.Config            `yaml:"database" mapstructure:"database"`
	Redis     redis.Config               `yaml:"redis" mapstructure:"redis"`
	Metrics   observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
	Tracing   observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

func loadConfig(configFile, envFile string) (*Config, config.ResolvedFiles, error) {
	opts := []config.LoaderOption{config.WithEnvAlias("server.port", "PORT")}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg Config
	files, err := config.LoadConfig(serviceName, &cfg, opts...)
	if err != nil {
		return nil, files, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, files, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, files, nil
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.Database.ApplyDefaults()
	if c.Redis.Enabled {
		c.Redis.ApplyDefaults()
	}

	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	c.Metrics.ApplyDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	c.Tracing.ApplyDefaults()
}

// Validate checks every section and the rules that span sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if !c.Database.Enabled {
		return fmt.Errorf("database.enabled must be true, accounts are stored there")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if !c.RateLimit.Disabled && c.RateLimit.Store == ratelimit.StoreRedis && !c.Redis.Enabled {
		return fmt.Errorf("ratelimit.store is redis but redis.enabled is false")
	}
	return nil
}

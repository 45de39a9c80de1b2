package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/careerauth/logger"
)

// Client is a go-redis client whose keys live under a common prefix.
type Client struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// New builds a client from cfg. The connection is opened lazily; Ping
// verifies it.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	rdb := goredis.NewClient(options(cfg))
	log.Info("redis client created", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "pool_size", cfg.PoolSize))
	return &Client{rdb: rdb, prefix: cfg.KeyPrefix, log: log}, nil
}

// options converts a validated Config.
func options(cfg Config) *goredis.Options {
	dur := func(s string) time.Duration {
		d, _ := time.ParseDuration(s)
		return d
	}
	return &goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dur(cfg.DialTimeout),
		ReadTimeout:  dur(cfg.ReadTimeout),
		WriteTimeout: dur(cfg.WriteTimeout),
	}
}

// NewFromClient wraps an existing go-redis client, as tests do with miniredis.
func NewFromClient(rdb *goredis.Client, prefix string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{rdb: rdb, prefix: prefix, log: log}
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Key prefixes name.
func (c *Client) Key(name string) string { return c.prefix + name }

// Eval runs script with EVALSHA, loading it on a cache miss. Keys are used
// as given, so pass them through Key first.
func (c *Client) Eval(ctx context.Context, script *goredis.Script, keys []string, args ...interface{}) *goredis.Cmd {
	return script.Run(ctx, c.rdb, keys, args...)
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the pool. Later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.log.Info("closing redis client")
		c.closeErr = c.rdb.Close()
	})
	return c.closeErr
}

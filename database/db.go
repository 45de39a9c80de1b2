package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/careerauth/logger"
)

// DB is an open GORM connection pool.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Dialector returns the GORM dialector for the configured driver. SQLite
// file databases get foreign keys and a busy timeout so concurrent
// registrations wait instead of failing with "database is locked".
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		dsn := cfg.DSN
		if !cfg.inMemory() {
			dsn = withSQLitePragmas(dsn)
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Open validates cfg and connects, retrying with linear backoff.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	d, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithContext(ctx, d, cfg, log)
}

// NewWithContext connects with an explicit dialector. Cancelling ctx aborts
// the retry loop.
func NewWithContext(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{
		Logger:         newQueryLogger(log, slow, cfg.LogLevel),
		TranslateError: true,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		db, err := connect(ctx, dialector, gormCfg, cfg)
		if err == nil {
			log.Info("database connected", logger.Fields("driver", cfg.Driver, "attempt", attempt))
			return &DB{GormDB: db, log: log}, nil
		}
		lastErr = err
		if attempt == cfg.MaxRetries {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		log.Warn("database connect failed, retrying", logger.Fields(
			"attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connect canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("database connect failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

func connect(ctx context.Context, dialector gorm.Dialector, gormCfg *gorm.Config, cfg Config) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

// Close releases the pool. Later calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		sqlDB, err := d.GormDB.DB()
		if err != nil {
			d.closeErr = err
			return
		}
		d.log.Info("closing database")
		d.closeErr = sqlDB.Close()
	})
	return d.closeErr
}

// PingContext checks the connection.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a GORM session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// AutoMigrate creates or updates the tables for models.
func (d *DB) AutoMigrate(models ...interface{}) error {
	for _, model := range models {
		if err := d.GormDB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	d.log.Info("schema migrated", logger.Fields("models", len(models)))
	return nil
}

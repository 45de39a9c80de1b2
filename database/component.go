package database

import (
	"context"
	"fmt"

	"github.com/kbukum/careerauth/component"
	"github.com/kbukum/careerauth/logger"
)

const componentName = "database"

var _ component.Component = (*Component)(nil)

// Component manages the DB lifecycle in a component.Registry. The DB is
// available from Start onwards, so repositories are built after the
// registry has started the component.
type Component struct {
	cfg    Config
	log    *logger.Logger
	models []interface{}
	db     *DB
}

// NewComponent returns a component that opens cfg on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, log: log.WithComponent(componentName)}
}

// WithAutoMigrate registers models migrated on Start when auto_migrate is on.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the open DB, or nil before Start.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}
	c.db = db
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the pool and reports its open connection count.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusUnhealthy}
	if c.db == nil {
		h.Message = "not started"
		return h
	}
	if err := c.db.PingContext(ctx); err != nil {
		h.Message = fmt.Sprintf("ping failed: %v", err)
		return h
	}
	h.Status = component.StatusHealthy
	if sqlDB, err := c.db.GormDB.DB(); err == nil {
		h.Message = fmt.Sprintf("%d open connections", sqlDB.Stats().OpenConnections)
	}
	return h
}

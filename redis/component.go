package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/careerauth/component"
	"github.com/kbukum/careerauth/logger"
)

var _ component.Component = (*Component)(nil)

// Component opens the Client on Start and closes it on Stop.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns the started client, or nil before Start.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start connects and pings, so a bad address fails startup.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return err
	}
	c.client = client
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	return c.client.Close()
}

// Health reports a lost connection as degraded: the rate limiter fails
// open without Redis, so the service keeps answering.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.client == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	default:
		if err := c.client.Ping(ctx); err != nil {
			h.Status, h.Message = component.StatusDegraded, fmt.Sprintf("ping failed: %v", err)
		}
	}
	return h
}

package server

import (
	"context"

	"github.com/kbukum/careerauth/component"
)

var _ component.Component = (*ServerComponent)(nil)

// ServerComponent runs a Server inside a component.Registry. Register it
// last: it is stopped first, so in-flight requests finish while the
// database is still open.
type ServerComponent struct {
	server *Server
}

func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

func (sc *ServerComponent) Name() string { return "http-server" }

func (sc *ServerComponent) Start(ctx context.Context) error { return sc.server.Start(ctx) }

func (sc *ServerComponent) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

// Health is healthy once the listener is bound.
func (sc *ServerComponent) Health(_ context.Context) component.Health {
	h := component.Health{Name: sc.Name(), Status: component.StatusHealthy, Message: sc.server.Addr()}
	if !sc.server.listening() {
		h.Status = component.StatusUnhealthy
		h.Message = "not listening"
	}
	return h
}

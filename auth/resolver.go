package auth

import (
	"net/http"
	"sync"

	"github.com/kbukum/careerauth/auth/authctx"
)

// Resolver extracts an authenticated principal from a request.
// Implementations return false when the request carries no credential they
// recognise or the credential is invalid; they never fail the request.
//
// Implementations:
//   - jwt.Service.Resolver(): Authorization bearer header or token cookie
//   - session.Manager.Resolver(): signed session cookie
type Resolver interface {
	Resolve(r *http.Request) (*authctx.Principal, bool)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(r *http.Request) (*authctx.Principal, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(r *http.Request) (*authctx.Principal, bool) {
	return f(r)
}

// Chain is an ordered, thread-safe list of named resolvers. The first
// resolver to succeed wins.
//
// Usage:
//
//	chain := auth.NewChain()
//	chain.Register("bearer", tokens.Resolver())
//	chain.Register("session", sessions.Resolver())
type Chain struct {
	mu        sync.RWMutex
	names     []string
	resolvers map[string]Resolver
}

// NewChain creates an empty Chain.
func NewChain() *Chain {
	return &Chain{resolvers: make(map[string]Resolver)}
}

// Register appends a named resolver. Registering an existing name replaces
// the resolver in place.
func (c *Chain) Register(name string, r Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.resolvers[name]; !exists {
		c.names = append(c.names, name)
	}
	c.resolvers[name] = r
}

// Get returns the resolver registered under name.
func (c *Chain) Get(name string) (Resolver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.resolvers[name]
	return r, ok
}

// Names returns the registered names in resolution order.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

// Resolve runs the resolvers in order and returns the first principal.
func (c *Chain) Resolve(r *http.Request) (*authctx.Principal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range c.names {
		if p, ok := c.resolvers[name].Resolve(r); ok {
			return p, true
		}
	}
	return nil, false
}

package ratelimit

import "fmt"

// Set holds one Limiter per named policy over a shared store.
type Set struct {
	limiters map[string]*Limiter
}

// NewSet builds a limiter for every policy.
func NewSet(store Store, policies map[string]Policy, opts ...Option) (*Set, error) {
	s := &Set{limiters: make(map[string]*Limiter, len(policies))}
	for name, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		s.limiters[name] = New(store, p, opts...)
	}
	return s, nil
}

// Get returns the limiter for name.
func (s *Set) Get(name string) (*Limiter, error) {
	l, ok := s.limiters[name]
	if !ok {
		return nil, fmt.Errorf("ratelimit: no policy named %q", name)
	}
	return l, nil
}

// MustGet is Get for wiring code where a missing policy is a programming error.
func (s *Set) MustGet(name string) *Limiter {
	l, err := s.Get(name)
	if err != nil {
		panic(err)
	}
	return l
}

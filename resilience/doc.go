// Package resilience guards calls to remote dependencies.
//
// CircuitBreaker counts consecutive failures of a dependency and, once the
// threshold is reached, rejects calls with ErrCircuitOpen without running
// them. After Timeout a limited number of trial calls decide whether the
// circuit closes again.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis"))
//	err := cb.Execute(func() error {
//	    return client.Ping(ctx)
//	})
package resilience

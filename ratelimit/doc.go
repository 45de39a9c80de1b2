// Package ratelimit implements fixed-window attempt counting for the
// authentication endpoints.
//
// A Limiter applies one named Policy (login, register, passwordReset, api)
// to an identity key, usually the client IP. Counters live behind a Store:
// MemoryStore for a single process, RedisStore when counters should survive
// restarts. Both perform the read-modify-write of a key atomically.
//
// The window is fixed, not sliding, so a burst straddling a window boundary
// can reach twice the configured maximum.
//
// A store failure fails open: the request is allowed and the error logged.
// BreakerStore puts a circuit breaker in front of RedisStore so an outage
// costs one timeout per breaker period rather than one per request.
package ratelimit

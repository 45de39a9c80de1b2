// Package server provides the careerauth HTTP server: a gin engine behind
// an h2c handler with the standard middleware stack.
//
// The server follows the component pattern with lifecycle management and a
// /health endpoint reporting component statuses.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//   - RateLimit: fixed-window rate limiting per policy
//   - Identity: bearer and session principal resolution
//   - TokenRefresh: bearer token rotation via X-New-Token
//
// Errors are written with RespondWithError, which maps any error to the
// {error:{code,message,retryable,details}} envelope.
package server

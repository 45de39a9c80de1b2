// Package api exposes the account flows over HTTP.
//
// RegisterRoutes mounts the endpoints on a gin router. Every route is
// counted against the general "api" limiter; login, register and the
// password recovery routes have their own stricter limiters. Identity
// resolution and bearer token rotation run before each handler.
package api

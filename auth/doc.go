// Package auth holds the shared contracts of the authentication core.
//
// Subpackages:
//
//   - auth/password: argon2id hashing, strength policy, random tokens
//   - auth/jwt: HS256 access and password-reset tokens
//   - auth/session: signed-cookie server-side sessions
//   - auth/authctx: request context propagation of the Principal
//
// The top-level package provides:
//
//   - Resolver: extracts a Principal from a request
//   - Chain: ordered resolvers, first success wins (bearer, then session)
//   - Config: secrets and lifetimes, with Init generating fallback secrets
//
//	auth:
//	  token_secret: "..."
//	  session_secret: "..."
//	  encryption_key: "<64 hex chars>"
//	  access_token_ttl: "2h"
//	  refresh_threshold: "30m"
package auth

package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// PurposePasswordReset marks a token that may only be redeemed by the
// password reset flow.
const PurposePasswordReset = "passwordReset"

// Payload is the identity a token is issued for.
type Payload struct {
	UserID  string
	Email   string
	Purpose string
}

// Claims is the JWT body: {id, email, purpose?, iat, exp, jti}.
type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose,omitempty"`
	gojwt.RegisteredClaims
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string { return c.ID }

// Expiry returns the exp claim, or the zero time if absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IsPurpose reports whether the token was issued for a single purpose
// rather than general authentication.
func (c *Claims) IsPurpose() bool { return c.Purpose != "" }

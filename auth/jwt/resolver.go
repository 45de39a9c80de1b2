package jwt

import (
	"net/http"
	"strings"

	"github.com/kbukum/careerauth/auth/authctx"
)

// TokenCookie is the cookie the browser client stores its bearer token in.
const TokenCookie = "token"

// BearerResolver resolves a bearer principal from the Authorization header
// or the token cookie.
type BearerResolver struct {
	svc *Service
}

// Resolver returns a resolver backed by s.
func (s *Service) Resolver() *BearerResolver {
	return &BearerResolver{svc: s}
}

// Resolve verifies the request's token. Purpose tokens never resolve.
func (r *BearerResolver) Resolve(req *http.Request) (*authctx.Principal, bool) {
	token := ExtractToken(req)
	if token == "" {
		return nil, false
	}
	claims, err := r.svc.Verify(token)
	if err != nil || claims.IsPurpose() {
		return nil, false
	}
	return &authctx.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Source: authctx.SourceBearer,
		Token:  token,
	}, true
}

// ExtractToken returns the bearer token from the Authorization header,
// falling back to the token cookie.
func ExtractToken(req *http.Request) string {
	if h := req.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := req.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/auth"
	"github.com/kbukum/careerauth/auth/authctx"
	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/logger"
)

// Identity runs resolver on every request and stores the resolved principal
// in the request context. Anonymous requests pass through unchanged.
func Identity(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := resolver.Resolve(c.Request); ok {
			ctx := authctx.WithPrincipal(c.Request.Context(), p)
			ctx = logger.ContextWithUserID(ctx, p.UserID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Identity resolved a principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); !ok {
			appErr := apperrors.Unauthorized("")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

// Principal returns the principal resolved for the request.
func Principal(c *gin.Context) (*authctx.Principal, bool) {
	return authctx.PrincipalFrom(c.Request.Context())
}

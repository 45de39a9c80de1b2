package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/auth/authctx"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/observability"
)

// TokenRefresh rotates bearer tokens that are close to expiry. When the
// principal's token has less than threshold left, a replacement is returned
// in the X-New-Token header. Session principals are left alone.
func TokenRefresh(tokens *jwt.Service, threshold time.Duration, metrics *observability.AuthMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := Principal(c); ok && p.Source == authctx.SourceBearer && p.Token != "" {
			if fresh, ok := tokens.RefreshIfNeeded(p.Token, threshold); ok {
				c.Header(HeaderNewToken, fresh)
				metrics.TokenRefreshed(c.Request.Context())
			}
		}
		c.Next()
	}
}

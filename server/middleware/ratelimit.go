package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/ratelimit"
)

// Informational rate limit headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// KeyFunc extracts the rate limit identity from a request.
type KeyFunc func(*gin.Context) string

// RateLimit returns a Gin middleware that counts every request against
// limiter. A rejected request is answered with 429, a Retry-After header and
// the RATE_LIMITED envelope. keyFunc defaults to the client IP.
func RateLimit(limiter *ratelimit.Limiter, keyFunc KeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = IPBasedKey
	}
	return func(c *gin.Context) {
		d := limiter.Allow(c.Request.Context(), keyFunc(c))

		c.Header(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			c.Header(HeaderRetryAfter, strconv.Itoa(d.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.RateLimited(d.RetryAfter).ToResponse())
			return
		}
		c.Next()
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// IPRouteKey keys on the client IP and the matched route, so routes that
// share a limiter still get separate budgets.
func IPRouteKey(c *gin.Context) string {
	return c.ClientIP() + ":" + c.FullPath()
}

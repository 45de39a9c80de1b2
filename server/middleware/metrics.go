package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/observability"
)

// Metrics records request count, duration and in-flight requests per route.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.RecordRequestStart(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequestEnd(ctx, route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/careerauth/observability"
)

// Tracing starts a server span per request, continuing any trace context
// the caller propagated. Downstream handlers see the span in the request
// context.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		span.SetName(c.Request.Method + " " + route)
		span.SetAttributes(
			attribute.String(observability.AttrRoute, route),
			attribute.String(observability.AttrMethod, c.Request.Method),
			attribute.Int(observability.AttrStatus, status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}

package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Login outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid_credentials"
	OutcomeRateLimited  = "rate_limited"
	OutcomeInternalFail = "error"
)

// Password reset stages.
const (
	StageFindAccount   = "find_account"
	StageVerifyAnswer  = "verify_answer"
	StageResetPassword = "reset_password"
)

// AuthMetrics counts authentication events. A nil *AuthMetrics records
// nothing, so components may be built without metrics.
type AuthMetrics struct {
	loginAttempts       metric.Int64Counter
	registrations       metric.Int64Counter
	passwordResets      metric.Int64Counter
	tokensRefreshed     metric.Int64Counter
	rateLimitRejections metric.Int64Counter
}

// NewAuthMetrics creates the instruments on meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	var (
		m   AuthMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.loginAttempts, "auth.login.attempts", "Login attempts by outcome"},
		{&m.registrations, "auth.registrations", "Completed registrations"},
		{&m.passwordResets, "auth.password_resets", "Password recovery steps completed, by stage"},
		{&m.tokensRefreshed, "auth.tokens.refreshed", "Bearer tokens rotated near expiry"},
		{&m.rateLimitRejections, "ratelimit.rejections", "Requests rejected by a rate limit policy"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}
	return &m, nil
}

// LoginAttempt records one login attempt.
func (m *AuthMetrics) LoginAttempt(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Registration records one completed registration.
func (m *AuthMetrics) Registration(ctx context.Context) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1)
}

// PasswordReset records a completed recovery stage.
func (m *AuthMetrics) PasswordReset(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.passwordResets.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// TokenRefreshed records one rotated bearer token.
func (m *AuthMetrics) TokenRefreshed(ctx context.Context) {
	if m == nil {
		return
	}
	m.tokensRefreshed.Add(ctx, 1)
}

// RateLimitRejected records one rejection by policy.
func (m *AuthMetrics) RateLimitRejected(ctx context.Context, policy string) {
	if m == nil {
		return
	}
	m.rateLimitRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", policy)))
}

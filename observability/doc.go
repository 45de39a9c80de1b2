// Package observability provides OpenTelemetry metrics for careerauth.
//
//	mp, err := observability.InitMeter(ctx, cfg)
//	defer mp.Shutdown(ctx)
//
//	auth, err := observability.NewAuthMetrics(observability.Meter("careerauth"))
//	auth.LoginAttempt(ctx, observability.OutcomeSuccess)
//
// When metrics are disabled InitMeter installs nothing and the instruments
// record into the global no-op provider.
package observability

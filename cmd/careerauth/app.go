package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/careerauth/account"
	"github.com/kbukum/careerauth/api"
	"github.com/kbukum/careerauth/auth"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/password"
	"github.com/kbukum/careerauth/auth/session"
	"github.com/kbukum/careerauth/component"
	"github.com/kbukum/careerauth/database"
	"github.com/kbukum/careerauth/encryption"
	"github.com/kbukum/careerauth/logger"
	"github.com/kbukum/careerauth/observability"
	"github.com/kbukum/careerauth/ratelimit"
	"github.com/kbukum/careerauth/redis"
	"github.com/kbukum/careerauth/resilience"
	"github.com/kbukum/careerauth/server"
)

const shutdownTimeout = 15 * time.Second

// app is the wired service. Infrastructure components are started by
// newApp because the services need their handles; the HTTP server is
// started by run.
type app struct {
	cfg      *Config
	log      *logger.Logger
	registry *component.Registry
	server   *server.Server
	meter    *sdkmetric.MeterProvider
	tracer   *sdktrace.TracerProvider
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *Config, log *logger.Logger) (a *app, err error) {
	a = &app{cfg: cfg, log: log, registry: component.NewRegistry(log)}
	defer func() {
		if err != nil {
			a.shutdown(context.Background())
		}
	}()

	warns, err := cfg.Auth.Init()
	if err != nil {
		return a, err
	}
	for _, w := range warns {
		log.Warn(w)
	}

	a.meter, err = observability.InitMeter(ctx, cfg.Metrics, log)
	if err != nil {
		return a, err
	}
	a.tracer, err = observability.InitTracer(ctx, cfg.Tracing, log)
	if err != nil {
		return a, err
	}
	meter := observability.Meter(serviceName)
	authMetrics, err := observability.NewAuthMetrics(meter)
	if err != nil {
		return a, err
	}
	httpMetrics, err := observability.NewMetrics(meter)
	if err != nil {
		return a, err
	}

	db := database.NewComponent(cfg.Database, log).WithAutoMigrate(account.Models()...)
	if err := a.registry.Register(db); err != nil {
		return a, err
	}
	var rdb *redis.Component
	if cfg.Redis.Enabled {
		rdb = redis.NewComponent(cfg.Redis, log)
		if err := a.registry.Register(rdb); err != nil {
			return a, err
		}
	}
	if err := a.registry.StartAll(ctx); err != nil {
		return a, err
	}

	enc, err := encryption.NewService(cfg.Auth.EncryptionKeyBytes())
	if err != nil {
		return a, err
	}
	tokens, err := jwt.NewService(cfg.Auth.JWT(), log)
	if err != nil {
		return a, err
	}
	sessionStore, err := session.NewMemoryStore(ctx, cfg.Auth.SessionTTL)
	if err != nil {
		return a, err
	}
	a.closers = append(a.closers, sessionStore)
	sessions, err := session.NewManager(sessionStore, cfg.Auth.Session(), session.WithLogger(log))
	if err != nil {
		return a, err
	}

	accounts, err := account.NewService(account.Deps{
		Repo:     account.NewGormRepository(db.DB(), enc),
		Hasher:   password.NewHasher(cfg.Password),
		Policy:   password.NewPolicy(cfg.Password),
		Tokens:   tokens,
		Sessions: sessions,
		Metrics:  authMetrics,
		Logger:   log,
	})
	if err != nil {
		return a, err
	}

	limiters, err := a.buildLimiters(rdb, authMetrics)
	if err != nil {
		return a, err
	}

	chain := auth.NewChain()
	chain.Register("bearer", tokens.Resolver())
	chain.Register("session", sessions.Resolver())

	a.server = server.New(cfg.Server, log)
	a.server.RegisterHealth(cfg.Name, a.registry)
	api.RegisterRoutes(a.server.GinEngine(), api.Deps{
		Accounts:         accounts,
		Sessions:         sessions,
		Tokens:           tokens,
		Resolver:         chain,
		Limiters:         limiters,
		RefreshThreshold: cfg.Auth.RefreshThreshold,
		AuthMetrics:      authMetrics,
		HTTPMetrics:      httpMetrics,
	})
	if err := a.registry.Register(server.NewComponent(a.server)); err != nil {
		return a, err
	}
	return a, nil
}

// buildLimiters returns empty Limiters when rate limiting is disabled,
// which leaves every route unlimited.
func (a *app) buildLimiters(rdb *redis.Component, metrics *observability.AuthMetrics) (api.Limiters, error) {
	rl := a.cfg.RateLimit
	if rl.Disabled {
		a.log.Warn("rate limiting is disabled")
		return api.Limiters{}, nil
	}

	var store ratelimit.Store
	switch rl.Store {
	case ratelimit.StoreRedis:
		timeout, _ := rl.BreakerTimeout()
		cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "ratelimit-redis",
			MaxFailures: rl.Breaker.MaxFailures,
			Timeout:     timeout,
			OnStateChange: func(name string, from, to resilience.State) {
				a.log.Warn("Circuit breaker state changed", logger.Fields(
					"breaker", name, "from", from.String(), "to", to.String(),
				))
			},
		})
		store = ratelimit.NewBreakerStore(ratelimit.NewRedisStore(rdb.Client()), cb)
	default:
		sweep, _ := time.ParseDuration(rl.SweepInterval)
		mem := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(sweep))
		a.closers = append(a.closers, mem)
		store = mem
	}

	policies, err := rl.Policies()
	if err != nil {
		return api.Limiters{}, err
	}
	set, err := ratelimit.NewSet(store, policies,
		ratelimit.WithLogger(a.log),
		ratelimit.WithOnLimit(func(policy string) {
			ctx := context.Background()
			metrics.RateLimitRejected(ctx, policy)
			if policy == ratelimit.PolicyLogin {
				metrics.LoginAttempt(ctx, observability.OutcomeRateLimited)
			}
		}),
	)
	if err != nil {
		return api.Limiters{}, err
	}
	return api.LimitersFromSet(set)
}

// run starts the HTTP server and blocks until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	if err := a.registry.StartAll(ctx); err != nil {
		return err
	}
	a.log.Info("careerauth is ready", logger.Fields("addr", a.server.Addr()))

	<-ctx.Done()
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.shutdown(stopCtx)
}

func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if err := a.registry.StopAll(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.meter != nil {
		if err := a.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

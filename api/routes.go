package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/careerauth/account"
	"github.com/kbukum/careerauth/auth"
	"github.com/kbukum/careerauth/auth/jwt"
	"github.com/kbukum/careerauth/auth/session"
	"github.com/kbukum/careerauth/observability"
	"github.com/kbukum/careerauth/ratelimit"
	"github.com/kbukum/careerauth/server/middleware"
)

// Limiters are the rate limiters applied to the routes.
type Limiters struct {
	API           *ratelimit.Limiter
	Login         *ratelimit.Limiter
	Register      *ratelimit.Limiter
	PasswordReset *ratelimit.Limiter
}

// LimitersFromSet picks the four route limiters out of set.
func LimitersFromSet(set *ratelimit.Set) (Limiters, error) {
	var l Limiters
	for _, slot := range []struct {
		dst  **ratelimit.Limiter
		name string
	}{
		{&l.API, ratelimit.PolicyAPI},
		{&l.Login, ratelimit.PolicyLogin},
		{&l.Register, ratelimit.PolicyRegister},
		{&l.PasswordReset, ratelimit.PolicyPasswordReset},
	} {
		lim, err := set.Get(slot.name)
		if err != nil {
			return Limiters{}, fmt.Errorf("api: %w", err)
		}
		*slot.dst = lim
	}
	return l, nil
}

// Deps are the collaborators of the HTTP surface. Metrics are optional.
type Deps struct {
	Accounts         *account.Service
	Sessions         *session.Manager
	Tokens           *jwt.Service
	Resolver         auth.Resolver
	Limiters         Limiters
	RefreshThreshold time.Duration
	AuthMetrics      *observability.AuthMetrics
	HTTPMetrics      *observability.Metrics
}

// RegisterRoutes mounts the account endpoints on r.
func RegisterRoutes(r gin.IRouter, d Deps) {
	h := NewHandler(d.Accounts, d.Sessions)

	g := r.Group("")
	g.Use(middleware.Tracing())
	if d.HTTPMetrics != nil {
		g.Use(middleware.Metrics(d.HTTPMetrics))
	}
	if d.Limiters.API != nil {
		g.Use(middleware.RateLimit(d.Limiters.API, nil))
	}

	identity := []gin.HandlerFunc{
		middleware.Identity(d.Resolver),
		middleware.TokenRefresh(d.Tokens, d.RefreshThreshold, d.AuthMetrics),
	}
	route := func(limiter *ratelimit.Limiter, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		var chain []gin.HandlerFunc
		if limiter != nil {
			key := middleware.IPBasedKey
			if limiter == d.Limiters.PasswordReset {
				// One mistyped answer must not use up the reset step.
				key = middleware.IPRouteKey
			}
			chain = append(chain, middleware.RateLimit(limiter, key))
		}
		chain = append(chain, identity...)
		return append(chain, handlers...)
	}

	g.POST("/register", route(d.Limiters.Register, h.Register)...)
	g.POST("/login", route(d.Limiters.Login, h.Login)...)
	g.POST("/logout", route(nil, h.Logout)...)
	g.GET("/user", route(nil, middleware.RequireAuth(), h.WhoAmI)...)
	g.GET("/user/:id", route(nil, middleware.RequireAuth(), h.GetAccount)...)
	g.POST("/find-account", route(d.Limiters.PasswordReset, h.FindAccount)...)
	g.POST("/verify-security-answer", route(d.Limiters.PasswordReset, h.VerifySecurityAnswer)...)
	g.POST("/reset-password", route(d.Limiters.PasswordReset, h.ResetPassword)...)
	g.GET("/security-questions", route(nil, h.SecurityQuestions)...)
}

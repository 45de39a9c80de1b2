// Package redis provides the optional Redis connection used by the rate
// limiter's shared counter store.
//
// It wraps go-redis with careerauth logging, the config conventions of the
// other packages (ApplyDefaults/Validate), and a component.Component so the
// connection is opened and closed with the rest of the process.
//
//	cfg := redis.Config{Enabled: true, Addr: "localhost:6379"}
//	comp := redis.NewComponent(cfg, log)
//	registry.Register(comp)
//	// after StartAll:
//	store := ratelimit.NewRedisStore(comp.Client())
package redis

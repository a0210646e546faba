package container

import (
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/ratelimit"
	"github.com/serroba/linkstats/internal/store"
)

// RateLimitPackage provides the ratelimit.Store and the *ratelimit.PolicyLimiter.
// Counters live in Redis when it is configured, otherwise in process memory.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		client := do.MustInvoke[*RedisClient](i)
		if client.Enabled() {
			return store.NewRateLimitRedisStore(client.Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}

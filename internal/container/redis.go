package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// RedisClient wraps the Redis client so the injector closes it on shutdown.
// Client is nil when no address is configured.
type RedisClient struct {
	*redis.Client
}

// Enabled reports whether Redis is configured.
func (c *RedisClient) Enabled() bool {
	return c.Client != nil
}

func (c *RedisClient) Shutdown() error {
	if c.Client == nil {
		return nil
	}

	return c.Close()
}

// RedisPackage provides the *RedisClient.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.RedisAddr == "" {
			logger.Info("redis disabled")

			return &RedisClient{}, nil
		}

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

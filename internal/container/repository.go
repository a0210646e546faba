package container

import (
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/store"
	"go.uber.org/zap"
)

// Backend is the primary store of links and clicks.
type Backend interface {
	links.Repository
	clicks.Recorder
	analytics.Source
}

// GeoPackage provides the clicks.Locator.
func GeoPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (clicks.Locator, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return clicks.OpenLocator(opts.GeoIPPath, logger), nil
	})
}

// RepositoryPackage provides the Backend, the redirect cache, and the domain
// services built on them. It needs the Redis, Postgres, Geo and PublisherGroup packages.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (Backend, error) {
		pg := do.MustInvoke[*PostgresPool](i)
		if pg.Pool != nil {
			return store.NewPostgresStore(pg.Pool), nil
		}

		return store.NewMemoryStore(), nil
	})

	// Nil when Redis is disabled.
	do.Provide(injector, func(i *do.Injector) (*store.RedisLinkCache, error) {
		client := do.MustInvoke[*RedisClient](i)
		if !client.Enabled() {
			return nil, nil
		}

		opts := do.MustInvoke[*Options](i)

		return store.NewRedisLinkCache(
			do.MustInvoke[Backend](i),
			client.Client,
			opts.CacheTTL(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*links.Registry, error) {
		codes, err := links.NewCodeGenerator()
		if err != nil {
			return nil, err
		}

		keys, err := links.NewEditKeyGenerator()
		if err != nil {
			return nil, err
		}

		var invalidator links.Invalidator = links.NopInvalidator{}
		if cache := do.MustInvoke[*store.RedisLinkCache](i); cache != nil {
			invalidator = cache
		}

		return links.NewRegistry(
			do.MustInvoke[Backend](i),
			invalidator,
			codes,
			keys,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Aggregator, error) {
		return analytics.NewAggregator(do.MustInvoke[Backend](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*clicks.Pipeline, error) {
		backend := do.MustInvoke[Backend](i)

		var lookup clicks.Lookup = backend
		if cache := do.MustInvoke[*store.RedisLinkCache](i); cache != nil {
			lookup = cache
		}

		return clicks.NewPipeline(
			lookup,
			backend,
			do.MustInvoke[clicks.Locator](i),
			do.MustInvoke[messaging.Publish[analytics.LinkClickedEvent]](i),
			do.MustInvoke[*Options](i).GeoLoopbackIP,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/handlers"
	"github.com/serroba/linkstats/internal/health"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/middleware"
	"github.com/serroba/linkstats/internal/ratelimit"
	"go.uber.org/zap"
)

// HTTPPackage provides the *chi.Mux and the huma.API. Invoking the API
// registers every route on the router.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)
		router.Handle("/metrics", promhttp.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("Link Shortener", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(api, do.MustInvoke[*ratelimit.PolicyLimiter](i), logger),
			middleware.Identity(api, []byte(opts.JWTSecret), logger),
		)

		linkHandler := handlers.NewLinkHandler(
			do.MustInvoke[*links.Registry](i),
			do.MustInvoke[*analytics.Aggregator](i),
			opts.PublicBaseURL(),
			do.MustInvoke[messaging.Publish[analytics.LinkCreatedEvent]](i),
			logger,
		)
		redirectHandler := handlers.NewRedirectHandler(do.MustInvoke[*clicks.Pipeline](i), logger)

		handlers.RegisterRoutes(api, linkHandler, redirectHandler)
		health.RegisterRoutes(api, health.NewHandler(healthCheckers(i)))

		return api, nil
	})
}

func healthCheckers(i *do.Injector) map[string]health.Checker {
	checkers := make(map[string]health.Checker)

	if client := do.MustInvoke[*RedisClient](i); client.Enabled() {
		checkers["redis"] = health.NewRedisChecker(client.Client)
	}

	if pg := do.MustInvoke[*PostgresPool](i); pg.Pool != nil {
		checkers["postgres"] = health.NewPostgresChecker(pg.Pool)
	}

	return checkers
}

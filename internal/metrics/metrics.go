// Package metrics holds the Prometheus collectors of the service.
// promauto registers every collector with the default registry, served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redirect outcomes used as the "outcome" label of RedirectsTotal.
const (
	OutcomeRedirected = "redirected"
	OutcomeNotFound   = "not_found"
	OutcomeGone       = "gone"
	OutcomeError      = "error"
)

// Event outcomes used as the "outcome" label of EventsConsumedTotal.
const (
	EventProcessed = "processed"
	EventFailed    = "failed"
	EventDropped   = "dropped"
)

var (
	LinksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of short links created",
		},
	)

	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of redirect requests by outcome",
		},
		[]string{"outcome"},
	)

	ClicksRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicks_recorded_total",
			Help: "Total number of click records persisted, by device type",
		},
		[]string{"device_type"},
	)

	// GeoLookupMissesTotal counts clicks stored without a country.
	GeoLookupMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geo_lookup_misses_total",
			Help: "Total number of clicks whose country could not be resolved",
		},
	)

	ClickIngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "click_ingest_duration_seconds",
			Help:    "Duration of click ingestion (derive and persist) in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	RateLimitedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of rate-limited requests by scope",
		},
		[]string{"scope"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of bus events handled by the consumer, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)
)

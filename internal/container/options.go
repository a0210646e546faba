// Package container wires the service together with samber/do. Each
// *Package function registers the providers of one concern.
package container

import (
	"fmt"
	"strings"
	"time"
)

// Analytics sinks the event consumer can write into.
const (
	SinkRollup = "rollup"
	SinkLog    = "log"
)

// Options are read from flags or SERVICE_* environment variables.
type Options struct {
	Port    int    `default:"8888" doc:"Port to listen on"                                     short:"p"`
	BaseURL string `doc:"Public base URL of short links, defaults to http://localhost:<port>"`

	DatabaseURL string `doc:"PostgreSQL URL; links are kept in memory when empty"`
	Migrate     bool   `default:"true" doc:"Apply database migrations on startup"`

	RedisAddr       string `doc:"Redis server address; caching and event streaming are disabled when empty" short:"r"`
	CacheTTLSeconds int    `default:"300" doc:"Lifetime of cached redirect lookups"`

	GeoIPPath     string `doc:"Path to a MaxMind country database"`
	GeoLoopbackIP string `doc:"Address used to geolocate loopback clients during development"`

	JWTSecret string `doc:"HS256 secret for bearer tokens; bearer tokens are rejected when empty"`

	LogFormat string `default:"json" doc:"Log format: json or console"`
	LogLevel  string `default:"info" doc:"Minimum log level"`

	AnalyticsSink string `default:"rollup"    doc:"Where the consumer writes events: rollup or log"`
	ConsumerGroup string `default:"analytics" doc:"Redis stream consumer group name"`
	RollupTTLDays int    `default:"90"        doc:"Days a rollup counter lives after its last update"`
}

// PublicBaseURL returns the base URL used to build short links.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL == "" {
		return fmt.Sprintf("http://localhost:%d", o.Port)
	}

	return strings.TrimRight(o.BaseURL, "/")
}

// CacheTTL returns the redirect cache lifetime.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

// RollupTTL returns the lifetime of rollup counters.
func (o *Options) RollupTTL() time.Duration {
	return time.Duration(o.RollupTTLDays) * 24 * time.Hour
}

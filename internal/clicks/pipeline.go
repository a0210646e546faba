// Package clicks turns redirect requests into persisted click records.
package clicks

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

// Lookup finds the link behind a short code on the redirect path.
type Lookup interface {
	GetByCode(ctx context.Context, code links.Code) (*links.Link, error)
}

// Recorder persists a click and adds one to the link's click count.
// Both writes must succeed or fail together.
type Recorder interface {
	RecordClick(ctx context.Context, click *links.Click) error
}

type requestMetaKey struct{}

// RequestMeta holds the HTTP request metadata a click is derived from.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// Pipeline validates a redirect target and records the click.
type Pipeline struct {
	lookup     Lookup
	recorder   Recorder
	locator    Locator
	publish    messaging.Publish[analytics.LinkClickedEvent]
	loopbackIP string
	logger     *zap.Logger
}

// NewPipeline creates a click ingestion pipeline. When loopbackIP is set,
// loopback clients are geolocated as if they came from that address; leave it
// empty in production.
func NewPipeline(
	lookup Lookup,
	recorder Recorder,
	locator Locator,
	publish messaging.Publish[analytics.LinkClickedEvent],
	loopbackIP string,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		lookup:     lookup,
		recorder:   recorder,
		locator:    locator,
		publish:    publish,
		loopbackIP: loopbackIP,
		logger:     logger,
	}
}

// Follow resolves code for a redirect. Unknown codes return links.ErrNotFound,
// inactive or expired links a *links.GoneError; neither records a click.
func (p *Pipeline) Follow(ctx context.Context, code links.Code, meta RequestMeta) (*links.Link, error) {
	link, err := p.lookup.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err = link.CheckRedirectable(time.Now()); err != nil {
		return nil, err
	}

	if _, err = p.Record(ctx, link, meta); err != nil {
		return nil, err
	}

	return link, nil
}

// Record derives the click metadata and persists it. Geolocation and
// user-agent parsing never fail the call; persistence errors do.
func (p *Pipeline) Record(ctx context.Context, link *links.Link, meta RequestMeta) (*links.Click, error) {
	start := time.Now()

	ip := meta.ClientIP
	if p.loopbackIP != "" && isLoopback(ip) {
		ip = p.loopbackIP
	}

	country := p.locator.Country(ip)
	if country == "" {
		metrics.GeoLookupMissesTotal.Inc()
	}

	click := &links.Click{
		LinkID:     link.ID,
		ClickedAt:  start.UTC().Truncate(time.Microsecond),
		IPAddress:  Anonymize(ip),
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
		Country:    country,
		DeviceType: DeviceTypeOf(ParseUserAgent(meta.UserAgent)),
	}

	if err := p.recorder.RecordClick(ctx, click); err != nil {
		return nil, fmt.Errorf("record click for %s: %w", link.Code, err)
	}

	metrics.ClicksRecordedTotal.WithLabelValues(string(click.DeviceType)).Inc()
	metrics.ClickIngestDuration.Observe(time.Since(start).Seconds())

	event := &analytics.LinkClickedEvent{
		Code:       string(link.Code),
		LinkID:     link.ID,
		ClickedAt:  click.ClickedAt,
		Country:    click.Country,
		DeviceType: string(click.DeviceType),
		Referrer:   click.Referrer,
	}

	if err := p.publish(ctx, event); err != nil {
		p.logger.Error("failed to publish click event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return click, nil
}

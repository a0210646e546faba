package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkstats/internal/analytics"
)

// Rollup is an analytics.Store that keeps per-link click counters in Redis
// hashes: one per dimension (day, country, device) plus a total.
type Rollup struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRollup creates a Redis rollup. Counters expire ttl after their last update; zero keeps them forever.
func NewRollup(client *redis.Client, ttl time.Duration) *Rollup {
	return &Rollup{
		client: client,
		prefix: "rollup:",
		ttl:    ttl,
	}
}

func (r *Rollup) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	key := r.key(event.Code, "meta")

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, "created_at", event.CreatedAt.UnixNano())
	pipe.HSetNX(ctx, key, "total", 0)
	r.expire(ctx, pipe, key)

	_, err := pipe.Exec(ctx)

	return err
}

// SaveLinkClicked increments every dimension touched by the click in one transaction.
func (r *Rollup) SaveLinkClicked(ctx context.Context, event *analytics.LinkClickedEvent) error {
	pipe := r.client.TxPipeline()

	dayKey := r.key(event.Code, "day")
	pipe.HIncrBy(ctx, dayKey, event.ClickedAt.UTC().Format(analytics.DateLayout), 1)
	r.expire(ctx, pipe, dayKey)

	if event.Country != "" {
		countryKey := r.key(event.Code, "country")
		pipe.HIncrBy(ctx, countryKey, event.Country, 1)
		r.expire(ctx, pipe, countryKey)
	}

	if event.DeviceType != "" {
		deviceKey := r.key(event.Code, "device")
		pipe.HIncrBy(ctx, deviceKey, event.DeviceType, 1)
		r.expire(ctx, pipe, deviceKey)
	}

	metaKey := r.key(event.Code, "meta")
	pipe.HIncrBy(ctx, metaKey, "total", 1)
	r.expire(ctx, pipe, metaKey)

	_, err := pipe.Exec(ctx)

	return err
}

func (r *Rollup) key(code, dimension string) string {
	return r.prefix + code + ":" + dimension
}

func (r *Rollup) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
}

var _ analytics.Store = (*Rollup)(nil)

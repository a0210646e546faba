package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/links"
	"go.uber.org/zap"
)

// RedisLinkCache fronts the redirect lookup with Redis hashes. It caches only
// what a redirect needs; the edit key and click count never enter the cache.
type RedisLinkCache struct {
	store  clicks.Lookup
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLinkCache creates a cache in front of store.
func NewRedisLinkCache(store clicks.Lookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLinkCache {
	return &RedisLinkCache{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
		logger: logger,
	}
}

// GetByCode returns the cached link, falling back to the store on a miss.
func (r *RedisLinkCache) GetByCode(ctx context.Context, code links.Code) (*links.Link, error) {
	link, err := r.getFromCache(ctx, code)
	if err == nil {
		return link, nil
	}

	if !errors.Is(err, links.ErrNotFound) {
		r.logger.Warn("link cache read failed", zap.String("code", string(code)), zap.Error(err))
	}

	link, err = r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// Invalidate drops the cached copy of code.
func (r *RedisLinkCache) Invalidate(ctx context.Context, code links.Code) error {
	return r.client.Del(ctx, r.prefix+string(code)).Err()
}

func (r *RedisLinkCache) getFromCache(ctx context.Context, code links.Code) (*links.Link, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, links.ErrNotFound
	}

	link := &links.Link{
		ID:       result["id"],
		Code:     links.Code(result["code"]),
		LongURL:  result["long_url"],
		OwnerID:  result["owner_id"],
		IsActive: result["is_active"] == "1",
	}

	if ts, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, ts).UTC()
	}

	if raw := result["expires_at"]; raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}

		exp := time.Unix(0, ts).UTC()
		link.ExpiresAt = &exp
	}

	return link, nil
}

func (r *RedisLinkCache) cacheLink(ctx context.Context, link *links.Link) {
	key := r.prefix + string(link.Code)

	var expiresAt string
	if link.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(link.ExpiresAt.UnixNano(), 10)
	}

	active := "0"
	if link.IsActive {
		active = "1"
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"id":         link.ID,
		"code":       string(link.Code),
		"long_url":   link.LongURL,
		"owner_id":   link.OwnerID,
		"is_active":  active,
		"created_at": link.CreatedAt.UnixNano(),
		"expires_at": expiresAt,
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("link cache write failed", zap.String("code", string(link.Code)), zap.Error(err))
	}
}

var (
	_ clicks.Lookup     = (*RedisLinkCache)(nil)
	_ links.Invalidator = (*RedisLinkCache)(nil)
)

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/souvik017/livefeed/internal/domain"
	"github.com/souvik017/livefeed/internal/metrics"
)

// feedKey is the single well-known cache key: this service caches one
// global recent-feed snapshot, not per-user views.
const feedKey = "feed:recent"

// FeedCache stores the serialized recent-feed snapshot in Redis with a TTL.
// It carries no versioning; staleness is bounded by the TTL and by explicit
// invalidation on every successful write. Atomicity of get/set/delete is
// the cache backend's, not ours.
type FeedCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewFeedCache(rdb goredis.Cmdable, ttl time.Duration) *FeedCache {
	return &FeedCache{rdb: rdb, ttl: ttl}
}

func (c *FeedCache) Get(ctx context.Context) ([]domain.Post, bool, error) {
	data, err := c.rdb.Get(ctx, feedKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.FeedCacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("feed cache get failed: %w", err)
	}

	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		// A corrupt entry behaves like a miss; the next populate overwrites it.
		slog.Warn("Failed to unmarshal cached feed, treating as miss", "error", err)
		metrics.FeedCacheMisses.Inc()
		return nil, false, nil
	}

	metrics.FeedCacheHits.Inc()
	return posts, true, nil
}

func (c *FeedCache) Populate(ctx context.Context, posts []domain.Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to marshal feed snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, feedKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("feed cache populate failed: %w", err)
	}
	return nil
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, feedKey).Err(); err != nil {
		return fmt.Errorf("feed cache invalidation failed: %w", err)
	}
	metrics.FeedCacheInvalidations.Inc()
	return nil
}

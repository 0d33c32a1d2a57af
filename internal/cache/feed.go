package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/ai-community/internal/model"
)

// FeedCache caches the recent-posts page in Redis. The feed is read far more
// often than it changes; writers invalidate, readers repopulate on miss.
type FeedCache struct {
	cache *redis.Client
	ttl   time.Duration
}

func NewFeedCache(cache *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FeedCache{cache: cache, ttl: ttl}
}

func feedKey(limit int) string { return fmt.Sprintf("feed:recent:%d", limit) }

// GetRecent returns the cached page, or (nil, false) on miss.
func (f *FeedCache) GetRecent(ctx context.Context, limit int) ([]*model.Post, bool) {
	data, err := f.cache.Get(ctx, feedKey(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var posts []*model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false
	}
	return posts, true
}

// SetRecent stores a page; marshal or store errors are not surfaced,
// the cache is best-effort.
func (f *FeedCache) SetRecent(ctx context.Context, limit int, posts []*model.Post) {
	payload, err := json.Marshal(posts)
	if err != nil {
		return
	}
	_ = f.cache.Set(ctx, feedKey(limit), payload, f.ttl).Err()
}

// Invalidate drops all cached feed pages after a write.
func (f *FeedCache) Invalidate(ctx context.Context) {
	iter := f.cache.Scan(ctx, 0, "feed:recent:*", 0).Iterator()
	for iter.Next(ctx) {
		_ = f.cache.Del(ctx, iter.Val()).Err()
	}
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ai-community/internal/model"
)

func setupFeedCache(t *testing.T) (*FeedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFeedCache(client, 30*time.Second), mr
}

func TestFeedCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc, _ := setupFeedCache(t)

	_, ok := fc.GetRecent(ctx, 30)
	assert.False(t, ok, "cold cache must miss")

	posts := []*model.Post{
		{ID: "p1", Content: "first"},
		{ID: "p2", Content: "second"},
	}
	fc.SetRecent(ctx, 30, posts)

	got, ok := fc.GetRecent(ctx, 30)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)

	// 不同 limit 是不同的键
	_, ok = fc.GetRecent(ctx, 10)
	assert.False(t, ok)
}

func TestFeedCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	fc, _ := setupFeedCache(t)

	fc.SetRecent(ctx, 30, []*model.Post{{ID: "p1"}})
	fc.SetRecent(ctx, 10, []*model.Post{{ID: "p1"}})

	fc.Invalidate(ctx)

	_, ok := fc.GetRecent(ctx, 30)
	assert.False(t, ok)
	_, ok = fc.GetRecent(ctx, 10)
	assert.False(t, ok)
}

func TestFeedCacheExpiry(t *testing.T) {
	ctx := context.Background()
	fc, mr := setupFeedCache(t)

	fc.SetRecent(ctx, 30, []*model.Post{{ID: "p1"}})
	mr.FastForward(time.Minute)

	_, ok := fc.GetRecent(ctx, 30)
	assert.False(t, ok, "entry must expire after ttl")
}

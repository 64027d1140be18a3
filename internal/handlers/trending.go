package handlers

import (
	"context"
	"time"

	"github.com/devconnect/backend/pkg/cache"
	"github.com/devconnect/backend/pkg/logger"
)

// Trending lists cover the last week of activity and are recomputed at most
// every trendingTTL.
const (
	trendingWindow = 7 * 24 * time.Hour
	trendingTTL    = 10 * time.Minute
	trendingLimit  = 20

	trendingPostsKey    = "trending:posts"
	trendingSnippetsKey = "trending:snippets"
)

// cachedList returns the list stored under key, or loads and stores it. Cache
// errors are logged and fall through to load.
func cachedList[T any](ctx context.Context, c cache.Cache, key string, load func() ([]T, error)) ([]T, error) {
	var list []T
	hit, err := c.Get(ctx, key, &list)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if hit {
		return list, nil
	}

	list, err = load()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, list, trendingTTL); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return list, nil
}

package political

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Fetcher returns the articles to score for one country.
type Fetcher interface {
	Fetch(ctx context.Context, country string) ([]Article, error)
}

// NewsFetcher concatenates the articles of every enabled provider in order and
// falls back to the sample news when none produced anything.
type NewsFetcher struct {
	providers []Provider
	logger    *zap.Logger
	now       func() time.Time
}

func NewNewsFetcher(logger *zap.Logger, providers ...Provider) *NewsFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsFetcher{
		providers: providers,
		logger:    logger,
		now:       time.Now,
	}
}

func (f *NewsFetcher) Fetch(ctx context.Context, country string) ([]Article, error) {
	articles := make([]Article, 0)
	for _, p := range f.providers {
		if !p.Enabled() {
			continue
		}
		got, err := p.Articles(ctx, country)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("fetch news for %s: %w", country, ctxErr)
			}
			f.logger.Warn("news provider failed",
				zap.String("provider", p.Name()),
				zap.String("country", country),
				zap.Error(err))
			continue
		}
		articles = append(articles, got...)
	}
	if len(articles) == 0 {
		return SampleArticles(country, f.now()), nil
	}
	return articles, nil
}

// RedisCache memoizes another fetcher per country for a fixed TTL. Redis failures
// are logged and bypass the cache.
type RedisCache struct {
	next   Fetcher
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(next Fetcher, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		next:   next,
		client: client,
		prefix: "sentrix:news:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) Fetch(ctx context.Context, country string) ([]Article, error) {
	key := c.prefix + country

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []Article
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.logger.Warn("discarding corrupt news cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("news cache read failed", zap.String("key", key), zap.Error(err))
	}

	articles, err := c.next.Fetch(ctx, country)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(articles)
	if err != nil {
		return articles, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("news cache write failed", zap.String("key", key), zap.Error(err))
	}
	return articles, nil
}

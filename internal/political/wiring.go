package political

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/config"
)

const redisPingTimeout = 2 * time.Second

// NewFetcherFromConfig builds the provider chain from cfg and puts the Redis
// cache in front of it when REDIS_ADDR answers a ping. The returned func
// releases the Redis client.
func NewFetcherFromConfig(ctx context.Context, cfg config.Config, logger *zap.Logger) (Fetcher, func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var fetcher Fetcher = NewNewsFetcher(logger.Named("news"),
		NewNewsData(cfg.NewsDataAPIKey, ""),
		NewGNews(cfg.GNewsAPIKey, ""),
	)
	if cfg.RedisAddr == "" {
		return fetcher, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, news cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return fetcher, func() {}
	}
	logger.Info("news cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.NewsCacheTTL))
	return NewRedisCache(fetcher, client, cfg.NewsCacheTTL, logger.Named("news_cache")),
		func() { _ = client.Close() }
}

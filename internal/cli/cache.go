package cli

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"timesheet/internal/analytics"
	"timesheet/internal/cache"
	"timesheet/internal/config"
	applog "timesheet/internal/log"
)

const analyticsKeyPrefix = "timesheet:analytics:"

// InitAnalyticsCache connects the shared Redis cache when REDIS_URL is set.
// It returns nil, and the server keeps its in-process LRU, when Redis is not
// configured or not reachable. The returned close func is never nil.
func InitAnalyticsCache(logger *applog.Logger, cfg *config.Config) (cache.Cache[analytics.Analytics], func()) {
	noop := func() {}
	if cfg.RedisURL == "" {
		return nil, noop
	}

	opt, err := cache.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid Redis URL, using in-process cache", "error", err)
		return nil, noop
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable, using in-process cache", "addr", opt.Addr, "error", err)
		client.Close()
		return nil, noop
	}

	logger.Info("Analytics cache backed by Redis", "addr", opt.Addr, "ttl", cfg.AnalyticsCacheTTL)
	return cache.NewRedisCache[analytics.Analytics](client, analyticsKeyPrefix, cfg.AnalyticsCacheTTL),
		func() { client.Close() }
}

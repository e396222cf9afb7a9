package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shortlink-service/internal/metrics"
)

const keyPrefix = "sl:"

// ShortlinkCache 两级缓存：L1 本地 ristretto，L2 Redis（可选）。
// 只缓存已存在的映射，不做负缓存，否则新创建的短码可能在其他实例上短暂解析失败。
type ShortlinkCache struct {
	client *redis.Client
	local  *LocalCache
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewShortlinkCache(client *redis.Client, local *LocalCache, ttl time.Duration, logger *zap.SugaredLogger) *ShortlinkCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ShortlinkCache{
		client: client,
		local:  local,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}
}

// Get 命中时返回原始链接；Redis 出错按未命中处理，由调用方回源
func (c *ShortlinkCache) Get(ctx context.Context, code string) (string, bool) {
	if c.local != nil {
		if url, ok := c.local.Get(code); ok {
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return url, true
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}
	if c.client == nil {
		return "", false
	}

	url, err := c.client.Get(ctx, keyPrefix+code).Result()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", false
	case err != nil:
		metrics.CacheOperations.WithLabelValues("l2", "error").Inc()
		c.logger.Warnw("读取Redis缓存失败", "code", code, "error", err)
		return "", false
	}
	metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()

	// 回填本地缓存
	if c.local != nil {
		c.local.Set(code, url)
	}
	return url, true
}

func (c *ShortlinkCache) Set(ctx context.Context, code, url string) {
	if c.local != nil {
		c.local.Set(code, url)
	}
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+code, url, c.ttl).Err(); err != nil {
		c.logger.Warnw("写入Redis缓存失败", "code", code, "error", err)
	}
}

func (c *ShortlinkCache) Delete(ctx context.Context, code string) {
	if c.local != nil {
		c.local.Del(code)
	}
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+code).Err(); err != nil {
		c.logger.Warnw("删除Redis缓存失败", "code", code, "error", err)
	}
}

// Close 关闭本地缓存，Redis 连接由创建方关闭
func (c *ShortlinkCache) Close() {
	if c.local != nil {
		c.local.Close()
		c.logger.Info("本地缓存已关闭")
	}
}

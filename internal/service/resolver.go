package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shortlink-service/internal/cache"
	"shortlink-service/internal/metrics"
	"shortlink-service/internal/model"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"
)

// Resolver 负责短码解析和管理操作，解析本身不修改任何数据
type Resolver struct {
	store  store.MappingStore
	cache  *cache.ShortlinkCache
	logger *zap.SugaredLogger
}

type Stats struct {
	TotalLinks int64 `json:"total_links"`
}

func NewResolver(s store.MappingStore, c *cache.ShortlinkCache, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{store: s, cache: c, logger: logger.Named("resolver")}
}

// Resolve 返回短码对应的原始链接
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	if !shortcode.Valid(code) {
		metrics.ResolveRequests.WithLabelValues("unknown").Inc()
		return "", ErrUnknownShortCode
	}

	if r.cache != nil {
		if url, ok := r.cache.Get(ctx, code); ok {
			metrics.ResolveRequests.WithLabelValues("found").Inc()
			return url, nil
		}
	}

	m, err := r.store.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ResolveRequests.WithLabelValues("unknown").Inc()
			return "", ErrUnknownShortCode
		}
		metrics.ResolveRequests.WithLabelValues("unavailable").Inc()
		r.logger.Errorw("查询短链接失败", "code", code, "error", err)
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, code, m.OriginalURL)
	}
	metrics.ResolveRequests.WithLabelValues("found").Inc()
	return m.OriginalURL, nil
}

// List 分页返回映射和总数，limit <= 0 表示不分页
func (r *Resolver) List(ctx context.Context, offset, limit int) ([]model.URLMapping, int64, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	mappings, err := r.store.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return mappings, total, nil
}

func (r *Resolver) Stats(ctx context.Context) (Stats, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return Stats{TotalLinks: total}, nil
}

// Delete 删除映射并清理缓存
func (r *Resolver) Delete(ctx context.Context, code string) error {
	if !shortcode.Valid(code) {
		return ErrUnknownShortCode
	}
	if err := r.store.Delete(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownShortCode
		}
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if r.cache != nil {
		r.cache.Delete(ctx, code)
	}
	r.logger.Infow("短链接已删除", "code", code)
	return nil
}

// Ready 检查存储是否可用
func (r *Resolver) Ready(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return nil
}

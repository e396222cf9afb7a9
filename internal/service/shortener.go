package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"shortlink-service/internal/cache"
	"shortlink-service/internal/metrics"
	"shortlink-service/internal/model"
	"shortlink-service/internal/safety"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"
	"shortlink-service/internal/urlcheck"
)

const DefaultMaxAttempts = 5

// SafetyChecker 链接安全检查
type SafetyChecker interface {
	Check(ctx context.Context, u *url.URL) (safety.Verdict, error)
}

type ShortenerOptions struct {
	MaxAttempts int
	// SelfHosts 服务自身的域名，包括 base_url 的主机名和别名
	SelfHosts []string
}

// Shortener 负责创建短链接
type Shortener struct {
	store       store.MappingStore
	generator   shortcode.Generator
	safety      SafetyChecker
	cache       *cache.ShortlinkCache
	self        *urlcheck.HostMatcher
	maxAttempts int
	logger      *zap.SugaredLogger
}

// NewShortener safety 和 cache 可以为 nil
func NewShortener(s store.MappingStore, gen shortcode.Generator, checker SafetyChecker, c *cache.ShortlinkCache, opts ShortenerOptions, logger *zap.SugaredLogger) *Shortener {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Shortener{
		store:       s,
		generator:   gen,
		safety:      checker,
		cache:       c,
		self:        urlcheck.NewHostMatcher(opts.SelfHosts...),
		maxAttempts: opts.MaxAttempts,
		logger:      logger.Named("shortener"),
	}
}

// Create 校验链接并生成新的短码，成功时恰好写入一条映射
func (s *Shortener) Create(ctx context.Context, originalURL string) (model.URLMapping, error) {
	originalURL = strings.TrimSpace(originalURL)

	u, reasons := urlcheck.Validate(originalURL)
	if len(reasons) > 0 {
		metrics.ShortenRequests.WithLabelValues("invalid_url").Inc()
		return model.URLMapping{}, reject(ErrInvalidURL, reasons...)
	}

	if s.self.Matches(u) {
		metrics.ShortenRequests.WithLabelValues("self_referential").Inc()
		return model.URLMapping{}, reject(ErrSelfReferential, "URL points to this shortener")
	}

	if s.safety != nil {
		verdict, err := s.safety.Check(ctx, u)
		if err != nil {
			metrics.ShortenRequests.WithLabelValues("unavailable").Inc()
			return model.URLMapping{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		if !verdict.Safe {
			metrics.ShortenRequests.WithLabelValues("unsafe_url").Inc()
			s.logger.Infow("拒绝不安全的链接", "url", originalURL, "reasons", verdict.Reasons)
			return model.URLMapping{}, reject(ErrUnsafeURL, verdict.Reasons...)
		}
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			metrics.ShortenRequests.WithLabelValues("unavailable").Inc()
			s.logger.Errorw("生成短码失败", "error", err)
			return model.URLMapping{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}

		m, err := s.store.InsertIfAbsent(ctx, code, originalURL)
		switch {
		case err == nil:
			metrics.ShortenRequests.WithLabelValues("created").Inc()
			if s.cache != nil {
				s.cache.Set(ctx, m.ShortCode, m.OriginalURL)
			}
			s.logger.Debugw("短链接已创建", "code", m.ShortCode, "attempt", attempt)
			return m, nil
		case errors.Is(err, store.ErrAlreadyExists):
			metrics.CodeCollisions.Inc()
			s.logger.Warnw("短码冲突，重新生成", "code", code, "attempt", attempt)
			continue
		default:
			metrics.ShortenRequests.WithLabelValues("unavailable").Inc()
			s.logger.Errorw("保存短链接失败", "code", code, "error", err)
			return model.URLMapping{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
	}

	metrics.ShortenRequests.WithLabelValues("exhausted").Inc()
	s.logger.Errorw("短码生成次数耗尽，需要扩大短码长度", "max_attempts", s.maxAttempts)
	return model.URLMapping{}, ErrGenerationExhausted
}

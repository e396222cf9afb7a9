package safety

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"shortlink-service/internal/metrics"
)

// ErrUnavailable 远程检查失败且策略为 fail-closed
var ErrUnavailable = errors.New("url safety check unavailable")

// Verdict 检查结果
type Verdict struct {
	Safe    bool
	Reasons []string
}

type GuardOptions struct {
	// Remote 为 nil 时只做本地规则检查
	Remote   Checker
	Timeout  time.Duration
	FailOpen bool
}

// Guard 先做本地规则检查，再查询远程信誉服务
type Guard struct {
	heuristics *Heuristics
	remote     Checker
	timeout    time.Duration
	failOpen   bool
	logger     *zap.SugaredLogger
}

func NewGuard(heuristics *Heuristics, opts GuardOptions, logger *zap.SugaredLogger) *Guard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Guard{
		heuristics: heuristics,
		remote:     opts.Remote,
		timeout:    opts.Timeout,
		failOpen:   opts.FailOpen,
		logger:     logger.Named("safety"),
	}
}

func (g *Guard) Check(ctx context.Context, u *url.URL) (Verdict, error) {
	if g.heuristics != nil {
		if reasons := g.heuristics.Check(u); len(reasons) > 0 {
			metrics.SafetyChecks.WithLabelValues("heuristic", "unsafe").Inc()
			return Verdict{Reasons: reasons}, nil
		}
		metrics.SafetyChecks.WithLabelValues("heuristic", "safe").Inc()
	}
	if g.remote == nil {
		return Verdict{Safe: true}, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	matches, err := g.remote.Lookup(lookupCtx, u.String())
	if err != nil {
		metrics.SafetyChecks.WithLabelValues("safe_browsing", "error").Inc()
		if g.failOpen {
			g.logger.Warnw("Safe Browsing 查询失败，按策略放行", "url", u.String(), "error", err)
			return Verdict{Safe: true}, nil
		}
		g.logger.Errorw("Safe Browsing 查询失败，按策略拒绝", "url", u.String(), "error", err)
		// 只有调用方自身超时才向上传递 context 错误，远端超时按服务不可用处理
		if ctx.Err() != nil {
			return Verdict{}, errors.Join(ErrUnavailable, ctx.Err())
		}
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(matches) == 0 {
		metrics.SafetyChecks.WithLabelValues("safe_browsing", "safe").Inc()
		return Verdict{Safe: true}, nil
	}

	metrics.SafetyChecks.WithLabelValues("safe_browsing", "unsafe").Inc()
	reasons := make([]string, 0, len(matches))
	for _, m := range matches {
		reasons = append(reasons, "URL flagged as "+m.ThreatType)
	}
	return Verdict{Reasons: reasons}, nil
}

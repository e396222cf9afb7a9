package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 保证指标只注册一次，重复注册同名指标会 panic
	once sync.Once

	// HTTPRequestsTotal 按路由模板统计请求数，route 不能用真实 path，否则短码会产生无限 label
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations layer: l1/l2，result: hit/miss/error
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_cache_operations_total",
			Help: "Cache lookups by layer and result.",
		},
		[]string{"layer", "result"},
	)

	// ShortenRequests result: created/invalid_url/self_referential/unsafe_url/exhausted/unavailable
	ShortenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_shorten_total",
			Help: "Create requests by outcome.",
		},
		[]string{"result"},
	)

	// ResolveRequests result: found/unknown/unavailable
	ResolveRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_resolve_total",
			Help: "Resolve requests by outcome.",
		},
		[]string{"result"},
	)

	// CodeCollisions 生成的短码已存在而重试的次数，持续上升说明短码空间需要扩大
	CodeCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_code_collisions_total",
			Help: "Generated short codes that were already taken.",
		},
	)

	// SafetyChecks source: heuristic/safe_browsing，result: safe/unsafe/error
	SafetyChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_safety_checks_total",
			Help: "URL safety checks by source and result.",
		},
		[]string{"source", "result"},
	)
)

// Init 注册指标：只允许注册一次
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			CacheOperations,
			ShortenRequests,
			ResolveRequests,
			CodeCollisions,
			SafetyChecks,
		)
	})
}

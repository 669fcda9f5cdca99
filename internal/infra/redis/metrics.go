package redis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Redis-related Prometheus metrics.
type Metrics struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	rateLimitAllowed *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
}

// DefaultMetrics is the package-wide metrics instance.
var DefaultMetrics = NewMetrics("menucraft")

// NewMetrics creates a Metrics instance under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		operationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		operationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_errors_total",
			Help:      "Total number of failed Redis operations",
		}, []string{"operation"}),
		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}, []string{"prefix"}),
		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}, []string{"prefix"}),
		rateLimitAllowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "allowed_total",
			Help:      "Total number of allowed requests",
		}, []string{"limiter"}),
		rateLimitDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total number of rate-limited requests",
		}, []string{"limiter"}),
	}
}

// ObserveOperation records the duration and error outcome of an operation.
func (m *Metrics) ObserveOperation(operation string, d time.Duration, err error) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.operationErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCacheHit records a cache hit for a key prefix.
func (m *Metrics) RecordCacheHit(prefix string) {
	m.cacheHits.WithLabelValues(prefix).Inc()
}

// RecordCacheMiss records a cache miss for a key prefix.
func (m *Metrics) RecordCacheMiss(prefix string) {
	m.cacheMisses.WithLabelValues(prefix).Inc()
}

// RecordRateLimit records a rate limit decision.
func (m *Metrics) RecordRateLimit(limiter string, allowed bool) {
	if allowed {
		m.rateLimitAllowed.WithLabelValues(limiter).Inc()
	} else {
		m.rateLimitDenied.WithLabelValues(limiter).Inc()
	}
}

package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	DealMovesTotal    *prometheus.CounterVec
	DealRollbacks     prometheus.Counter
	MovesInFlight     prometheus.Gauge
	DragSessionsTotal *prometheus.CounterVec

	// Analytics metrics
	AnalyticsFallbacks *prometheus.CounterVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec

	// Store metrics
	StoreDeals prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered. Call it
// once per process; promauto registers on the default registry.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		DealMovesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_moves_total",
				Help: "Stage moves by settled outcome (committed, rolled_back, rejected)",
			},
			[]string{"outcome"},
		),
		DealRollbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "deal_rollbacks_total",
				Help: "Optimistic mutations rolled back after a backend failure",
			},
		),
		MovesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "deal_moves_in_flight",
				Help: "Stage mutations awaiting backend confirmation",
			},
		),
		DragSessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drag_sessions_total",
				Help: "Drag sessions by resolution (moved, cancelled, rejected)",
			},
			[]string{"result"},
		),
		AnalyticsFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_fallbacks_total",
				Help: "Analytics snapshots served from local aggregation after a degraded backend",
			},
			[]string{"snapshot"},
		),
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Cache hits by key prefix",
			},
			[]string{"prefix"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Cache misses by key prefix",
			},
			[]string{"prefix"},
		),
		StoreDeals: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "store_deals",
				Help: "Deals currently held in the in-memory store",
			},
		),
	}
}

// Middleware returns an Echo middleware that records HTTP metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RecordMove increments the move counter for a settled outcome. All the
// recorders are nil-safe so services can run without metrics in tests.
func (m *Metrics) RecordMove(outcome string) {
	if m == nil {
		return
	}
	m.DealMovesTotal.WithLabelValues(outcome).Inc()
}

// RecordRollback counts a rollback
func (m *Metrics) RecordRollback() {
	if m == nil {
		return
	}
	m.DealRollbacks.Inc()
}

// RecordDrag counts a drag session resolution
func (m *Metrics) RecordDrag(result string) {
	if m == nil {
		return
	}
	m.DragSessionsTotal.WithLabelValues(result).Inc()
}

// RecordFallback counts a local-aggregation fallback for a snapshot
func (m *Metrics) RecordFallback(snapshot string) {
	if m == nil {
		return
	}
	m.AnalyticsFallbacks.WithLabelValues(snapshot).Inc()
}

// RecordCacheHit counts a cache hit for a key prefix
func (m *Metrics) RecordCacheHit(prefix string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(prefix).Inc()
}

// RecordCacheMiss counts a cache miss for a key prefix
func (m *Metrics) RecordCacheMiss(prefix string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(prefix).Inc()
}

// MoveStarted marks a mutation entering flight
func (m *Metrics) MoveStarted() {
	if m == nil {
		return
	}
	m.MovesInFlight.Inc()
}

// MoveSettled marks a mutation leaving flight
func (m *Metrics) MoveSettled() {
	if m == nil {
		return
	}
	m.MovesInFlight.Dec()
}

// SetStoreSize records the current store size
func (m *Metrics) SetStoreSize(n int) {
	if m == nil {
		return
	}
	m.StoreDeals.Set(float64(n))
}

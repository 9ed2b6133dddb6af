// Package telemetry exposes Prometheus metrics for HTTP traffic, score
// computation and the entry store.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

const namespace = "hepacheck"

// Metrics owns its registry so tests can build independent instances. All
// methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	scores          *prometheus.CounterVec
	riskCategories  *prometheus.CounterVec
	entriesSaved    prometheus.Counter
	entriesDeleted  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_computed_total",
			Help:      "Score evaluations by index and whether the result was defined.",
		}, []string{"index", "outcome"}),
		riskCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fib4_risk_total",
			Help:      "FIB-4 classifications by risk category.",
		}, []string{"category"}),
		entriesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_saved_total",
			Help:      "Entries persisted to the store.",
		}),
		entriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_deleted_total",
			Help:      "Entries removed by single delete or clear.",
		}),
	}
	reg.MustRegister(
		m.requests, m.requestDuration, m.scores, m.riskCategories,
		m.entriesSaved, m.entriesDeleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is exposed for callers registering extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format. A nil
// Metrics answers 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveResult records one panel computation.
func (m *Metrics) ObserveResult(r scoring.ScoreResult) {
	if m == nil {
		return
	}
	m.observeScore("fib4", r.FIB4)
	m.observeScore("apri", r.APRI)
	m.observeScore("nfs", r.NFS)
	m.observeScore("homa_ir", r.HOMAIR)
	m.riskCategories.WithLabelValues(r.FIB4Risk.String()).Inc()
}

func (m *Metrics) observeScore(index string, v *float64) {
	outcome := "defined"
	if v == nil {
		outcome = "undefined"
	}
	m.scores.WithLabelValues(index, outcome).Inc()
}

func (m *Metrics) EntrySaved() {
	if m == nil {
		return
	}
	m.entriesSaved.Inc()
}

func (m *Metrics) EntriesDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesDeleted.Add(float64(n))
}

// Middleware records request count and latency keyed by the route pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Package metrics exposes Prometheus counters for the progression pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Join outcomes.
const (
	JoinCreated  = "created"
	JoinExisting = "existing"
	JoinRejected = "rejected"
)

// Manager owns every metric of the service. A nil *Manager is valid and
// records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	submissions   *prometheus.CounterVec
	xpAwarded     prometheus.Counter
	seriesJoins   *prometheus.CounterVec
	statsRebuilds prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager with its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eroz",
		subsystem:        "progression",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Training results recorded, by series difficulty",
	}, []string{"difficulty"})

	m.xpAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "xp_awarded_total",
		Help:      "XP granted by recorded submissions",
	})

	m.seriesJoins = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "series_joins_total",
		Help:      "Join-by-code attempts, by outcome",
	}, []string{"outcome"})

	m.statsRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stats_rebuilds_total",
		Help:      "Full stats rebuilds from session history",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// SubmissionRecorded counts one committed submission and the XP it granted.
func (m *Manager) SubmissionRecorded(difficulty string, xp int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(difficulty).Inc()
	if xp > 0 {
		m.xpAwarded.Add(float64(xp))
	}
}

// SeriesJoined counts a join attempt with one of the Join* outcomes.
func (m *Manager) SeriesJoined(outcome string) {
	if m == nil {
		return
	}
	m.seriesJoins.WithLabelValues(outcome).Inc()
}

func (m *Manager) StatsRebuilt() {
	if m == nil {
		return
	}
	m.statsRebuilds.Inc()
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry returns the registry the metrics live in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

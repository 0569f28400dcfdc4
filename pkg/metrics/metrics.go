package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec

	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec

	ActionOutcomes *prometheus.CounterVec
	DraftsActive   prometheus.Gauge

	EventMessages *prometheus.CounterVec
	EventDuration *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_cache_hits_total",
			Help: "Query cache hits by query family",
		}, []string{"query"}),

		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_cache_misses_total",
			Help: "Query cache misses by query family",
		}, []string{"query"}),

		CacheInvalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_cache_invalidations_total",
			Help: "Cache keys dropped by tag invalidation",
		}, []string{"tag"}),

		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_backend_requests_total",
			Help: "Requests sent to the hotel backend",
		}, []string{"method", "status"}),

		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staybook_backend_request_duration_seconds",
			Help:    "Latency of hotel backend requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "staybook_backend_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		ActionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_action_outcomes_total",
			Help: "Guarded action results by action and outcome",
		}, []string{"action", "outcome"}),

		DraftsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "staybook_drafts_active",
			Help: "Booking drafts currently held in memory",
		}),

		EventMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_event_messages_total",
			Help: "Kafka messages by direction, topic and outcome",
		}, []string{"direction", "topic", "outcome"}),

		EventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staybook_event_duration_seconds",
			Help:    "Time spent publishing or handling a Kafka message",
			Buckets: prometheus.DefBuckets,
		}, []string{"direction"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_http_requests_total",
			Help: "Requests served by the BFF",
		}, []string{"method", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staybook_http_request_duration_seconds",
			Help:    "Latency of BFF requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveAction is nil-safe so callers can run without metrics in tests.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionOutcomes.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveCache(query string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(query).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(query).Inc()
}

func (m *Metrics) ObserveInvalidation(tag string, keys int) {
	if m == nil || keys == 0 {
		return
	}
	m.CacheInvalidations.WithLabelValues(tag).Add(float64(keys))
}

func (m *Metrics) ObserveEvent(direction, topic string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.EventMessages.WithLabelValues(direction, topic, outcome).Inc()
	m.EventDuration.WithLabelValues(direction).Observe(seconds)
}

package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexconsult/fssp-api/internal/models"
)

// Metrics provides observability for lookups
type Metrics struct {
	// Lookup outcomes by query kind and outcome (ok or error kind)
	LookupOutcome *prometheus.CounterVec

	// Lookup latency by query kind
	LookupLatency *prometheus.HistogramVec

	// Captcha recognition latency by result
	CaptchaLatency *prometheus.HistogramVec

	CacheRequests *prometheus.CounterVec

	ActiveSessions prometheus.Gauge
}

// NewMetrics registers lookup metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LookupOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fssp_lookups_total",
			Help: "Total lookups by query kind and outcome",
		}, []string{"query", "outcome"}),

		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fssp_lookup_duration_seconds",
			Help:    "Duration of full lookups including captcha solving",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"query"}),

		CaptchaLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fssp_captcha_solve_duration_seconds",
			Help:    "Duration of captcha recognition requests",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"result"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fssp_cache_requests_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fssp_browser_sessions_active",
			Help: "Browser sessions currently open",
		}),
	}
}

// ObserveLookup records a finished lookup
func (m *Metrics) ObserveLookup(kind models.QueryKind, outcome string, d time.Duration) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(string(kind), outcome).Inc()
		m.LookupLatency.WithLabelValues(string(kind)).Observe(d.Seconds())
	}
}

// ObserveCaptcha records one recognition request
func (m *Metrics) ObserveCaptcha(success bool, d time.Duration) {
	if m != nil {
		result := "error"
		if success {
			result = "ok"
		}
		m.CaptchaLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

// ObserveCache records a cache hit or miss
func (m *Metrics) ObserveCache(hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheRequests.WithLabelValues(result).Inc()
	}
}

// SessionOpened increments the active session gauge
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

// SessionClosed decrements the active session gauge
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

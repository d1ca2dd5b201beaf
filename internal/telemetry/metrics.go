package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	DownstreamTotal    *prometheus.CounterVec
	DownstreamDuration *prometheus.HistogramVec
	FallbackTotal      *prometheus.CounterVec
	ProbeUp            *prometheus.GaugeVec
	RateLimitHitTotal  prometheus.Counter
	PolicyDenyTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers the metrics on reg, which lets tests use
// a fresh registry per case.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_request_total",
			Help: "Total number of requests handled by the relay.",
		}, []string{"operation", "status"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_request_duration_ms",
			Help:    "Request duration in milliseconds, including downstream latency.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 30000, 60000, 180000, 600000},
		}, []string{"operation"}),

		DownstreamTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_downstream_call_total",
			Help: "Downstream calls by service, operation and outcome.",
		}, []string{"service", "operation", "outcome"}),

		DownstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_downstream_duration_ms",
			Help:    "Downstream call duration in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 30000, 60000, 180000, 600000},
		}, []string{"service", "operation"}),

		FallbackTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_fallback_total",
			Help: "Fallback values served instead of a downstream response.",
		}, []string{"service", "operation"}),

		ProbeUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relay_downstream_up",
			Help: "Result of the last health probe per downstream (1 = up).",
		}, []string{"service"}),

		RateLimitHitTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_rate_limit_hit_total",
			Help: "Requests rejected by the per-principal rate limit.",
		}),

		PolicyDenyTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_policy_deny_total",
			Help: "Requests denied by the authorization policy.",
		}, []string{"operation"}),
	}
}

// RecordRequest records metrics for a completed inbound request.
func (m *Metrics) RecordRequest(operation, status string, durationMs float64) {
	m.RequestTotal.WithLabelValues(operation, status).Inc()
	m.RequestDurationMs.WithLabelValues(operation).Observe(durationMs)
}

// Downstream call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)

// RecordDownstream records one downstream call.
func (m *Metrics) RecordDownstream(service, operation, outcome string, durationMs float64) {
	m.DownstreamTotal.WithLabelValues(service, operation, outcome).Inc()
	m.DownstreamDuration.WithLabelValues(service, operation).Observe(durationMs)
	if outcome == OutcomeFallback {
		m.FallbackTotal.WithLabelValues(service, operation).Inc()
	}
}

func (m *Metrics) RecordProbe(service string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.ProbeUp.WithLabelValues(service).Set(v)
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitTotal.Inc()
}

func (m *Metrics) RecordPolicyDeny(operation string) {
	m.PolicyDenyTotal.WithLabelValues(operation).Inc()
}

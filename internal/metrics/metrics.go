package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Metrics groups the service's collectors. A nil *Metrics records nothing.
type Metrics struct {
	walletOps   *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	events      *prometheus.CounterVec
	publishFail *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		walletOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickfix",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quickfix",
			Subsystem: "assistant",
			Name:      "completion_seconds",
			Help:      "Latency of LLM completions.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickfix",
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Consumed domain events by type and outcome.",
		}, []string{"type", "outcome"}),
		publishFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickfix",
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Domain events that could not be published.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.walletOps, m.llmLatency, m.events, m.publishFail)
	return m
}

func (m *Metrics) WalletOp(kind, outcome string) {
	if m == nil {
		return
	}
	m.walletOps.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveCompletion(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.llmLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Event(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) PublishFailed(eventType string) {
	if m == nil {
		return
	}
	m.publishFail.WithLabelValues(eventType).Inc()
}

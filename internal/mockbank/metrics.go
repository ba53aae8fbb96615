package mockbank

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the stub backend's collectors.
type Metrics struct {
	RequestDuration   *prometheus.HistogramVec
	TransfersCreated  prometheus.Counter
	IdempotentReplays prometheus.Counter
	FaultsInjected    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mockbank_request_duration_seconds",
			Help:    "Latency of stub backend requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		TransfersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "mockbank_transfers_created_total",
			Help: "Transfers committed by the stub backend",
		}),
		IdempotentReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "mockbank_idempotent_replays_total",
			Help: "Transfer submissions answered with an existing transfer",
		}),
		FaultsInjected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockbank_faults_injected_total",
			Help: "Injected transfer failures by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

func (m *Metrics) transferCreated(replayed bool) {
	if m == nil {
		return
	}
	if replayed {
		m.IdempotentReplays.Inc()
		return
	}
	m.TransfersCreated.Inc()
}

func (m *Metrics) faultInjected(kind string) {
	if m == nil {
		return
	}
	m.FaultsInjected.WithLabelValues(kind).Inc()
}

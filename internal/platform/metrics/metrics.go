package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetryable = "failed_retryable"
	OutcomeAuth      = "unauthorized"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeDiscarded = "discarded"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	APIRequestDuration    *prometheus.HistogramVec
	TransferSubmissions   *prometheus.CounterVec
	IdempotencyKeysMinted prometheus.Counter
	DirectoryRefreshes    *prometheus.CounterVec
	ActivityPagesLoaded   prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses a
// private registry so repeated construction (tests, multiple clients) never
// collides.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		APIRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digibank_api_request_duration_seconds",
			Help:    "Latency of backend API calls by endpoint and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		TransferSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digibank_transfer_submissions_total",
			Help: "Transfer submit attempts by outcome",
		}, []string{"outcome"}),
		IdempotencyKeysMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "digibank_idempotency_keys_minted_total",
			Help: "Idempotency keys generated for new transfer intents",
		}),
		DirectoryRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digibank_directory_refreshes_total",
			Help: "Account and payee snapshot refreshes by result",
		}, []string{"result"}),
		ActivityPagesLoaded: f.NewCounter(prometheus.CounterOpts{
			Name: "digibank_activity_pages_loaded_total",
			Help: "Activity feed pages applied to the loaded sequence",
		}),
	}
}

// ObserveSubmission counts a submit attempt. Safe on a nil receiver.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.TransferSubmissions.WithLabelValues(outcome).Inc()
}

// IncrementKeysMinted is safe on a nil receiver.
func (m *Metrics) IncrementKeysMinted() {
	if m == nil {
		return
	}
	m.IdempotencyKeysMinted.Inc()
}

// ObserveRefresh is safe on a nil receiver.
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.DirectoryRefreshes.WithLabelValues(result).Inc()
}

// IncrementPagesLoaded is safe on a nil receiver.
func (m *Metrics) IncrementPagesLoaded() {
	if m == nil {
		return
	}
	m.ActivityPagesLoaded.Inc()
}

// ObserveRequest records one API call. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.APIRequestDuration.WithLabelValues(endpoint, status).Observe(seconds)
}

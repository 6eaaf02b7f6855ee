package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all application metrics
type Metrics struct {
	// Auth metrics
	AuthEvents *prometheus.CounterVec

	// Ledger metrics
	TransactionsTotal *prometheus.CounterVec
	TransactionAmount *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheRequests       *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec

	// Worker metrics
	WorkerJobRuns        *prometheus.CounterVec
	WorkerJobDuration    *prometheus.HistogramVec
	TokensPurged         prometheus.Counter
	BalanceDriftAccounts prometheus.Gauge
	BalanceDriftAbsolute prometheus.Gauge
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Authentication events by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Ledger mutations by operation and transaction type",
			},
			[]string{"op", "type"},
		),
		TransactionAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_amount",
				Help:      "Amounts of created transactions in major currency units",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"type"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by cache and result (hit, miss, error)",
			},
			[]string{"cache", "result"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		WorkerJobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_job_runs_total",
				Help:      "Worker job runs by job and status",
			},
			[]string{"job", "status"},
		),
		WorkerJobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_job_duration_seconds",
				Help:      "Worker job duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"job"},
		),
		TokensPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_tokens_purged_total",
				Help:      "Expired refresh token rows removed by the worker",
			},
		),
		BalanceDriftAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "balance_drift_accounts",
				Help:      "Accounts whose stored balance disagrees with their ledger",
			},
		),
		BalanceDriftAbsolute: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "balance_drift_cents",
				Help:      "Sum of absolute balance drift across accounts, in cents",
			},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.AuthEvents,
		m.TransactionsTotal,
		m.TransactionAmount,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheRequests,
		m.CircuitBreakerState,
		m.WorkerJobRuns,
		m.WorkerJobDuration,
		m.TokensPurged,
		m.BalanceDriftAccounts,
		m.BalanceDriftAbsolute,
	)

	return m
}

// RecordAuth counts an auth event. Safe on a nil receiver.
func (m *Metrics) RecordAuth(event string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordAuthOutcome counts an auth event with an explicit outcome label such
// as a login failure reason. Safe on a nil receiver.
func (m *Metrics) RecordAuthOutcome(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordTransaction counts a ledger mutation. Safe on a nil receiver.
func (m *Metrics) RecordTransaction(op, typ string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(op, typ).Inc()
}

// ObserveTransactionAmount records a created amount given in cents. Safe on a nil receiver.
func (m *Metrics) ObserveTransactionAmount(typ string, cents int64) {
	if m == nil {
		return
	}
	m.TransactionAmount.WithLabelValues(typ).Observe(float64(cents) / 100)
}

// RecordCache counts a cache lookup result. Safe on a nil receiver.
func (m *Metrics) RecordCache(cache, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

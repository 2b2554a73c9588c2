package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Ledger operation metrics
	LedgerOpsTotal        *prometheus.CounterVec
	LedgerOpDuration      *prometheus.HistogramVec
	LedgerRejectionsTotal *prometheus.CounterVec
	RealizedPnL           prometheus.Histogram

	// Price feed metrics
	PriceFeedRequestsTotal *prometheus.CounterVec
	PriceFeedErrorsTotal   *prometheus.CounterVec
	PriceFeedDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// pnlBuckets cover realized profit/loss per closed trade in dollars
var pnlBuckets = []float64{-1000, -250, -50, -10, 0, 10, 50, 250, 1000}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		LedgerOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total number of ledger operations by type and status",
			},
			[]string{"operation", "status"},
		),
		LedgerOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Duration of ledger operations in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),
		LedgerRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "ledger",
				Name:      "rejections_total",
				Help:      "Total number of rejected ledger operations by reason",
			},
			[]string{"operation", "reason"},
		),
		RealizedPnL: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "ledger",
				Name:      "realized_pnl_dollars",
				Help:      "Distribution of realized profit/loss per closed trade",
				Buckets:   pnlBuckets,
			},
		),

		PriceFeedRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "price_feed",
				Name:      "requests_total",
				Help:      "Total number of upstream price feed requests",
			},
			[]string{"feed", "operation"},
		),
		PriceFeedErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "price_feed",
				Name:      "errors_total",
				Help:      "Total number of upstream price feed errors",
			},
			[]string{"feed", "operation"},
		),
		PriceFeedDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "price_feed",
				Name:      "duration_seconds",
				Help:      "Duration of upstream price feed calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"feed", "operation"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paper_trader",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "paper_trader",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"feed"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paper_trader",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"feed"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordLedgerOp records a completed ledger operation
func (m *Metrics) RecordLedgerOp(operation, status string, duration time.Duration) {
	m.LedgerOpsTotal.WithLabelValues(operation, status).Inc()
	m.LedgerOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLedgerRejection records a rejected ledger operation
func (m *Metrics) RecordLedgerRejection(operation, reason string) {
	m.LedgerRejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordRealizedPnL records the realized profit/loss of a closed trade
func (m *Metrics) RecordRealizedPnL(pnl float64) {
	m.RealizedPnL.Observe(pnl)
}

// RecordPriceFeedRequest records an upstream price feed request
func (m *Metrics) RecordPriceFeedRequest(feed, operation string) {
	m.PriceFeedRequestsTotal.WithLabelValues(feed, operation).Inc()
}

// RecordPriceFeedError records an upstream price feed error
func (m *Metrics) RecordPriceFeedError(feed, operation string) {
	m.PriceFeedErrorsTotal.WithLabelValues(feed, operation).Inc()
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(feed string, state int) {
	m.CircuitBreakerState.WithLabelValues(feed).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(feed string) {
	m.CircuitBreakerTrips.WithLabelValues(feed).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveLedgerOp records the ledger operation duration and status
func (t *Timer) ObserveLedgerOp(operation, status string) {
	t.metrics.RecordLedgerOp(operation, status, time.Since(t.start))
}

// ObservePriceFeed records the price feed call duration
func (t *Timer) ObservePriceFeed(feed, operation string) {
	t.metrics.PriceFeedDuration.WithLabelValues(feed, operation).Observe(time.Since(t.start).Seconds())
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Package metrics exposes ledger and HTTP metrics to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// LedgerCollector implements ledger.MetricsCollector.
type LedgerCollector struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	volume     *prometheus.CounterVec
}

// NewLedgerCollector registers the ledger metrics with reg. A nil reg uses
// the default registry.
func NewLedgerCollector(reg prometheus.Registerer) *LedgerCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &LedgerCollector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Ledger operations by operation kind and outcome",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_ms",
				Help:    "Ledger operation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_serialization_retries_total",
				Help: "Atomic units retried after a serialization conflict",
			},
			[]string{"operation"},
		),
		volume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_committed_amount_total",
				Help: "Sum of committed amounts by operation kind",
			},
			[]string{"operation"},
		),
	}
}

func (c *LedgerCollector) RecordOperationDuration(operation string, d time.Duration) {
	c.duration.WithLabelValues(label(operation)).Observe(float64(d.Microseconds()) / 1000)
}

func (c *LedgerCollector) RecordOperationResult(operation, result string) {
	c.operations.WithLabelValues(label(operation), result).Inc()
}

func (c *LedgerCollector) RecordRetry(operation string) {
	c.retries.WithLabelValues(label(operation)).Inc()
}

// RecordTransactionVolume adds amount as a float; the counter is for
// dashboards, the journal stays the source of truth.
func (c *LedgerCollector) RecordTransactionVolume(operation string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	c.volume.WithLabelValues(label(operation)).Add(f)
}

func label(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}

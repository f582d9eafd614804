// Package metrics provides Prometheus metrics for the tariff service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CalculationsTotal tracks tariff operations by outcome
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "calculator",
			Name:      "operations_total",
			Help:      "Total number of tariff operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// ComparisonDestinations tracks how many destinations a comparison ranked
	ComparisonDestinations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tariff",
			Subsystem: "comparison",
			Name:      "destinations",
			Help:      "Number of destinations ranked per comparison",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		},
	)

	// CurrencyRefreshTotal tracks live exchange-rate refresh attempts
	CurrencyRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "currency",
			Name:      "refresh_total",
			Help:      "Total number of exchange rate refresh attempts by status",
		},
		[]string{"status"},
	)

	// CurrencyFallbackTotal tracks lookups answered from stale or static rates
	CurrencyFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "currency",
			Name:      "fallback_total",
			Help:      "Total number of exchange rate lookups served without a fresh snapshot",
		},
		[]string{"source"},
	)
)

// RecordOperation increments the operation counter.
func RecordOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CalculationsTotal.WithLabelValues(operation, status).Inc()
}

// Package metrics exposes Prometheus instrumentation for the allocation and
// settlement engines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AllocationsTotal counts allocation engine runs by outcome
	// (ok, validation_error, integrity_error).
	AllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "allocations_total",
		Help:      "Itemized allocation runs by outcome.",
	}, []string{"outcome"})

	// AllocationDuration observes allocation engine latency.
	AllocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tripledger",
		Name:      "allocation_duration_seconds",
		Help:      "Itemized allocation latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// SettlementsTotal counts settlement computations by outcome.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripledger",
		Name:      "settlements_total",
		Help:      "Settlement computations by outcome.",
	}, []string{"outcome"})

	// SettlementTransfers observes how many active transfers each
	// settlement computation emits.
	SettlementTransfers = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tripledger",
		Name:      "settlement_transfers",
		Help:      "Active transfers emitted per settlement computation.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

// Outcome labels for the counters above.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomeIntegrityError  = "integrity_error"
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

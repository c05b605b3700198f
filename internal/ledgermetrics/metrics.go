// Package ledgermetrics holds Prometheus instruments of money movements.
package ledgermetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pet_ledger"

// Operation labels.
const (
	OpTransfer = "transfer"
	OpDeposit  = "deposit"
)

var (
	Succeeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_succeeded_total",
			Help:      "Committed money movements",
		},
		[]string{"operation"},
	)

	Rejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_rejected_total",
			Help:      "Money movements rejected before or during the unit of work, by reason",
		},
		[]string{"operation", "reason"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_of_work_retries_total",
			Help:      "Units of work re-run after a serialization failure or deadlock",
		},
		[]string{"operation"},
	)

	MovedAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moved_amount_total",
			Help:      "Sum of committed amounts",
		},
		[]string{"operation"},
	)
)

// Reason turns an error into a bounded label value.
func Reason(err error) string {
	if err == nil {
		return "none"
	}

	return reasons.lookup(err)
}

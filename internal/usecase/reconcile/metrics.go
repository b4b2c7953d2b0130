package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reconciliations counts critical sections by outcome (ok, error).
	reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collateral",
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "Collateral reconciliations by outcome",
	}, []string{"outcome"})

	// overEncumbered counts reconciliations that clamped available value to zero.
	overEncumbered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collateral",
		Subsystem: "reconcile",
		Name:      "over_encumbered_total",
		Help:      "Reconciliations where encumbered value exceeded market value",
	})

	lockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collateral",
		Subsystem: "reconcile",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for the per-collateral lock",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

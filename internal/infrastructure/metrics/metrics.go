package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Saga metrics
	FulfillmentsRequested *prometheus.CounterVec
	FulfillmentsCompleted *prometheus.CounterVec
	FulfillmentsRejected  *prometheus.CounterVec
	DependencyFailures    *prometheus.CounterVec
	CompensationsRun      *prometheus.CounterVec
	FulfillmentDuration   prometheus.Histogram

	// Ledger metrics
	CreditsGranted prometheus.Counter
	CreditsSpent   prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		FulfillmentsRequested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fablepress_fulfillments_requested_total",
				Help: "Total number of fulfillment requests started",
			},
			[]string{"kind"},
		),
		FulfillmentsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fablepress_fulfillments_completed_total",
				Help: "Total number of fulfillment requests dispatched successfully",
			},
			[]string{"kind"},
		),
		FulfillmentsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fablepress_fulfillments_rejected_total",
				Help: "Total number of fulfillment requests rejected before charge",
			},
			[]string{"reason"},
		),
		DependencyFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fablepress_dependency_failures_total",
				Help: "Total number of external dependency failures by collaborator",
			},
			[]string{"dependency"},
		),
		CompensationsRun: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fablepress_compensations_total",
				Help: "Total number of saga compensations executed",
			},
			[]string{"compensation"},
		),
		FulfillmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fablepress_fulfillment_duration_seconds",
			Help:    "Duration of the fulfillment saga",
			Buckets: prometheus.DefBuckets,
		}),
		CreditsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fablepress_credits_granted_total",
			Help: "Total credits granted to owners",
		}),
		CreditsSpent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fablepress_credits_spent_total",
			Help: "Total credits debited for fulfillment work",
		}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fablepress_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fablepress_outbox_errors_total",
			Help: "Total outbox publish errors",
		}),
	}
}

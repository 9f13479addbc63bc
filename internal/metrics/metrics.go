package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DBQueryDuration measures how long our database queries take.
// The 'operation' label distinguishes the write paths (submit_order,
// commit_terminal) from each other.
var DBQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	},
	[]string{"operation"},
)

// OrdersCreated counts accepted POST /orders requests.
var OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "orders_created_total",
	Help: "Total number of orders accepted by the ingress",
})

// Relay metrics.
var (
	RelayPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_published_total",
		Help: "Outbox rows published to the broker",
	})
	RelayPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_publish_errors_total",
		Help: "Failed publish attempts (batch aborted, retried next tick)",
	})
	// OutboxBacklog is the alert metric: a permanently failing broker shows
	// up as unbounded growth of unpublished rows.
	OutboxBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_outbox_unpublished",
		Help: "Outbox rows not yet published to the broker",
	})
)

// Worker metrics. These mirror the worker's in-process counters so the
// periodic log snapshot and the scrape endpoint always agree.
var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_events_processed_total",
		Help: "Events handled to completion (including skips)",
	})
	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_duplicates_skipped_total",
		Help: "Events skipped by the dedup ledger pre-check",
	})
	PaymentsSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_payments_success_total",
		Help: "Payment calls that returned SUCCESS",
	})
	PaymentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_payments_failed_total",
		Help: "Payment calls that returned FAILED (business outcome)",
	})
	RetriedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_retried_events_total",
		Help: "Handler attempts that failed and were scheduled for retry",
	})
	DLQEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_dlq_events_total",
		Help: "Events diverted to the dead-letter table",
	})
	// StuckPaymentPending feeds the reconciliation sweep: orders stranded in
	// PAYMENT_PENDING by a crash between the advance and the terminal commit.
	StuckPaymentPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_stuck_payment_pending",
		Help: "Orders sitting in PAYMENT_PENDING beyond the alert age",
	})
)

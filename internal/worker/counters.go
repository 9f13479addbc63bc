package worker

import (
	"log/slog"
	"sync/atomic"

	"go-order-pipeline/internal/metrics"
)

// Counters is the worker-owned processing tally. Handlers increment it from
// the consume loop; the metrics cron snapshots it from its own goroutine, so
// the fields are atomics rather than plain ints. Each increment mirrors into
// the Prometheus counter of the same name so the scrape endpoint and the
// periodic log line always agree.
type Counters struct {
	eventsProcessed   atomic.Int64
	duplicatesSkipped atomic.Int64
	paymentsSuccess   atomic.Int64
	paymentsFailed    atomic.Int64
	retriedEvents     atomic.Int64
	dlqEvents         atomic.Int64
}

func (c *Counters) IncProcessed() {
	c.eventsProcessed.Add(1)
	metrics.EventsProcessed.Inc()
}

func (c *Counters) IncDuplicates() {
	c.duplicatesSkipped.Add(1)
	metrics.DuplicatesSkipped.Inc()
}

func (c *Counters) IncPaymentsSuccess() {
	c.paymentsSuccess.Add(1)
	metrics.PaymentsSuccess.Inc()
}

func (c *Counters) IncPaymentsFailed() {
	c.paymentsFailed.Add(1)
	metrics.PaymentsFailed.Inc()
}

func (c *Counters) IncRetried() {
	c.retriedEvents.Add(1)
	metrics.RetriedEvents.Inc()
}

func (c *Counters) IncDLQ() {
	c.dlqEvents.Add(1)
	metrics.DLQEvents.Inc()
}

// Snapshot emits one structured log record with the current tallies.
func (c *Counters) Snapshot() {
	slog.Info("metrics",
		"component", "worker",
		"events_processed", c.eventsProcessed.Load(),
		"duplicates_skipped", c.duplicatesSkipped.Load(),
		"payments_success", c.paymentsSuccess.Load(),
		"payments_failed", c.paymentsFailed.Load(),
		"retried_events", c.retriedEvents.Load(),
		"dlq_events", c.dlqEvents.Load(),
	)
}

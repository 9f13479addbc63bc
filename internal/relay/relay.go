// Package relay drains the outbox into the broker.
//
// Publish happens before the row is marked published, so a crash between
// broker ack and the mark republishes on restart — at-least-once by
// construction. Rows go out in creation order, keyed by aggregate id, which
// gives downstream consumers per-aggregate FIFO.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go-order-pipeline/internal/metrics"
	"go-order-pipeline/internal/models"
)

// OutboxSource is the slice of the data layer the relay needs.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*models.OutboxRecord, error)
	MarkPublished(ctx context.Context, id int64) error
	CountUnpublished(ctx context.Context) (int64, error)
}

// EventPublisher is the publish contract for the broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Relay polls unpublished outbox rows and emits them to the broker.
// A single cooperative loop — all publishes are serialized.
type Relay struct {
	source    OutboxSource
	publisher EventPublisher
	batchSize int
	interval  time.Duration
}

// New constructs a Relay. All dependencies are injected — no globals.
func New(source OutboxSource, publisher EventPublisher, batchSize int, interval time.Duration) *Relay {
	return &Relay{
		source:    source,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run polls until ctx is cancelled. An error aborts the current batch and
// defers the remainder to the next tick; nothing here is fatal.
func (r *Relay) Run(ctx context.Context) error {
	slog.Info("relay started",
		"component", "relay",
		"batch_size", r.batchSize,
		"poll_interval", r.interval,
	)

	for {
		published, err := r.tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("relay batch aborted", "component", "relay", "error", err)
			metrics.RelayPublishErrors.Inc()
		}

		// Sleep after an error or an empty poll; keep draining while full
		// batches come back.
		if err != nil || published == 0 {
			select {
			case <-ctx.Done():
				slog.Info("relay shutting down", "component", "relay")
				return nil
			case <-time.After(r.interval):
			}
		}
	}

	slog.Info("relay shutting down", "component", "relay")
	return nil
}

// tick drains at most one batch. Rows are published strictly in fetch order;
// the first failure aborts the batch so ordering within an aggregate is
// never violated by skipping ahead.
func (r *Relay) tick(ctx context.Context) (int, error) {
	recs, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	if n, err := r.source.CountUnpublished(ctx); err == nil {
		metrics.OutboxBacklog.Set(float64(n))
	}

	if len(recs) == 0 {
		return 0, nil
	}

	published := 0
	for _, rec := range recs {
		value, err := json.Marshal(rec.Envelope())
		if err != nil {
			return published, err
		}

		if err := r.publisher.Publish(ctx, rec.AggregateID.String(), value); err != nil {
			return published, err
		}

		// Broker has the message; a failure past this point republishes the
		// row after restart, which downstream idempotency tolerates.
		if err := r.source.MarkPublished(ctx, rec.ID); err != nil {
			return published, err
		}

		published++
		metrics.RelayPublished.Inc()
		slog.Info("event published",
			"component", "relay",
			"event_id", rec.EventID,
			"event_type", rec.EventType,
			"aggregate_id", rec.AggregateID,
		)
	}
	return published, nil
}

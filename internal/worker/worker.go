// Package worker consumes order-events and drives orders through the payment
// state machine, exactly once in terms of observable side effects.
//
// Delivery contract: fetch → handle (with bounded in-delivery retries) →
// commit offset. The offset advances for every delivery, including poison
// events — those are diverted to the dead-letter table first so the
// partition is never blocked.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go-order-pipeline/internal/broker"
	"go-order-pipeline/internal/models"
)

// Source is the consume side of the broker.
type Source interface {
	Fetch(ctx context.Context) (*broker.Message, error)
	Commit(ctx context.Context, msg *broker.Message) error
}

// Worker runs the consume loop.
type Worker struct {
	source     Source
	handler    *Handler
	counters   *Counters
	maxRetries int
	backoff    time.Duration
}

// New constructs a Worker. All dependencies are injected — no globals.
func New(source Source, handler *Handler, counters *Counters, maxRetries int, backoff time.Duration) *Worker {
	return &Worker{
		source:     source,
		handler:    handler,
		counters:   counters,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Run consumes messages until ctx is cancelled. The in-flight message is
// drained before returning, so the caller's deferred Close() calls happen
// after the loop is clean.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("worker started",
		"component", "worker",
		"group", broker.GroupPayment,
		"max_retries", w.maxRetries,
		"retry_backoff", w.backoff,
	)

	for {
		msg, err := w.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("worker shutting down", "component", "worker")
				return nil
			}
			slog.Error("fetch failed", "component", "worker", "error", err)
			continue
		}
		w.process(ctx, msg)
	}
}

// process handles a single delivery end to end and always commits the
// offset, whatever the outcome. Never committing mid-processing is what
// keeps redelivery-after-crash safe.
func (w *Worker) process(ctx context.Context, msg *broker.Message) {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		// Unparseable bytes will never become valid; there is no event id to
		// dead-letter under, so log and move on.
		slog.Error("unparseable message dropped",
			"component", "worker",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		w.commit(ctx, msg, &env)
		return
	}

	slog.Info("event received",
		"component", "worker",
		"event_id", env.EventID,
		"event_type", env.EventType,
		"aggregate_id", env.AggregateID,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	if err := w.handleWithRetry(ctx, &env); err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the retries; leave the offset uncommitted
			// so the group redelivers after restart.
			return
		}
		w.deadLetter(ctx, &env, err)
	}

	w.commit(ctx, msg, &env)
}

// handleWithRetry attempts the full handler up to maxRetries times with a
// fixed, cancellable backoff between attempts.
func (w *Worker) handleWithRetry(ctx context.Context, env *models.Envelope) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		lastErr = w.handler.Handle(ctx, env)
		if lastErr == nil {
			return nil
		}

		w.counters.IncRetried()
		slog.Error("processing error",
			"component", "worker",
			"event_id", env.EventID,
			"attempt", attempt,
			"max_retries", w.maxRetries,
			"error", lastErr,
		)

		if attempt == w.maxRetries {
			break
		}

		slog.Info("retry scheduled",
			"component", "worker",
			"event_id", env.EventID,
			"backoff", w.backoff,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.backoff):
		}
	}
	return lastErr
}

// deadLetter diverts a poison event. A failed insert is logged but not
// retried: the event is already lost from the normal pipeline and blocking
// the partition helps nothing.
func (w *Worker) deadLetter(ctx context.Context, env *models.Envelope, cause error) {
	rec := &models.DeadLetterRecord{
		EventID:     env.EventID,
		EventType:   env.EventType,
		AggregateID: env.AggregateID,
		Payload:     env.Payload,
		Reason:      cause.Error(),
	}
	if err := w.handler.store.InsertDeadLetter(ctx, rec); err != nil {
		slog.Error("dead letter insert failed",
			"component", "worker",
			"event_id", env.EventID,
			"error", err,
		)
		return
	}

	w.counters.IncDLQ()
	slog.Error("event dead-lettered",
		"component", "worker",
		"event_id", env.EventID,
		"event_type", env.EventType,
		"aggregate_id", env.AggregateID,
		"reason", cause.Error(),
	)
}

func (w *Worker) commit(ctx context.Context, msg *broker.Message, env *models.Envelope) {
	if err := w.source.Commit(ctx, msg); err != nil {
		// The group will redeliver; the handler's idempotency absorbs it.
		slog.Error("offset commit failed",
			"component", "worker",
			"event_id", env.EventID,
			"error", err,
		)
	}
}

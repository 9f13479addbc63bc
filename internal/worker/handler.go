package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go-order-pipeline/internal/models"
	"go-order-pipeline/internal/payment"

	"github.com/google/uuid"
)

// Kind scopes the dedup ledger: other consumer pipelines on the same topic
// keep their own exactly-once bookkeeping under their own kind.
const Kind = "payment-worker"

// Store is the slice of the data layer the handler needs.
// The real implementation is *database.DB; tests inject fakes.
type Store interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID, workerKind string) (bool, error)
	AdvanceToPaymentPending(ctx context.Context, orderID uuid.UUID) (version int64, ok bool, err error)
	CommitTerminal(ctx context.Context, orderID uuid.UUID, fromVersion int64, terminal models.State, eventID uuid.UUID, workerKind string) (bool, error)
	InsertDeadLetter(ctx context.Context, rec *models.DeadLetterRecord) error
}

// Handler applies one envelope to the order state machine.
type Handler struct {
	store    Store
	payments payment.Service
	counters *Counters
}

// NewHandler constructs a Handler. All dependencies are injected — no globals.
func NewHandler(store Store, payments payment.Service, counters *Counters) *Handler {
	return &Handler{store: store, payments: payments, counters: counters}
}

// Handle processes one envelope. A nil return means the delivery is done and
// the offset may advance — that covers success, duplicates, unknown event
// types and lost races alike. A non-nil return means the attempt failed in a
// retryable way and the caller's retry loop takes over.
//
// The stages are individually idempotent: the pending advance is predicated
// on state=CREATED, the terminal commit on state=PAYMENT_PENDING plus the
// exact version observed at the advance. Replaying a fully processed event
// is caught by the dedup pre-check, or failing that, by those predicates.
func (h *Handler) Handle(ctx context.Context, env *models.Envelope) error {
	// Only OrderCreated drives the payment pipeline. Follow-up events on the
	// same topic are acknowledged without effect.
	if env.EventType != models.EventOrderCreated {
		slog.Info("event ignored",
			"component", "worker",
			"event_id", env.EventID,
			"event_type", env.EventType,
		)
		return nil
	}

	orderID := env.AggregateID

	// Dedup pre-check — advisory fast path. The binding commit point is the
	// ledger insert inside CommitTerminal.
	done, err := h.store.IsProcessed(ctx, env.EventID, Kind)
	if err != nil {
		return err
	}
	if done {
		h.counters.IncDuplicates()
		h.counters.IncProcessed()
		slog.Info("duplicate event skipped",
			"component", "worker",
			"event_id", env.EventID,
			"order_id", orderID,
		)
		return nil
	}

	var p models.OrderCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode OrderCreated payload: %w", err)
	}

	// Advance CREATED → PAYMENT_PENDING. Zero rows means the order is absent
	// or already past CREATED — nothing left for this delivery to do.
	v1, ok, err := h.store.AdvanceToPaymentPending(ctx, orderID)
	if err != nil {
		return err
	}
	if !ok {
		h.counters.IncProcessed()
		slog.Info("order already advanced",
			"component", "worker",
			"event_id", env.EventID,
			"order_id", orderID,
		)
		return nil
	}
	slog.Info("state change",
		"component", "worker",
		"order_id", orderID,
		"state", models.StatePaymentPending,
		"version", v1,
	)

	// The payment call is the sole non-transactional side effect and runs
	// outside any transaction. The conditional advance above guarantees it
	// fires at most once per committed transition.
	result, err := h.payments.Process(ctx, orderID, p.Amount)
	if err != nil {
		return err
	}

	terminal := models.StatePaid
	if result.Status == payment.StatusFailed {
		terminal = models.StateFailed
	}
	slog.Info("payment result",
		"component", "worker",
		"order_id", orderID,
		"status", result.Status,
	)

	// Terminal state, follow-up event and dedup key commit together.
	// ok=false means another worker won the race; its commit stands.
	committed, err := h.store.CommitTerminal(ctx, orderID, v1, terminal, env.EventID, Kind)
	if err != nil {
		return err
	}
	if !committed {
		h.counters.IncProcessed()
		slog.Info("terminal commit lost race",
			"component", "worker",
			"event_id", env.EventID,
			"order_id", orderID,
		)
		return nil
	}

	if terminal == models.StatePaid {
		h.counters.IncPaymentsSuccess()
	} else {
		h.counters.IncPaymentsFailed()
	}
	h.counters.IncProcessed()
	slog.Info("state change",
		"component", "worker",
		"order_id", orderID,
		"state", terminal,
		"version", v1+1,
	)
	return nil
}

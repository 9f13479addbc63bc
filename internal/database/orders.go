package database

import (
	"context"
	"database/sql"
	"fmt"

	"go-order-pipeline/internal/metrics"
	"go-order-pipeline/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SubmitOrder durably records a new order together with its OrderCreated
// event. Both rows commit in one transaction or neither does — the event is
// durable before it ever touches the broker, which is what makes the
// downstream delivery guarantees possible.
func (db *DB) SubmitOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.DBQueryDuration.WithLabelValues("submit_order"))
	defer timer.ObserveDuration()

	order, err := models.NewOrder(userID, amount)
	if err != nil {
		return nil, err
	}

	outbox, err := models.NewOutboxRecord(order.ID, models.EventOrderCreated, models.OrderCreatedPayload{
		OrderID: order.ID,
		UserID:  order.UserID,
		Amount:  order.Amount,
	})
	if err != nil {
		return nil, err
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, user_id, amount, state, version)
			 VALUES ($1, $2, $3, $4, 0)
			 RETURNING created_at, updated_at`,
			order.ID, order.UserID, order.Amount, order.State,
		).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return insertOutbox(ctx, tx, outbox)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByID fetches a single order by its UUID.
// Returns sql.ErrNoRows when the ID does not exist — callers must distinguish
// this from other errors to return the correct HTTP status code.
func (db *DB) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var o models.Order
	err := db.Conn.QueryRowContext(ctx,
		`SELECT id, user_id, amount, state, version, created_at, updated_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.UserID, &o.Amount, &o.State, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// AdvanceToPaymentPending conditionally moves an order from CREATED to
// PAYMENT_PENDING and bumps its version. ok=false means 0 rows matched — the
// order is absent or already past CREATED, and the caller must stop without
// side effects. On success, version is the post-update value, used as the
// optimistic guard when committing the terminal state.
func (db *DB) AdvanceToPaymentPending(ctx context.Context, orderID uuid.UUID) (version int64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = db.Conn.QueryRowContext(ctx,
		`UPDATE orders
		 SET state = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND state = $3
		 RETURNING version`,
		models.StatePaymentPending, orderID, models.StateCreated,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("advance to payment_pending: %w", err)
	}
	return version, true, nil
}

// CommitTerminal applies the terminal transition, the follow-up outbox event
// and the dedup ledger entry in a single transaction. The UPDATE is guarded
// by both the expected state and the version observed at S1; if another
// worker already committed, 0 rows match and the whole transaction rolls
// back with ok=false — the peer's commit is authoritative.
//
// The dedup insert is deliberately co-committed with the state transition so
// partial progress can never poison the ledger (invariant I5).
func (db *DB) CommitTerminal(ctx context.Context, orderID uuid.UUID, fromVersion int64, terminal models.State, eventID uuid.UUID, workerKind string) (ok bool, err error) {
	if !models.StatePaymentPending.CanTransition(terminal) {
		return false, fmt.Errorf("commit terminal: %s is not a terminal transition", terminal)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.DBQueryDuration.WithLabelValues("commit_terminal"))
	defer timer.ObserveDuration()

	eventType := models.EventOrderPaid
	if terminal == models.StateFailed {
		eventType = models.EventOrderFailed
	}
	outbox, err := models.NewOutboxRecord(orderID, eventType, models.OrderResultPayload{OrderID: orderID})
	if err != nil {
		return false, err
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET state = $1, version = version + 1, updated_at = NOW()
			 WHERE id = $2 AND state = $3 AND version = $4`,
			terminal, orderID, models.StatePaymentPending, fromVersion,
		)
		if err != nil {
			return fmt.Errorf("terminal update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errConflict
		}

		if err := insertOutbox(ctx, tx, outbox); err != nil {
			return err
		}

		// No-op when a previous attempt of this event already committed.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO processed_events (event_id, worker_kind)
			 VALUES ($1, $2)
			 ON CONFLICT (event_id, worker_kind) DO NOTHING`,
			eventID, workerKind,
		)
		if err != nil {
			return fmt.Errorf("insert processed event: %w", err)
		}
		return nil
	})
	if err == errConflict {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsProcessed checks the dedup ledger for (eventID, workerKind).
// This is the advisory fast path; the binding check is the conditional
// update inside CommitTerminal.
func (db *DB) IsProcessed(ctx context.Context, eventID uuid.UUID, workerKind string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var exists bool
	err := db.Conn.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM processed_events WHERE event_id = $1 AND worker_kind = $2
		 )`,
		eventID, workerKind,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return exists, nil
}

// InsertDeadLetter records a poison event. ON CONFLICT DO NOTHING makes
// replays safe — only the first diversion of an event id is kept.
func (db *DB) InsertDeadLetter(ctx context.Context, rec *models.DeadLetterRecord) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := db.Conn.ExecContext(ctx,
		`INSERT INTO dead_letter_events (event_id, event_type, aggregate_id, payload, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (event_id) DO NOTHING`,
		rec.EventID, rec.EventType, rec.AggregateID, []byte(rec.Payload), rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// CountStuckPaymentPending counts orders that have sat in PAYMENT_PENDING
// longer than age. A crash between the pending advance and the terminal
// commit leaves such orders behind; this feeds the reconciliation gauge.
func (db *DB) CountStuckPaymentPending(ctx context.Context, age string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var n int64
	err := db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders
		 WHERE state = $1 AND updated_at < NOW() - $2::interval`,
		models.StatePaymentPending, age,
	).Scan(&n)
	return n, err
}

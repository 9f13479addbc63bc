package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-order-pipeline/internal/models"
)

// errConflict signals a conditional update that matched 0 rows. It is
// internal to this package; callers see ok=false instead.
var errConflict = errors.New("database: optimistic conflict")

// insertOutbox appends an event to the outbox inside the caller's
// transaction. Every state mutation that conceptually produces an event must
// go through here so the row commits atomically with the mutation
// (invariant I1). The event_id unique constraint enforces I2.
func insertOutbox(ctx context.Context, tx *sql.Tx, rec *models.OutboxRecord) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rec.EventID, rec.AggregateType, rec.AggregateID, rec.EventType, []byte(rec.Payload),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit pending outbox rows in creation order.
// The id tie-break keeps the order stable when two rows share a timestamp,
// which preserves per-aggregate FIFO downstream.
func (db *DB) FetchUnpublished(ctx context.Context, limit int) ([]*models.OutboxRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	rows, err := db.Conn.QueryContext(ctx,
		`SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE published = FALSE
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished: %w", err)
	}
	defer rows.Close()

	var recs []*models.OutboxRecord
	for rows.Next() {
		var r models.OutboxRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.EventID, &r.AggregateType, &r.AggregateID,
			&r.EventType, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		r.Payload = payload
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

// MarkPublished flips a row to published exactly once (invariant I6).
// Runs after the broker acknowledged the message — a crash in between means
// the row is republished on restart, which downstream dedup tolerates.
func (db *DB) MarkPublished(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := db.Conn.ExecContext(ctx,
		`UPDATE outbox
		 SET published = TRUE, published_at = NOW()
		 WHERE id = $1 AND published = FALSE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// CountUnpublished reports the backlog of pending rows. Fed into the alert
// gauge — a permanently failing broker shows up as unbounded growth here.
func (db *DB) CountUnpublished(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var n int64
	err := db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published = FALSE`,
	).Scan(&n)
	return n, err
}

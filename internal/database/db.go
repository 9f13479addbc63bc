package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Operation timeouts.
// These cap how long a single DB call can hold a connection / wait on a lock.
// They are intentionally tighter than the HTTP WriteTimeout so the handler
// can return a clean 500 before the client's TCP connection times out.
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Second
)

type DB struct {
	Conn *sql.DB
}

// Connect opens and verifies a Postgres connection.
func Connect(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	slog.Info("postgres connected")
	return &DB{Conn: conn}, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// withTx runs fn inside a transaction and commits iff fn returns nil.
// The deferred Rollback is a no-op after a successful Commit, so any error
// (or panic) leaves the database untouched. Callers never see the *sql.Tx
// outside fn — the handle cannot leak past the scope that acquired it.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

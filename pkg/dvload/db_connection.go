package dvload

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the migration stores need.
// This interface decouples the public API from pool-specific types while
// providing the essential operations for schema creation and batched upserts.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Begin starts a transaction. The caller owns Commit/Rollback.
	Begin(ctx context.Context) (Tx, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}

// Tx represents a database transaction scoping one unit of work
// (one enrichment file, or one comparison table load).
type Tx interface {
	// Exec executes a statement inside the transaction.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// SendBatch sends a queued batch of statements in one round trip.
	// The returned BatchResults must be closed before the transaction is
	// used again.
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the transaction. Safe to call after Commit; the
	// error is then pgx.ErrTxClosed and can be ignored.
	Rollback(ctx context.Context) error
}

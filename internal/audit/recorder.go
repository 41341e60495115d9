// Package audit records one row per migration run so operators can see when
// data was last loaded and by which pipeline.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dv-site/dvload/pkg/dvload"
)

// Run statuses recorded in the audit table.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS dvload_migration_runs (
    run_id UUID PRIMARY KEY,
    pipeline VARCHAR(20) NOT NULL,
    status VARCHAR(10) NOT NULL,
    rows_written BIGINT NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
)`

// Recorder writes audit rows. Dry runs never construct one, so a dry run
// provably touches no database.
type Recorder struct {
	conn   dvload.DBConnection
	logger dvload.Logger
}

// NewRecorder creates a Recorder.
// Panics if conn or logger is nil.
func NewRecorder(conn dvload.DBConnection, logger dvload.Logger) *Recorder {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Recorder{conn: conn, logger: logger}
}

// Begin ensures the audit table exists and records the start of a run.
// Returns the run identifier for the matching Finish call.
func (r *Recorder) Begin(ctx context.Context, pipeline string) (uuid.UUID, error) {
	if _, err := r.conn.Exec(ctx, createTableSQL); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	runID := uuid.New()
	_, err := r.conn.Exec(ctx,
		`INSERT INTO dvload_migration_runs (run_id, pipeline, status) VALUES ($1, $2, $3)`,
		runID, pipeline, StatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run start: %w", err)
	}

	r.logger.Verbose("Migration run %s started (%s)", runID, pipeline)
	return runID, nil
}

// Finish records the outcome of a run. Audit failures are surfaced to the
// caller but must not mask the migration result; callers log and move on.
func (r *Recorder) Finish(ctx context.Context, runID uuid.UUID, rowsWritten int64, status string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE dvload_migration_runs
		 SET status = $2, rows_written = $3, finished_at = CURRENT_TIMESTAMP
		 WHERE run_id = $1`,
		runID, status, rowsWritten,
	)
	if err != nil {
		return fmt.Errorf("failed to record run outcome: %w", err)
	}
	return nil
}

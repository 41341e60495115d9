package rnaseq

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dv-site/dvload/internal/db"
	"github.com/dv-site/dvload/pkg/dvload"
)

// Store creates comparison tables and writes their rows.
type Store struct {
	conn      dvload.DBConnection
	logger    dvload.Logger
	batchSize int
}

// NewStore creates a Store. A non-positive batchSize falls back to
// dvload.DefaultBatchSize.
// Panics if conn or logger is nil.
func NewStore(conn dvload.DBConnection, logger dvload.Logger, batchSize int) *Store {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = dvload.DefaultBatchSize
	}
	return &Store{conn: conn, logger: logger, batchSize: batchSize}
}

// EnsureTable creates the comparison table, its indexes, and the grant inside
// one transaction. Create-if-not-exists semantics make this safe to invoke on
// every migration run. An empty grantRole skips the grant statement.
func (s *Store) EnsureTable(ctx context.Context, schema *Schema, grantRole string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, schema.CreateTableSQL()); err != nil {
		return fmt.Errorf("failed to create table %q: %w", schema.Comparison, err)
	}
	for _, stmt := range schema.CreateIndexSQL() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index for %q: %w", schema.Comparison, err)
		}
	}
	if grantRole != "" {
		grant, err := schema.GrantSQL(grantRole)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, grant); err != nil {
			return fmt.Errorf("failed to grant privileges on %q: %w", schema.Comparison, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema for %q: %w", schema.Comparison, err)
	}

	s.logger.Verbose("Ensured table %q with %d columns", schema.Comparison, len(schema.Columns))
	return nil
}

// Upsert writes bound rows inside one transaction, batched by batchSize.
// On any database error the whole transaction is rolled back and the
// comparison reports zero rows written.
func (s *Store) Upsert(ctx context.Context, schema *Schema, rows [][]any, policy dvload.ConflictPolicy) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	insertSQL := schema.InsertSQL(policy)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			batch.Queue(insertSQL, row...)
		}

		if err := db.ExecBatch(ctx, tx, batch); err != nil {
			return 0, fmt.Errorf("batch insert failed at row %d: %w", start, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Verbose("Inserted %d rows into %q", len(rows), schema.Comparison)
	return len(rows), nil
}

// Count reports the total rows in the comparison table. A post-condition
// check, not transactionally linked to any insert.
func (s *Store) Count(ctx context.Context, schema *Schema) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, schema.CountSQL()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %q: %w", schema.Comparison, err)
	}
	return count, nil
}

package enrichment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dv-site/dvload/internal/db"
	"github.com/dv-site/dvload/pkg/dvload"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS enrichment_data (
    id BIGSERIAL PRIMARY KEY,
    comparison VARCHAR(100) NOT NULL,
    database VARCHAR(50) NOT NULL,
    term_id VARCHAR(100) NOT NULL,
    term_description TEXT NOT NULL,
    genes_mapped INTEGER NOT NULL DEFAULT 0,
    enrichment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    direction VARCHAR(20) NOT NULL DEFAULT '',
    false_discovery_rate DOUBLE PRECISION NOT NULL DEFAULT 1,
    method VARCHAR(20) NOT NULL DEFAULT '',
    matching_protein_ids TEXT NOT NULL DEFAULT '',
    matching_protein_labels TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT enrichment_data_natural_key UNIQUE (comparison, database, term_id)
)`

var createIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_enrichment_data_comparison ON enrichment_data(comparison)`,
	`CREATE INDEX IF NOT EXISTS idx_enrichment_data_database ON enrichment_data(database)`,
	`CREATE INDEX IF NOT EXISTS idx_enrichment_data_fdr ON enrichment_data(false_discovery_rate)`,
}

const upsertSQL = `
INSERT INTO enrichment_data (
    comparison, database, term_id, term_description,
    genes_mapped, enrichment_score, direction,
    false_discovery_rate, method,
    matching_protein_ids, matching_protein_labels
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (comparison, database, term_id) DO UPDATE SET
    term_description = EXCLUDED.term_description,
    genes_mapped = EXCLUDED.genes_mapped,
    enrichment_score = EXCLUDED.enrichment_score,
    direction = EXCLUDED.direction,
    false_discovery_rate = EXCLUDED.false_discovery_rate,
    method = EXCLUDED.method,
    matching_protein_ids = EXCLUDED.matching_protein_ids,
    matching_protein_labels = EXCLUDED.matching_protein_labels,
    updated_at = CURRENT_TIMESTAMP`

// Store writes enrichment records into the fixed enrichment_data table.
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

// EnsureSchema creates the enrichment_data table and its indexes if absent.
// Safe to invoke on every run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create enrichment_data table: %w", err)
	}
	for _, stmt := range createIndexSQL {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create enrichment_data index: %w", err)
		}
	}
	return nil
}

// Upsert writes records inside one transaction, batched by batchSize.
// On any database error the whole transaction is rolled back and the unit
// reports zero rows written.
func (s *Store) Upsert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))

		batch := &pgx.Batch{}
		for _, r := range records[start:end] {
			batch.Queue(upsertSQL,
				r.Comparison, r.Database, r.TermID, r.TermDescription,
				r.GenesMapped, r.EnrichmentScore, r.Direction,
				r.FalseDiscoveryRate, r.Method,
				r.MatchingProteinIDs, r.MatchingProteinLabels,
			)
		}

		if err := db.ExecBatch(ctx, tx, batch); err != nil {
			return 0, fmt.Errorf("batch insert failed at record %d: %w", start, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Verbose("Inserted %d enrichment records", len(records))
	return len(records), nil
}

// Clear deletes every enrichment row. Destructive; callers gate this behind
// an explicit flag and approval.
func (s *Store) Clear(ctx context.Context) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM enrichment_data`)
	if err != nil {
		return fmt.Errorf("failed to clear enrichment data: %w", err)
	}
	s.logger.Verbose("Cleared %d existing enrichment records", tag.RowsAffected())
	return nil
}

// Count reports the total rows in enrichment_data. A post-condition check,
// not transactionally linked to any insert.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM enrichment_data`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enrichment rows: %w", err)
	}
	return count, nil
}

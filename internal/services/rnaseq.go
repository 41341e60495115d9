package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dv-site/dvload/internal/audit"
	"github.com/dv-site/dvload/internal/files/scanner"
	"github.com/dv-site/dvload/internal/rnaseq"
	"github.com/dv-site/dvload/pkg/dvload"
)

// RNASeqService runs the RNA-seq migration pipeline: for each comparison,
// read the DEG CSV, derive the table schema from its header, create the
// table if absent, and bulk-upsert the rows keyed by gene identifier.
//
// Thread-Safety: NOT safe for concurrent Migrate() calls on the same
// instance.
type RNASeqService struct {
	connect dvload.ConnectFunc
	logger  dvload.Logger
	scanner *scanner.Scanner
}

// NewRNASeqService creates an RNASeqService with all dependencies injected.
// Panics on nil dependencies.
func NewRNASeqService(connect dvload.ConnectFunc, logger dvload.Logger) *RNASeqService {
	if connect == nil {
		panic("connect cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &RNASeqService{
		connect: connect,
		logger:  logger,
		scanner: scanner.NewScanner(logger),
	}
}

// Migrate executes the RNA-seq pipeline for one comparison or all discovered
// comparisons. Each comparison is an independent unit of work: a failure
// rolls back that comparison's transaction and the remaining comparisons
// still run.
func (s *RNASeqService) Migrate(ctx context.Context, config dvload.RNASeqConfig) (*RNASeqReport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	comparisons, err := s.resolveComparisons(config)
	if err != nil {
		return nil, err
	}

	report := &RNASeqReport{DryRun: config.DryRun}

	var (
		store        *rnaseq.Store
		recorder     *audit.Recorder
		runID        uuid.UUID
		auditStarted bool
	)
	if !config.DryRun {
		conn, cleanup, err := s.connect(ctx, config.ConnectionString)
		if err != nil {
			return report, err
		}
		defer cleanup()
		store = rnaseq.NewStore(conn, s.logger, config.BatchSize)

		recorder = audit.NewRecorder(conn, s.logger)
		runID, err = recorder.Begin(ctx, "rnaseq")
		if err != nil {
			s.logger.Warn("Audit trail unavailable: %v", err)
		} else {
			auditStarted = true
		}
	}

	for _, comparison := range comparisons {
		result := s.migrateComparison(ctx, store, comparison, config)
		report.Comparisons = append(report.Comparisons, result)
		if result.Err != nil {
			s.logger.Error("%s: %v", comparison, result.Err)
		}
	}

	if auditStarted {
		s.finishAudit(ctx, recorder, runID, report)
	}

	if report.TotalRowsRead() == 0 {
		return report, fmt.Errorf("%w for %s", dvload.ErrNoRecordsParsed, strings.Join(comparisons, ", "))
	}
	if !config.DryRun && report.TotalRowsWritten() == 0 {
		return report, fmt.Errorf("%w: no rows written", dvload.ErrExecutionFailed)
	}

	return report, nil
}

// resolveComparisons determines the unit-of-work list for this run.
func (s *RNASeqService) resolveComparisons(config dvload.RNASeqConfig) ([]string, error) {
	if config.All {
		comparisons, err := s.scanner.Comparisons(config.SourcePath)
		if err != nil {
			return nil, err
		}
		if len(comparisons) == 0 {
			return nil, fmt.Errorf("%w: no comparison directories with DEG CSV files under %s",
				dvload.ErrNoInputFiles, config.SourcePath)
		}
		s.logger.Info("Found %d comparisons to migrate", len(comparisons))
		return comparisons, nil
	}

	csvPath := s.scanner.CSVPath(config.SourcePath, config.Comparison)
	if _, err := os.Stat(csvPath); err != nil {
		return nil, fmt.Errorf("%w: %s", dvload.ErrNoInputFiles, csvPath)
	}
	return []string{config.Comparison}, nil
}

// migrateComparison loads one comparison. Returned errors are recorded on the
// result, not propagated, so sibling comparisons keep running.
func (s *RNASeqService) migrateComparison(ctx context.Context, store *rnaseq.Store, comparison string, config dvload.RNASeqConfig) ComparisonResult {
	result := ComparisonResult{Comparison: comparison}

	csvPath := s.scanner.CSVPath(config.SourcePath, comparison)
	s.logger.Info("Reading %s", csvPath)

	table, err := rnaseq.ReadFile(csvPath)
	if err != nil {
		result.Err = err
		return result
	}
	s.logger.Verbose("Found %d rows and %d columns", len(table.Rows), len(table.Header))

	schema, err := rnaseq.DeriveSchema(comparison, table.Header, config.SamplePrefix)
	if err != nil {
		result.Err = err
		return result
	}
	result.Columns = len(schema.Columns)
	result.Unknown = schema.Unknown

	if len(schema.Unknown) > 0 {
		if config.StrictColumns {
			result.Err = fmt.Errorf("%w: %s", dvload.ErrUnknownColumns, strings.Join(schema.Unknown, ", "))
			return result
		}
		for _, col := range schema.Unknown {
			s.logger.Warn("Column %q matches no schema bucket and will not be loaded", col)
		}
	}

	rows, err := schema.BindRows(table)
	if err != nil {
		result.Err = err
		return result
	}
	result.RowsRead = len(rows)

	if config.DryRun {
		s.logger.Info("Dry run: would create %q with %d columns and insert %d rows",
			comparison, len(schema.Columns), len(rows))
		return result
	}

	if err := store.EnsureTable(ctx, schema, config.GrantRole); err != nil {
		result.Err = err
		return result
	}

	written, err := store.Upsert(ctx, schema, rows, config.OnConflict)
	if err != nil {
		result.Err = err
		return result
	}
	result.RowsWritten = written

	if total, err := store.Count(ctx, schema); err != nil {
		s.logger.Warn("Post-condition count failed for %q: %v", comparison, err)
	} else {
		result.TotalRows = total
	}

	s.logger.Info("Inserted %d rows into %q (table now holds %d)",
		written, comparison, result.TotalRows)
	return result
}

func (s *RNASeqService) finishAudit(ctx context.Context, recorder *audit.Recorder, runID uuid.UUID, report *RNASeqReport) {
	status := audit.StatusSucceeded
	switch {
	case report.TotalRowsWritten() == 0:
		status = audit.StatusFailed
	case report.FailedComparisons() > 0:
		status = audit.StatusPartial
	}
	if err := recorder.Finish(ctx, runID, int64(report.TotalRowsWritten()), status); err != nil {
		s.logger.Warn("Audit trail update failed: %v", err)
	}
}

// Package services orchestrates the two migration pipelines: discovery,
// parsing, schema work, and batched writes, with one transaction per unit of
// work.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dv-site/dvload/internal/audit"
	"github.com/dv-site/dvload/internal/enrichment"
	"github.com/dv-site/dvload/internal/files/scanner"
	"github.com/dv-site/dvload/pkg/dvload"
)

// EnrichmentService runs the enrichment migration pipeline:
// scan → parse → connect → write → report.
//
// Thread-Safety: NOT safe for concurrent Migrate() calls on the same
// instance. Create separate instances for concurrent migrations.
type EnrichmentService struct {
	connect  dvload.ConnectFunc
	approver dvload.Approver
	logger   dvload.Logger
	scanner  *scanner.Scanner
	parser   *enrichment.Parser
}

// NewEnrichmentService creates an EnrichmentService with all dependencies
// injected. Panics on nil dependencies: those are programmer errors that
// should fail loudly at startup, not surface as nil dereferences mid-run.
func NewEnrichmentService(
	connect dvload.ConnectFunc,
	approver dvload.Approver,
	logger dvload.Logger,
) *EnrichmentService {
	if connect == nil {
		panic("connect cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &EnrichmentService{
		connect:  connect,
		approver: approver,
		logger:   logger,
		scanner:  scanner.NewScanner(logger),
		parser:   enrichment.NewParser(logger),
	}
}

// parsedFile pairs one discovered file with its parsed records so each file
// can be written in its own transaction.
type parsedFile struct {
	file    scanner.EnrichmentFile
	records []enrichment.Record
}

// Migrate executes the enrichment pipeline. The returned report is non-nil
// whenever discovery succeeded, including alongside a terminal error.
func (s *EnrichmentService) Migrate(ctx context.Context, config dvload.EnrichmentConfig) (*EnrichmentReport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.logger.Info("Scanning for enrichment files in %s", config.SourcePath)
	files, err := s.scanner.FindEnrichmentFiles(config.SourcePath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", dvload.ErrNoInputFiles, config.SourcePath)
	}
	s.logger.Info("Found %d enrichment files", len(files))

	report := &EnrichmentReport{
		DryRun:       config.DryRun,
		FilesFound:   len(files),
		ByComparison: map[string]int{},
	}

	parsed := make([]parsedFile, 0, len(files))
	for _, file := range files {
		s.logger.Verbose("Parsing %s / %s", file.Comparison, file.Database)
		records, dropped, err := s.parser.ParseFile(file.Path, file.Comparison, file.Database)
		if err != nil {
			s.logger.Error("%v", err)
			report.FilesFailed++
			continue
		}
		report.RecordsParsed += len(records)
		report.RecordsDropped += dropped
		report.ByComparison[file.Comparison] += len(records)
		parsed = append(parsed, parsedFile{file: file, records: records})
	}

	if report.RecordsParsed == 0 {
		return report, fmt.Errorf("%w from %d files", dvload.ErrNoRecordsParsed, len(files))
	}

	if config.DryRun {
		s.logger.Info("Dry run: would insert %d records, skipping database entirely", report.RecordsParsed)
		return report, nil
	}

	conn, cleanup, err := s.connect(ctx, config.ConnectionString)
	if err != nil {
		return report, err
	}
	defer cleanup()

	recorder := audit.NewRecorder(conn, s.logger)
	runID, err := recorder.Begin(ctx, "enrichment")
	if err != nil {
		s.logger.Warn("Audit trail unavailable: %v", err)
	}

	store := enrichment.NewStore(conn, s.logger, config.BatchSize)
	if err := store.EnsureSchema(ctx); err != nil {
		return report, err
	}

	if config.Clear {
		approved, err := s.approver.RequestApproval(ctx, dvload.EnrichmentTable)
		if err != nil {
			return report, fmt.Errorf("approval failed: %w", err)
		}
		if !approved {
			return report, dvload.ErrApprovalDenied
		}
		if err := store.Clear(ctx); err != nil {
			return report, fmt.Errorf("%w: %v", dvload.ErrExecutionFailed, err)
		}
	}

	for _, pf := range parsed {
		written, err := store.Upsert(ctx, pf.records)
		if err != nil {
			s.logger.Error("%s / %s: %v (zero rows written for this file)",
				pf.file.Comparison, pf.file.Database, err)
			report.FilesFailed++
			continue
		}
		report.RowsWritten += written
	}

	if total, err := store.Count(ctx); err != nil {
		s.logger.Warn("Post-condition count failed: %v", err)
	} else {
		report.TotalRows = total
	}

	s.finishAudit(ctx, recorder, runID, report)

	if report.RowsWritten == 0 {
		return report, fmt.Errorf("%w: no rows written", dvload.ErrExecutionFailed)
	}

	s.logger.Info("Migration complete: %d rows written", report.RowsWritten)
	return report, nil
}

func (s *EnrichmentService) finishAudit(ctx context.Context, recorder *audit.Recorder, runID uuid.UUID, report *EnrichmentReport) {
	if runID == uuid.Nil {
		return
	}
	status := audit.StatusSucceeded
	switch {
	case report.RowsWritten == 0:
		status = audit.StatusFailed
	case report.FilesFailed > 0:
		status = audit.StatusPartial
	}
	if err := recorder.Finish(ctx, runID, int64(report.RowsWritten), status); err != nil {
		s.logger.Warn("Audit trail update failed: %v", err)
	}
}

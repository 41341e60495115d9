package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dv-site/dvload/internal/logging"
	"github.com/dv-site/dvload/pkg/dvload"
)

const keggJSON = `[
	{"#term ID": "hsa04110", "term description": "Cell cycle", "genes mapped": 42, "false discovery rate": 0.003},
	{"#term ID": "hsa00010", "term description": "Glycolysis", "genes mapped": 12}
]`

const reactomeJSON = `[
	{"#term ID": "R-HSA-68886", "term description": "M Phase"}
]`

// writeEnrichmentTree lays out a source directory with enrichment files.
func writeEnrichmentTree(t *testing.T, layout map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range layout {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newEnrichmentService(tracker *connectTracker, approver approverFunc) *EnrichmentService {
	return NewEnrichmentService(tracker.connect, approver, logging.NewNullLogger())
}

func TestEnrichmentMigrate_DryRunNeverConnects(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
		"SHEF10vsSHEF21/enrichment.RCTM.json": reactomeJSON,
	})
	tracker := &connectTracker{conn: &fakeConn{}}
	service := newEnrichmentService(tracker, approveAlways)

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath: root,
		DryRun:     true,
	})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 0, tracker.calls, "dry run must not open a database connection")
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.FilesFound)
	assert.Equal(t, 3, report.RecordsParsed)
	assert.Equal(t, 0, report.RecordsDropped)
	assert.Equal(t, 3, report.ByComparison["SHEF10vsSHEF21"])
}

func TestEnrichmentMigrate_WritesAllRecords(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
		"SHEF4vsSHEF10/enrichment.RCTM.json":  reactomeJSON,
	})
	conn := &fakeConn{countValue: 3}
	tracker := &connectTracker{conn: conn}
	service := newEnrichmentService(tracker, approveAlways)

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, tracker.calls)
	assert.Equal(t, 1, tracker.cleanups, "connection cleanup must run")
	assert.Equal(t, 3, report.RowsWritten)
	assert.Equal(t, int64(3), report.TotalRows)
	assert.Equal(t, 3, conn.batchQueued, "every record is queued exactly once")
	assert.Equal(t, 2, conn.commits, "one transaction per file")
}

func TestEnrichmentMigrate_NoInputFiles(t *testing.T) {
	root := t.TempDir()
	tracker := &connectTracker{conn: &fakeConn{}}
	service := newEnrichmentService(tracker, approveAlways)

	_, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath: root,
		DryRun:     true,
	})
	assert.ErrorIs(t, err, dvload.ErrNoInputFiles)
}

func TestEnrichmentMigrate_SourceMissing(t *testing.T) {
	tracker := &connectTracker{conn: &fakeConn{}}
	service := newEnrichmentService(tracker, approveAlways)

	_, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath: filepath.Join(t.TempDir(), "nope"),
		DryRun:     true,
	})
	assert.ErrorIs(t, err, dvload.ErrSourceNotFound)
}

func TestEnrichmentMigrate_AllRecordsInvalid(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": `[{"#term ID": "", "term description": ""}]`,
	})
	tracker := &connectTracker{conn: &fakeConn{}}
	service := newEnrichmentService(tracker, approveAlways)

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath: root,
		DryRun:     true,
	})
	assert.ErrorIs(t, err, dvload.ErrNoRecordsParsed)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.RecordsDropped)
}

func TestEnrichmentMigrate_MalformedFileIsIsolated(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
		"SHEF10vsSHEF21/enrichment.RCTM.json": "{not valid json",
	})
	conn := &fakeConn{countValue: 2}
	tracker := &connectTracker{conn: conn}
	service := newEnrichmentService(tracker, approveAlways)

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
	})
	require.NoError(t, err, "one bad file must not sink the run")

	assert.Equal(t, 1, report.FilesFailed)
	assert.Equal(t, 2, report.RowsWritten)
}

func TestEnrichmentMigrate_FailedUpsertIsIsolated(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"A_cmp/enrichment.KEGG.json": keggJSON,
		"B_cmp/enrichment.RCTM.json": reactomeJSON,
	})
	// First file's batch fails and rolls back; the second file still loads.
	conn := &fakeConn{failBatches: 1, countValue: 1}
	tracker := &connectTracker{conn: conn}
	service := newEnrichmentService(tracker, approveAlways)

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesFailed)
	assert.Equal(t, 1, report.RowsWritten)
	assert.GreaterOrEqual(t, conn.rollbacks, 1)
}

func TestEnrichmentMigrate_ClearDenied(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
	})
	conn := &fakeConn{}
	tracker := &connectTracker{conn: conn}
	service := newEnrichmentService(tracker, denyAlways)

	_, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
		Clear:            true,
	})
	assert.ErrorIs(t, err, dvload.ErrApprovalDenied)
	assert.Equal(t, 0, conn.batchQueued, "denied approval must not write anything")
}

func TestEnrichmentMigrate_ClearApproved(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
	})
	conn := &fakeConn{countValue: 2}
	tracker := &connectTracker{conn: conn}

	var approvedTable string
	approver := approverFunc(func(ctx context.Context, table string) (bool, error) {
		approvedTable = table
		return true, nil
	})
	service := NewEnrichmentService(tracker.connect, approver, logging.NewNullLogger())

	report, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
		Clear:            true,
	})
	require.NoError(t, err)

	assert.Equal(t, dvload.EnrichmentTable, approvedTable)
	assert.Equal(t, 2, report.RowsWritten)

	cleared := false
	for _, sql := range conn.execSQL {
		if sql == `DELETE FROM enrichment_data` {
			cleared = true
		}
	}
	assert.True(t, cleared, "clear must issue the delete before loading")
}

func TestEnrichmentMigrate_ConnectFailure(t *testing.T) {
	root := writeEnrichmentTree(t, map[string]string{
		"SHEF10vsSHEF21/enrichment.KEGG.json": keggJSON,
	})
	tracker := &connectTracker{err: errors.New("connection refused")}
	service := newEnrichmentService(tracker, approveAlways)

	_, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{
		SourcePath:       root,
		ConnectionString: "host=localhost",
	})
	require.Error(t, err)
	assert.Equal(t, dvload.ExitConnectionError, dvload.ExitCodeForError(err))
}

func TestEnrichmentMigrate_InvalidConfig(t *testing.T) {
	service := newEnrichmentService(&connectTracker{conn: &fakeConn{}}, approveAlways)

	_, err := service.Migrate(context.Background(), dvload.EnrichmentConfig{})
	assert.ErrorIs(t, err, dvload.ErrInvalidConfig)
}

func TestNewEnrichmentService_NilDependencyPanics(t *testing.T) {
	logger := logging.NewNullLogger()
	tracker := &connectTracker{conn: &fakeConn{}}

	assert.Panics(t, func() { NewEnrichmentService(nil, approverFunc(approveAlways), logger) })
	assert.Panics(t, func() { NewEnrichmentService(tracker.connect, nil, logger) })
	assert.Panics(t, func() { NewEnrichmentService(tracker.connect, approverFunc(approveAlways), nil) })
}

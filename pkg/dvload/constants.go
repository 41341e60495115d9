package dvload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Migration completed with usable output
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied destructive-clear approval
	ExitExecutionFailed = 13 // Run produced no usable output
	ExitSourceMissing   = 14 // Source directory or input files not found
)

const (
	// DefaultBatchSize is the number of rows queued per database round trip
	// during batched upserts. Tunable for throughput, not correctness.
	DefaultBatchSize = 100

	// DefaultForceApprovalCountdown is the countdown duration before a forced
	// destructive clear proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultTimeout bounds a whole migration run. Catastrophic failure
	// protection, not query-level timeout control.
	DefaultTimeout = 3 * time.Minute

	// EnrichmentTable is the fixed target table for pathway-enrichment records.
	EnrichmentTable = "enrichment_data"

	// AuditTable records one row per migration run.
	AuditTable = "dvload_migration_runs"

	// DefaultSamplePrefix identifies per-sample expression columns in DEG
	// CSV headers (e.g. SHEF1, SHEF21_readcount).
	DefaultSamplePrefix = "shef"

	// DefaultGrantRole receives table privileges on created comparison tables.
	DefaultGrantRole = "gene_admin"

	// TestDirectoryMarker excludes scratch comparison directories from
	// discovery. Matched case-insensitively against directory names.
	TestDirectoryMarker = "test"
)

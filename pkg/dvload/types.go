package dvload

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string
}

// ConflictPolicy selects what an RNA-seq upsert refreshes when a row with the
// same gene identifier already exists.
type ConflictPolicy int

const (
	// ConflictRefreshAll overwrites every non-key column on conflict, so a
	// reload against changed measurements refreshes the stored values.
	ConflictRefreshAll ConflictPolicy = iota

	// ConflictRefreshNames overwrites only the gene_name column on conflict,
	// treating measurement columns as write-once.
	ConflictRefreshNames
)

// String returns the CLI spelling of the policy.
func (p ConflictPolicy) String() string {
	switch p {
	case ConflictRefreshAll:
		return "refresh-all"
	case ConflictRefreshNames:
		return "names"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParseConflictPolicy parses the CLI spelling of a ConflictPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "refresh-all", "":
		return ConflictRefreshAll, nil
	case "names":
		return ConflictRefreshNames, nil
	default:
		return 0, fmt.Errorf("unknown conflict policy %q (want refresh-all or names): %w", s, ErrInvalidConfig)
	}
}

// EnrichmentConfig contains all parameters for an enrichment migration run.
type EnrichmentConfig struct {
	// SourcePath is the root directory holding per-comparison subdirectories
	// with enrichment.<category>.json files.
	SourcePath string

	// ConnectionString is the resolved PostgreSQL connection string.
	// Unused (and unvalidated) in dry-run mode.
	ConnectionString string

	// DryRun parses and reports without opening any database connection.
	DryRun bool

	// Clear deletes all existing enrichment rows before loading.
	Clear bool

	// Force bypasses interactive approval when used with Clear.
	Force bool

	// BatchSize is the number of rows per batched round trip.
	BatchSize int

	// Timeout bounds the whole run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks the EnrichmentConfig and returns a joined error listing
// every failure.
func (c *EnrichmentConfig) Validate() error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}
	if !c.DryRun && c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.Force && !c.Clear {
		errs = append(errs, fmt.Errorf("force flag requires clear to be enabled: %w", ErrInvalidConfig))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// RNASeqConfig contains all parameters for an RNA-seq migration run.
type RNASeqConfig struct {
	// SourcePath is the root directory holding per-comparison subdirectories
	// with <comparison>.DEG.all.csv files.
	SourcePath string

	// Comparison names a single comparison to migrate. Mutually exclusive
	// with All.
	Comparison string

	// All migrates every discovered comparison.
	All bool

	// ConnectionString is the resolved PostgreSQL connection string.
	// Unused (and unvalidated) in dry-run mode.
	ConnectionString string

	// DryRun reads and derives schemas without opening any database connection.
	DryRun bool

	// OnConflict selects the upsert refresh policy.
	OnConflict ConflictPolicy

	// StrictColumns fails the comparison when the CSV header carries columns
	// matching no schema bucket, instead of excluding them with a warning.
	StrictColumns bool

	// SamplePrefix identifies per-sample expression columns (default "shef").
	SamplePrefix string

	// GrantRole receives privileges on created tables. Empty disables the
	// grant statement.
	GrantRole string

	// BatchSize is the number of rows per batched round trip.
	BatchSize int

	// Timeout bounds the whole run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks the RNASeqConfig and returns a joined error listing
// every failure.
func (c *RNASeqConfig) Validate() error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}
	if c.All && c.Comparison != "" {
		errs = append(errs, fmt.Errorf("--all and an explicit comparison are mutually exclusive: %w", ErrInvalidConfig))
	}
	if !c.All && c.Comparison == "" {
		errs = append(errs, fmt.Errorf("a comparison name (or --all) is required: %w", ErrInvalidConfig))
	}
	if !c.DryRun && c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

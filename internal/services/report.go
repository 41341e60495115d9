package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dv-site/dvload/internal/logging"
)

// EnrichmentReport summarizes one enrichment migration run.
type EnrichmentReport struct {
	DryRun         bool
	FilesFound     int
	FilesFailed    int
	RecordsParsed  int
	RecordsDropped int
	RowsWritten    int
	TotalRows      int64
	ByComparison   map[string]int
}

// Render produces the styled end-of-run summary box.
func (r *EnrichmentReport) Render() string {
	var b strings.Builder

	title := "Enrichment migration"
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(logging.TitleStyle.Render(title))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Files found:     %d\n", r.FilesFound)
	if r.FilesFailed > 0 {
		b.WriteString(logging.ErrorStyle.Render(fmt.Sprintf("Files failed:    %d", r.FilesFailed)))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Records parsed:  %d\n", r.RecordsParsed)
	if r.RecordsDropped > 0 {
		b.WriteString(logging.WarnStyle.Render(fmt.Sprintf("Records dropped: %d", r.RecordsDropped)))
		b.WriteString("\n")
	}

	comparisons := make([]string, 0, len(r.ByComparison))
	for comparison := range r.ByComparison {
		comparisons = append(comparisons, comparison)
	}
	sort.Strings(comparisons)
	for _, comparison := range comparisons {
		b.WriteString(logging.MutedStyle.Render(
			fmt.Sprintf("  %s: %d records", comparison, r.ByComparison[comparison])))
		b.WriteString("\n")
	}

	if !r.DryRun {
		fmt.Fprintf(&b, "Rows written:    %d\n", r.RowsWritten)
		fmt.Fprintf(&b, "Table total:     %d\n", r.TotalRows)
	}

	return logging.SummaryBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// ComparisonResult captures the outcome of loading a single comparison table.
type ComparisonResult struct {
	Comparison  string
	Columns     int
	Unknown     []string
	RowsRead    int
	RowsWritten int
	TotalRows   int64
	Err         error
}

// RNASeqReport summarizes one RNA-seq migration run across all comparisons.
type RNASeqReport struct {
	DryRun      bool
	Comparisons []ComparisonResult
}

// TotalRowsRead sums rows parsed from CSV files across comparisons.
func (r *RNASeqReport) TotalRowsRead() int {
	total := 0
	for _, c := range r.Comparisons {
		total += c.RowsRead
	}
	return total
}

// TotalRowsWritten sums rows committed across comparisons.
func (r *RNASeqReport) TotalRowsWritten() int {
	total := 0
	for _, c := range r.Comparisons {
		total += c.RowsWritten
	}
	return total
}

// FailedComparisons counts comparisons that ended in an error.
func (r *RNASeqReport) FailedComparisons() int {
	failed := 0
	for _, c := range r.Comparisons {
		if c.Err != nil {
			failed++
		}
	}
	return failed
}

// Render produces the styled end-of-run summary box.
func (r *RNASeqReport) Render() string {
	var b strings.Builder

	title := "RNA-seq migration"
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(logging.TitleStyle.Render(title))
	b.WriteString("\n")

	for _, c := range r.Comparisons {
		switch {
		case c.Err != nil:
			b.WriteString(logging.ErrorStyle.Render(
				fmt.Sprintf("  %s: failed (%v)", c.Comparison, c.Err)))
		case r.DryRun:
			b.WriteString(logging.MutedStyle.Render(
				fmt.Sprintf("  %s: %d rows, %d columns", c.Comparison, c.RowsRead, c.Columns)))
		default:
			b.WriteString(logging.SuccessStyle.Render(
				fmt.Sprintf("  %s: %d rows written (table holds %d)", c.Comparison, c.RowsWritten, c.TotalRows)))
		}
		b.WriteString("\n")
		for _, col := range c.Unknown {
			b.WriteString(logging.WarnStyle.Render(
				fmt.Sprintf("    skipped column %q", col)))
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Rows read:    %d\n", r.TotalRowsRead())
	if !r.DryRun {
		fmt.Fprintf(&b, "Rows written: %d\n", r.TotalRowsWritten())
	}
	if failed := r.FailedComparisons(); failed > 0 {
		b.WriteString(logging.ErrorStyle.Render(
			fmt.Sprintf("Failed:       %d of %d comparisons", failed, len(r.Comparisons))))
		b.WriteString("\n")
	}

	return logging.SummaryBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

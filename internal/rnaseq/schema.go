// Package rnaseq derives per-comparison table schemas from DEG CSV headers
// and loads the rows into PostgreSQL.
//
// Different comparisons carry different sample columns, so the table shape is
// not known until the header is read. The schema is derived once, by a pure
// function, into an explicit typed description that both the CREATE TABLE and
// INSERT builders consume, keeping the two column lists identical by
// construction.
package rnaseq

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dv-site/dvload/pkg/dvload"
)

// Bucket classifies a CSV header column into its schema role.
type Bucket int

const (
	// BucketGene covers the fixed gene-annotation columns.
	BucketGene Bucket = iota
	// BucketExpression covers per-sample expression values.
	BucketExpression
	// BucketStatistic covers the fixed statistical result columns.
	BucketStatistic
	// BucketReadCount covers per-sample read counts.
	BucketReadCount
	// BucketFPKM covers per-sample FPKM values.
	BucketFPKM
)

// String returns a human-readable bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketGene:
		return "gene"
	case BucketExpression:
		return "expression"
	case BucketStatistic:
		return "statistic"
	case BucketReadCount:
		return "readcount"
	case BucketFPKM:
		return "fpkm"
	default:
		return fmt.Sprintf("Unknown(%d)", int(b))
	}
}

// SQL types used by the fixed type-per-bucket mapping.
const (
	typeDouble  = "DOUBLE PRECISION"
	typeInteger = "INTEGER"
	typeBigint  = "BIGINT"
	typeText    = "TEXT"
)

// Column is one derived table column.
type Column struct {
	Source string // header exactly as it appears in the CSV
	Name   string // canonical lowercase database column name
	Type   string // SQL type
	Bucket Bucket
}

// Schema is the typed description of one comparison table, derived once from
// a CSV header and consumed identically by the DDL and DML builders.
type Schema struct {
	Comparison string
	Columns    []Column // table order: gene, expression, statistics, readcounts, fpkm
	Unknown    []string // headers matching no bucket; excluded from all SQL
}

// columnRenames are the headers whose canonical name is not a plain
// lowercasing.
var columnRenames = map[string]string{
	"log2FoldChange": "log2foldchange",
	"-log10(padj)":   "log10_padj",
}

// geneColumnOrder fixes the table position and SQL type of the
// gene-annotation columns.
var geneColumnOrder = []Column{
	{Name: "gene_id", Type: "VARCHAR(50)", Bucket: BucketGene},
	{Name: "gene_name", Type: "VARCHAR(100)", Bucket: BucketGene},
	{Name: "gene_chr", Type: "VARCHAR(10)", Bucket: BucketGene},
	{Name: "gene_start", Type: typeBigint, Bucket: BucketGene},
	{Name: "gene_end", Type: typeBigint, Bucket: BucketGene},
	{Name: "gene_strand", Type: "VARCHAR(1)", Bucket: BucketGene},
	{Name: "gene_length", Type: typeInteger, Bucket: BucketGene},
	{Name: "gene_biotype", Type: "VARCHAR(50)", Bucket: BucketGene},
	{Name: "gene_description", Type: typeText, Bucket: BucketGene},
	{Name: "tf_family", Type: "VARCHAR(50)", Bucket: BucketGene},
}

// statColumnOrder fixes the table position of the statistical columns.
var statColumnOrder = []Column{
	{Name: "log2foldchange", Type: typeDouble, Bucket: BucketStatistic},
	{Name: "pvalue", Type: typeDouble, Bucket: BucketStatistic},
	{Name: "padj", Type: typeDouble, Bucket: BucketStatistic},
	{Name: "log10_padj", Type: typeDouble, Bucket: BucketStatistic},
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// comparisonPattern keeps generated table and index names quotable and
// predictable.
var comparisonPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CanonicalColumnName maps a CSV header to its database column name: two
// special-cased renames, everything else lowercased verbatim.
func CanonicalColumnName(header string) string {
	if renamed, ok := columnRenames[header]; ok {
		return renamed
	}
	return strings.ToLower(header)
}

// DeriveSchema builds the typed schema for one comparison from its CSV
// header. samplePrefix identifies per-sample expression columns (empty uses
// dvload.DefaultSamplePrefix). Headers matching no bucket are collected in
// Schema.Unknown and excluded from the generated SQL; callers decide whether
// that is a warning or a fatal error.
//
// DeriveSchema is a pure function of its arguments: identical input yields an
// identical schema, which makes repeated migration runs idempotent at the
// DDL level.
func DeriveSchema(comparison string, header []string, samplePrefix string) (*Schema, error) {
	if !comparisonPattern.MatchString(comparison) {
		return nil, fmt.Errorf("comparison name %q is not a valid table name: %w", comparison, dvload.ErrInvalidConfig)
	}
	if samplePrefix == "" {
		samplePrefix = dvload.DefaultSamplePrefix
	}
	samplePrefix = strings.ToLower(samplePrefix)

	geneTypes := make(map[string]Column, len(geneColumnOrder))
	for _, c := range geneColumnOrder {
		geneTypes[c.Name] = c
	}
	statTypes := make(map[string]Column, len(statColumnOrder))
	for _, c := range statColumnOrder {
		statTypes[c.Name] = c
	}

	var (
		gene       = map[string]string{} // canonical name -> source header
		stat       = map[string]string{}
		expression []Column
		readcounts []Column
		fpkm       []Column
		unknown    []string
	)

	for _, source := range header {
		name := CanonicalColumnName(source)
		if !identifierPattern.MatchString(name) {
			unknown = append(unknown, source)
			continue
		}

		switch {
		case geneTypes[name].Name == name:
			gene[name] = source
		case statTypes[name].Name == name:
			stat[name] = source
		case strings.Contains(name, "_readcount") || strings.HasSuffix(name, "readcount"):
			readcounts = append(readcounts, Column{Source: source, Name: name, Type: typeInteger, Bucket: BucketReadCount})
		case strings.Contains(name, "_fpkm") || strings.HasSuffix(name, "fpkm"):
			fpkm = append(fpkm, Column{Source: source, Name: name, Type: typeDouble, Bucket: BucketFPKM})
		case strings.HasPrefix(name, samplePrefix):
			expression = append(expression, Column{Source: source, Name: name, Type: typeDouble, Bucket: BucketExpression})
		default:
			unknown = append(unknown, source)
		}
	}

	if _, ok := gene["gene_id"]; !ok {
		return nil, fmt.Errorf("header for %s carries no gene_id column: %w", comparison, dvload.ErrNoRecordsParsed)
	}

	schema := &Schema{Comparison: comparison, Unknown: unknown}
	for _, c := range geneColumnOrder {
		if source, ok := gene[c.Name]; ok {
			c.Source = source
			schema.Columns = append(schema.Columns, c)
		}
	}
	schema.Columns = append(schema.Columns, expression...)
	for _, c := range statColumnOrder {
		if source, ok := stat[c.Name]; ok {
			c.Source = source
			schema.Columns = append(schema.Columns, c)
		}
	}
	schema.Columns = append(schema.Columns, readcounts...)
	schema.Columns = append(schema.Columns, fpkm...)

	return schema, nil
}

// ColumnNames returns the canonical column names in table order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// QuoteIdentifier double-quotes a SQL identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL builds the CREATE TABLE IF NOT EXISTS statement for the
// comparison. gene_id is the primary key; a created_at metadata column with a
// default timestamp is appended.
func (s *Schema) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(s.Comparison))
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "    %s %s", c.Name, c.Type)
		if c.Name == "gene_id" {
			b.WriteString(" PRIMARY KEY")
		}
		b.WriteString(",\n")
	}
	b.WriteString("    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP\n)")
	return b.String()
}

// indexTargets maps index name suffixes to the column each index covers.
var indexTargets = []struct {
	suffix string
	column string
}{
	{"gene_name", "gene_name"},
	{"chromosome", "gene_chr"},
	{"padj", "padj"},
	{"log2fc", "log2foldchange"},
}

// CreateIndexSQL builds the companion CREATE INDEX IF NOT EXISTS statements.
// Indexes whose target column is absent from this comparison's schema are
// skipped.
func (s *Schema) CreateIndexSQL() []string {
	present := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		present[c.Name] = true
	}

	table := QuoteIdentifier(s.Comparison)
	lower := strings.ToLower(s.Comparison)

	var stmts []string
	for _, idx := range indexTargets {
		if !present[idx.column] {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			lower, idx.suffix, table, idx.column,
		))
	}
	return stmts
}

// GrantSQL builds the GRANT statement for the given role. Returns an error
// when the role is not a plain identifier.
func (s *Schema) GrantSQL(role string) (string, error) {
	if !comparisonPattern.MatchString(role) {
		return "", fmt.Errorf("grant role %q is not a valid identifier: %w", role, dvload.ErrInvalidConfig)
	}
	return fmt.Sprintf("GRANT ALL PRIVILEGES ON TABLE %s TO %s",
		QuoteIdentifier(s.Comparison), QuoteIdentifier(role)), nil
}

// InsertSQL builds the parameterized upsert statement, one placeholder per
// schema column, keyed by gene_id. The conflict clause depends on the policy:
// refresh-all overwrites every non-key column, names only gene_name.
func (s *Schema) InsertSQL(policy dvload.ConflictPolicy) string {
	names := s.ColumnNames()

	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s)\nVALUES (%s)\nON CONFLICT (gene_id) ",
		QuoteIdentifier(s.Comparison),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
	)

	var updates []string
	for _, name := range names {
		if name == "gene_id" {
			continue
		}
		if policy == dvload.ConflictRefreshNames && name != "gene_name" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}

	if len(updates) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}

	b.WriteString("DO UPDATE SET\n    ")
	b.WriteString(strings.Join(updates, ",\n    "))
	return b.String()
}

// CountSQL builds the post-condition row count query.
func (s *Schema) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdentifier(s.Comparison))
}

package rnaseq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dv-site/dvload/pkg/dvload"
)

// degHeader is a typical DEG CSV header covering every column bucket.
var degHeader = []string{
	"gene_id", "gene_name",
	"SHEF1", "SHEF1_readcount", "SHEF1_fpkm",
	"log2FoldChange", "pvalue", "padj", "-log10(padj)",
}

func TestCanonicalColumnName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "gene_id", want: "gene_id"},
		{header: "SHEF1", want: "shef1"},
		{header: "SHEF1_readcount", want: "shef1_readcount"},
		{header: "log2FoldChange", want: "log2foldchange"},
		{header: "-log10(padj)", want: "log10_padj"},
		{header: "padj", want: "padj"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalColumnName(tt.header))
		})
	}
}

func TestDeriveSchema_Buckets(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)
	assert.Empty(t, schema.Unknown)

	byName := map[string]Column{}
	for _, c := range schema.Columns {
		byName[c.Name] = c
	}

	tests := []struct {
		name     string
		bucket   Bucket
		sqlType  string
		source   string
	}{
		{name: "gene_id", bucket: BucketGene, sqlType: "VARCHAR(50)", source: "gene_id"},
		{name: "gene_name", bucket: BucketGene, sqlType: "VARCHAR(100)", source: "gene_name"},
		{name: "shef1", bucket: BucketExpression, sqlType: "DOUBLE PRECISION", source: "SHEF1"},
		{name: "shef1_readcount", bucket: BucketReadCount, sqlType: "INTEGER", source: "SHEF1_readcount"},
		{name: "shef1_fpkm", bucket: BucketFPKM, sqlType: "DOUBLE PRECISION", source: "SHEF1_fpkm"},
		{name: "log2foldchange", bucket: BucketStatistic, sqlType: "DOUBLE PRECISION", source: "log2FoldChange"},
		{name: "pvalue", bucket: BucketStatistic, sqlType: "DOUBLE PRECISION", source: "pvalue"},
		{name: "padj", bucket: BucketStatistic, sqlType: "DOUBLE PRECISION", source: "padj"},
		{name: "log10_padj", bucket: BucketStatistic, sqlType: "DOUBLE PRECISION", source: "-log10(padj)"},
	}

	for _, tt := range tests {
		col, ok := byName[tt.name]
		require.True(t, ok, "column %s missing from schema", tt.name)
		assert.Equal(t, tt.bucket, col.Bucket, tt.name)
		assert.Equal(t, tt.sqlType, col.Type, tt.name)
		assert.Equal(t, tt.source, col.Source, tt.name)
	}
}

func TestDeriveSchema_ColumnOrder(t *testing.T) {
	// Header deliberately scrambled; table order is fixed regardless
	scrambled := []string{
		"padj", "SHEF1_fpkm", "gene_name", "SHEF1", "gene_id",
		"SHEF1_readcount", "log2FoldChange",
	}

	schema, err := DeriveSchema("SHEF10vsSHEF21", scrambled, "shef")
	require.NoError(t, err)

	want := []string{
		"gene_id", "gene_name", // gene annotation first
		"shef1",                    // expression
		"log2foldchange", "padj",   // statistics
		"shef1_readcount",          // read counts
		"shef1_fpkm",               // fpkm
	}
	assert.Equal(t, want, schema.ColumnNames())
}

func TestDeriveSchema_Deterministic(t *testing.T) {
	a, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)
	b, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeriveSchema_UnknownColumns(t *testing.T) {
	header := append([]string{}, degHeader...)
	header = append(header, "notes", "Comment Field!")

	schema, err := DeriveSchema("SHEF10vsSHEF21", header, "shef")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "Comment Field!"}, schema.Unknown)

	// Unknown columns are excluded from every generated statement
	assert.NotContains(t, schema.CreateTableSQL(), "notes")
	assert.NotContains(t, schema.InsertSQL(dvload.ConflictRefreshAll), "notes")
}

func TestDeriveSchema_RequiresGeneID(t *testing.T) {
	_, err := DeriveSchema("SHEF10vsSHEF21", []string{"gene_name", "padj"}, "shef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gene_id")
}

func TestDeriveSchema_RejectsBadComparisonName(t *testing.T) {
	tests := []string{"", "10starts_with_digit", "has space", `quo"ted`, "semi;colon"}
	for _, name := range tests {
		t.Run("name "+name, func(t *testing.T) {
			_, err := DeriveSchema(name, degHeader, "shef")
			assert.ErrorIs(t, err, dvload.ErrInvalidConfig)
		})
	}
}

func TestDeriveSchema_SamplePrefixCaseInsensitive(t *testing.T) {
	schema, err := DeriveSchema("c1", []string{"gene_id", "SHEF21"}, "SHEF")
	require.NoError(t, err)
	require.Len(t, schema.Columns, 2)
	assert.Equal(t, BucketExpression, schema.Columns[1].Bucket)
}

func TestDeriveSchema_CustomSamplePrefix(t *testing.T) {
	schema, err := DeriveSchema("c1", []string{"gene_id", "LIV3", "SHEF1"}, "liv")
	require.NoError(t, err)

	names := schema.ColumnNames()
	assert.Contains(t, names, "liv3")
	assert.Equal(t, []string{"SHEF1"}, schema.Unknown, "columns outside the prefix are unknown")
}

func TestCreateTableSQL(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	ddl := schema.CreateTableSQL()
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "SHEF10vsSHEF21"`)
	assert.Contains(t, ddl, "gene_id VARCHAR(50) PRIMARY KEY")
	assert.Contains(t, ddl, "shef1_readcount INTEGER")
	assert.Contains(t, ddl, "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
}

// The DDL and DML builders consume the same schema value, so their column
// lists can never drift apart. Guard that property directly.
func TestCreateAndInsertShareColumnList(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	ddl := schema.CreateTableSQL()
	dml := schema.InsertSQL(dvload.ConflictRefreshAll)

	for _, name := range schema.ColumnNames() {
		assert.Contains(t, ddl, name)
		assert.Contains(t, dml, name)
	}

	// One placeholder per column
	assert.Contains(t, dml, "$1")
	assert.Contains(t, dml, "$9")
	assert.NotContains(t, dml, "$10")
}

func TestCreateIndexSQL(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	stmts := schema.CreateIndexSQL()
	joined := strings.Join(stmts, "\n")

	assert.Contains(t, joined, "idx_shef10vsshef21_gene_name")
	assert.Contains(t, joined, "idx_shef10vsshef21_padj")
	assert.Contains(t, joined, "idx_shef10vsshef21_log2fc")
	assert.NotContains(t, joined, "chromosome", "absent gene_chr column has no index")
	for _, stmt := range stmts {
		assert.Contains(t, stmt, "CREATE INDEX IF NOT EXISTS")
	}
}

func TestCreateIndexSQL_IncludesChromosomeWhenPresent(t *testing.T) {
	header := append([]string{}, degHeader...)
	header = append(header, "gene_chr")

	schema, err := DeriveSchema("SHEF10vsSHEF21", header, "shef")
	require.NoError(t, err)

	joined := strings.Join(schema.CreateIndexSQL(), "\n")
	assert.Contains(t, joined, "idx_shef10vsshef21_chromosome")
	assert.Contains(t, joined, "(gene_chr)")
}

func TestGrantSQL(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	grant, err := schema.GrantSQL("gene_admin")
	require.NoError(t, err)
	assert.Equal(t, `GRANT ALL PRIVILEGES ON TABLE "SHEF10vsSHEF21" TO "gene_admin"`, grant)

	_, err = schema.GrantSQL("role; DROP TABLE x")
	assert.ErrorIs(t, err, dvload.ErrInvalidConfig)
}

func TestInsertSQL_RefreshAll(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	dml := schema.InsertSQL(dvload.ConflictRefreshAll)
	assert.Contains(t, dml, "ON CONFLICT (gene_id) DO UPDATE SET")
	assert.Contains(t, dml, "padj = EXCLUDED.padj")
	assert.Contains(t, dml, "shef1_fpkm = EXCLUDED.shef1_fpkm")
	assert.NotContains(t, dml, "gene_id = EXCLUDED.gene_id", "the key column is never refreshed")
}

func TestInsertSQL_RefreshNames(t *testing.T) {
	schema, err := DeriveSchema("SHEF10vsSHEF21", degHeader, "shef")
	require.NoError(t, err)

	dml := schema.InsertSQL(dvload.ConflictRefreshNames)
	assert.Contains(t, dml, "gene_name = EXCLUDED.gene_name")
	assert.NotContains(t, dml, "padj = EXCLUDED.padj")
}

func TestInsertSQL_DoNothingWhenNoUpdatableColumns(t *testing.T) {
	schema, err := DeriveSchema("c1", []string{"gene_id", "padj"}, "shef")
	require.NoError(t, err)

	// names policy with no gene_name column leaves nothing to refresh
	dml := schema.InsertSQL(dvload.ConflictRefreshNames)
	assert.Contains(t, dml, "ON CONFLICT (gene_id) DO NOTHING")
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"simple"`, QuoteIdentifier("simple"))
	assert.Equal(t, `"with""quote"`, QuoteIdentifier(`with"quote`))
}

func TestCountSQL(t *testing.T) {
	schema := &Schema{Comparison: "SHEF10vsSHEF21"}
	assert.Equal(t, `SELECT COUNT(*) FROM "SHEF10vsSHEF21"`, schema.CountSQL())
}

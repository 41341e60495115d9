package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dv-site/dvload/internal/db"
	"github.com/dv-site/dvload/internal/logging"
	testhelpers "github.com/dv-site/dvload/internal/testing"
	"github.com/dv-site/dvload/pkg/dvload"
)

func newIntegrationStore(t *testing.T) (*Store, dvload.DBConnection) {
	t.Helper()

	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	conn := db.NewPoolAdapter(pool)

	store := NewStore(conn, logging.NewNullLogger(), dvload.DefaultBatchSize)
	require.NoError(t, store.EnsureSchema(context.Background()))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM enrichment_data")
	})
	return store, conn
}

func sampleRecords() []Record {
	return []Record{
		{
			Comparison:         "SHEF10vsSHEF21",
			Database:           "KEGG",
			TermID:             "hsa04110",
			TermDescription:    "Cell cycle",
			GenesMapped:        42,
			EnrichmentScore:    1.87,
			Direction:          "both ends",
			FalseDiscoveryRate: 0.0031,
			Method:             "STRING",
		},
		{
			Comparison:         "SHEF10vsSHEF21",
			Database:           "Reactome",
			TermID:             "R-HSA-68886",
			TermDescription:    "M Phase",
			FalseDiscoveryRate: 1.0,
		},
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	written, err := store.Upsert(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Second run hits the natural key and refreshes instead of duplicating
	_, err = store.Upsert(ctx, sampleRecords())
	require.NoError(t, err)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "re-running a migration must not duplicate rows")
}

func TestStore_UpsertRefreshesChangedValues(t *testing.T) {
	store, conn := newIntegrationStore(t)
	ctx := context.Background()

	records := sampleRecords()
	_, err := store.Upsert(ctx, records)
	require.NoError(t, err)

	records[0].GenesMapped = 99
	records[0].FalseDiscoveryRate = 0.5
	_, err = store.Upsert(ctx, records[:1])
	require.NoError(t, err)

	var genesMapped int
	var fdr float64
	err = conn.QueryRow(ctx,
		`SELECT genes_mapped, false_discovery_rate FROM enrichment_data
		 WHERE comparison = $1 AND database = $2 AND term_id = $3`,
		"SHEF10vsSHEF21", "KEGG", "hsa04110",
	).Scan(&genesMapped, &fdr)
	require.NoError(t, err)

	assert.Equal(t, 99, genesMapped)
	assert.Equal(t, 0.5, fdr)
}

func TestStore_Clear(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, sampleRecords())
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStore_UpsertEmptyInput(t *testing.T) {
	store, _ := newIntegrationStore(t)

	written, err := store.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}

func TestStore_SmallBatchSize(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	conn := db.NewPoolAdapter(pool)

	// Batch size 1 forces one round trip per record
	store := NewStore(conn, logging.NewNullLogger(), 1)
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM enrichment_data")
	})

	written, err := store.Upsert(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, written)
}

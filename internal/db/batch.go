package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dv-site/dvload/pkg/dvload"
)

// ExecBatch sends a queued batch inside a transaction and surfaces the first
// per-statement error. The batch results are always closed so the transaction
// can be reused or rolled back afterwards.
func ExecBatch(ctx context.Context, tx dvload.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return err
		}
	}
	return br.Close()
}

package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dv-site/dvload/pkg/dvload"
)

// fakeConn is an in-memory DBConnection that records every statement it sees.
type fakeConn struct {
	execSQL    []string
	execErr    error
	beginErr   error
	batchErr   error
	commitErr  error
	countValue int64
	countErr   error

	// failBatches makes the first N SendBatch calls fail, then recover.
	failBatches int

	batchQueued int
	commits     int
	rollbacks   int
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execSQL = append(c.execSQL, sql)
	if c.execErr != nil {
		return pgconn.CommandTag{}, c.execErr
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) dvload.Row {
	return &fakeRow{value: c.countValue, err: c.countErr}
}

func (c *fakeConn) Begin(ctx context.Context) (dvload.Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return &fakeTx{conn: c}, nil
}

type fakeRow struct {
	value int64
	err   error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.value
		}
	}
	return nil
}

type fakeTx struct {
	conn *fakeConn
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, args...)
}

func (t *fakeTx) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	t.conn.batchQueued += batch.Len()
	if t.conn.failBatches > 0 {
		t.conn.failBatches--
		return &fakeBatchResults{err: errors.New("batch rejected")}
	}
	return &fakeBatchResults{err: t.conn.batchErr}
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.conn.commitErr != nil {
		return t.conn.commitErr
	}
	t.conn.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.conn.rollbacks++
	return nil
}

type fakeBatchResults struct {
	err error
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if b.err != nil {
		return pgconn.CommandTag{}, b.err
	}
	return pgconn.CommandTag{}, nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (b *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (b *fakeBatchResults) Close() error             { return nil }

// connectTracker wraps a fakeConn in a ConnectFunc and counts invocations.
type connectTracker struct {
	conn     *fakeConn
	err      error
	calls    int
	cleanups int
}

func (ct *connectTracker) connect(ctx context.Context, connString string) (dvload.DBConnection, func(), error) {
	ct.calls++
	if ct.err != nil {
		return nil, nil, ct.err
	}
	return ct.conn, func() { ct.cleanups++ }, nil
}

// approverFunc adapts a function to the Approver interface.
type approverFunc func(ctx context.Context, table string) (bool, error)

func (f approverFunc) RequestApproval(ctx context.Context, table string) (bool, error) {
	return f(ctx, table)
}

func approveAlways(ctx context.Context, table string) (bool, error) { return true, nil }
func denyAlways(ctx context.Context, table string) (bool, error)    { return false, nil }

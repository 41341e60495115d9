package db

import (
	"context"

	"github.com/dv-site/dvload/pkg/dvload"
)

// Connect resolves a connection string into a live DBConnection.
// The returned cleanup closes the underlying pool. This is the production
// dvload.ConnectFunc; services receive it injected so tests can substitute
// fakes and dry runs can prove no connection was attempted.
func Connect(ctx context.Context, connString string) (dvload.DBConnection, func(), error) {
	connector, err := NewConnectorFromString(connString)
	if err != nil {
		return nil, nil, err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	return NewPoolAdapter(pool), func() { pool.Close() }, nil
}

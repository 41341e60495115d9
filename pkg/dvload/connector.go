package dvload

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes database connections from a resolved configuration.
// Implementations handle pool setup and connection verification.
type Connector interface {
	// Connect establishes a connection pool and verifies it with a ping.
	// The caller owns the returned pool and must Close it.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// ConnectFunc resolves a connection string into a live DBConnection plus a
// cleanup function. Injected into services so tests can substitute fakes and
// so dry runs can assert that no connection was ever attempted.
type ConnectFunc func(ctx context.Context, connString string) (DBConnection, func(), error)

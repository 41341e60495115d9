package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dv-site/dvload/pkg/dvload"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns limits concurrent connections. The pipelines are
	// strictly sequential, so a small pool is plenty.
	DefaultMaxConns = 2

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps the connection alive across the batched
	// writes of a long migration run.
	DefaultMaxConnIdleTime = 10 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

// StandardConnector implements the dvload.Connector interface for standard
// username/password authentication. Connection failures are terminal: a
// one-shot migration either reaches its database or exits non-zero.
type StandardConnector struct {
	config *dvload.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given
// configuration.
func NewStandardConnector(config *dvload.ConnectionConfig) dvload.Connector {
	return &StandardConnector{config: config}
}

// Connect establishes a connection pool and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := BuildConnectionString(c.config)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
	}

	return pool, nil
}

// NewConnectorFromString creates a Connector from a resolved connection
// string. Used by the services where only the string is carried.
func NewConnectorFromString(connString string) (dvload.Connector, error) {
	config, err := ParseConnectionString(connString)
	if err != nil {
		return nil, err
	}
	return NewStandardConnector(config), nil
}

// wrapConnectionError wraps raw pgx connection errors with actionable
// guidance and tags them with dvload.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %v`, dvload.ErrConnectionFailed, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host %q

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %v`, dvload.ErrConnectionFailed, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database %q

Possible causes:
  - Wrong password (check $DB_PASSWORD or $PGPASSWORD)
  - Wrong username
  - User does not have access to the database

Original error: %v`, dvload.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database %q does not exist

To create it:
  createdb %s

Original error: %v`, dvload.ErrConnectionFailed, database, database, err)

	default:
		return fmt.Errorf("%w: %s/%s: %v", dvload.ErrConnectionFailed, addr, database, err)
	}
}

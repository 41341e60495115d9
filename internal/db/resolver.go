package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dv-site/dvload/internal/config"
	"github.com/dv-site/dvload/pkg/dvload"
)

// Defaults used when nothing else supplies a value. Placeholders for local
// development, never production credentials.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 5432
	DefaultDatabase = "gene_visualizations"
	DefaultUsername = "gene_admin"
	DefaultSSLMode  = "prefer"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $DB_PASSWORD or $PGPASSWORD environment variable
//  2. Connection string with embedded password
//  3. Interactive terminal prompt
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// The database flag is excluded because it can override the database embedded
// in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g == nil || (g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "")
}

// EnvVars represents the environment variables consulted during connection
// resolution. DB_* is the project's historical convention; the PG* family
// follows standard PostgreSQL client behavior and wins only where DB_* is
// unset. See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	DBHost     string // DB_HOST
	DBPort     string // DB_PORT
	DBName     string // DB_NAME
	DBUsername string // DB_USERNAME
	DBPassword string // DB_PASSWORD
	DBSSLMode  string // DB_SSLMODE

	PGHost     string // PGHOST
	PGPort     string // PGPORT
	PGUser     string // PGUSER
	PGPassword string // PGPASSWORD
	PGDatabase string // PGDATABASE
	PGSSLMode  string // PGSSLMODE

	DatabaseURL string // DATABASE_URL (full connection string)
}

// LoadFromEnvironment loads the connection-related environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBName:      os.Getenv("DB_NAME"),
		DBUsername:  os.Getenv("DB_USERNAME"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBSSLMode:   os.Getenv("DB_SSLMODE"),
		PGHost:      os.Getenv("PGHOST"),
		PGPort:      os.Getenv("PGPORT"),
		PGUser:      os.Getenv("PGUSER"),
		PGPassword:  os.Getenv("PGPASSWORD"),
		PGDatabase:  os.Getenv("PGDATABASE"),
		PGSSLMode:   os.Getenv("PGSSLMODE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveConnectionParams resolves connection parameters using layered
// precedence:
//
//  1. Connection string flag (--connection) - parsed and used directly
//  2. Granular flags (--host, -p, -U, -d, --sslmode)
//  3. DB_* environment variables (project convention)
//  4. PG* environment variables (PostgreSQL standard)
//  5. DATABASE_URL environment variable (only when no flags were given)
//  6. dvload.yaml connection block
//  7. Defaults (localhost:5432/gene_visualizations, sslmode=prefer)
//
// Returns an error if BOTH --connection AND granular connection flags are
// provided; the -d database flag is the one exception and overrides the
// database embedded in the string.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*dvload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf("--connection and granular connection flags are mutually exclusive: %w", dvload.ErrInvalidConfig)
	}

	connString := connStringFlag
	if connString == "" && granularFlags.IsEmpty() && envVars.DatabaseURL != "" {
		connString = envVars.DatabaseURL
	}

	if connString != "" {
		cfg, err := ParseConnectionString(connString)
		if err != nil {
			return nil, err
		}
		if granularFlags.Database != "" {
			cfg.Database = granularFlags.Database
		}
		applyConnDefaults(cfg, envVars)
		return cfg, nil
	}

	var projectConn config.ConnectionConfig
	if projectConfig != nil {
		projectConn = projectConfig.Connection
	}

	cfg := &dvload.ConnectionConfig{
		Host: firstNonEmpty(granularFlags.Host, envVars.DBHost, envVars.PGHost,
			projectConn.Host, DefaultHost),
		Database: firstNonEmpty(granularFlags.Database, envVars.DBName, envVars.PGDatabase,
			projectConn.Database, DefaultDatabase),
		Username: firstNonEmpty(granularFlags.Username, envVars.DBUsername, envVars.PGUser,
			projectConn.Username, DefaultUsername),
		Password: firstNonEmpty(envVars.DBPassword, envVars.PGPassword),
		SSLMode: firstNonEmpty(granularFlags.SSLMode, envVars.DBSSLMode, envVars.PGSSLMode,
			projectConn.SSLMode, DefaultSSLMode),
	}

	port := granularFlags.Port
	if port == 0 {
		var err error
		port, err = resolvePort(envVars, projectConn.Port)
		if err != nil {
			return nil, err
		}
	}
	cfg.Port = port

	return cfg, nil
}

// applyConnDefaults fills gaps in a parsed connection string from the
// environment and the standard defaults.
func applyConnDefaults(cfg *dvload.ConnectionConfig, envVars *EnvVars) {
	if cfg.Host == "" {
		cfg.Host = firstNonEmpty(envVars.DBHost, envVars.PGHost, DefaultHost)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Database == "" {
		cfg.Database = firstNonEmpty(envVars.DBName, envVars.PGDatabase, DefaultDatabase)
	}
	if cfg.Username == "" {
		cfg.Username = firstNonEmpty(envVars.DBUsername, envVars.PGUser, DefaultUsername)
	}
	if cfg.Password == "" {
		cfg.Password = firstNonEmpty(envVars.DBPassword, envVars.PGPassword)
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = firstNonEmpty(envVars.DBSSLMode, envVars.PGSSLMode, DefaultSSLMode)
	}
}

func resolvePort(envVars *EnvVars, projectPort int) (int, error) {
	portStr := firstNonEmpty(envVars.DBPort, envVars.PGPort)
	if portStr == "" {
		if projectPort != 0 {
			return projectPort, nil
		}
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q in environment: %w", portStr, dvload.ErrInvalidConfig)
	}
	return port, nil
}

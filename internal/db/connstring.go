package db

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dv-site/dvload/pkg/dvload"
)

// BuildConnectionString converts a ConnectionConfig to a libpq key=value
// connection string suitable for pgxpool.ParseConfig.
func BuildConnectionString(config *dvload.ConnectionConfig) string {
	parts := []string{}

	addPart := func(key, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", key, escapeConnValue(value)))
		}
	}

	addPart("host", config.Host)
	if config.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", config.Port))
	}
	addPart("dbname", config.Database)
	addPart("user", config.Username)
	addPart("password", config.Password)
	addPart("sslmode", config.SSLMode)
	addPart("application_name", config.AppName)
	if config.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(config.ConnectTimeout.Seconds())))
	}

	// Stable ordering for the free-form parameters
	keys := make([]string, 0, len(config.AdditionalParams))
	for k := range config.AdditionalParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		addPart(k, config.AdditionalParams[k])
	}

	return strings.Join(parts, " ")
}

// escapeConnValue quotes libpq values containing spaces or quotes.
func escapeConnValue(value string) string {
	if !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

// ParseConnectionString parses a PostgreSQL URI (postgres:// or postgresql://)
// or a libpq key=value string into a ConnectionConfig.
func ParseConnectionString(connString string) (*dvload.ConnectionConfig, error) {
	trimmed := strings.TrimSpace(connString)
	if trimmed == "" {
		return nil, fmt.Errorf("connection string is empty: %w", dvload.ErrInvalidConfig)
	}

	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return parseURI(trimmed)
	}
	return parseKeyValue(trimmed)
}

func parseURI(connString string) (*dvload.ConnectionConfig, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URI: %w", err)
	}

	config := &dvload.ConnectionConfig{
		Host:             u.Hostname(),
		Database:         strings.TrimPrefix(u.Path, "/"),
		AdditionalParams: map[string]string{},
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q in connection URI: %w", portStr, dvload.ErrInvalidConfig)
		}
		config.Port = port
	}

	if u.User != nil {
		config.Username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			config.Password = password
		}
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[len(values)-1]
		switch key {
		case "sslmode":
			config.SSLMode = value
		case "application_name":
			config.AppName = value
		default:
			config.AdditionalParams[key] = value
		}
	}

	return config, nil
}

func parseKeyValue(connString string) (*dvload.ConnectionConfig, error) {
	config := &dvload.ConnectionConfig{AdditionalParams: map[string]string{}}

	for _, field := range strings.Fields(connString) {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid connection string segment %q: %w", field, dvload.ErrInvalidConfig)
		}
		value = strings.Trim(value, "'")

		switch key {
		case "host":
			config.Host = value
		case "port":
			port, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid port %q in connection string: %w", value, dvload.ErrInvalidConfig)
			}
			config.Port = port
		case "dbname", "database":
			config.Database = value
		case "user":
			config.Username = value
		case "password":
			config.Password = value
		case "sslmode":
			config.SSLMode = value
		case "application_name":
			config.AppName = value
		default:
			config.AdditionalParams[key] = value
		}
	}

	return config, nil
}

package database

import (
	"fmt"
	"strings"

	"github.com/johan-st/dbpane/internal/config"
)

// Dialect identifies the SQL backend behind a connection.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const (
	postgresDatabasesQuery = "SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname"
	postgresSizesQuery     = "SELECT datname, pg_database_size(datname) FROM pg_database WHERE datistemplate = false ORDER BY datname"
	postgresTablesQuery    = "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename"
	sqliteTablesQuery      = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
)

// ParseDialect maps a config driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case config.DriverPostgres, "postgresql", "pg":
		return Postgres, nil
	case config.DriverSQLite, "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) tablesQuery() string {
	if d == Postgres {
		return postgresTablesQuery
	}
	return sqliteTablesQuery
}

// PostgresDSN builds a key=value connection string for one database on the
// configured server.
func PostgresDSN(cfg config.PostgresConfig, database string) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "prefer"
	}

	parts := []string{
		"host=" + dsnValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + dsnValue(database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.User != "" {
		parts = append(parts, "user="+dsnValue(cfg.User))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a libpq keyword value when it contains spaces, quotes or
// backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// SQLiteDSN builds a modernc.org/sqlite DSN. Files are never created.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?mode=rw&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DatabaseInfo describes one database for listings.
type DatabaseInfo struct {
	Name string `json:"name"`
	// Path is set for SQLite files.
	Path string `json:"path,omitempty"`
	Size int64  `json:"size"`
	// ModTime is a unix timestamp, zero when unknown.
	ModTime     int64  `json:"mod_time,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListTables returns the user tables of the connected database, ordered by name.
func ListTables(ctx context.Context, conn *Connection) ([]string, error) {
	rows, err := conn.DB.QueryContext(ctx, conn.Dialect.tablesQuery())
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

// ListDatabases returns the non-template databases of a PostgreSQL server.
func ListDatabases(ctx context.Context, conn *Connection) ([]string, error) {
	if conn.Dialect != Postgres {
		return nil, fmt.Errorf("listing databases needs a postgres connection, got %s", conn.Dialect)
	}
	rows, err := conn.DB.QueryContext(ctx, postgresDatabasesQuery)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

// DatabaseSizes returns every non-template database with its on-disk size.
func DatabaseSizes(ctx context.Context, conn *Connection) ([]DatabaseInfo, error) {
	rows, err := conn.DB.QueryContext(ctx, postgresSizesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []DatabaseInfo
	for rows.Next() {
		var info DatabaseInfo
		if err := rows.Scan(&info.Name, &info.Size); err != nil {
			return nil, fmt.Errorf("failed to scan database size: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// CountRows returns the number of rows in a table.
func CountRows(ctx context.Context, conn *Connection, table string) (int64, error) {
	var count int64
	err := conn.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdentifier(table)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

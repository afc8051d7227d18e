// Package database is the gateway between the UI and a PostgreSQL server or a
// set of SQLite files.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver
)

// Connection is an open handle on one named database.
type Connection struct {
	DB      *sql.DB
	Name    string
	Dialect Dialect
}

// Open opens and pings a connection. maxConns <= 0 keeps the driver default,
// except for SQLite which always gets a single connection.
func Open(ctx context.Context, dialect Dialect, name, dsn string, maxConns int) (*Connection, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if dialect == SQLite {
		// SQLite doesn't handle concurrent writes well
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}

	return NewConnection(db, dialect, name), nil
}

// NewConnection wraps an already opened *sql.DB.
func NewConnection(db *sql.DB, dialect Dialect, name string) *Connection {
	return &Connection{DB: db, Name: name, Dialect: dialect}
}

// Ping checks that the server is still reachable.
func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection.
func (c *Connection) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

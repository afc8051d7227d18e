package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Op names the gateway operation an error came from.
type Op string

// Gateway operations.
const (
	OpConnect       Op = "connect"
	OpPing          Op = "ping"
	OpListDatabases Op = "list databases"
	OpListTables    Op = "list tables"
	OpQuery         Op = "query"
)

// ErrUnknownDatabase is returned for names the gateway doesn't know about.
var ErrUnknownDatabase = errors.New("database not found")

// ConnectionError means the server could not be reached or the connection
// dropped.
type ConnectionError struct {
	Op       Op
	Database string
	Err      error
}

func (e *ConnectionError) Error() string { return e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError means the server rejected or failed the statement.
type QueryError struct {
	Op       Op
	Database string
	// Code is the SQLSTATE (PostgreSQL) or result code (SQLite), when known.
	Code string
	Err  error
}

func (e *QueryError) Error() string { return e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// Classify wraps a raw driver error in ConnectionError or QueryError.
// Errors that are already classified are returned unchanged.
func Classify(op Op, database string, err error) error {
	if err == nil {
		return nil
	}

	var connErr *ConnectionError
	var queryErr *QueryError
	if errors.As(err, &connErr) || errors.As(err, &queryErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &QueryError{Op: op, Database: database, Code: pgErr.Code, Err: err}
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return &QueryError{Op: op, Database: database, Code: sqliteCode(sqliteErr.Code()), Err: err}
	}

	var pgConnectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &pgConnectErr) || errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, ErrUnknownDatabase) {
		return &ConnectionError{Op: op, Database: database, Err: err}
	}

	if op == OpConnect || op == OpPing {
		return &ConnectionError{Op: op, Database: database, Err: err}
	}
	return &QueryError{Op: op, Database: database, Err: err}
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

func sqliteCode(code int) string {
	switch code & 0xff {
	case 1:
		return "SQLITE_ERROR"
	case 5:
		return "SQLITE_BUSY"
	case 6:
		return "SQLITE_LOCKED"
	case 8:
		return "SQLITE_READONLY"
	case 19:
		return "SQLITE_CONSTRAINT"
	default:
		return ""
	}
}

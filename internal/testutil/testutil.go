// Package testutil provides test utilities for dbpane tests.
package testutil

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ShopSchema creates the users/orders fixture used across packages.
var ShopSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total REAL NOT NULL,
		note TEXT
	)`,
	`INSERT INTO users (name, email) VALUES ('Alice', 'alice@example.com'), ('Bob', 'bob@example.com')`,
	`INSERT INTO orders (user_id, total, note) VALUES (1, 9.5, 'first'), (1, 20, NULL), (2, 3.25, 'gift')`,
}

// SQLiteDB creates dir/name and runs stmts against it. It returns the path.
func SQLiteDB(t *testing.T, dir, name string, stmts ...string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer db.Close()

	// Force the file into existence even without statements.
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to open %s: %v", name, err)
	}
	for _, stmt := range stmts {
		MustExec(t, db, stmt)
	}
	return path
}

// ShopDB creates a database with the ShopSchema fixture in a fresh temp dir.
func ShopDB(t *testing.T, name string) string {
	t.Helper()
	return SQLiteDB(t, t.TempDir(), name, ShopSchema...)
}

// MustExec executes SQL or fails the test.
func MustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("MustExec failed: %v\nQuery: %s", err, query)
	}
}

// OutputCapture is a helper for capturing CLI output.
type OutputCapture struct {
	Out bytes.Buffer
	Err bytes.Buffer
}

// Stdout returns captured stdout as string.
func (c *OutputCapture) Stdout() string {
	return c.Out.String()
}

// Stderr returns captured stderr as string.
func (c *OutputCapture) Stderr() string {
	return c.Err.String()
}

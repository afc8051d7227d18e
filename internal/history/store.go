// Package history keeps an append-only log of the queries run from dbpane.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) history.db in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		driver TEXT NOT NULL,
		target TEXT,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT REFERENCES sessions(id),
		database_name TEXT NOT NULL,
		query TEXT NOT NULL,
		duration_us INTEGER,
		rows INTEGER,
		error TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_query_history_session_id ON query_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_query_history_database ON query_history(database_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession inserts a session record.
func (s *Store) StartSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, driver, target, started_at) VALUES (?, ?, ?, ?)
	`, session.ID, session.Driver, session.Target, session.StartedAt.UTC())
	return err
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now().UTC(), sessionID)
	return err
}

// RecordQuery appends a query record.
func (s *Store) RecordQuery(ctx context.Context, record *QueryRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (session_id, database_name, query, duration_us, rows, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, nullString(record.SessionID), record.Database, record.Query, record.Duration.Microseconds(),
		record.Rows, nullString(record.Error), record.CreatedAt.UTC())
	if err != nil {
		return err
	}
	record.ID, _ = res.LastInsertId()
	return nil
}

// ListFilter narrows ListQueries.
type ListFilter struct {
	SessionID string
	Database  string
	Since     time.Time
	Limit     int
}

// ListQueries returns query records, newest first.
func (s *Store) ListQueries(ctx context.Context, f ListFilter) ([]*QueryRecord, error) {
	query := `SELECT id, session_id, database_name, query, duration_us, rows, error, created_at
		FROM query_history WHERE 1=1`
	args := make([]any, 0)

	if f.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.Database != "" {
		query += " AND database_name = ?"
		args = append(args, f.Database)
	}
	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.UTC())
	}

	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*QueryRecord
	for rows.Next() {
		var record QueryRecord
		var sessionID, errStr sql.NullString
		var durationUS int64

		if err := rows.Scan(&record.ID, &sessionID, &record.Database, &record.Query,
			&durationUS, &record.Rows, &errStr, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.SessionID = sessionID.String
		record.Error = errStr.String
		record.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, &record)
	}
	return records, rows.Err()
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	var target sql.NullString
	var ended sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, driver, target, started_at, ended_at FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Driver, &target, &session.StartedAt, &ended)
	if err != nil {
		return nil, err
	}
	session.Target = target.String
	if ended.Valid {
		session.EndedAt = ended.Time
	}
	return &session, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

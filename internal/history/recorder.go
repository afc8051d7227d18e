package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Recorder ties a Store to one session. Write failures are logged and never
// returned, so a broken history file can't interrupt browsing.
type Recorder struct {
	store   *Store
	session *Session
	log     zerolog.Logger
}

// NewRecorder starts a session in store and returns its recorder.
func NewRecorder(ctx context.Context, store *Store, session *Session, log zerolog.Logger) (*Recorder, error) {
	if err := store.StartSession(ctx, session); err != nil {
		return nil, err
	}
	return &Recorder{store: store, session: session, log: log}, nil
}

// SessionID returns the id of the recorded session.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// Record appends one executed query.
func (r *Recorder) Record(database, query string, took time.Duration, rows int64, queryErr error) {
	rec := &QueryRecord{
		SessionID: r.session.ID,
		Database:  database,
		Query:     query,
		Duration:  took,
		Rows:      rows,
	}
	if queryErr != nil {
		rec.Error = queryErr.Error()
	}
	if err := r.store.RecordQuery(context.Background(), rec); err != nil {
		r.log.Warn().Err(err).Str("database", database).Msg("failed to record query")
	}
}

// Close ends the session.
func (r *Recorder) Close() error {
	return r.store.EndSession(context.Background(), r.session.ID)
}

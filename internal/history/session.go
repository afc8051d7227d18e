package history

import (
	"time"

	"github.com/google/uuid"
)

// Session is one run of the interactive browser or one CLI query.
type Session struct {
	ID        string
	Driver    string
	Target    string // server address or data directory
	StartedAt time.Time
	EndedAt   time.Time // zero while running
}

// QueryRecord is one executed query.
type QueryRecord struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id,omitempty"`
	Database  string        `json:"database"`
	Query     string        `json:"query"`
	Duration  time.Duration `json:"duration_ns"`
	Rows      int64         `json:"rows"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Failed reports whether the query returned an error.
func (r *QueryRecord) Failed() bool {
	return r.Error != ""
}

// NewSession creates a session with a fresh id.
func NewSession(driver, target string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Driver:    driver,
		Target:    target,
		StartedAt: time.Now(),
	}
}

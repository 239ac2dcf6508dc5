// Package state records uploaded sessions and the outcome of every preview
// run in a SQLite database, so skipped steps can be inspected after the
// fact.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session or run does not exist.
var ErrNotFound = errors.New("not found")

// Session is an uploaded dataset.
type Session struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SampleRows int       `json:"sample_rows"`
	Bytes      int64     `json:"bytes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StepOutcome is the recorded result of one recipe step.
type StepOutcome struct {
	Position  int    `json:"position"`
	StepID    string `json:"step_id"`
	Operation string `json:"operation"`
	Column    string `json:"column"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Run is one preview evaluation.
type Run struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	StepCount  int           `json:"step_count"`
	Applied    int           `json:"applied"`
	Skipped    int           `json:"skipped"`
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Steps      []StepOutcome `json:"steps,omitempty"`
}

// Store is the persistence interface used by the engine and server.
type Store interface {
	UpsertSession(ctx context.Context, sess *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, sessionID string, limit int) ([]*Run, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

// Package engine is the service facade over storage, the interpreter, the
// compiler and the run log. It bounds concurrent previews and enforces the
// preview timeout.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/leapstack-labs/prima/internal/analyzer"
	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/compiler"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/interpreter"
	"github.com/leapstack-labs/prima/internal/recipe"
	"github.com/leapstack-labs/prima/internal/state"
	"github.com/leapstack-labs/prima/internal/storage"
)

// Defaults applied by New.
const (
	DefaultRowLimit      = 100
	DefaultTimeout       = 30 * time.Second
	DefaultMaxConcurrent = 4
)

// ErrTimeout is returned when a preview does not finish within the timeout.
var ErrTimeout = errors.New("preview timed out")

// Config holds engine configuration.
type Config struct {
	// Uploads is the session file store (required).
	Uploads *storage.Store
	// State records sessions and preview runs (optional).
	State state.Store
	// RowLimit caps the rows returned by a preview.
	RowLimit int
	// Timeout bounds one preview, including the wait for a slot.
	Timeout time.Duration
	// MaxConcurrent bounds previews evaluated at the same time.
	MaxConcurrent int64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine evaluates, exports and analyzes recipes for stored sessions.
type Engine struct {
	uploads  *storage.Store
	state    state.Store
	analyzer *analyzer.Analyzer
	sem      *semaphore.Weighted
	rowLimit int
	timeout  time.Duration
	logger   *slog.Logger

	// applyRecipe evaluates a recipe; interpreter.Apply outside tests.
	applyRecipe func(context.Context, *dataset.Dataset, *recipe.Recipe) (*interpreter.Result, error)
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Uploads == nil {
		return nil, errors.New("engine requires an upload store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = DefaultRowLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	logger.Debug("initializing engine",
		"upload_dir", cfg.Uploads.Root(),
		"row_limit", cfg.RowLimit,
		"timeout", cfg.Timeout,
		"max_concurrent", cfg.MaxConcurrent)

	return &Engine{
		uploads:     cfg.Uploads,
		state:       cfg.State,
		analyzer:    analyzer.New(logger),
		sem:         semaphore.NewWeighted(cfg.MaxConcurrent),
		rowLimit:    cfg.RowLimit,
		timeout:     cfg.Timeout,
		logger:      logger,
		applyRecipe: interpreter.New(logger).Apply,
	}, nil
}

// Options returns the operation catalog.
func (e *Engine) Options() []catalog.Operation {
	return catalog.List()
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Status        string `json:"status"`
	RowsProcessed int    `json:"rows_processed"`
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Upload stores a CSV for a session. An empty sessionID gets a new one.
func (e *Engine) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*UploadResponse, error) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	res, err := e.uploads.Save(ctx, sessionID, filename, r)
	if err != nil {
		return nil, err
	}

	if e.state != nil {
		sess := &state.Session{
			ID:         sessionID,
			Filename:   filename,
			SampleRows: res.RowsProcessed,
			Bytes:      res.Bytes,
		}
		if err := e.state.UpsertSession(ctx, sess); err != nil {
			e.logger.Warn("failed to record session", "session", sessionID, "error", err)
		}
	}

	return &UploadResponse{
		Status:        "success",
		RowsProcessed: res.RowsProcessed,
		SessionID:     sessionID,
		Message:       "File uploaded and sampled successfully.",
	}, nil
}

// Analyze describes the columns of a session sample.
func (e *Engine) Analyze(ctx context.Context, sessionID string) (*analyzer.Report, error) {
	path, err := e.uploads.SamplePath(sessionID)
	if err != nil {
		return nil, err
	}
	return e.analyzer.AnalyzeFile(ctx, path)
}

// AnalyzeFile describes the columns of a CSV file outside the upload store.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*analyzer.Report, error) {
	return e.analyzer.AnalyzeFile(ctx, path)
}

// Export compiles a recipe into a pandas script.
func (e *Engine) Export(r *recipe.Recipe) compiler.Export {
	return compiler.Compile(r).Export()
}

// Runs returns the recorded preview runs of a session, newest first.
func (e *Engine) Runs(ctx context.Context, sessionID string, limit int) ([]*state.Run, error) {
	if e.state == nil {
		return []*state.Run{}, nil
	}
	runs, err := e.state.ListRuns(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	return runs, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/interpreter"
	"github.com/leapstack-labs/prima/internal/recipe"
	"github.com/leapstack-labs/prima/internal/state"
	"github.com/leapstack-labs/prima/internal/storage"
)

// ErrUnreadableSample is returned when a session sample exists but cannot
// be parsed.
var ErrUnreadableSample = errors.New("could not read sample file")

// PreviewResponse is the transformed head of a dataset.
type PreviewResponse struct {
	Status  string                   `json:"status"`
	Rows    int                      `json:"rows"`
	Columns []string                 `json:"columns"`
	Data    []map[string]any         `json:"data"`
	Steps   []interpreter.StepResult `json:"steps"`

	// Dataset is the full transformed sample, for local callers.
	Dataset *dataset.Dataset `json:"-"`
}

// Preview applies r to the sample of r.SessionID.
func (e *Engine) Preview(ctx context.Context, r *recipe.Recipe) (*PreviewResponse, error) {
	if r == nil {
		r = &recipe.Recipe{}
	}
	ds, err := e.uploads.LoadSample(r.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSample, err)
	}
	return e.PreviewDataset(ctx, ds, r)
}

// PreviewDataset applies r to ds. The run is recorded under r.SessionID
// when a state store is configured.
func (e *Engine) PreviewDataset(ctx context.Context, ds *dataset.Dataset, r *recipe.Recipe) (*PreviewResponse, error) {
	if r == nil {
		r = &recipe.Recipe{}
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, e.timeoutError(err)
	}

	start := time.Now()
	res, err := e.apply(ctx, ds, r)
	elapsed := time.Since(start)
	if err != nil {
		err = e.timeoutError(err)
		e.record(ctx, r, nil, elapsed, err)
		return nil, err
	}
	e.record(ctx, r, res, elapsed, nil)

	e.logger.Debug("preview complete",
		"session", r.SessionID,
		"steps", len(res.Steps),
		"skipped", res.Skipped(),
		"rows", res.Rows,
		"duration", elapsed)

	return &PreviewResponse{
		Status:  "success",
		Rows:    res.Rows,
		Columns: res.Columns,
		Data:    res.Dataset.Records(e.rowLimit),
		Steps:   res.Steps,
		Dataset: res.Dataset,
	}, nil
}

type applyResult struct {
	res *interpreter.Result
	err error
}

// apply runs the recipe on a worker goroutine that owns the preview slot
// the caller acquired. It returns as soon as ctx is done, but the slot is
// only released once the interpreter has actually stopped.
func (e *Engine) apply(ctx context.Context, ds *dataset.Dataset, r *recipe.Recipe) (*interpreter.Result, error) {
	done := make(chan applyResult, 1)
	go func() {
		defer e.sem.Release(1)
		res, err := e.applyRecipe(ctx, ds, r)
		if ctx.Err() != nil {
			e.logger.Debug("abandoned preview stopped", "session", r.SessionID, "error", err)
		}
		done <- applyResult{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

func (e *Engine) timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
	return err
}

func (e *Engine) record(ctx context.Context, r *recipe.Recipe, res *interpreter.Result, elapsed time.Duration, runErr error) {
	if e.state == nil || r.SessionID == "" {
		return
	}

	run := &state.Run{
		SessionID:  r.SessionID,
		StepCount:  len(r.Steps),
		DurationMS: elapsed.Milliseconds(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if res != nil {
		run.Applied = res.Applied()
		run.Skipped = res.Skipped()
		run.Rows = res.Rows
		run.Columns = len(res.Columns)
		for i, s := range res.Steps {
			run.Steps = append(run.Steps, state.StepOutcome{
				Position:  i,
				StepID:    s.StepID,
				Operation: s.Operation,
				Column:    s.Column,
				Status:    string(s.Status),
				Reason:    s.Reason,
			})
		}
	}

	// The preview context may already be expired; the run is still logged.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.state.RecordRun(recordCtx, run); err != nil {
		e.logger.Warn("failed to record preview run", "session", r.SessionID, "error", err)
	}
}

// Package interpreter applies recipes to an in-memory dataset to produce a
// live preview.
//
// A recipe is folded step by step over an accumulator. Every step works on
// its own copy of the accumulator, so a step that fails leaves no partial
// state behind: the fold continues from the dataset as it was before the
// step, and the step is reported as skipped in the Result.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/recipe"
)

// Status is the outcome of one step.
type Status string

// Step outcomes.
const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
)

// StepResult reports what happened to one recipe step.
type StepResult struct {
	StepID    string `json:"step_id"`
	Operation string `json:"operation"`
	Column    string `json:"column,omitempty"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Result is the dataset left after the last step plus a per-step report.
type Result struct {
	Dataset *dataset.Dataset
	Rows    int
	Columns []string
	Steps   []StepResult
}

// Applied returns the number of steps that were applied.
func (r *Result) Applied() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StatusApplied {
			n++
		}
	}
	return n
}

// Skipped returns the number of steps that were skipped.
func (r *Result) Skipped() int {
	return len(r.Steps) - r.Applied()
}

// SkipError marks a step that could not be applied to the current dataset.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return e.Reason }

func skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// Interpreter applies recipes. It holds no per-recipe state and is safe for
// concurrent use.
type Interpreter struct {
	logger *slog.Logger
}

// New creates an interpreter. A nil logger discards output.
func New(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Interpreter{logger: logger}
}

// Apply folds the recipe over a copy of ds. The input dataset is never
// modified. Apply only fails when ctx is done; step failures are reported in
// Result.Steps instead.
func (in *Interpreter) Apply(ctx context.Context, ds *dataset.Dataset, r *recipe.Recipe) (*Result, error) {
	acc := ds.Clone()
	res := &Result{}
	if r != nil {
		res.Steps = make([]StepResult, 0, len(r.Steps))
	}

	for _, step := range stepsOf(r) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr := StepResult{
			StepID:    step.ID,
			Operation: step.Operation,
			Column:    step.TargetColumn(),
			Status:    StatusApplied,
		}

		next, err := in.applyStep(ctx, acc, step)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			sr.Status = StatusSkipped
			sr.Reason = err.Error()
			in.logger.Info("skipping step",
				"step", step.ID,
				"operation", step.Operation,
				"column", sr.Column,
				"reason", sr.Reason)
		} else {
			acc = next
			in.logger.Debug("applied step",
				"step", step.ID,
				"operation", step.Operation,
				"rows", acc.NumRows(),
				"cols", acc.NumCols())
		}
		res.Steps = append(res.Steps, sr)
	}

	acc.SanitizeNonFinite()
	res.Dataset = acc
	res.Rows = acc.NumRows()
	res.Columns = acc.Names()
	return res, nil
}

func stepsOf(r *recipe.Recipe) []recipe.Step {
	if r == nil {
		return nil
	}
	return r.Steps
}

func (in *Interpreter) applyStep(ctx context.Context, acc *dataset.Dataset, step recipe.Step) (out *dataset.Dataset, err error) {
	op, ok := catalog.Lookup(step.Operation)
	if !ok {
		return nil, skipf("unknown operation %q", step.Operation)
	}
	if op.CompileOnly {
		return nil, skipf("%s only applies to exported scripts", op.ID)
	}
	apply, ok := appliers[op.ID]
	if !ok {
		return nil, skipf("%s has no preview implementation", op.ID)
	}

	col := step.TargetColumn()
	if op.NeedsColumn() {
		if col == "" {
			return nil, skipf("no target column")
		}
		if !acc.Has(col) {
			return nil, skipf("column %q not found", col)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s failed: %v", op.ID, r)
		}
	}()

	work := acc.Clone()
	sc := &stepContext{ctx: ctx, step: step, col: col, logger: in.logger}
	if err := apply(work, sc); err != nil {
		var skip *SkipError
		if errors.As(err, &skip) {
			return nil, skip
		}
		return nil, fmt.Errorf("%s failed: %w", op.ID, err)
	}
	return work, nil
}

// stepContext carries what an applier needs besides the dataset.
type stepContext struct {
	ctx    context.Context
	step   recipe.Step
	col    string
	logger *slog.Logger
}

// checkEvery is how many loop iterations an applier runs between
// cancellation checks.
const checkEvery = 1024

// interrupted returns the context error on every checkEvery-th iteration i.
// Long-running appliers call it from their hot loops.
func (sc *stepContext) interrupted(i int) error {
	if i%checkEvery != 0 {
		return nil
	}
	return sc.ctx.Err()
}

func (sc *stepContext) decode(out any) error {
	if err := catalog.Decode(sc.step.Op(), sc.step.Params, out); err != nil {
		return &SkipError{Reason: err.Error()}
	}
	return nil
}

// applyFunc mutates ds in place. ds is a private copy of the accumulator.
type applyFunc func(ds *dataset.Dataset, sc *stepContext) error

var appliers = map[catalog.Op]applyFunc{
	catalog.DropColumn:         dropColumn,
	catalog.DropDuplicates:     dropDuplicates,
	catalog.DropOutliersZScore: dropOutliersZScore,
	catalog.DropOutliersManual: dropOutliersManual,

	catalog.FillNAMean:    fillNAMean,
	catalog.FillNAMedian:  fillNAMedian,
	catalog.FillNAMode:    fillNAMode,
	catalog.FillNAConst:   fillNAConst,
	catalog.FillNAKNN:     fillNAKNN,
	catalog.FillNAGroupBy: fillNAGroupBy,

	catalog.ExtractDateParts: extractDateParts,

	catalog.BinNumeric:         binNumeric,
	catalog.LogTransform:       logTransform,
	catalog.BoxCoxTransform:    boxCoxTransform,
	catalog.CreateInteraction:  createInteraction,
	catalog.PolynomialFeatures: polynomialFeatures,

	catalog.StandardScaler: standardScaler,
	catalog.MinMaxScaler:   minMaxScaler,
	catalog.RobustScaler:   robustScaler,
	catalog.MaxAbsScaler:   maxAbsScaler,

	catalog.OneHotEncode:  oneHotEncode,
	catalog.LabelEncode:   labelEncode,
	catalog.OrdinalEncode: ordinalEncode,
	catalog.TargetEncode:  targetEncode,
}

// numeric returns the named column when it holds numbers.
func numeric(ds *dataset.Dataset, name string) (*dataset.Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, skipf("column %q not found", name)
	}
	if !c.IsNumeric() {
		return nil, skipf("column %q is %s, not numeric", name, c.Kind)
	}
	return c, nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/catalog"
	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/interpreter"
	"github.com/leapstack-labs/prima/internal/recipe"
)

// Severity levels, most severe first.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

var severityRank = map[string]int{SeverityError: 0, SeverityWarning: 1, SeverityInfo: 2}

// LintOptions holds options for the lint command.
type LintOptions struct {
	File     string   // Local CSV to check the recipe against
	Disable  []string // Rule IDs to disable
	Severity string   // Minimum severity: error, warning, info
}

// Diagnostic is one lint finding on a recipe step.
type Diagnostic struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Step     int    `json:"step"` // 1-based position, 0 for the whole recipe
	StepID   string `json:"step_id,omitempty"`
	Message  string `json:"message"`
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint <recipe>",
		Short: "Check a recipe for steps that will be ignored or skipped",
		Long: `Check a recipe without uploading anything.

Rules:
  R01  unknown operation (ignored by preview and export)
  R02  operation needs a column but none is given
  R03  duplicate step id
  R04  parameter not defined by the operation
  R05  operation only appears in the exported script
  R06  step is skipped on the --file sample

The command fails when any error-level finding remains.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Static checks only
  prima lint recipe.yaml

  # Also apply the recipe to a local CSV
  prima lint recipe.yaml --file data.csv

  # Only report errors
  prima lint recipe.yaml --severity error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Local CSV to check the recipe against")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", SeverityInfo, "Minimum severity: error, warning, info")

	return cmd
}

func runLint(cmd *cobra.Command, recipePath string, opts *LintOptions) error {
	if _, ok := severityRank[opts.Severity]; !ok {
		return fmt.Errorf("invalid severity %q (want error, warning or info)", opts.Severity)
	}

	rec, err := recipe.LoadFile(recipePath)
	if err != nil {
		return err
	}

	diags := lintRecipe(rec)

	var r *output.Renderer
	if opts.File != "" {
		cc, cleanup, err := NewCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		r = cc.Renderer

		ds, err := dataset.ReadCSVFile(opts.File, cc.Cfg.Storage.SampleRows)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.File, err)
		}
		local := *rec
		local.SessionID = ""
		resp, err := cc.Engine.PreviewDataset(cmd.Context(), ds, &local)
		if err != nil {
			return err
		}
		diags = append(diags, skippedDiagnostics(rec, resp.Steps)...)
	} else {
		r = NewCommandContextWithoutEngine(cmd).Renderer
	}

	diags = filterDiagnostics(diags, opts.Disable, opts.Severity)
	errorCount := renderLintResults(r, recipePath, diags)
	if errorCount > 0 {
		return fmt.Errorf("lint found %d error(s)", errorCount)
	}
	return nil
}

// lintRecipe runs the static rules against rec.
func lintRecipe(rec *recipe.Recipe) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]int)

	for i, step := range rec.Steps {
		pos := i + 1
		add := func(rule, severity, format string, args ...any) {
			diags = append(diags, Diagnostic{
				RuleID:   rule,
				Severity: severity,
				Step:     pos,
				StepID:   step.ID,
				Message:  fmt.Sprintf(format, args...),
			})
		}

		if step.ID != "" {
			if first, dup := seen[step.ID]; dup {
				add("R03", SeverityWarning, "step id %q already used by step %d", step.ID, first)
			} else {
				seen[step.ID] = pos
			}
		}

		op, ok := catalog.Lookup(step.Operation)
		if !ok {
			add("R01", SeverityWarning, "unknown operation %q is ignored", step.Operation)
			continue
		}

		if op.NeedsColumn() && step.TargetColumn() == "" {
			add("R02", SeverityError, "%s needs a column", op.ID)
		}

		for name := range step.Params {
			if name == "col" {
				continue
			}
			if _, ok := op.Param(name); !ok {
				add("R04", SeverityWarning, "%s has no parameter %q", op.ID, name)
			}
		}

		if op.CompileOnly {
			add("R05", SeverityInfo, "%s only appears in the exported script", op.ID)
		}
	}

	return diags
}

// skippedDiagnostics turns skipped step results into R06 findings. Results
// are matched to steps by id, then by label.
func skippedDiagnostics(rec *recipe.Recipe, results []interpreter.StepResult) []Diagnostic {
	var diags []Diagnostic
	for _, res := range results {
		if res.Status != interpreter.StatusSkipped {
			continue
		}
		pos := 0
		for i, step := range rec.Steps {
			if (res.StepID != "" && step.ID == res.StepID) || (res.StepID == "" && step.Operation == res.Operation && step.TargetColumn() == res.Column) {
				pos = i + 1
				break
			}
		}
		diags = append(diags, Diagnostic{
			RuleID:   "R06",
			Severity: SeverityError,
			Step:     pos,
			StepID:   res.StepID,
			Message:  fmt.Sprintf("%s is skipped on the sample: %s", stepLabel(res), res.Reason),
		})
	}
	return diags
}

func filterDiagnostics(diags []Diagnostic, disable []string, minSeverity string) []Diagnostic {
	disabled := make(map[string]bool, len(disable))
	for _, id := range disable {
		disabled[strings.ToUpper(strings.TrimSpace(id))] = true
	}

	threshold := severityRank[minSeverity]
	out := diags[:0]
	for _, d := range diags {
		if disabled[d.RuleID] || severityRank[d.Severity] > threshold {
			continue
		}
		out = append(out, d)
	}
	return out
}

// renderLintResults prints diags and returns the number of errors.
func renderLintResults(r *output.Renderer, path string, diags []Diagnostic) int {
	errorCount := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			errorCount++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if diags == nil {
			diags = []Diagnostic{}
		}
		_ = r.JSON(map[string]any{"path": path, "diagnostics": diags, "errors": errorCount})
		return errorCount
	}

	if len(diags) == 0 {
		r.Success(fmt.Sprintf("%s: no issues found", path))
		return 0
	}

	r.Header(1, fmt.Sprintf("Lint: %s (%d issues)", path, len(diags)))
	for _, d := range diags {
		status := "warning"
		if d.Severity == SeverityError {
			status = "error"
		}
		where := "recipe"
		if d.Step > 0 {
			where = fmt.Sprintf("step %d", d.Step)
		}
		r.StatusLine(fmt.Sprintf("%s %s", d.RuleID, where), status, d.Message)
	}
	return errorCount
}

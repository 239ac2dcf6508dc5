package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/dataset"
	"github.com/leapstack-labs/prima/internal/engine"
	"github.com/leapstack-labs/prima/internal/interpreter"
	"github.com/leapstack-labs/prima/internal/recipe"
	"github.com/leapstack-labs/prima/internal/storage"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	File    string
	Session string
	Watch   bool
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview <recipe>",
		Short: "Apply a recipe to a sample and show the result",
		Long: `Apply a recipe (.json, .yaml or .yml) to the sample of an uploaded session
or to a local CSV file, then show each step's outcome and the first rows of
the result.

Steps that cannot be applied are reported as skipped; the remaining steps
still run.`,
		Example: `  # Preview against the session named in the recipe
  prima preview recipe.yaml

  # Preview against a local CSV
  prima preview recipe.yaml --file data.csv

  # Re-run whenever the recipe is saved
  prima preview recipe.yaml --file data.csv --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Local CSV to preview against instead of a session")
	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "Session id (overrides the recipe's session_id)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the preview when the recipe file changes")
	addPreviewFlags(cmd)
	cmd.Flags().Int("sample-rows", 0, "Rows read from --file (default: 1000)")

	return cmd
}

func runPreview(cmd *cobra.Command, recipePath string, opts *PreviewOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !opts.Watch {
		return previewOnce(cmd.Context(), cc, recipePath, opts)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newRecipeWatcher(recipePath, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	rerun := func() {
		if err := previewOnce(ctx, cc, recipePath, opts); err != nil {
			cc.Renderer.Error(err.Error())
		}
	}
	rerun()
	cc.Renderer.Muted(fmt.Sprintf("Watching %s for changes. Press Ctrl+C to stop", recipePath))
	return w.Run(ctx, rerun)
}

func previewOnce(ctx context.Context, cc *CommandContext, recipePath string, opts *PreviewOptions) error {
	rec, err := recipe.LoadFile(recipePath)
	if err != nil {
		return err
	}
	if opts.Session != "" {
		rec.SessionID = opts.Session
	}

	var resp *engine.PreviewResponse
	if opts.File != "" {
		ds, err := dataset.ReadCSVFile(opts.File, cc.Cfg.Storage.SampleRows)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.File, err)
		}
		// Local previews are not tied to a session and are not logged.
		local := *rec
		local.SessionID = ""
		resp, err = cc.Engine.PreviewDataset(ctx, ds, &local)
		if err != nil {
			return err
		}
	} else {
		if rec.SessionID == "" {
			return errors.New("recipe has no session_id; pass --session or --file")
		}
		resp, err = cc.Engine.Preview(ctx, rec)
		if errors.Is(err, storage.ErrSessionNotFound) {
			return fmt.Errorf("session %q not found in %s: %w", rec.SessionID, cc.Cfg.UploadDir, err)
		}
		if err != nil {
			return err
		}
	}

	return renderPreview(cc.Renderer, resp)
}

func renderPreview(r *output.Renderer, resp *engine.PreviewResponse) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(resp)
	}

	r.Header(1, "Preview")
	r.Println(output.FormatKeyValue("Rows", strconv.Itoa(resp.Rows)))
	r.Println(output.FormatKeyValue("Columns", strings.Join(resp.Columns, ", ")))
	r.Println("")

	if len(resp.Steps) > 0 {
		r.Header(2, "Steps")
		for _, s := range resp.Steps {
			r.StatusLine(stepLabel(s), string(s.Status), s.Reason)
		}
		r.Println("")
	}

	r.Header(2, fmt.Sprintf("Data (first %d rows)", len(resp.Data)))
	rows := make([][]string, len(resp.Data))
	for i, rec := range resp.Data {
		row := make([]string, len(resp.Columns))
		for j, col := range resp.Columns {
			row[j] = formatCell(rec[col])
		}
		rows[i] = row
	}
	r.Table(resp.Columns, rows)
	return nil
}

func stepLabel(s interpreter.StepResult) string {
	if s.Column == "" {
		return s.Operation
	}
	return s.Operation + "(" + s.Column + ")"
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return dataset.FormatNumber(x)
	default:
		return fmt.Sprint(x)
	}
}

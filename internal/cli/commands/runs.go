package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <session-id>",
		Short: "Show recent preview runs of a session",
		Long: `Show the preview runs recorded for a session, newest first, including how
many steps were skipped.`,
		Example: `  prima runs my-session
  prima runs my-session --limit 5 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func runRuns(cmd *cobra.Command, sessionID string, limit int) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cc.Engine.Runs(cmd.Context(), sessionID, limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"runs": runs})
	}

	r.Header(1, fmt.Sprintf("Runs for %s (%d)", sessionID, len(runs)))
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(run.StepCount),
			strconv.Itoa(run.Applied),
			strconv.Itoa(run.Skipped),
			fmt.Sprintf("%dx%d", run.Rows, run.Columns),
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
			run.Error,
		}
	}
	r.Table([]string{"when", "steps", "applied", "skipped", "shape", "duration", "error"}, rows)
	return nil
}

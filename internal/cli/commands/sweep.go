package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/scheduler"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired upload sessions now",
		Long: `Delete upload sessions whose directory was last modified longer ago than
the retention period, and forget their preview runs. The server does this
on a schedule; this command runs one sweep immediately.`,
		Example: `  prima sweep
  prima sweep --retention 1h --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List expired sessions without deleting them")
	cmd.Flags().Duration("retention", 0, "Age after which sessions are deleted (default: 24h)")

	return cmd
}

func runSweep(cmd *cobra.Command, dryRun bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cc.Renderer
	retention := cc.Cfg.Storage.Retention

	var ids []string
	if dryRun {
		sessions, err := cc.Uploads.List()
		if err != nil {
			return err
		}
		now := time.Now()
		for _, s := range sessions {
			if now.Sub(s.Modified) > retention {
				ids = append(ids, s.ID)
			}
		}
	} else {
		sched, err := scheduler.New(scheduler.Config{
			Schedule:  cc.Cfg.Storage.SweepSchedule,
			Retention: retention,
			Logger:    cc.Logger,
		}, cc.Uploads, cc.State)
		if err != nil {
			return err
		}
		ids, err = sched.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if ids == nil {
			ids = []string{}
		}
		return r.JSON(map[string]any{"dry_run": dryRun, "retention": retention.String(), "sessions": ids})
	}

	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	r.Success(fmt.Sprintf("%s %d session(s) older than %s", verb, len(ids), retention))
	for _, id := range ids {
		r.Println("  " + id)
	}
	return nil
}

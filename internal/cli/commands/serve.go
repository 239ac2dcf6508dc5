package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/scheduler"
	"github.com/leapstack-labs/prima/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Prima HTTP API.

The server accepts CSV uploads, previews recipes against the stored sample,
exports recipes as pandas scripts and reports column statistics. Expired
upload sessions are swept in the background on the configured schedule.`,
		Example: `  # Start on the default port (8000)
  prima serve

  # Custom port and a second allowed origin
  prima serve --port 9000 --allowed-origins http://localhost:5173,https://app.example

  # Keep uploads for a week, sweep nightly
  prima serve --retention 168h --sweep-schedule "0 3 * * *"`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8000)")
	cmd.Flags().StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")
	cmd.Flags().Int("max-upload-mb", 0, "Largest accepted upload in MB (default: 200)")
	addPreviewFlags(cmd)
	addStorageFlags(cmd)
	cmd.Flags().String("sweep-schedule", "", `Cron schedule of the retention sweep (default: "@every 1h")`)

	return cmd
}

// addPreviewFlags registers the preview bounds shared by serve and preview.
func addPreviewFlags(cmd *cobra.Command) {
	cmd.Flags().Int("row-limit", 0, "Rows returned by a preview (default: 100)")
	cmd.Flags().Duration("timeout", 0, "Preview timeout (default: 30s)")
	cmd.Flags().Int("max-concurrent", 0, "Previews evaluated at the same time (default: 4)")
}

// addStorageFlags registers upload sampling and retention flags.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("sample-rows", 0, "Rows copied into an upload sample (default: 1000)")
	cmd.Flags().Duration("retention", 0, "Age after which upload sessions are swept (default: 24h)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cc.Cfg
	srv, err := server.New(server.Config{
		Engine:         cc.Engine,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         cc.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sweeper, err := scheduler.New(scheduler.Config{
		Schedule:  cfg.Storage.SweepSchedule,
		Retention: cfg.Storage.Retention,
		Logger:    cc.Logger,
	}, cc.Uploads, cc.State)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc.Logger.Info("storage ready",
		"upload_dir", cfg.UploadDir,
		"state", cfg.StatePath,
		"retention", cfg.Storage.Retention)

	r := cc.Renderer
	r.Printf("Prima API listening on http://localhost:%d\n", cfg.Server.Port)
	r.Muted("Press Ctrl+C to stop")

	return srv.Serve(ctx, func(ctx context.Context) error {
		// Sweep once at startup, then on schedule.
		if _, err := sweeper.RunOnce(ctx); err != nil {
			cc.Logger.Warn("initial sweep failed", "error", err)
		}
		return sweeper.Run(ctx)
	})
}

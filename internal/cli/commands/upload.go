package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
)

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Store a CSV as an upload session",
		Long: `Store a local CSV in the upload directory and write its sample, the same
way the HTTP upload endpoint does. A session id is generated unless
--session is given; uploading to an existing session replaces its data.`,
		Example: `  prima upload data.csv
  prima upload data.csv --session my-session`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], session)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id (default: generated)")
	cmd.Flags().Int("sample-rows", 0, "Rows copied into the sample (default: 1000)")

	return cmd
}

func runUpload(cmd *cobra.Command, path, session string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(path) //nolint:gosec // path comes from the CLI user
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	resp, err := cc.Engine.Upload(cmd.Context(), session, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(resp)
	}
	r.Success(fmt.Sprintf("Uploaded %s as session %s (%d sample rows)", filepath.Base(path), resp.SessionID, resp.RowsProcessed))
	return nil
}

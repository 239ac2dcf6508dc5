package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/config"
	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/engine"
	"github.com/leapstack-labs/prima/internal/state"
	"github.com/leapstack-labs/prima/internal/storage"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Uploads  *storage.Store
	State    *state.SQLiteStore
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the upload store, the
// state store, an engine and a renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	uploads, err := storage.New(cc.Cfg.UploadDir, cc.Cfg.Storage.SampleRows, cc.Logger)
	if err != nil {
		return nil, nil, err
	}

	st, err := openState(cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Uploads:       uploads,
		State:         st,
		RowLimit:      cc.Cfg.Preview.RowLimit,
		Timeout:       cc.Cfg.Preview.Timeout,
		MaxConcurrent: int64(cc.Cfg.Preview.MaxConcurrent),
		Logger:        cc.Logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	cc.Uploads = uploads
	cc.State = st
	cc.Engine = eng

	cleanup := func() {
		_ = st.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without stores.
// Useful for commands that only compile or list.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

func openState(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	// Ensure state directory exists
	stateDir := filepath.Dir(path)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	st := state.NewSQLiteStore(logger)
	if err := st.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return st, nil
}

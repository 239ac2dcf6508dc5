package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/prima/internal/scheduler"
)

var validOutputs = map[string]bool{"": true, "auto": true, "text": true, "markdown": true, "json": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" {
		return fmt.Errorf("upload_dir is required")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Preview.RowLimit <= 0 {
		return fmt.Errorf("preview.row_limit must be positive")
	}
	if c.Preview.Timeout <= 0 {
		return fmt.Errorf("preview.timeout must be positive")
	}
	if c.Preview.MaxConcurrent <= 0 {
		return fmt.Errorf("preview.max_concurrent must be positive")
	}
	if c.Storage.SampleRows <= 0 {
		return fmt.Errorf("storage.sample_rows must be positive")
	}
	if c.Storage.Retention <= 0 {
		return fmt.Errorf("storage.retention must be positive")
	}
	if _, err := scheduler.ParseSchedule(c.Storage.SweepSchedule); err != nil {
		return fmt.Errorf("invalid storage.sweep_schedule %q: %w", c.Storage.SweepSchedule, err)
	}
	return nil
}

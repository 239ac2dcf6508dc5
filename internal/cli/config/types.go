// Package config provides configuration management for the Prima CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/prima/internal/engine"
	"github.com/leapstack-labs/prima/internal/scheduler"
	"github.com/leapstack-labs/prima/internal/storage"
)

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Port           int      `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxUploadMB    int      `koanf:"max_upload_mb"`
}

// PreviewConfig bounds recipe previews.
type PreviewConfig struct {
	RowLimit      int           `koanf:"row_limit"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxConcurrent int           `koanf:"max_concurrent"`
}

// StorageConfig controls upload sampling and retention.
type StorageConfig struct {
	SampleRows    int           `koanf:"sample_rows"`
	Retention     time.Duration `koanf:"retention"`
	SweepSchedule string        `koanf:"sweep_schedule"`
}

// Config holds all CLI configuration options.
type Config struct {
	UploadDir    string        `koanf:"upload_dir"`
	StatePath    string        `koanf:"state_path"`
	LogLevel     string        `koanf:"log_level"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Server       ServerConfig  `koanf:"server"`
	Preview      PreviewConfig `koanf:"preview"`
	Storage      StorageConfig `koanf:"storage"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Default configuration values.
const (
	DefaultUploadDir   = "temp_uploads"
	DefaultStateFile   = ".prima/state.db"
	DefaultLogLevel    = "info"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort        = 8000
	DefaultMaxUploadMB = 200
	DefaultOrigin      = "http://localhost:5173"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		UploadDir:    DefaultUploadDir,
		StatePath:    DefaultStateFile,
		LogLevel:     DefaultLogLevel,
		OutputFormat: DefaultOutput,
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{DefaultOrigin},
			MaxUploadMB:    DefaultMaxUploadMB,
		},
		Preview: PreviewConfig{
			RowLimit:      engine.DefaultRowLimit,
			Timeout:       engine.DefaultTimeout,
			MaxConcurrent: engine.DefaultMaxConcurrent,
		},
		Storage: StorageConfig{
			SampleRows:    storage.DefaultSampleRows,
			Retention:     scheduler.DefaultRetention,
			SweepSchedule: scheduler.DefaultSchedule,
		},
	}
}

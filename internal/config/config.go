package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config is the root configuration for the Carbonara core.
type Config struct {
	Core     CoreConfig     `mapstructure:"core" yaml:"core" validate:"required"`
	Database DBConfig       `mapstructure:"database" yaml:"database" validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir     string `mapstructure:"home_dir" yaml:"home_dir"`
	ProjectPath string `mapstructure:"project_path" yaml:"project_path"`
	VenvDir     string `mapstructure:"venv_dir" yaml:"venv_dir"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains tool-state database configuration.
type DBConfig struct {
	Path    string        `mapstructure:"path" yaml:"path"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	WALMode bool          `mapstructure:"wal_mode" yaml:"wal_mode"`
}

// CatalogConfig selects the tool catalog source. An empty path means the
// embedded default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AnalysisConfig bounds tool execution.
type AnalysisConfig struct {
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout" validate:"min=1s"`
	InstallTimeout time.Duration `mapstructure:"install_timeout" yaml:"install_timeout" validate:"min=1s"`
	RunTimeout     time.Duration `mapstructure:"run_timeout" yaml:"run_timeout" validate:"min=1s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// NewLogger builds the process-wide slog logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if c.Core.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

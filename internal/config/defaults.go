package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir:     homeDir,
			ProjectPath: ".",
			VenvDir:     filepath.Join(homeDir, "venvs"),
			Debug:       false,
		},
		Database: DBConfig{
			Path:    filepath.Join(homeDir, "carbonara.db"),
			Timeout: 30 * time.Second,
			WALMode: true,
		},
		Catalog: CatalogConfig{
			Path: "",
		},
		Analysis: AnalysisConfig{
			ProbeTimeout:   10 * time.Second,
			InstallTimeout: 5 * time.Minute,
			RunTimeout:     10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}

// DefaultConfigPath is where LoadWithDefaults looks when the caller passes
// no explicit path.
func DefaultConfigPath() string {
	return filepath.Join(getDefaultHomeDir(), "config.yaml")
}

func getDefaultHomeDir() string {
	if dir := os.Getenv("CARBONARA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".carbonara"
	}
	return filepath.Join(home, ".carbonara")
}

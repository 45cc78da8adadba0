package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/config"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/registry"
	"github.com/climateandtech/carbonara-sub002/internal/state"
)

var (
	configFile  string
	projectPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "carbonara",
	Short: "Carbonara - sustainability analysis tool runner",
	Long: `Carbonara manages a catalog of code analysis tools (linters,
carbon scanners, quality scanners), detects and installs them per
ecosystem, runs them against a project, and normalizes their output
into a uniform finding model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default $CARBONARA_HOME/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", "", "Project directory to analyze (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(toolCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadAppConfig resolves the effective configuration from flags, environment
// and the optional config file.
func loadAppConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}

	if projectPath != "" {
		cfg.Core.ProjectPath = projectPath
	}
	if verbose {
		cfg.Core.Debug = true
	}
	return cfg, nil
}

// buildRegistry wires the full registry from configuration. The returned
// close function releases the state database.
func buildRegistry(cfg *config.Config) (*registry.Registry, func() error, error) {
	var cat *catalog.Catalog
	var err error
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
	} else {
		cat, err = catalog.LoadDefault()
	}
	if err != nil {
		return nil, nil, err
	}

	store, err := state.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	reg := registry.New(cat, store, proc.NewRunner(), registry.Options{
		ProjectPath:    cfg.Core.ProjectPath,
		VenvBaseDir:    cfg.Core.VenvDir,
		ProbeTimeout:   cfg.Analysis.ProbeTimeout,
		InstallTimeout: cfg.Analysis.InstallTimeout,
		AnalyzeTimeout: cfg.Analysis.RunTimeout,
		Logger:         cfg.NewLogger(),
	})
	return reg, store.Close, nil
}

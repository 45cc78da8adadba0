package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and tool readiness",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cmd.Printf("Home:     %s\n", cfg.Core.HomeDir)
	cmd.Printf("Project:  %s\n", cfg.Core.ProjectPath)
	cmd.Printf("State DB: %s\n", cfg.Database.Path)
	cmd.Println()

	statuses := reg.ListTools(cmd.Context())
	ready := 0
	for _, s := range statuses {
		if s.CanRun {
			ready++
		}
	}
	cmd.Printf("Tools: %d in catalog, %d ready to run\n", len(statuses), ready)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, s := range statuses {
		marker := " "
		if s.CanRun {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %s\t%s\n", marker, s.ID, s.Name)
	}
	return w.Flush()
}

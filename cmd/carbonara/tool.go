package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Manage analysis tools",
	Long:  `List, inspect, and install the analysis tools in the catalog`,
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all catalog tools with their status",
	RunE:  runToolList,
}

var toolShowCmd = &cobra.Command{
	Use:   "show TOOL_ID",
	Short: "Show detailed tool information",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolShow,
}

var toolInstallCmd = &cobra.Command{
	Use:   "install TOOL_ID",
	Short: "Install a tool from the catalog",
	Long: `Install a tool using its ecosystem's strategy: npm for JavaScript
packages, pip inside an isolated environment for Python packages, the
declared command for binaries and container images.`,
	Args: cobra.ExactArgs(1),
	RunE: runToolInstall,
}

var toolLogCmd = &cobra.Command{
	Use:   "log TOOL_ID",
	Short: "Show a tool's install and analysis history",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolLog,
}

func init() {
	toolCmd.AddCommand(toolListCmd)
	toolCmd.AddCommand(toolShowCmd)
	toolCmd.AddCommand(toolInstallCmd)
	toolCmd.AddCommand(toolLogCmd)
}

func runToolList(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	statuses := reg.ListTools(cmd.Context())
	if len(statuses) == 0 {
		cmd.Println("No tools in catalog.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tECOSYSTEM\tINSTALLED\tRUNNABLE")
	fmt.Fprintln(w, "--\t----\t---------\t---------\t--------")
	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Ecosystem, yesNo(s.Installed), yesNo(s.CanRun))
	}
	return w.Flush()
}

func runToolShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	desc, err := reg.Catalog().Get(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:          %s\n", desc.ID)
	cmd.Printf("Name:        %s\n", desc.Name)
	cmd.Printf("Description: %s\n", desc.Description)
	cmd.Printf("Ecosystem:   %s\n", desc.Installation.Type)
	if desc.Installation.Package != "" {
		cmd.Printf("Package:     %s\n", desc.Installation.Package)
	}
	if desc.Command.Executable != "" {
		cmd.Printf("Command:     %s %v\n", desc.Command.Executable, desc.Command.Args)
	}
	if len(desc.Parameters) > 0 {
		cmd.Println("Parameters:")
		for _, p := range desc.Parameters {
			required := ""
			if p.Required {
				required = " (required)"
			}
			cmd.Printf("  - %s: %s%s\n", p.Name, p.Type, required)
		}
	}
	if len(desc.Prerequisites) > 0 {
		cmd.Println("Prerequisites:")
		for _, p := range desc.Prerequisites {
			cmd.Printf("  - %s\n", p.Name)
		}
	}
	return nil
}

func runToolInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	toolID := args[0]
	cmd.Printf("Installing %s...\n", toolID)

	result, err := reg.Install(cmd.Context(), toolID)
	if err != nil {
		if result.Instructions != "" {
			cmd.PrintErrf("Manual installation: %s\n", result.Instructions)
		}
		return err
	}

	cmd.Println(result.Message)
	return nil
}

func runToolLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := reg.Log(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("No recorded actions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tEXIT\tCOMMAND")
	for _, e := range entries {
		exit := "-"
		if e.ExitCode != nil {
			exit = fmt.Sprintf("%d", *e.ExitCode)
		}
		detail := e.Command
		if e.Error != "" {
			detail = fmt.Sprintf("%s (%s)", detail, e.Error)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, exit, detail)
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/climateandtech/carbonara-sub002/internal/finding"
	"github.com/climateandtech/carbonara-sub002/internal/normalize"
)

var (
	analyzeParams []string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TOOL_ID",
	Short: "Run an analysis tool and normalize its findings",
	Long: `Run the named catalog tool against the project, parse its raw
output, and print the normalized findings.

Tool parameters are passed with repeated --set flags:
  carbonara analyze ecocode-semgrep --set rulesDir=./rules --set target=src`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeParams, "set", nil, "Tool parameter as key=value (repeatable)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full normalized report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	params, err := parseParams(analyzeParams)
	if err != nil {
		return err
	}
	if _, ok := params["target"]; !ok {
		params["target"] = cfg.Core.ProjectPath
	}

	report, err := reg.Analyze(cmd.Context(), args[0], params)
	if err != nil {
		return err
	}

	if analyzeJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	printReport(cmd, report)
	return nil
}

// parseParams converts key=value pairs into typed parameter values. Booleans
// and numbers keep their type so manifest instantiation can preserve it.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = typedValue(value)
	}
	return params, nil
}

func typedValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func printReport(cmd *cobra.Command, report *normalize.Report) {
	if len(report.Findings) == 0 {
		cmd.Printf("%s: no findings.\n", report.Tool)
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tCATEGORY\tFILE\tMESSAGE")
	for _, f := range report.Findings {
		location := f.FilePath
		if f.Location != nil {
			location = fmt.Sprintf("%s:%d", f.FilePath, f.Location.StartLine)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Severity, f.Category, location, f.Message)
	}
	w.Flush()

	cmd.Println()
	printStatsSummary(cmd, report.Stats)
}

func printStatsSummary(cmd *cobra.Command, stats finding.Stats) {
	cmd.Printf("%d findings across %d files (critical: %d, high: %d, medium: %d, low: %d)\n",
		stats.TotalFindings, stats.FilesScanned,
		stats.CriticalFindings, stats.HighFindings,
		stats.MediumFindings, stats.LowFindings)
}

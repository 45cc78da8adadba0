package registry

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/finding"
	"github.com/climateandtech/carbonara-sub002/internal/normalize"
	"github.com/climateandtech/carbonara-sub002/internal/state"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// builtinAnalyzers is the closed set of analyzers implemented in-process.
// Dispatch is an explicit map lookup keyed by descriptor id, matching how
// custom parsers are resolved.
var builtinAnalyzers = map[string]func(projectPath string) (*normalize.Report, error){
	"project-stats": analyzeProjectStats,
}

func (r *Registry) analyzeBuiltIn(ctx context.Context, desc catalog.Descriptor) (*normalize.Report, error) {
	run, ok := builtinAnalyzers[desc.ID]
	if !ok {
		return nil, types.NewError(types.ANALYZE_EXEC_FAILED,
			fmt.Sprintf("no built-in analyzer registered for %q", desc.ID))
	}

	report, err := run(r.projectPath)

	exitCode := 0
	entry := state.LogEntry{
		Timestamp: time.Now().UTC(),
		Action:    state.ActionAnalyze,
		Command:   "built-in:" + desc.ID,
		ExitCode:  &exitCode,
	}
	if err != nil {
		*entry.ExitCode = 1
		entry.Error = err.Error()
	}
	if logErr := r.store.AppendLog(ctx, desc.ID, entry); logErr != nil {
		r.logger.Warn("recording analyze action failed", "tool", desc.ID, "error", logErr)
	}

	if err != nil {
		return nil, err
	}
	report.Tool = desc.ID
	return report, nil
}

// sourceExtensions are the file types the project scan counts. Everything
// else (lockfiles, images, build output) is ignored.
var sourceExtensions = map[string]struct{}{
	".go":     {},
	".js":     {},
	".jsx":    {},
	".ts":     {},
	".tsx":    {},
	".mjs":    {},
	".cjs":    {},
	".vue":    {},
	".svelte": {},
	".py":     {},
	".java":   {},
	".rb":     {},
	".php":    {},
	".cs":     {},
	".css":    {},
	".scss":   {},
	".html":   {},
}

// skippedDirs holds directory names the project scan never descends into.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"__pycache__":  {},
}

// analyzeProjectStats walks the project tree and reports how many source
// files an analysis run would cover. It emits no findings; the value is the
// stats block.
func analyzeProjectStats(projectPath string) (*normalize.Report, error) {
	scanned := 0
	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == projectPath {
				return nil
			}
			name := d.Name()
			if _, skip := skippedDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))]; ok {
			scanned++
		}
		return nil
	})
	if err != nil {
		return nil, types.WrapError(types.ANALYZE_EXEC_FAILED, "project scan failed", err)
	}

	return &normalize.Report{
		Findings: []finding.Finding{},
		Stats:    finding.Stats{FilesScanned: scanned},
	}, nil
}

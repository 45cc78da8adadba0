package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/detect"
	"github.com/climateandtech/carbonara-sub002/internal/install"
	"github.com/climateandtech/carbonara-sub002/internal/manifest"
	"github.com/climateandtech/carbonara-sub002/internal/normalize"
	"github.com/climateandtech/carbonara-sub002/internal/prereq"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/pyenv"
	"github.com/climateandtech/carbonara-sub002/internal/state"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

const defaultAnalyzeTimeout = 10 * time.Minute

// Options configures a Registry. Zero values fall back to sane defaults so
// tests can construct one from a catalog, a store and a runner alone.
type Options struct {
	ProjectPath    string
	VenvBaseDir    string
	ProbeTimeout   time.Duration
	InstallTimeout time.Duration
	AnalyzeTimeout time.Duration
	Logger         *slog.Logger
}

// Registry is the single entry point tying the catalog, the detection
// engine, the installation orchestrator, the prerequisite checker and the
// normalizer together. All collaborators are constructed once and passed
// explicitly; nothing here reaches for globals.
type Registry struct {
	catalog    *catalog.Catalog
	store      state.Store
	runner     proc.Runner
	engine     *detect.Engine
	installer  *install.Orchestrator
	checker    *prereq.Checker
	normalizer *normalize.Normalizer

	projectPath    string
	analyzeTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

// New wires a Registry from its external collaborators.
func New(cat *catalog.Catalog, store state.Store, runner proc.Runner, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	analyzeTimeout := opts.AnalyzeTimeout
	if analyzeTimeout <= 0 {
		analyzeTimeout = defaultAnalyzeTimeout
	}

	venvs := pyenv.NewManager(opts.VenvBaseDir, runner)
	engine := detect.NewEngine(cat, store, runner, venvs, detect.Options{
		ProjectPath:  opts.ProjectPath,
		ProbeTimeout: opts.ProbeTimeout,
		Logger:       logger,
	})
	installer := install.NewOrchestrator(cat, store, runner, venvs, engine, install.Options{
		ProjectPath:    opts.ProjectPath,
		InstallTimeout: opts.InstallTimeout,
		Logger:         logger,
	})

	return &Registry{
		catalog:        cat,
		store:          store,
		runner:         runner,
		engine:         engine,
		installer:      installer,
		checker:        prereq.NewChecker(runner),
		normalizer:     normalize.New(cat, logger),
		projectPath:    opts.ProjectPath,
		analyzeTimeout: analyzeTimeout,
		logger:         logger.With("component", "registry"),
		tracer:         otel.Tracer("carbonara/registry"),
	}
}

// Engine exposes the detection engine for flag lifecycle operations.
func (r *Registry) Engine() *detect.Engine { return r.engine }

// Catalog exposes the loaded tool catalog.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// ToolStatus is one row of the registry's status report.
type ToolStatus struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Ecosystem   catalog.Ecosystem `json:"ecosystem"`
	Installed   bool              `json:"installed"`
	CanRun      bool              `json:"canRun"`
}

// ListTools reports every catalog tool with its current installation and
// runnability status. Installed reflects a live probe; CanRun reflects
// persisted state only.
func (r *Registry) ListTools(ctx context.Context) []ToolStatus {
	ctx, span := r.tracer.Start(ctx, "registry.ListTools")
	defer span.End()

	descs := r.catalog.List()
	statuses := make([]ToolStatus, 0, len(descs))
	for _, d := range descs {
		statuses = append(statuses, ToolStatus{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Ecosystem:   d.Installation.Type,
			Installed:   r.engine.IsInstalled(ctx, d.ID),
			CanRun:      r.engine.CanRun(ctx, d.ID),
		})
	}
	return statuses
}

// Install installs the named tool, delegating to the orchestrator.
func (r *Registry) Install(ctx context.Context, toolID string) (install.Result, error) {
	ctx, span := r.tracer.Start(ctx, "registry.Install",
		trace.WithAttributes(attribute.String("tool.id", toolID)))
	defer span.End()

	return r.installer.Install(ctx, toolID)
}

// Log returns the append-only action history for one tool.
func (r *Registry) Log(ctx context.Context, toolID string) ([]state.LogEntry, error) {
	return r.store.Logs(ctx, toolID)
}

// Analyze runs the named tool against the project and normalizes its output:
// prerequisite checks, parameter validation, command instantiation (honoring
// a persisted execution override), execution, parsing, and an action log
// entry.
func (r *Registry) Analyze(ctx context.Context, toolID string, params map[string]any) (*normalize.Report, error) {
	ctx, span := r.tracer.Start(ctx, "registry.Analyze",
		trace.WithAttributes(attribute.String("tool.id", toolID)))
	defer span.End()

	desc, err := r.catalog.Get(toolID)
	if err != nil {
		return nil, err
	}

	if !r.engine.CanRun(ctx, toolID) {
		return nil, types.NewError(types.ANALYZE_NOT_RUNNABLE,
			fmt.Sprintf("tool %q is not installed; run install first", toolID))
	}

	if check := r.checker.Check(ctx, desc.Prerequisites); !check.AllAvailable {
		reasons := make([]string, 0, len(check.Missing))
		for _, m := range check.Missing {
			reasons = append(reasons, m.Error)
		}
		return nil, types.NewError(types.PREREQ_UNMET,
			fmt.Sprintf("prerequisites unmet for %s: %s", toolID, strings.Join(reasons, "; ")))
	}

	// Built-in tools run in-process; there is no external command to spawn.
	if desc.Installation.Type == catalog.EcosystemBuiltIn {
		return r.analyzeBuiltIn(ctx, desc)
	}

	command, args, err := r.buildCommand(ctx, desc, params)
	if err != nil {
		return nil, err
	}

	r.logger.Info("running analysis tool",
		"tool", toolID,
		"command", command,
		"args", args)

	result := r.runner.Run(ctx, command, args, proc.RunOptions{
		Dir:     r.projectPath,
		Timeout: r.analyzeTimeout,
	})

	r.appendAnalyzeLog(ctx, toolID, command, args, result)

	if result.TimedOut {
		return nil, types.NewRetryableError(types.ANALYZE_TIMEOUT,
			fmt.Sprintf("tool %s timed out after %s", toolID, r.analyzeTimeout))
	}
	if result.Err != nil && result.ExitCode == proc.ExitNotFound {
		return nil, types.WrapError(types.ANALYZE_EXEC_FAILED,
			fmt.Sprintf("tool %s could not be started", toolID), result.Err)
	}

	// Nonzero exits are normal for linters that found issues; the payload
	// decides whether the run was usable.
	return r.normalizer.Parse(toolID, []byte(result.Stdout), r.projectPath)
}

// buildCommand resolves the concrete argv for one analysis run. A persisted
// custom execution command replaces the descriptor's executable and args
// wholesale; placeholder substitution applies either way, and a required
// parameter still unresolved after substitution fails the run before any
// process is spawned. The manifest template is rendered with the same
// values, so a required parameter whose only placeholder lives in the
// template is caught by the same check.
func (r *Registry) buildCommand(ctx context.Context, desc catalog.Descriptor, params map[string]any) (string, []string, error) {
	executable := desc.Command.Executable
	args := desc.Command.Args

	st, err := r.store.LoadState(ctx, desc.ID)
	if err == nil && len(st.CustomExecutionCommand) > 0 {
		executable = st.CustomExecutionCommand[0]
		args = st.CustomExecutionCommand[1:]
	}

	resolved := manifest.InstantiateArgs(args, params)
	if err := manifest.ValidateRequiredArgs(desc.Parameters, resolved); err != nil {
		return "", nil, err
	}
	if len(desc.ManifestTemplate) > 0 {
		rendered := manifest.Instantiate(desc.ManifestTemplate, params)
		if err := manifest.ValidateRequired(desc.Parameters, rendered); err != nil {
			return "", nil, err
		}
	}
	return executable, resolved, nil
}

func (r *Registry) appendAnalyzeLog(ctx context.Context, toolID, command string, args []string, result proc.RunResult) {
	entry := state.LogEntry{
		Timestamp: time.Now().UTC(),
		Action:    state.ActionAnalyze,
		Command:   strings.TrimSpace(command + " " + strings.Join(args, " ")),
		ExitCode:  &result.ExitCode,
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	if err := r.store.AppendLog(ctx, toolID, entry); err != nil {
		r.logger.Warn("recording analyze action failed", "tool", toolID, "error", err)
	}
}

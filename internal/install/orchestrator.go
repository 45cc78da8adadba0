// Package install executes the correct installation strategy per tool
// ecosystem, records every attempt in the append-only action log, and keeps
// the persisted installed flag in sync with outcomes.
package install

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/detect"
	"github.com/climateandtech/carbonara-sub002/internal/manifest"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/pyenv"
	"github.com/climateandtech/carbonara-sub002/internal/state"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// defaultInstallTimeout bounds one install command. Installs are slower than
// probes but still finite.
const defaultInstallTimeout = 5 * time.Minute

// Result reports one install attempt. Instructions carries the descriptor's
// human remediation text when the attempt failed.
type Result struct {
	Installed    bool
	Message      string
	Instructions string
}

// Orchestrator installs catalog tools. Failures in one tool's installation
// never affect any other tool's state; every write targets a single tool id.
type Orchestrator struct {
	catalog     *catalog.Catalog
	store       state.Store
	runner      proc.Runner
	venvs       *pyenv.Manager
	engine      *detect.Engine
	projectPath string
	logger      *slog.Logger
	timeout     time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	ProjectPath    string
	InstallTimeout time.Duration
	Logger         *slog.Logger
}

// NewOrchestrator creates an installation orchestrator over the given
// collaborators.
func NewOrchestrator(cat *catalog.Catalog, store state.Store, runner proc.Runner, venvs *pyenv.Manager, engine *detect.Engine, opts Options) *Orchestrator {
	timeout := opts.InstallTimeout
	if timeout <= 0 {
		timeout = defaultInstallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		catalog:     cat,
		store:       store,
		runner:      runner,
		venvs:       venvs,
		engine:      engine,
		projectPath: opts.ProjectPath,
		logger:      logger,
		timeout:     timeout,
	}
}

// Install installs the tool, selecting the strategy by ecosystem. The call
// is idempotent: when CanRun already authorizes the tool it returns success
// without side effects.
func (o *Orchestrator) Install(ctx context.Context, toolID string) (Result, error) {
	desc, err := o.catalog.Get(toolID)
	if err != nil {
		return Result{}, err
	}

	if o.engine.CanRun(ctx, toolID) {
		return Result{Installed: true, Message: "already installed"}, nil
	}

	var result proc.RunResult
	var command string

	switch desc.Installation.Type {
	case catalog.EcosystemJSPackage:
		command, result = o.installJS(ctx, desc)
	case catalog.EcosystemPythonPackage:
		command, result = o.installPython(ctx, desc)
	case catalog.EcosystemBinary, catalog.EcosystemContainer:
		command, result = o.installVerbatim(ctx, desc)
	case catalog.EcosystemBuiltIn:
		return o.confirm(ctx, desc, "built-in", proc.RunResult{ExitCode: 0})
	default:
		return Result{}, types.NewError(types.INSTALL_NOT_SUPPORTED,
			fmt.Sprintf("no install strategy for ecosystem %q", desc.Installation.Type))
	}

	return o.confirm(ctx, desc, command, result)
}

// installJS invokes the package manager with the full package list: the base
// package plus every scoped plugin package referenced by the manifest
// template, global or local per the descriptor flag.
func (o *Orchestrator) installJS(ctx context.Context, desc catalog.Descriptor) (string, proc.RunResult) {
	packages := append([]string{desc.Installation.Package},
		manifest.ExtractPluginPackages(desc.ManifestTemplate)...)

	args := []string{"install"}
	if desc.Installation.Global {
		args = append(args, "--global")
	} else {
		args = append(args, "--save-dev")
	}
	args = append(args, packages...)

	command := "npm " + strings.Join(args, " ")
	result := o.runner.Run(ctx, "npm", args, proc.RunOptions{
		Timeout: o.timeout,
		Dir:     o.projectPath,
	})
	return command, result
}

// installPython prefers the project's isolated environment, creating it when
// absent; only without a project context does it fall back to a system-wide
// user install. This avoids polluting shared interpreter state and needs no
// elevated permissions.
func (o *Orchestrator) installPython(ctx context.Context, desc catalog.Descriptor) (string, proc.RunResult) {
	if o.venvs != nil && o.projectPath != "" {
		env, err := o.venvs.Ensure(ctx, o.projectPath)
		if err != nil {
			return "python -m venv", proc.RunResult{ExitCode: 1, Stderr: err.Error(), Err: err}
		}
		args := []string{"-m", "pip", "install", desc.Installation.Package}
		command := env.Python() + " " + strings.Join(args, " ")
		return command, o.runner.Run(ctx, env.Python(), args, proc.RunOptions{Timeout: o.timeout})
	}

	args := []string{"-m", "pip", "install", "--user", desc.Installation.Package}
	return "python3 " + strings.Join(args, " "),
		o.runner.Run(ctx, "python3", args, proc.RunOptions{Timeout: o.timeout})
}

// installVerbatim runs the descriptor-provided install command as written.
func (o *Orchestrator) installVerbatim(ctx context.Context, desc catalog.Descriptor) (string, proc.RunResult) {
	command := desc.Installation.Command
	fields := strings.Fields(command)
	if len(fields) == 0 {
		err := types.NewError(types.INSTALL_NOT_SUPPORTED, "descriptor declares no install command")
		return command, proc.RunResult{ExitCode: 1, Stderr: err.Error(), Err: err}
	}
	return command, o.runner.Run(ctx, fields[0], fields[1:], proc.RunOptions{Timeout: o.timeout})
}

// confirm records the attempt in the action log, then updates persisted
// state: installed flag on success, lastError on failure. The installed flag
// is set only after a detection refresh or the command's own success signal
// confirms the install.
func (o *Orchestrator) confirm(ctx context.Context, desc catalog.Descriptor, command string, result proc.RunResult) (Result, error) {
	now := time.Now().UTC()
	exitCode := result.ExitCode

	entry := state.LogEntry{
		Timestamp: now,
		Action:    state.ActionInstall,
		Command:   command,
		ExitCode:  &exitCode,
	}
	if !result.Ok() {
		entry.Action = state.ActionError
		entry.Error = installErrorText(result)
	}
	if err := o.store.AppendLog(ctx, desc.ID, entry); err != nil {
		o.logger.Warn("failed to append install log", "tool", desc.ID, "error", err)
	}

	if !result.Ok() {
		message := installErrorText(result)
		if err := o.store.SaveState(ctx, desc.ID, state.StatePatch{
			LastError: &state.LastError{Message: message, Timestamp: now},
		}); err != nil {
			o.logger.Warn("failed to record install error", "tool", desc.ID, "error", err)
		}
		failure := types.NewError(types.INSTALL_COMMAND_FAILED,
			fmt.Sprintf("install of %s failed: %s", desc.ID, message))
		return Result{
			Installed:    false,
			Message:      message,
			Instructions: desc.Installation.Instructions,
		}, failure
	}

	// Success signal confirmed; refresh detection so the new binary is
	// visible to subsequent verdicts.
	o.engine.Invalidate()

	if err := o.store.SaveState(ctx, desc.ID, state.StatePatch{
		InstallationStatus: &state.InstallationStatus{Installed: true, InstalledAt: &now},
	}); err != nil {
		return Result{}, types.WrapError(types.STATE_WRITE_FAILED,
			fmt.Sprintf("install of %s succeeded but state write failed", desc.ID), err)
	}

	o.logger.Info("tool installed", "tool", desc.ID, "command", command)
	return Result{Installed: true, Message: "installed"}, nil
}

func installErrorText(result proc.RunResult) string {
	switch {
	case result.TimedOut:
		return "install command timed out"
	case result.Err != nil:
		return result.Err.Error()
	case strings.TrimSpace(result.Stderr) != "":
		return strings.TrimSpace(result.Stderr)
	default:
		return fmt.Sprintf("install command exited with code %d", result.ExitCode)
	}
}

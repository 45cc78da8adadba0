package detect

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/manifest"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
)

// probeVerdict is the tri-state outcome of one detection strategy. Ordered
// strategies are evaluated until one returns a conclusive verdict, which
// keeps the precedence rules independently testable.
type probeVerdict int

const (
	verdictInconclusive probeVerdict = iota
	verdictDetected
	verdictNotDetected
)

// strategy is one named way of probing whether a tool is currently usable.
type strategy struct {
	name  string
	probe func(ctx context.Context) probeVerdict
}

// probeStrategies builds the ordered live-probe chain for a descriptor.
func (e *Engine) probeStrategies(desc catalog.Descriptor) []strategy {
	switch desc.Installation.Type {
	case catalog.EcosystemJSPackage:
		return []strategy{{name: "js-package-query", probe: func(ctx context.Context) probeVerdict {
			return e.probeJSPackages(ctx, desc)
		}}}
	case catalog.EcosystemPythonPackage:
		return []strategy{{name: "python-probe-chain", probe: func(ctx context.Context) probeVerdict {
			return e.probePython(ctx, desc)
		}}}
	case catalog.EcosystemBuiltIn:
		return []strategy{{name: "built-in", probe: func(context.Context) probeVerdict {
			return verdictDetected
		}}}
	default:
		if desc.Detection.Method == catalog.DetectFileExistence {
			return []strategy{{name: "file-existence", probe: func(context.Context) probeVerdict {
				return e.probeFile(desc)
			}}}
		}
		return []strategy{{name: "command-probe", probe: func(ctx context.Context) probeVerdict {
			return e.probeCommands(ctx, desc)
		}}}
	}
}

// probeJSPackages queries the local npm package listing, workspace-aware
// first with a non-workspace fallback. When the manifest template embeds
// scoped plugin packages, detection is a logical AND across the base package
// and every referenced plugin.
func (e *Engine) probeJSPackages(ctx context.Context, desc catalog.Descriptor) probeVerdict {
	packages := append([]string{desc.Installation.Package},
		manifest.ExtractPluginPackages(desc.ManifestTemplate)...)

	for _, pkg := range packages {
		if !e.npmHasPackage(ctx, pkg, desc.Installation.Global) {
			return verdictNotDetected
		}
	}
	return verdictDetected
}

func (e *Engine) npmHasPackage(ctx context.Context, pkg string, global bool) bool {
	args := []string{"ls", pkg, "--json", "--depth=0"}
	if global {
		args = append(args, "--global")
	}

	opts := proc.RunOptions{Timeout: e.probeTimeout, Dir: e.projectPath}

	// Workspace-aware query first; npm rejects --workspaces outside a
	// workspace root, so a plain query is the fallback.
	result := e.runner.Run(ctx, "npm", append(args, "--workspaces"), opts)
	if result.Ok() {
		return true
	}
	result = e.runner.Run(ctx, "npm", args, opts)
	return result.Ok()
}

// probePython tries the tool binary inside the project's isolated
// environment, then module invocation through that environment's
// interpreter, then a system-wide probe of the bare command.
func (e *Engine) probePython(ctx context.Context, desc catalog.Descriptor) probeVerdict {
	command, args := splitProbe(desc, desc.Installation.Package)
	opts := proc.RunOptions{Timeout: e.probeTimeout}

	if e.venvs != nil && e.projectPath != "" {
		env := e.venvs.EnvFor(e.projectPath)
		if env.Exists() {
			if e.succeeds(e.runner.Run(ctx, env.Bin(command), args, opts), desc) {
				return verdictDetected
			}
			moduleArgs := append([]string{"-m", command}, args...)
			if e.succeeds(e.runner.Run(ctx, env.Python(), moduleArgs, opts), desc) {
				return verdictDetected
			}
		}
	}

	if e.succeeds(e.runner.Run(ctx, command, args, opts), desc) {
		return verdictDetected
	}
	return verdictNotDetected
}

// probeCommands runs each declared probe command until one reports the
// descriptor's success signal.
func (e *Engine) probeCommands(ctx context.Context, desc catalog.Descriptor) probeVerdict {
	commands := desc.Detection.Commands
	if len(commands) == 0 && desc.Detection.Target != "" {
		commands = []string{desc.Detection.Target}
	}

	for _, cmdline := range commands {
		fields := strings.Fields(cmdline)
		if len(fields) == 0 {
			continue
		}
		result := e.runner.Run(ctx, fields[0], fields[1:], proc.RunOptions{Timeout: e.probeTimeout})
		if e.succeeds(result, desc) {
			return verdictDetected
		}
	}
	return verdictNotDetected
}

func (e *Engine) probeFile(desc catalog.Descriptor) probeVerdict {
	if _, err := os.Stat(desc.Detection.Target); err == nil {
		return verdictDetected
	}
	return verdictNotDetected
}

// succeeds applies the descriptor's success signal: a defined exit code and,
// when declared, an output pattern. A spawned process alone never counts.
func (e *Engine) succeeds(result proc.RunResult, desc catalog.Descriptor) bool {
	if !result.Ok() {
		return false
	}
	if pattern := desc.Detection.SuccessPattern; pattern != "" {
		return strings.Contains(result.Stdout, pattern) || strings.Contains(result.Stderr, pattern)
	}
	return true
}

// splitProbe derives the probe command and arguments from the detection
// target, defaulting to "<package> --version".
func splitProbe(desc catalog.Descriptor, fallback string) (string, []string) {
	fields := strings.Fields(desc.Detection.Target)
	if len(fields) == 0 {
		return fallback, []string{"--version"}
	}
	return fields[0], fields[1:]
}

// defaultProbeTimeout bounds detection probes: seconds, not minutes.
const defaultProbeTimeout = 10 * time.Second

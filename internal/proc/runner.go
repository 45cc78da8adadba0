// Package proc runs external commands with bounded timeouts, capturing their
// outcome instead of propagating process failures as errors. Every probe,
// install, and analysis invocation in the tool registry goes through a Runner.
package proc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ExitNotFound is the exit code reported when the executable does not exist
// on PATH, matching shell convention.
const ExitNotFound = 127

// RunOptions configures a single command invocation.
type RunOptions struct {
	// Timeout bounds the process lifetime. Zero means no additional bound
	// beyond the caller's context.
	Timeout time.Duration

	// Dir is the working directory for the command. Empty means inherit.
	Dir string

	// Env is appended to the inherited environment when non-empty.
	Env []string
}

// RunResult captures the full outcome of a command invocation. A non-zero
// exit code or timeout is recorded here, never returned as an error.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration

	// Err is set only for spawn-level failures (binary missing, context
	// cancelled before start). The exit code is still populated.
	Err error
}

// Ok reports whether the command ran to completion with exit code zero.
func (r RunResult) Ok() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Runner executes external commands. Implementations must never panic or
// return through any channel other than the RunResult.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) RunResult
}

// ExecRunner is the os/exec backed Runner used in production.
type ExecRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and captures exit code, stdout, and stderr.
// A timed-out process is killed and reported with TimedOut set; the result
// is treated by callers identically to a failed probe.
func (r *ExecRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) RunResult {
	start := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = -1
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Spawn failure: missing binary, permission, cancelled context.
			result.ExitCode = ExitNotFound
			result.Err = err
		}
	}

	return result
}

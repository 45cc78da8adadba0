// Package prereq validates auxiliary environment requirements (runtimes,
// daemons) before a tool is invoked.
package prereq

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
)

// DefaultTimeout bounds each individual check command.
const DefaultTimeout = 10 * time.Second

// Missing pairs an unmet prerequisite with the error explaining it. The
// error text always names the prerequisite so the caller can surface a
// complete remediation list.
type Missing struct {
	Prerequisite catalog.Prerequisite `json:"prerequisite"`
	Error        string               `json:"error"`
}

// Result aggregates the outcome of checking a prerequisite list.
type Result struct {
	AllAvailable bool      `json:"allAvailable"`
	Missing      []Missing `json:"missing"`
}

// Checker runs prerequisite check commands.
type Checker struct {
	runner  proc.Runner
	timeout time.Duration
}

// NewChecker creates a Checker using the given process runner.
func NewChecker(runner proc.Runner) *Checker {
	return &Checker{runner: runner, timeout: DefaultTimeout}
}

// Check runs every prerequisite's check command independently, never
// fail-fast, so the caller receives one remediation entry per unmet
// prerequisite. An empty list returns immediately without spawning any
// process. Checks have no ordering dependency and run concurrently.
func (c *Checker) Check(ctx context.Context, prereqs []catalog.Prerequisite) Result {
	if len(prereqs) == 0 {
		return Result{AllAvailable: true}
	}

	missing := make([]*Missing, len(prereqs))

	var wg sync.WaitGroup
	for i, p := range prereqs {
		wg.Add(1)
		go func(idx int, p catalog.Prerequisite) {
			defer wg.Done()
			if err := c.checkOne(ctx, p); err != nil {
				missing[idx] = &Missing{Prerequisite: p, Error: err.Error()}
			}
		}(i, p)
	}
	wg.Wait()

	result := Result{AllAvailable: true}
	for _, m := range missing {
		if m != nil {
			result.AllAvailable = false
			result.Missing = append(result.Missing, *m)
		}
	}
	return result
}

// checkOne runs a single check command under the bounded timeout. Success
// requires exit code zero and, when declared, the expected output substring.
func (c *Checker) checkOne(ctx context.Context, p catalog.Prerequisite) error {
	fields := strings.Fields(p.CheckCommand)
	if len(fields) == 0 {
		return fmt.Errorf("%s: prerequisite has no check command", p.Name)
	}

	result := c.runner.Run(ctx, fields[0], fields[1:], proc.RunOptions{Timeout: c.timeout})

	switch {
	case result.TimedOut:
		return fmt.Errorf("%s: check timed out: %s", p.Name, remediation(p))
	case !result.Ok():
		return fmt.Errorf("%s: %s (exit %d): %s", p.Name, failureText(p), result.ExitCode, remediation(p))
	case p.ExpectedOutput != "" && !strings.Contains(result.Stdout, p.ExpectedOutput):
		return fmt.Errorf("%s: unexpected check output: %s", p.Name, remediation(p))
	}
	return nil
}

func failureText(p catalog.Prerequisite) string {
	if p.ErrorMessage != "" {
		return p.ErrorMessage
	}
	return "check command failed"
}

func remediation(p catalog.Prerequisite) string {
	if p.SetupInstructions != "" {
		return p.SetupInstructions
	}
	if p.InstallCommand != "" {
		return "run: " + p.InstallCommand
	}
	return "see tool documentation"
}

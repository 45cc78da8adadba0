package prereq

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
)

// scriptedRunner returns per-command canned results and counts invocations.
type scriptedRunner struct {
	mu      sync.Mutex
	results map[string]proc.RunResult
	calls   int
}

func (s *scriptedRunner) Run(_ context.Context, command string, args []string, _ proc.RunOptions) proc.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	key := command
	for _, a := range args {
		key += " " + a
	}
	if r, ok := s.results[key]; ok {
		return r
	}
	return proc.RunResult{ExitCode: proc.ExitNotFound}
}

func TestChecker_EmptyList(t *testing.T) {
	runner := &scriptedRunner{}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), nil)

	assert.True(t, result.AllAvailable)
	assert.Empty(t, result.Missing)
	assert.Zero(t, runner.calls, "empty prerequisite list must not spawn any process")
}

func TestChecker_AllAvailable(t *testing.T) {
	runner := &scriptedRunner{results: map[string]proc.RunResult{
		"docker info":    {ExitCode: 0},
		"node --version": {ExitCode: 0, Stdout: "v20.11.0\n"},
	}}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), []catalog.Prerequisite{
		{Name: "Docker", CheckCommand: "docker info"},
		{Name: "Node.js", CheckCommand: "node --version", ExpectedOutput: "v20"},
	})

	assert.True(t, result.AllAvailable)
	assert.Empty(t, result.Missing)
	assert.Equal(t, 2, runner.calls)
}

func TestChecker_NotFailFast(t *testing.T) {
	runner := &scriptedRunner{results: map[string]proc.RunResult{
		"first check":  {ExitCode: 0},
		"second check": {ExitCode: 127},
	}}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), []catalog.Prerequisite{
		{Name: "first", CheckCommand: "first check"},
		{Name: "second", CheckCommand: "second check"},
	})

	assert.False(t, result.AllAvailable)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "second", result.Missing[0].Prerequisite.Name)
	assert.Contains(t, result.Missing[0].Error, "second", "error must include the prerequisite name")
	assert.Equal(t, 2, runner.calls, "all checks must be attempted")
}

func TestChecker_AllMissing_CompleteRemediationList(t *testing.T) {
	runner := &scriptedRunner{results: map[string]proc.RunResult{}}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), []catalog.Prerequisite{
		{Name: "Docker", CheckCommand: "docker info", ErrorMessage: "Docker daemon is not running", SetupInstructions: "start docker"},
		{Name: "Chrome", CheckCommand: "google-chrome --version", InstallCommand: "apt install chromium"},
	})

	assert.False(t, result.AllAvailable)
	require.Len(t, result.Missing, 2)

	byName := map[string]string{}
	for _, m := range result.Missing {
		byName[m.Prerequisite.Name] = m.Error
	}
	assert.Contains(t, byName["Docker"], "Docker daemon is not running")
	assert.Contains(t, byName["Docker"], "start docker")
	assert.Contains(t, byName["Chrome"], "apt install chromium")
}

func TestChecker_ExpectedOutputMismatch(t *testing.T) {
	runner := &scriptedRunner{results: map[string]proc.RunResult{
		"node --version": {ExitCode: 0, Stdout: "v14.0.0\n"},
	}}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), []catalog.Prerequisite{
		{Name: "Node.js", CheckCommand: "node --version", ExpectedOutput: "v20"},
	})

	assert.False(t, result.AllAvailable)
	require.Len(t, result.Missing, 1)
	assert.Contains(t, result.Missing[0].Error, "Node.js")
}

func TestChecker_Timeout(t *testing.T) {
	runner := &scriptedRunner{results: map[string]proc.RunResult{
		"slow check": {TimedOut: true, ExitCode: -1},
	}}
	checker := NewChecker(runner)

	result := checker.Check(context.Background(), []catalog.Prerequisite{
		{Name: "slow", CheckCommand: "slow check"},
	})

	assert.False(t, result.AllAvailable)
	require.Len(t, result.Missing, 1)
	assert.Contains(t, result.Missing[0].Error, "timed out")
}

package install

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/detect"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/state"
)

type fakeRunner struct {
	mu      sync.Mutex
	results map[string]proc.RunResult
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: make(map[string]proc.RunResult)}
}

func (f *fakeRunner) on(cmdline string, result proc.RunResult) *fakeRunner {
	f.results[cmdline] = result
	return f
}

func (f *fakeRunner) Run(_ context.Context, command string, args []string, _ proc.RunOptions) proc.RunResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimSpace(command + " " + strings.Join(args, " "))
	f.calls = append(f.calls, key)
	if r, ok := f.results[key]; ok {
		return r
	}
	return proc.RunResult{ExitCode: proc.ExitNotFound}
}

const testCatalog = `
tools:
  - id: linter
    name: Linter
    installation:
      type: js-package
      package: eslint
      instructions: "npm install --save-dev eslint"
    detection:
      method: package-query
      target: eslint
    command:
      executable: npx
    manifestTemplate:
      plugins: ["@eco/plugin-a", "@eco/plugin-a", "@eco/plugin-b"]
  - id: globaltool
    name: Global tool
    installation:
      type: js-package
      package: lighthouse
      global: true
    detection:
      method: command-probe
      target: "lighthouse --version"
    command:
      executable: lighthouse
  - id: pyscan
    name: PyScan
    installation:
      type: python-package
      package: semgrep
      instructions: "pip install semgrep"
    detection:
      method: command-probe
      target: "semgrep --version"
    command:
      executable: semgrep
  - id: scanner
    name: Scanner
    installation:
      type: binary
      command: "brew install scanner"
      instructions: "Install scanner via homebrew"
    detection:
      method: command-probe
      target: "scanner --version"
    command:
      executable: scanner
`

func newOrchestrator(t *testing.T, runner proc.Runner, store state.Store) *Orchestrator {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	engine := detect.NewEngine(cat, store, runner, nil, detect.Options{})
	return NewOrchestrator(cat, store, runner, nil, engine, Options{})
}

func TestInstall_JSIncludesPluginPackages(t *testing.T) {
	runner := newFakeRunner().
		on("npm install --save-dev eslint @eco/plugin-a @eco/plugin-b", proc.RunResult{ExitCode: 0})
	store := state.NewMemoryStore()
	orch := newOrchestrator(t, runner, store)

	result, err := orch.Install(context.Background(), "linter")
	require.NoError(t, err)
	assert.True(t, result.Installed)

	st, err := store.LoadState(context.Background(), "linter")
	require.NoError(t, err)
	assert.True(t, st.Installed())
	require.NotNil(t, st.InstallationStatus.InstalledAt)
}

func TestInstall_GlobalFlag(t *testing.T) {
	runner := newFakeRunner().
		on("npm install --global lighthouse", proc.RunResult{ExitCode: 0})
	orch := newOrchestrator(t, runner, state.NewMemoryStore())

	result, err := orch.Install(context.Background(), "globaltool")
	require.NoError(t, err)
	assert.True(t, result.Installed)
}

func TestInstall_PythonSystemFallbackWithoutProject(t *testing.T) {
	// No project context: install falls back to a system-wide user install.
	runner := newFakeRunner().
		on("python3 -m pip install --user semgrep", proc.RunResult{ExitCode: 0})
	orch := newOrchestrator(t, runner, state.NewMemoryStore())

	result, err := orch.Install(context.Background(), "pyscan")
	require.NoError(t, err)
	assert.True(t, result.Installed)
}

func TestInstall_BinaryVerbatim(t *testing.T) {
	runner := newFakeRunner().
		on("brew install scanner", proc.RunResult{ExitCode: 0})
	orch := newOrchestrator(t, runner, state.NewMemoryStore())

	result, err := orch.Install(context.Background(), "scanner")
	require.NoError(t, err)
	assert.True(t, result.Installed)
}

func TestInstall_FailureRecordsLastErrorNotInstalled(t *testing.T) {
	runner := newFakeRunner().
		on("brew install scanner", proc.RunResult{ExitCode: 1, Stderr: "no network"})
	store := state.NewMemoryStore()
	orch := newOrchestrator(t, runner, store)

	result, err := orch.Install(context.Background(), "scanner")
	require.Error(t, err)
	assert.False(t, result.Installed)
	assert.Equal(t, "Install scanner via homebrew", result.Instructions)

	st, lerr := store.LoadState(context.Background(), "scanner")
	require.NoError(t, lerr)
	assert.False(t, st.Installed(), "failed install must not set the installed flag")
	require.NotNil(t, st.LastError)
	assert.Contains(t, st.LastError.Message, "no network")
}

func TestInstall_Idempotent(t *testing.T) {
	store := state.NewMemoryStore()
	store.SetState("scanner", state.ToolState{
		InstallationStatus: &state.InstallationStatus{Installed: true},
	})
	runner := newFakeRunner()
	orch := newOrchestrator(t, runner, store)

	result, err := orch.Install(context.Background(), "scanner")
	require.NoError(t, err)
	assert.True(t, result.Installed)
	assert.Empty(t, runner.calls, "authorized tools must not be reinstalled")

	logs, err := store.Logs(context.Background(), "scanner")
	require.NoError(t, err)
	assert.Empty(t, logs, "idempotent install has no side effects")
}

func TestInstall_AppendsActionLog(t *testing.T) {
	runner := newFakeRunner().
		on("brew install scanner", proc.RunResult{ExitCode: 1, Stderr: "boom"})
	store := state.NewMemoryStore()
	orch := newOrchestrator(t, runner, store)

	_, _ = orch.Install(context.Background(), "scanner")
	runner.results["brew install scanner"] = proc.RunResult{ExitCode: 0}
	_, err := orch.Install(context.Background(), "scanner")
	require.NoError(t, err)

	logs, err := store.Logs(context.Background(), "scanner")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, state.ActionError, logs[0].Action)
	assert.Equal(t, "boom", logs[0].Error)
	assert.Equal(t, state.ActionInstall, logs[1].Action)
	require.NotNil(t, logs[1].ExitCode)
	assert.Equal(t, 0, *logs[1].ExitCode)
}

func TestInstall_PerToolIsolation(t *testing.T) {
	runner := newFakeRunner().
		on("brew install scanner", proc.RunResult{ExitCode: 1, Stderr: "broken"}).
		on("npm install --global lighthouse", proc.RunResult{ExitCode: 0})
	store := state.NewMemoryStore()
	orch := newOrchestrator(t, runner, store)

	_, _ = orch.Install(context.Background(), "scanner")
	result, err := orch.Install(context.Background(), "globaltool")
	require.NoError(t, err)
	assert.True(t, result.Installed)

	other, err := store.LoadState(context.Background(), "globaltool")
	require.NoError(t, err)
	assert.True(t, other.Installed())
	assert.Nil(t, other.LastError, "one tool's failure must not leak into another's state")
}

func TestInstall_UnknownTool(t *testing.T) {
	orch := newOrchestrator(t, newFakeRunner(), state.NewMemoryStore())
	_, err := orch.Install(context.Background(), "mystery")
	assert.Error(t, err)
}

func TestInstall_TimeoutTreatedAsFailure(t *testing.T) {
	runner := newFakeRunner().
		on("brew install scanner", proc.RunResult{TimedOut: true, ExitCode: -1})
	store := state.NewMemoryStore()
	orch := newOrchestrator(t, runner, store)

	_, err := orch.Install(context.Background(), "scanner")
	require.Error(t, err)

	st, lerr := store.LoadState(context.Background(), "scanner")
	require.NoError(t, lerr)
	assert.False(t, st.Installed())
	require.NotNil(t, st.LastError)
	assert.Contains(t, st.LastError.Message, "timed out")
}

// Package pyenv manages per-project isolated Python environments so that
// interpreter-hosted tools install without touching the system interpreter
// and without elevated permissions.
package pyenv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// Env is a handle to one isolated environment. Its binary locations are
// fixed regardless of what is installed globally.
type Env struct {
	// Root is the environment directory, keyed by project path.
	Root string
}

// binDir returns the platform-specific scripts directory.
func (e Env) binDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Root, "Scripts")
	}
	return filepath.Join(e.Root, "bin")
}

// Bin returns the path of a tool binary inside the environment.
func (e Env) Bin(name string) string {
	return filepath.Join(e.binDir(), name)
}

// Python returns the environment's interpreter path.
func (e Env) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.binDir(), "python.exe")
	}
	return filepath.Join(e.binDir(), "python")
}

// Exists reports whether the environment directory has been materialized.
func (e Env) Exists() bool {
	_, err := os.Stat(filepath.Join(e.Root, "pyvenv.cfg"))
	return err == nil
}

// Manager creates and reuses isolated environments under a fixed base
// directory, one per project path.
type Manager struct {
	baseDir string
	python  string
	runner  proc.Runner
}

// NewManager creates a Manager storing environments under baseDir.
func NewManager(baseDir string, runner proc.Runner) *Manager {
	return &Manager{
		baseDir: baseDir,
		python:  "python3",
		runner:  runner,
	}
}

// EnvFor returns the environment handle for a project without creating it.
func (m *Manager) EnvFor(projectPath string) Env {
	sum := sha256.Sum256([]byte(filepath.Clean(projectPath)))
	key := hex.EncodeToString(sum[:8])
	return Env{Root: filepath.Join(m.baseDir, key)}
}

// Ensure returns the project's environment, creating it when absent and
// reusing it when already materialized. Creation is a single bounded
// subprocess call; a timed-out creation is reported as a failure.
func (m *Manager) Ensure(ctx context.Context, projectPath string) (Env, error) {
	env := m.EnvFor(projectPath)
	if env.Exists() {
		return env, nil
	}

	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return Env{}, types.WrapError(types.INSTALL_ENV_FAILED, "cannot create environment base directory", err)
	}

	result := m.runner.Run(ctx, m.python, []string{"-m", "venv", env.Root}, proc.RunOptions{
		Timeout: 60 * time.Second,
	})
	if !result.Ok() {
		detail := result.Stderr
		if detail == "" && result.Err != nil {
			detail = result.Err.Error()
		}
		return Env{}, types.NewError(types.INSTALL_ENV_FAILED,
			fmt.Sprintf("python -m venv failed (exit %d): %s", result.ExitCode, detail))
	}

	return env, nil
}

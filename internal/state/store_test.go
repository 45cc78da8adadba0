package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCommandOverride_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want CommandOverride
	}{
		{"string form", `"eslint --format json"`, CommandOverride{"eslint", "--format", "json"}},
		{"list form", `["eslint", "--format", "json"]`, CommandOverride{"eslint", "--format", "json"}},
		{"empty string", `""`, CommandOverride{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c CommandOverride
			require.NoError(t, json.Unmarshal([]byte(tt.data), &c))
			assert.Equal(t, tt.want, c)
		})
	}

	var c CommandOverride
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestCommandOverride_UnmarshalYAML(t *testing.T) {
	var fromString struct {
		Cmd CommandOverride `yaml:"cmd"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`cmd: "semgrep scan --json"`), &fromString))
	assert.Equal(t, CommandOverride{"semgrep", "scan", "--json"}, fromString.Cmd)

	var fromList struct {
		Cmd CommandOverride `yaml:"cmd"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("cmd: [semgrep, scan]"), &fromList))
	assert.Equal(t, CommandOverride{"semgrep", "scan"}, fromList.Cmd)
}

func TestStatePatch_Apply(t *testing.T) {
	now := time.Now()
	st := ToolState{
		InstallationStatus: &InstallationStatus{Installed: true, InstalledAt: &now},
	}

	patched := StatePatch{DetectionFailed: Bool(true), DetectionFailedAt: Time(now)}.Apply(st)

	assert.True(t, patched.DetectionFailed)
	require.NotNil(t, patched.DetectionFailedAt)
	// Untouched fields survive.
	assert.True(t, patched.Installed())

	cleared := StatePatch{DetectionFailed: Bool(false)}.Apply(patched)
	assert.False(t, cleared.DetectionFailed)
	assert.True(t, cleared.Installed())
}

func TestToolState_Installed(t *testing.T) {
	assert.False(t, ToolState{}.Installed())
	assert.False(t, ToolState{InstallationStatus: &InstallationStatus{}}.Installed())
	assert.True(t, ToolState{InstallationStatus: &InstallationStatus{Installed: true}}.Installed())
}

// storeSuite runs the Store contract against any implementation.
func storeSuite(t *testing.T, store Store) {
	ctx := context.Background()

	// Unknown tool loads as zero state.
	st, err := store.LoadState(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, ToolState{}, st)

	// Patch round trip.
	now := time.Now().UTC().Truncate(time.Second)
	err = store.SaveState(ctx, "eslint-ecocode", StatePatch{
		InstallationStatus: &InstallationStatus{Installed: true, InstalledAt: &now},
	})
	require.NoError(t, err)

	err = store.SaveState(ctx, "eslint-ecocode", StatePatch{DetectionFailed: Bool(true)})
	require.NoError(t, err)

	st, err = store.LoadState(ctx, "eslint-ecocode")
	require.NoError(t, err)
	assert.True(t, st.Installed())
	assert.True(t, st.DetectionFailed)

	// Per-tool isolation: another tool's record is untouched.
	other, err := store.LoadState(ctx, "lighthouse")
	require.NoError(t, err)
	assert.Equal(t, ToolState{}, other)

	// Append-only log preserves order.
	code := 0
	require.NoError(t, store.AppendLog(ctx, "eslint-ecocode", LogEntry{
		Timestamp: now, Action: ActionInstall, Command: "npm install eslint", ExitCode: &code,
	}))
	failed := 1
	require.NoError(t, store.AppendLog(ctx, "eslint-ecocode", LogEntry{
		Timestamp: now.Add(time.Second), Action: ActionError, Command: "npm install eslint", ExitCode: &failed, Error: "network down",
	}))

	entries, err := store.Logs(ctx, "eslint-ecocode")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionInstall, entries[0].Action)
	assert.Equal(t, ActionError, entries[1].Action)
	assert.Equal(t, "network down", entries[1].Error)
	require.NotNil(t, entries[0].ExitCode)
	assert.Equal(t, 0, *entries[0].ExitCode)

	entries, err = store.Logs(ctx, "lighthouse")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStore(t *testing.T) {
	storeSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storeSuite(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveState(ctx, "semgrep", StatePatch{DetectionFailed: Bool(true)}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	st, err := reopened.LoadState(ctx, "semgrep")
	require.NoError(t, err)
	assert.True(t, st.DetectionFailed)
}

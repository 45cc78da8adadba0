// Package state persists per-tool installation state and the append-only
// action log. The host process is assumed to be the single writer; no
// cross-process locking is provided.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CommandOverride is a manual execution command stored as either a single
// string or an argument list. The list form is authoritative; the string
// form is split on whitespace.
type CommandOverride []string

// UnmarshalJSON accepts both `"eslint --fix"` and `["eslint", "--fix"]`.
func (c *CommandOverride) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("customExecutionCommand must be a string or a string list")
	}
	*c = strings.Fields(single)
	return nil
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON.
func (c *CommandOverride) UnmarshalYAML(node *yaml.Node) error {
	var list []string
	if err := node.Decode(&list); err == nil {
		*c = list
		return nil
	}
	var single string
	if err := node.Decode(&single); err != nil {
		return fmt.Errorf("customExecutionCommand must be a string or a string list")
	}
	*c = strings.Fields(single)
	return nil
}

// InstallationStatus records a successful install or manual installed flag.
type InstallationStatus struct {
	Installed   bool       `json:"installed"`
	InstalledAt *time.Time `json:"installedAt,omitempty"`
}

// LastError records the most recent installation failure.
type LastError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolState is the persisted record for one tool. The zero value is the
// state of a tool that has never been installed or flagged.
type ToolState struct {
	InstallationStatus *InstallationStatus `json:"installationStatus,omitempty"`
	LastError          *LastError          `json:"lastError,omitempty"`

	// DetectionFailed is the sticky failure flag: set when a prior
	// installed verdict was proven wrong by a live probe, and never
	// cleared automatically by a later successful probe.
	DetectionFailed   bool       `json:"detectionFailed,omitempty"`
	DetectionFailedAt *time.Time `json:"detectionFailedAt,omitempty"`

	CustomExecutionCommand CommandOverride `json:"customExecutionCommand,omitempty"`
}

// Installed reports whether the persisted installed flag is set.
func (s ToolState) Installed() bool {
	return s.InstallationStatus != nil && s.InstallationStatus.Installed
}

// StatePatch describes a partial state update. Nil fields are left
// untouched; non-nil fields replace the stored value.
type StatePatch struct {
	InstallationStatus     *InstallationStatus
	LastError              *LastError
	DetectionFailed        *bool
	DetectionFailedAt      *time.Time
	CustomExecutionCommand *CommandOverride
}

// Apply merges the patch onto a state value.
func (p StatePatch) Apply(s ToolState) ToolState {
	if p.InstallationStatus != nil {
		s.InstallationStatus = p.InstallationStatus
	}
	if p.LastError != nil {
		s.LastError = p.LastError
	}
	if p.DetectionFailed != nil {
		s.DetectionFailed = *p.DetectionFailed
	}
	if p.DetectionFailedAt != nil {
		s.DetectionFailedAt = p.DetectionFailedAt
	}
	if p.CustomExecutionCommand != nil {
		s.CustomExecutionCommand = *p.CustomExecutionCommand
	}
	return s
}

// ActionType labels an action log entry.
type ActionType string

const (
	ActionInstall ActionType = "install"
	ActionAnalyze ActionType = "analyze"
	ActionError   ActionType = "error"
)

// LogEntry is one append-only action log record for a tool.
type LogEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    ActionType `json:"action"`
	Command   string     `json:"command"`
	ExitCode  *int       `json:"exitCode,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Store is the persistence collaborator for tool state and action logs.
// LoadState returns the zero ToolState for unknown tools. AppendLog entries
// are never mutated after the fact.
type Store interface {
	LoadState(ctx context.Context, toolID string) (ToolState, error)
	SaveState(ctx context.Context, toolID string, patch StatePatch) error
	AppendLog(ctx context.Context, toolID string, entry LogEntry) error
	Logs(ctx context.Context, toolID string) ([]LogEntry, error)
}

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

// Time returns a pointer to t, for building patches.
func Time(t time.Time) *time.Time { return &t }

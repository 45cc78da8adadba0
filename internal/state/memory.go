package state

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]ToolState
	logs   map[string][]LogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]ToolState),
		logs:   make(map[string][]LogEntry),
	}
}

// LoadState returns the stored state, or the zero state for unknown tools.
func (m *MemoryStore) LoadState(_ context.Context, toolID string) (ToolState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[toolID], nil
}

// SaveState applies the patch to the stored record.
func (m *MemoryStore) SaveState(_ context.Context, toolID string, patch StatePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[toolID] = patch.Apply(m.states[toolID])
	return nil
}

// AppendLog appends one action log entry.
func (m *MemoryStore) AppendLog(_ context.Context, toolID string, entry LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[toolID] = append(m.logs[toolID], entry)
	return nil
}

// Logs returns a copy of the action log for a tool.
func (m *MemoryStore) Logs(_ context.Context, toolID string) ([]LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]LogEntry, len(m.logs[toolID]))
	copy(entries, m.logs[toolID])
	return entries, nil
}

// SetState replaces the whole record, bypassing patch semantics. Test helper.
func (m *MemoryStore) SetState(toolID string, st ToolState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[toolID] = st
}

var _ Store = (*MemoryStore)(nil)

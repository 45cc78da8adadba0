package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/climateandtech/carbonara-sub002/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_state (
    tool_id    TEXT PRIMARY KEY,
    state      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS action_log (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    tool_id   TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    action    TEXT NOT NULL,
    command   TEXT NOT NULL,
    exit_code INTEGER,
    error     TEXT
);

CREATE INDEX IF NOT EXISTS idx_action_log_tool ON action_log(tool_id);
`

// SQLiteStore is the production Store backed by a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the state database at path. WAL mode
// and a busy timeout are enabled for better concurrency within the single
// writer process.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.STATE_OPEN_FAILED, "failed to open state database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.STATE_OPEN_FAILED, "failed to ping state database", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, types.WrapError(types.STATE_OPEN_FAILED, "failed to initialize schema", err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// LoadState returns the persisted state for a tool, or the zero state when
// the tool has no record yet.
func (s *SQLiteStore) LoadState(ctx context.Context, toolID string) (ToolState, error) {
	var raw string
	err := s.conn.QueryRowContext(ctx,
		`SELECT state FROM tool_state WHERE tool_id = ?`, toolID).Scan(&raw)
	if err == sql.ErrNoRows {
		return ToolState{}, nil
	}
	if err != nil {
		return ToolState{}, types.WrapError(types.STATE_QUERY_FAILED, fmt.Sprintf("failed to load state for %s", toolID), err)
	}

	var st ToolState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return ToolState{}, types.WrapError(types.STATE_QUERY_FAILED, fmt.Sprintf("corrupt state record for %s", toolID), err)
	}
	return st, nil
}

// SaveState applies the patch to the stored record read-then-write. Writes
// happen only after the triggering subprocess has fully exited, so no
// partial in-progress state is ever persisted.
func (s *SQLiteStore) SaveState(ctx context.Context, toolID string, patch StatePatch) error {
	current, err := s.LoadState(ctx, toolID)
	if err != nil {
		return err
	}

	next := patch.Apply(current)
	raw, err := json.Marshal(next)
	if err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED, fmt.Sprintf("failed to encode state for %s", toolID), err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO tool_state (tool_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(tool_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		toolID, string(raw), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED, fmt.Sprintf("failed to save state for %s", toolID), err)
	}
	return nil
}

// AppendLog appends one action log entry. The log is append-only; rows are
// never updated or deleted.
func (s *SQLiteStore) AppendLog(ctx context.Context, toolID string, entry LogEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var exitCode any
	if entry.ExitCode != nil {
		exitCode = *entry.ExitCode
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO action_log (tool_id, timestamp, action, command, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		toolID, ts.Format(time.RFC3339Nano), string(entry.Action), entry.Command, exitCode, entry.Error)
	if err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED, fmt.Sprintf("failed to append log for %s", toolID), err)
	}
	return nil
}

// Logs returns all action log entries for a tool in insertion order.
func (s *SQLiteStore) Logs(ctx context.Context, toolID string) ([]LogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT timestamp, action, command, exit_code, error
		FROM action_log WHERE tool_id = ? ORDER BY id`, toolID)
	if err != nil {
		return nil, types.WrapError(types.STATE_QUERY_FAILED, fmt.Sprintf("failed to read log for %s", toolID), err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			ts       string
			entry    LogEntry
			exitCode sql.NullInt64
			errText  sql.NullString
		)
		if err := rows.Scan(&ts, &entry.Action, &entry.Command, &exitCode, &errText); err != nil {
			return nil, types.WrapError(types.STATE_QUERY_FAILED, "failed to scan log row", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			entry.Timestamp = parsed
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			entry.ExitCode = &code
		}
		if errText.Valid {
			entry.Error = errText.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.STATE_QUERY_FAILED, "failed to iterate log rows", err)
	}
	return entries, nil
}

var _ Store = (*SQLiteStore)(nil)

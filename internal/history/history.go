// Package history persists tool invocation records in a local SQLite
// database so operators can audit what an agent asked the daemons to do.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000 // milliseconds

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS invocations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		tool       TEXT    NOT NULL,
		instance   TEXT    NOT NULL DEFAULT '',
		is_error   INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		created_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at)`,
}

// Store records tool invocations. A nil *Store is a valid no-op recorder,
// used when history is disabled in the configuration.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is applied automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Record persists one invocation. Errors are returned for the caller to log;
// a failed history write never fails the tool call itself.
func (s *Store) Record(ctx context.Context, tool, instance string, isError bool, elapsed time.Duration) error {
	if s == nil {
		return nil
	}
	errFlag := 0
	if isError {
		errFlag = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (tool, instance, is_error, elapsed_ms) VALUES (?, ?, ?, ?)`,
		tool, instance, errFlag, elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("history: record invocation: %w", err)
	}
	return nil
}

// ToolStats is the aggregate for one tool.
type ToolStats struct {
	Tool      string `json:"tool"`
	Calls     int64  `json:"calls"`
	Errors    int64  `json:"errors"`
	AvgMillis int64  `json:"avg_ms"`
}

// Stats aggregates invocation counts per tool, most-called first.
func (s *Store) Stats(ctx context.Context) ([]ToolStats, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool, COUNT(*), SUM(is_error), CAST(AVG(elapsed_ms) AS INTEGER)
		 FROM invocations GROUP BY tool ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: query stats: %w", err)
	}
	defer rows.Close()

	var out []ToolStats
	for rows.Next() {
		var st ToolStats
		if err := rows.Scan(&st.Tool, &st.Calls, &st.Errors, &st.AvgMillis); err != nil {
			return nil, fmt.Errorf("history: scan stats: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate stats: %w", err)
	}
	return out, nil
}

// Prune deletes records older than the retention window and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format("2006-01-02T15:04:05.000Z")
	res, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune rows affected: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

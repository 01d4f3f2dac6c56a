// Package store owns the single SQLite database file backing one agent
// instance: schema creation for every persisted entity (messages,
// long-term memories, summaries, tools, tool executions, canvas
// programs, program data, scheduled tasks) and the shared transaction
// helper every other package builds its queries on top of.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store wraps the per-instance SQLite connection pool.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at path, or an
// in-memory database when path is empty — used by tests.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// A single file-backed SQLite connection serializes writers anyway;
	// capping the pool avoids "database is locked" errors under the
	// per-instance single-writer model described in the concurrency design.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying connection pool for packages that need to
// build their own queries against the schema created here.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			token_count INTEGER,
			metadata TEXT,
			summary_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_instance ON messages(instance_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS user_profile (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			content TEXT NOT NULL,
			kind TEXT NOT NULL,
			importance REAL NOT NULL,
			created_at DATETIME NOT NULL,
			last_accessed DATETIME NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0,
			tags TEXT,
			source_message_ids TEXT,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_instance ON memories(instance_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(instance_id, importance)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			start_message_id TEXT NOT NULL,
			end_message_id TEXT NOT NULL,
			prose TEXT NOT NULL,
			key_facts TEXT,
			tools_mentioned TEXT,
			topics TEXT,
			timestamp DATETIME NOT NULL,
			token_savings INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_instance ON summaries(instance_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS tools (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			version TEXT NOT NULL,
			script TEXT NOT NULL,
			parameter_schema TEXT,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			last_used DATETIME,
			usage_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			parent_tool_id TEXT,
			UNIQUE(instance_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_instance_status ON tools(instance_id, status)`,

		`CREATE TABLE IF NOT EXISTS tool_executions (
			id TEXT PRIMARY KEY,
			tool_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			success INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error_message TEXT,
			input_params TEXT,
			output TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_executions_tool ON tool_executions(tool_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS programs (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			version TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(instance_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS program_data (
			program_name TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (program_name, key)
		)`,

		`CREATE TABLE IF NOT EXISTS scheduled_tasks (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			name TEXT NOT NULL,
			cron_expression TEXT NOT NULL,
			task_prompt TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			notify INTEGER NOT NULL DEFAULT 0,
			last_run DATETIME,
			last_result TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_tasks_instance ON scheduled_tasks(instance_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for a fresh journal.
// It reflects the state after all migrations.
//
// This is the single source of truth for tests: setupTestDB helpers load it
// through GetSchemaSQL() instead of declaring tables of their own. When a
// column is added, add a migration and update SchemaSQL in the same change.
const SchemaSQL = `
-- One row per scaffold run that passed validation
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_name TEXT NOT NULL,
	target_path TEXT NOT NULL,
	state TEXT NOT NULL CHECK(state IN ('running', 'done', 'partially_completed')) DEFAULT 'running',
	modes TEXT,
	skip_restore INTEGER NOT NULL DEFAULT 0,
	skip_git INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target_path);
CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);

-- Every step event of a run, in the order it happened
CREATE TABLE IF NOT EXISTS steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	phase TEXT NOT NULL,
	step_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('ok', 'failed', 'skipped')),
	message TEXT,
	error_kind TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
`

// InitSchema brings database up to the current schema. A fresh database
// gets SchemaSQL directly with every migration marked applied; an existing
// one runs its pending migrations.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(database); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to mark migration %d applied: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}

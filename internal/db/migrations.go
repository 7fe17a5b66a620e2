package db

import (
	"database/sql"
	"fmt"
)

// Migration is one forward-only schema change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx) error
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs_and_steps",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_run_options_and_step_error_kind",
		Up:      migrationV2,
	},
}

// SchemaVersion returns the latest migration version.
func SchemaVersion() int {
	return migrations[len(migrations)-1].Version
}

func createVersionTable(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(database *sql.DB) error {
	if err := createVersionTable(database); err != nil {
		return err
	}

	var currentVersion int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the first journal layout: runs and their steps.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_name TEXT NOT NULL,
			target_path TEXT NOT NULL,
			state TEXT NOT NULL CHECK(state IN ('running', 'done', 'partially_completed')) DEFAULT 'running',
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target_path);
		CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);

		CREATE TABLE IF NOT EXISTS steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			phase TEXT NOT NULL,
			step_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('ok', 'failed', 'skipped')),
			message TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
	`)
	return err
}

// migrationV2 records the options a run was started with and the error kind
// of failed steps.
func migrationV2(tx *sql.Tx) error {
	stmts := []string{
		"ALTER TABLE runs ADD COLUMN modes TEXT",
		"ALTER TABLE runs ADD COLUMN skip_restore INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE runs ADD COLUMN skip_git INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE steps ADD COLUMN error_kind TEXT",
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	}
	return nil
}

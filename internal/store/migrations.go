package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Forecast run audit log",
		SQL: `
CREATE TABLE IF NOT EXISTS forecast_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    city TEXT NOT NULL,
    http_status INTEGER,
    rows_parsed INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    failure_kind TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_forecast_runs_started ON forecast_runs(started_at);
`,
	},
	{
		Version:     2,
		Description: "Record data quality flags per run",
		SQL: `
ALTER TABLE forecast_runs ADD COLUMN quality_flags TEXT;
`,
	},
	{
		Version:     3,
		Description: "Index failures by kind",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_forecast_runs_failure ON forecast_runs(success, failure_kind);
`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations, each
// in its own transaction.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	done, err := s.appliedVersions()
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		log.Printf("store: applying migration %d (%s)", m.Version, m.Description)
		if err := s.apply(m); err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Description, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

func (s *Store) appliedVersions() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// MigrationVersion is the highest applied migration, or 0 on a fresh store.
func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

package store

import (
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login_id TEXT UNIQUE NOT NULL,
		credential_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'MEMBER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id BIGSERIAL PRIMARY KEY,
		login_id TEXT UNIQUE NOT NULL,
		credential_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'MEMBER',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func (s *Store) migrate() error {
	migrations := sqliteMigrations
	if s.driver == DriverPostgres {
		migrations = postgresMigrations
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// The DDL is idempotent; a partial rerun is safe.
			head := strings.SplitN(strings.TrimSpace(m), "\n", 2)[0]
			return fmt.Errorf("migration %d (%s): %w", i, head, err)
		}
	}
	return nil
}

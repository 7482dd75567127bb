package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/signgate/signgate/internal/model"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store persists member accounts and process settings. SQLite is the
// default backend; Postgres is available for shared deployments.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the given backend and runs migrations. For sqlite the
// DSN is a file path (empty for in-memory); for postgres it is a standard
// connection string.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// OpenDir opens the default SQLite store inside dataDir, creating the
// directory if needed. Pass empty string for in-memory.
func OpenDir(dataDir string) (*Store, error) {
	if dataDir == "" {
		return openSQLite("")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return openSQLite(filepath.Join(dataDir, "signgate.db"))
}

func openSQLite(path string) (*Store, error) {
	dsn := ":memory:?_journal_mode=WAL"
	if path != "" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db, driver: DriverSQLite}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

func openPostgres(dsn string) (*Store, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, driver: DriverPostgres}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// CreateMember inserts a new member row. The ID and CreatedAt fields on m
// are populated after a successful insert. Returns ErrDuplicateLoginID when
// the login id is already taken; uniqueness is enforced by the database so
// concurrent creates cannot race past the check.
func (s *Store) CreateMember(ctx context.Context, m *model.Member) error {
	m.CreatedAt = time.Now().UTC()

	if s.driver == DriverPostgres {
		const q = `INSERT INTO members (login_id, credential_hash, name, role, created_at)
			VALUES (:login_id, :credential_hash, :name, :role, :created_at)
			RETURNING id`
		rows, err := s.db.NamedQueryContext(ctx, q, m)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateLoginID
			}
			return fmt.Errorf("insert member: %w", err)
		}
		defer rows.Close()
		if rows.Next() {
			if err := rows.Scan(&m.ID); err != nil {
				return fmt.Errorf("scan member id: %w", err)
			}
		}
		return nil
	}

	const q = `INSERT INTO members (login_id, credential_hash, name, role, created_at)
		VALUES (:login_id, :credential_hash, :name, :role, :created_at)`
	result, err := s.db.NamedExecContext(ctx, q, m)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLoginID
		}
		return fmt.Errorf("insert member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get member id: %w", err)
	}
	m.ID = id
	return nil
}

// GetMemberByLoginID returns a member by its unique login id.
func (s *Store) GetMemberByLoginID(ctx context.Context, loginID string) (*model.Member, error) {
	var m model.Member
	q := s.db.Rebind("SELECT * FROM members WHERE login_id = ?")
	if err := s.db.GetContext(ctx, &m, q, loginID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get member by login id: %w", err)
	}
	return &m, nil
}

// ListMembers returns all member accounts ordered by login id.
func (s *Store) ListMembers(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := s.db.SelectContext(ctx, &members, "SELECT * FROM members ORDER BY login_id"); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// CountMembers returns the number of member rows.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM members"); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value for a settings key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	q := s.db.Rebind("SELECT value FROM settings WHERE key = ?")
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a settings key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	q := s.db.Rebind(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// ListSettings returns all settings as a key/value map.
func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// isUniqueViolation matches unique-constraint errors across both backends.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

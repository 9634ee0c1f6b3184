package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/datacat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StackStore = (*Store)(nil)

// Store is a SQLite-backed driven.StackStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in dataDir.
// If dataDir is empty, defaults to ~/.datacat/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".datacat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL lets concurrent invocations read while one saves.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// migrate applies every NNN_name.up.sql newer than the recorded version.
// Each migration and its version row commit together.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var applied int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.apply(fsys, m); err != nil {
			return err
		}
	}
	return nil
}

type migration struct {
	version int
	file    string
}

func pendingMigrations(fsys fs.FS, after int) ([]migration, error) {
	files, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	var out []migration
	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= after {
			continue
		}
		out = append(out, migration{version: version, file: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (s *Store) apply(fsys fs.FS, m migration) error {
	body, err := fs.ReadFile(fsys, m.file)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", m.file, err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", m.file, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(body)); err != nil {
		return fmt.Errorf("executing migration %s: %w", m.file, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("recording migration %s: %w", m.file, err)
	}
	return tx.Commit()
}

// Save replaces the stored stack in one transaction.
func (s *Store) Save(ctx context.Context, entries []domain.StackEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stack_entries"); err != nil {
		return fmt.Errorf("clearing stack: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stack_entries (position, path, uuid, name) VALUES (?, ?, ?, ?)",
			e.Position, e.Path, e.UUID, e.Name)
		if err != nil {
			return fmt.Errorf("saving stack entry %s: %w", e.Path, err)
		}
	}
	return tx.Commit()
}

// Load returns the stored stack ordered by position.
func (s *Store) Load(ctx context.Context) ([]domain.StackEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT position, path, uuid, name FROM stack_entries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying stack: %w", err)
	}
	defer rows.Close()

	var entries []domain.StackEntry
	for rows.Next() {
		var e domain.StackEntry
		if err := rows.Scan(&e.Position, &e.Path, &e.UUID, &e.Name); err != nil {
			return nil, fmt.Errorf("scanning stack entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

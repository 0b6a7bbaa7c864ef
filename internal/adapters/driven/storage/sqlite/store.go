package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // migrate driver for modernc sqlite
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// DatabaseFile is created inside the data directory.
const DatabaseFile = "knowledge.db"

// Pragmas in the DSN apply to every pooled connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns one database file and hands out the port implementations over it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/knowledge.db, creating the directory and applying
// pending migrations. An empty dataDir means ~/.sercha-kb/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sqlite: home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-kb", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create %s: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	if err := Migrate(path); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Migrate applies the embedded migrations to the database file at path.
func Migrate(path string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path is the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

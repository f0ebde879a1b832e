package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/migration"
	"github.com/julianstephens/fitbot/migrations"
)

// pragmas applied to every connection. WAL lets readers run while the single
// writer holds the lock; busy_timeout absorbs contention from other processes.
const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type Store struct {
	path string
	db   *sql.DB
	// mu serialises writers inside this process. Readers share it.
	mu sync.RWMutex
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path+pragmas)
	if err != nil {
		return apperr.Store("open", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return apperr.Store("init", fmt.Errorf("failed to create config directory: %w", err))
	}
	if err := s.open(); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}

func (s *Store) Load(ctx context.Context) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'fitbot init' first")
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return apperr.Store("validate schema", runner.ValidateVersion(ctx))
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return apperr.Store("ping", fmt.Errorf("database not open"))
	}
	return apperr.Store("ping", s.db.PingContext(ctx))
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	r := migration.NewRunner(s.db, subFS, migration.Question)
	r.Register(2, "user_weight", addWeightColumn)
	return r, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runner, err := s.runner()
	if err != nil {
		return apperr.Store("ensure schema", err)
	}
	_, err = runner.ApplyMigrations(ctx, func(msg string) {
		logger.Info(msg, "store", "sqlite")
	})
	return apperr.Store("ensure schema", err)
}

func (s *Store) SchemaVersion(ctx context.Context) (int, int, error) {
	runner, err := s.runner()
	if err != nil {
		return 0, 0, apperr.Store("schema version", err)
	}
	current, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, 0, apperr.Store("schema version", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return 0, 0, apperr.Store("schema version", err)
	}
	return current, latest, nil
}

// addWeightColumn adds users.weight when a database predates it. SQLite has
// no ADD COLUMN IF NOT EXISTS, so the column list is inspected first.
func addWeightColumn(ctx context.Context, tx *sql.Tx) error {
	exists, err := columnExists(ctx, tx, "users", "weight")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.ExecContext(ctx, "ALTER TABLE users ADD COLUMN weight REAL")
	return err
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

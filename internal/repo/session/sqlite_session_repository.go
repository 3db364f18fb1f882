package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/teacherlink/webfront/internal/infra/logging"
)

const memoryDatabase = ":memory:"

// SQLiteRepositoryConfig holds configuration for the SQLite session repository.
type SQLiteRepositoryConfig struct {
	// Storage selects the backend: "sqlite" or "memory"
	Storage string `env:"STORAGE" default:"sqlite"`

	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/webfront-sessions.db"`
}

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteRepository)(nil)

// RepositoryFactoryFor picks the repository implementation named by cfg.Storage.
func RepositoryFactoryFor(ctx context.Context, cfg SQLiteRepositoryConfig) (RepositoryFactory, error) {
	switch cfg.Storage {
	case "memory":
		return func() (Repository, error) { return NewMemoryRepository(), nil }, nil
	case "", "sqlite":
		return func() (Repository, error) { return NewSQLiteRepository(ctx, cfg) }, nil
	default:
		return nil, fmt.Errorf("unknown session storage %q", cfg.Storage)
	}
}

// NewSQLiteRepository opens the database at cfg.DatabasePath and migrates it.
func NewSQLiteRepository(ctx context.Context, cfg SQLiteRepositoryConfig) (_ *SQLiteRepository, err error) {
	log := logging.GetLogger("repo.session.sqlite_session_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if cfg.DatabasePath != memoryDatabase {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	// every connection to :memory: is a separate database, so keep exactly one
	if cfg.DatabasePath == memoryDatabase {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "session store ready")

	return &SQLiteRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// Get implements Repository.Get.
func (r *SQLiteRepository) Get(ctx context.Context, sid, key string) ([]byte, bool, error) {
	var value []byte

	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM session_cache WHERE session_id = ? AND key = ?",
		sid, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("get session_cache[%s]: %w", key, err)
	}

	return value, true, nil
}

// Set implements Repository.Set.
func (r *SQLiteRepository) Set(ctx context.Context, sid, key string, value []byte) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if value == nil {
		value = []byte{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_cache (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, sid, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set session_cache[%s]: %w", key, err)
	}

	return nil
}

// Delete implements Repository.Delete.
func (r *SQLiteRepository) Delete(ctx context.Context, sid, key string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM session_cache WHERE session_id = ? AND key = ?", sid, key,
	); err != nil {
		return fmt.Errorf("delete session_cache[%s]: %w", key, err)
	}

	return nil
}

// Purge implements Repository.Purge.
func (r *SQLiteRepository) Purge(ctx context.Context, sid string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_cache WHERE session_id = ?", sid); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

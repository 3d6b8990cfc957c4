package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brunoscheufler/inkwell/util"
	_ "modernc.org/sqlite"
)

type sqliteStorage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	retry  util.RetryConfig
}

// StoreOptions configures store creation
type StoreOptions struct {
	Name     string
	BasePath string
	Config   DatabaseConfig
	Logger   *slog.Logger
}

// DefaultStoreOptions returns sensible defaults for store creation
func DefaultStoreOptions(name string) StoreOptions {
	return StoreOptions{
		Name:   name,
		Config: DefaultDatabaseConfig(),
	}
}

// NewSQLiteStorage opens (creating if needed) <BasePath>/.data/<Name>.db.
func NewSQLiteStorage(opts StoreOptions) (Storage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, path, err := createSQLiteDatabaseWithPath(opts.Name, opts.BasePath, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("could not create sqlite db: %w", err)
	}

	if err := createKVTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create kv table: %w", err)
	}

	retry := util.DefaultRetryConfig()
	retry.Retryable = isSQLiteBusyError
	retry.OnRetry = func(attempt int, err error) {
		logger.Debug("Retrying busy sqlite operation", "attempt", attempt, "error", err)
	}

	logger.Debug("Opened local storage", "path", path)

	return &sqliteStorage{db: db, path: path, logger: logger, retry: retry}, nil
}

func (s *sqliteStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM kv WHERE key = ?`

	var value []byte
	err := util.Retry(ctx, s.retry, func() error {
		return s.db.QueryRowContext(ctx, query, key).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	return value, true, nil
}

func (s *sqliteStorage) Set(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if value == nil {
		value = []byte{}
	}

	err := util.Retry(ctx, s.retry, func() error {
		_, execErr := s.db.ExecContext(ctx, query, key, value, time.Now().UnixMilli())
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *sqliteStorage) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv WHERE key = ?`

	err := util.Retry(ctx, s.retry, func() error {
		_, execErr := s.db.ExecContext(ctx, query, key)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *sqliteStorage) Keys(ctx context.Context) ([]string, error) {
	query := `SELECT key FROM kv ORDER BY key`

	var rows *sql.Rows
	err := util.Retry(ctx, s.retry, func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx, query)
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return keys, nil
}

func (s *sqliteStorage) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func createKVTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	_, err := db.Exec(query)
	return err
}

func createSQLiteDatabaseWithPath(name, basePath string, config DatabaseConfig) (*sql.DB, string, error) {
	var dir string
	if basePath != "" {
		dir = filepath.Join(basePath, ".data")
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("could not get working directory: %w", err)
		}
		dir = filepath.Join(wd, ".data")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, "", fmt.Errorf("could not create data dir: %w", err)
	}

	file := filepath.Join(dir, fmt.Sprintf("%s.db", name))

	dsn := fmt.Sprintf("file:%s", file)
	if config.EnableWAL {
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		// https://www.sqlite.org/pragma.html#pragma_busy_timeout
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(1000)&_pragma=synchronous(FULL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, "", fmt.Errorf("could not open sqlite db: %w", err)
	}

	// Single connection; writes from several processes go through busy retries
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	return db, file, nil
}

// isSQLiteBusyError checks if an error is a SQLite BUSY error that should be retried
func isSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := err.Error()
	return strings.Contains(errorStr, "database is locked") ||
		strings.Contains(errorStr, "SQLITE_BUSY")
}

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// schemaVersion is stored in PRAGMA user_version. Each entry in migrations
// moves the file forward by one version.
const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_ts TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
}

// SQLiteStore keeps the session token and command history in a single
// key/value table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	// Logout's delete and history writes must not interleave.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// EnsureSchema applies any migrations newer than the file's user_version.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("state database version %d is newer than supported %d", current, schemaVersion)
	}
	for v := current; v < schemaVersion; v++ {
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, v+1))
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate state to version %d: %w", v+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO app_settings(key, value, updated_ts) VALUES(?, ?, datetime('now'))
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts
			`, key, value)
			if err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
		}
		return nil
	})
}

// LoadSetting returns one value. A missing key is reported as ok=false,
// not as an error.
func (s *SQLiteStore) LoadSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// DeleteSettings removes all keys in a single transaction.
func (s *SQLiteStore) DeleteSettings(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM app_settings WHERE key = ?`, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

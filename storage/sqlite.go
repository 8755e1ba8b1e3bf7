package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	size  INTEGER NOT NULL
)`

// SQLite is a file-backed store. Keys enumerate in rowid order, which is
// first-insertion order because updates keep the original row.
type SQLite struct {
	db    *sql.DB
	quota int64
}

// SQLiteConfig holds configuration for the SQLite store.
type SQLiteConfig struct {
	Path       string // Database file, or ":memory:"
	QuotaBytes int64  // Maximum bytes of keys and values (0 = unbounded)
}

// NewSQLite opens (creating if needed) the database at cfg.Path.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}

	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Path, err)
	}
	// One connection keeps ":memory:" databases alive and avoids
	// SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, quota: cfg.QuotaBytes}, nil
}

// Get retrieves a value.
func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapSQLiteError(err)
	}
	return value, true, nil
}

// Set stores a value, failing with ErrQuotaExceeded if it does not fit.
func (s *SQLite) Set(key, value string) error {
	size := int64(len(key) + len(value))

	tx, err := s.db.Begin()
	if err != nil {
		return mapSQLiteError(err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var used int64
		err := tx.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM kv WHERE key <> ?`, key).Scan(&used)
		if err != nil {
			return mapSQLiteError(err)
		}
		if used+size > s.quota {
			return ErrQuotaExceeded
		}
	}

	_, err = tx.Exec(`INSERT INTO kv (key, value, size) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, size = excluded.size`,
		key, value, size)
	if err != nil {
		return mapSQLiteError(err)
	}
	return mapSQLiteError(tx.Commit())
}

// Remove deletes a key.
func (s *SQLite) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return mapSQLiteError(err)
}

// Keys lists keys with the given prefix in rowid order.
func (s *SQLite) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE substr(key, 1, length(?1)) = ?1 ORDER BY rowid`, prefix)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Size returns the bytes used by keys and values.
func (s *SQLite) Size() (int64, error) {
	var used int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM kv`).Scan(&used)
	return used, mapSQLiteError(err)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// mapSQLiteError turns a full database into ErrQuotaExceeded so callers
// treat disk exhaustion like the configured quota.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return ErrClosed
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrFull {
		return ErrQuotaExceeded
	}
	return err
}

// Verify SQLite implements KV
var _ KV = (*SQLite)(nil)

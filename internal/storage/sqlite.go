// Package storage provides SQLite persistence for leadfindr: the saved
// login session, cached business fetches for offline listings and
// exports, and the local scan history mirror.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	*sql.DB
	mu sync.RWMutex
}

var (
	instance *DB
	once     sync.Once
)

// GetDB returns the singleton database instance.
func GetDB() *DB {
	return instance
}

// Initialize creates and initializes the database.
func Initialize(dataDir string) (*DB, error) {
	var initErr error
	once.Do(func() {
		dbPath := filepath.Join(dataDir, "leadfindr.db")
		db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		instance = &DB{DB: db}

		if err := instance.createTables(); err != nil {
			initErr = fmt.Errorf("failed to create tables: %w", err)
			return
		}
	})

	return instance, initErr
}

// Open creates a standalone database at an explicit path, bypassing the
// singleton. Tests use it to get an isolated file per case.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	wrapped := &DB{DB: db}
	if err := wrapped.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return wrapped, nil
}

func (db *DB) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			email TEXT,
			account_json TEXT,
			saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS cached_businesses (
			scope TEXT NOT NULL,
			scope_key TEXT NOT NULL,
			place_id TEXT NOT NULL,
			name TEXT NOT NULL,
			record_json TEXT NOT NULL,
			dpi_score REAL,
			city TEXT,
			category TEXT,
			PRIMARY KEY (scope, scope_key, place_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cached_businesses_scope ON cached_businesses(scope, scope_key)`,
		`CREATE INDEX IF NOT EXISTS idx_cached_businesses_city ON cached_businesses(city)`,

		`CREATE TABLE IF NOT EXISTS cache_meta (
			scope TEXT NOT NULL,
			scope_key TEXT NOT NULL,
			total INTEGER,
			fetched_at DATETIME NOT NULL,
			PRIMARY KEY (scope, scope_key)
		)`,

		`CREATE TABLE IF NOT EXISTS scan_history (
			scan_id TEXT PRIMARY KEY,
			region_type TEXT,
			region_slug TEXT,
			city TEXT,
			state TEXT,
			country TEXT,
			status TEXT,
			business_count INTEGER DEFAULT 0,
			dpi_avg REAL,
			duration_seconds REAL,
			error_message TEXT,
			timestamp TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_history_timestamp ON scan_history(timestamp)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", table, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// WithLock executes a function with write lock.
func (db *DB) WithLock(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

// WithRLock executes a function with read lock.
func (db *DB) WithRLock(fn func() error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn()
}

// Package db owns the single SQLite connection shared by the Task Store and
// Watcher cursor store. SQLite's writer serialization model means a single
// forced connection, not a pool, is the correct shape here.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corvidlabs/corvid/internal/db/migrations"
	"github.com/corvidlabs/corvid/internal/logging"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo
)

// Store wraps the shared *sql.DB handed to the Task Store and Watcher state
// store. Both serialize through the single underlying connection.
type Store struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the SQLite database at path in WAL
// mode, forces a single connection, and applies migrations.
func NewSQLite(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite does not handle concurrent writers well; all access is
	// serialized through this single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Run(conn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logging.Infof("sqlite database initialized at %s", path)
	return &Store{DB: conn}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

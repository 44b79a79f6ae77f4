// Package cachestore provides SQLite-backed durable storage for source
// snapshots and application settings.
package cachestore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DB manages the SQLite database connection shared by the stores.
type DB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (or creates) the database at dbPath and applies all schemas.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	d := &DB{db: db, path: dbPath}
	for _, schema := range AllSchemas {
		if err := d.CreateTable(schema); err != nil {
			closeErr := d.Close()
			return nil, errors.Join(err, closeErr)
		}
	}
	return d, nil
}

// CreateTable creates a table using the provided schema
func (d *DB) CreateTable(schema string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// QueryRow executes a query that returns at most one row
func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db.QueryRow(query, args...)
}

// Exec executes a query without returning any rows
func (d *DB) Exec(query string, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.Exec(query, args...)
	return err
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

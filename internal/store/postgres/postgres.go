// Package postgres implements internal/store.Store against PostgreSQL,
// grounded on the teacher's internal/db package: a single Queries-like
// struct wrapping *sql.DB, one file per entity group, every method
// wrapping its cause with fmt.Errorf("...: %w", err) and returning
// sentinel-tagged errors via internal/asrerr at the call site.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Store is the PostgreSQL-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection, the way the
// teacher's cmd/server/main.go configures its connection pool.
func Open(databaseURL string, maxConns, maxIdle int) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-opened *sql.DB, used by tests with sqlmock or a
// test container.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for migrations and transaction
// management owned outside this package.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

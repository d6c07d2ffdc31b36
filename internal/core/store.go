package core

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// storePragmas tune the working store for a single bulk-loading session.
// Durability comes from the snapshot, not the working store.
var storePragmas = []string{
	"PRAGMA synchronous = OFF",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -64000",
}

// Store is the working relational store. It owns exactly one SQLite
// connection for its whole lifetime, so an in-memory database survives
// between statements and no other session can interleave.
type Store struct {
	db  *sqlx.DB
	dsn string
}

// OpenStore opens the working store at dsn (":memory:" or a file path).
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, pragma := range storePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open store: %s: %w", pragma, err)
		}
	}

	return &Store{db: db, dsn: dsn}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// DSN returns the data source the store was opened with.
func (s *Store) DSN() string {
	return s.dsn
}

// Close closes the store. An in-memory store is discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tables returns the names of all user tables, sorted.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// TableExists reports whether a table named name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	return tableExists(ctx, s.db, name)
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	return countRows(ctx, s.db, table)
}

func tableExists(ctx context.Context, db DBTX, name string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, db, &n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

func countRows(ctx context.Context, db DBTX, table string) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, db, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// dropTables drops each table if it exists.
func dropTables(ctx context.Context, db DBTX, tables ...string) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}

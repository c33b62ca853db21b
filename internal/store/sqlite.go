// Package store keeps the job and label catalog in SQLite. Jobs supply the
// frame bounds delivered by job binding; labels feed the label filter.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/soyeahso/annobot/internal/logging"
)

const memoryPath = ":memory:"

// DB is the catalog database.
type DB struct {
	sql *sql.DB
	log *logging.Logger
}

// Open opens or creates the catalog at path and brings its schema up to
// date. Pass ":memory:" for a throwaway catalog.
func Open(path string, log *logging.Logger) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if path == memoryPath {
		// Each connection to :memory: is its own database.
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{sql: sqlDB, log: log.Sub("store")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db.log.Info().Str("path", path).Msg("catalog opened")
	return db, nil
}

// dsn applies the connection pragmas through the driver so every pooled
// connection gets them.
func dsn(path string) string {
	pragmas := []string{"foreign_keys(1)", "busy_timeout(5000)"}
	if path != memoryPath {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	return path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Close closes the database.
func (db *DB) Close() error {
	return db.sql.Close()
}

// schemaVersion reads SQLite's user_version, which records how many
// migrations have been applied.
func (db *DB) schemaVersion() (int, error) {
	var v int
	if err := db.sql.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies the migrations past the current schema version, each in
// its own transaction.
func (db *DB) migrate() error {
	current, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("catalog schema version %d is newer than this build (%d)", current, len(migrations))
	}

	for i, m := range migrations[current:] {
		version := current + i + 1
		db.log.Debug().Int("version", version).Str("name", m.name).Msg("migrating catalog")

		tx, err := db.sql.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", version, m.name, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: recording version: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}
	return nil
}

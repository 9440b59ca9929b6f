package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations upgrade a registry one user_version at a time. Entry i moves
// a database from version i to i+1; schema.sql always describes version 0.
var migrations = []string{
	// 1: look up identical programs compiled from different sources.
	`CREATE INDEX IF NOT EXISTS idx_compilations_ir_hash ON compilations(ir_hash, seq)`,
}

// schemaVersion is the user_version of a fully migrated registry.
var schemaVersion = len(migrations)

// Store is the compilation registry. Each hpmc invocation opens it, records
// or lists a handful of rows and closes it again.
type Store struct {
	db *sql.DB
}

// Open opens the registry at path, creating and migrating it as needed.
//
// Connection settings are passed in the DSN so every pooled connection
// gets them:
//   - rollback journal: no -wal/-shm files left beside the registry
//   - foreign keys on: artifacts cannot outlive their compilation
//   - immediate transactions: Record's read-then-insert takes the write
//     lock up front, so a watch session and a second hpmc never deadlock
//   - busy timeout: the second writer waits instead of failing
func Open(path string) (*Store, error) {
	params := url.Values{}
	params.Set("_journal_mode", "DELETE")
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")
	params.Set("_busy_timeout", "5000")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the registry.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate applies the base schema and any pending migrations in one
// transaction, then stamps user_version.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("registry schema version %d is newer than this hpmc (%d)", version, schemaVersion)
	}

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for v := version; v < schemaVersion; v++ {
		if _, err := tx.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

// Package sqlite implements the upkeep repositories on SQLite.
//
// The database file lives in the configured data directory and persists
// across runs. All access goes through a single connection; uniqueness among
// active rows is enforced by partial unique indexes so that a conditional
// insert either succeeds or fails with types.ErrConflict.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// DBFile is the database file name inside the data directory.
const DBFile = "upkeep.db"

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a SQLite database file.
type Backend struct {
	mu     sync.RWMutex
	opened bool
	config types.Config
	db     *sql.DB

	// now is the timestamp source for created_at and updated_at.
	now func() time.Time
}

// NewBackend creates a backend that is not yet open.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Open creates the data directory if needed, opens the database, applies
// connection pragmas, and ensures the schema exists. Existing data is kept.
// Returns types.ErrAlreadyOpen if the backend is already open.
func (b *Backend) Open(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opened {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFile))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection serializes writers; pragmas below stick to it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", config.GetBusyTimeout().Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	b.db = db
	b.config = config
	b.opened = true
	return nil
}

// Close releases the database connection. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opened {
		return nil
	}
	b.opened = false
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	return nil
}

// conn returns the open database handle or types.ErrStoreClosed.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.opened {
		return nil, types.ErrStoreClosed
	}
	return b.db, nil
}

// stamp returns the current time truncated to the stored precision.
func (b *Backend) stamp() time.Time {
	return b.now().UTC().Truncate(time.Second)
}

// newID generates a UUID v7 for entity IDs.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// Package sqlite exposes the SQLite store to programs that embed upkeep,
// keeping the implementation internal.
package sqlite

import (
	"io"

	"github.com/mesh-intelligence/upkeep/internal/sqlite"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// Store is an open SQLite store. Close releases the database.
type Store interface {
	types.Store
	io.Closer
}

// Open opens the SQLite store in cfg.DataDir, creating the database and
// schema on first use.
//
// Example:
//
//	store, err := sqlite.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/upkeep",
//	})
//	if err != nil { ... }
//	defer store.Close()
func Open(cfg types.Config) (Store, error) {
	b := sqlite.NewBackend()
	if err := b.Open(cfg); err != nil {
		return nil, err
	}
	return b, nil
}

// Package storage defines the backend-agnostic persistence surface for
// repaired survey datasets plus a small factory so callers select a backend
// by name instead of importing driver packages. Concrete backends (sqlite,
// postgres) register themselves at init time; importing storage/all enables
// every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal contract a storage backend must satisfy:
// bulk-append rows, run DDL, release resources.
type Repository interface {
	// CopyFrom appends rows aligned to 'columns' order and returns the
	// number of rows inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs an arbitrary SQL statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases the underlying connection or pool.
	Close()
}

// Config selects and parameterizes a backend. Kind names a registered
// backend ("sqlite", "postgres"); DSN and Table are passed through to it.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Factory constructs a Repository for a Config. Backends register one per
// kind via Register.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. It is
// called from backend packages' init functions; tests re-register kinds to
// substitute fakes.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind using the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered backend names.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper is a backend-specific function that renders the
// observations table for the given name and applies it via repo.Exec,
// typically as CREATE TABLE IF NOT EXISTS. Backends register their
// implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL makes fn the table bootstrapper for a storage kind. Backends
// call it from init, next to their Register call.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for cfg.Kind and invokes it with
// cfg.Table. Callers stay backend-agnostic; they pass the same Config they
// opened the Repository with.
func EnsureTable(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper for kind %q", cfg.Kind)
	}
	return fn(ctx, repo, cfg.Table)
}

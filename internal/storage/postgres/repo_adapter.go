// This file registers the Postgres backend with the storage factory under
// the kind "postgres". Callers open it through storage.New and never import
// this package directly; importing storage/all is enough.
package postgres

import (
	"context"
	"fmt"

	"wardrive/internal/schema"
	"wardrive/internal/storage"
)

// newRepository points at NewRepository; adapter tests swap it to keep real
// connections out of the factory path.
var newRepository = NewRepository

// handle pairs the concrete Repository with the cleanup NewRepository
// returned, which is what gives it the interface's Close.
type handle struct {
	*Repository
	cleanup func()
}

func (h *handle) Close() {
	if h.cleanup != nil {
		h.cleanup()
	}
}

var _ storage.Repository = (*handle)(nil)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, cleanup, err := newRepository(ctx, Config{
			DSN:   cfg.DSN,
			Table: cfg.Table,
		})
		if err != nil {
			return nil, err
		}
		return &handle{Repository: r, cleanup: cleanup}, nil
	})

	// The bootstrapper renders the canonical observation table for this
	// dialect and applies it through the generic Exec.
	storage.RegisterDDL("postgres",
		func(ctx context.Context, repo storage.Repository, table string) error {
			stmt, err := BuildCreateTableSQL(table, schema.Default())
			if err != nil {
				return fmt.Errorf("render table definition: %w", err)
			}
			if err := repo.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}

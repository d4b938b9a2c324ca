// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "sqlite"   (wardrive/internal/storage/sqlite)
//   - "postgres" (wardrive/internal/storage/postgres)
//
// Typical usage (in cmd/wardrive/main.go or a similar wiring layer):
//
//	import (
//	    _ "wardrive/internal/storage/all" // enable all built-in backends
//
//	    "wardrive/internal/storage"
//	)
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind:  run.Storage.Kind,
//	    DSN:   run.Storage.DSN,
//	    Table: run.Storage.Table,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
//	if run.Storage.AutoCreateTable {
//	    if err := storage.EnsureTable(ctx, cfg, repo); err != nil {
//	        // handle DDL error
//	    }
//	}
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application to depend only on the storage
// abstraction rather than individual backends.
//
// A binary that supports only a subset of backends can blank-import the
// required backend packages directly instead of this package.
package all

import (
	_ "wardrive/internal/storage/postgres"
	_ "wardrive/internal/storage/sqlite"
)

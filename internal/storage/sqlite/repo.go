// Package sqlite persists survey observations in a SQLite database, either a
// file on disk or an in-memory instance for tests. SQLite has no bulk-load
// path like Postgres COPY, so batches go through a prepared INSERT inside one
// transaction, which amortizes the commit cost across the whole batch.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, registers as "sqlite"
)

// pingTimeout bounds the reachability check in NewRepository.
const pingTimeout = 5 * time.Second

// Config carries the SQLite half of storage.Config.
type Config struct {
	// DSN is a file path or connection string: "survey.db",
	// "file:survey.db?cache=shared", or ":memory:".
	DSN string

	// Table receives the observation rows, e.g. "observations".
	Table string
}

// Repository writes observation batches to a single SQLite database.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database named by cfg.DSN and verifies it is
// usable. The returned func closes the database; call it when the run ends.
//
// The pool is capped at one connection: SQLite serializes writers anyway,
// and a second connection to a ":memory:" DSN would see a separate, empty
// database.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: empty DSN")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open %q: %w", cfg.DSN, err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping %q: %w", cfg.DSN, err)
	}

	// SQLite ships with foreign keys off. The observation schema has no
	// relations today, but a run that adds them should get enforcement.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom writes rows into the configured table. The whole call shares one
// transaction: either every row lands or none do, so the returned count is
// what was actually committed.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom needs at least one column")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(r.cfg.Table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: row %d has %d cells, want %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec runs a statement outside the batch path, typically the CREATE TABLE
// bootstrap. Blank input is ignored.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// insertSQL renders INSERT INTO "tbl" ("a", "b") VALUES (?, ?).
func insertSQL(table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteFQN(table), strings.Join(quoteAll(columns), ", "), marks)
}

// quoteIdent double-quotes one identifier segment, doubling embedded quotes.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// quoteFQN quotes a possibly dotted name like "main.observations" one
// segment at a time.
func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// quoteAll quotes every column name.
func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

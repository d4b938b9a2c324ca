// Package postgres streams survey observations into Postgres over pgx v5.
// Batches ride the native COPY protocol, the fastest append path the server
// offers, so a large wardriving session loads in one round trip per batch.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config carries the Postgres half of storage.Config.
type Config struct {
	// DSN is a pgxpool connection string or URL.
	DSN string

	// Table is the COPY target, optionally schema-qualified:
	// "observations" or "public.observations".
	Table string
}

// Repository writes observation batches to a Postgres table.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository opens a connection pool for cfg.DSN. The returned func
// closes the pool; call it when the run ends. Connections are established
// lazily, so a wrong DSN may not surface until the first batch.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: empty DSN")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, func() { pool.Close() }, nil
}

// CopyFrom streams rows into the configured table via COPY. pgx quotes the
// table and column identifiers itself. The count reports rows the server
// accepted, which on failure can be fewer than len(rows).
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		// The server's detail line names the offending column and value;
		// show it when we have it.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Exec runs a statement outside the COPY path, typically the CREATE TABLE
// bootstrap. Blank input is ignored.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// splitFQN turns "public.observations" into pgx.Identifier{"public",
// "observations"}, dropping empty segments from stray dots.
func splitFQN(fqn string) pgx.Identifier {
	var id pgx.Identifier
	for _, p := range strings.Split(fqn, ".") {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// pgIdent double-quotes one identifier segment, doubling embedded quotes.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name one segment at a time, so
// "public.observations" renders as "public"."observations".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

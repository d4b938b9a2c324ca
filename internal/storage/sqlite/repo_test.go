package sqlite

import (
	"context"
	"strings"
	"testing"

	"wardrive/internal/schema"
)

// newMemRepo opens a fresh in-memory repository targeting the given table.
func newMemRepo(tb testing.TB, table string) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:", Table: table})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

// countRows reads the row count of a table straight off the test database.
func countRows(tb testing.TB, r *Repository, table string) int {
	tb.Helper()
	var n int
	if err := r.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+quoteFQN(table)).Scan(&n); err != nil {
		tb.Fatalf("count rows: %v", err)
	}
	return n
}

/*
TestNewRepository_EmptyDSN verifies an empty DSN fails fast instead of
deferring the error to the first insert.
*/
func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "  ", Table: "t"}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

/*
TestCopyFromRoundTrip verifies the bootstrap DDL plus CopyFrom writes rows
that can be read back, with NULLs where cells were missing.
*/
func TestCopyFromRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newMemRepo(t, "observations")

	stmt, err := BuildCreateTableSQL("observations", schema.Default())
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if err := r.Exec(ctx, stmt); err != nil {
		t.Fatalf("apply DDL: %v", err)
	}

	columns := []string{"SSID", "RSSI", "CurrentLatitude", "run_id"}
	rows := [][]any{
		{"cafe", int64(-61), 51.5074, "run-1"},
		{"office", int64(-72), 51.5080, "run-1"},
		{"hidden", nil, nil, "run-1"},
	}

	n, err := r.CopyFrom(ctx, columns, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted = %d, want 3", n)
	}
	if got := countRows(t, r, "observations"); got != 3 {
		t.Fatalf("table rows = %d, want 3", got)
	}

	// Spot-check a typed value and a NULL.
	var rssi int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT "RSSI" FROM "observations" WHERE "SSID" = ?`, "cafe").Scan(&rssi); err != nil {
		t.Fatalf("read back rssi: %v", err)
	}
	if rssi != -61 {
		t.Fatalf("rssi = %d, want -61", rssi)
	}

	var nulls int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM "observations" WHERE "RSSI" IS NULL`).Scan(&nulls); err != nil {
		t.Fatalf("count nulls: %v", err)
	}
	if nulls != 1 {
		t.Fatalf("NULL RSSI rows = %d, want 1", nulls)
	}
}

/*
TestCopyFromRowWidthMismatch verifies a short row aborts the transaction so
nothing from the bad batch is committed.
*/
func TestCopyFromRowWidthMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newMemRepo(t, "observations")

	stmt, err := BuildCreateTableSQL("observations", schema.Default())
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if err := r.Exec(ctx, stmt); err != nil {
		t.Fatalf("apply DDL: %v", err)
	}

	columns := []string{"SSID", "RSSI", "run_id"}
	rows := [][]any{
		{"ok", int64(-50), "run-1"},
		{"short", int64(-51)}, // missing run_id cell
	}

	if _, err := r.CopyFrom(ctx, columns, rows); err == nil {
		t.Fatalf("expected row-width error")
	}
	if got := countRows(t, r, "observations"); got != 0 {
		t.Fatalf("table rows after rollback = %d, want 0", got)
	}
}

/*
TestCopyFromEmpty verifies empty input is a no-op and empty columns are
rejected.
*/
func TestCopyFromEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newMemRepo(t, "observations")

	n, err := r.CopyFrom(ctx, []string{"SSID"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("CopyFrom(nil rows) = (%d, %v), want (0, nil)", n, err)
	}

	if _, err := r.CopyFrom(ctx, nil, [][]any{{"x"}}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}

/*
TestExecBlank verifies a blank statement is ignored rather than sent to the
driver.
*/
func TestExecBlank(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t, "observations")
	if err := r.Exec(context.Background(), "   "); err != nil {
		t.Fatalf("Exec blank: %v", err)
	}
}

/*
TestBuildCreateTableSQL verifies the rendered DDL quotes identifiers, maps
kinds onto affinities, and ends with the run_id column.
*/
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	stmt, err := BuildCreateTableSQL("observations", schema.Default())
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}

	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "observations"`,
		`"SSID" TEXT`,
		`"Channel" INTEGER`,
		`"RSSI" INTEGER`,
		`"CurrentLatitude" REAL`,
		`"run_id" TEXT`,
	} {
		if !strings.Contains(stmt, want) {
			t.Errorf("DDL missing %q:\n%s", want, stmt)
		}
	}

	if _, err := BuildCreateTableSQL("", schema.Default()); err == nil {
		t.Errorf("expected error for empty table name")
	}
	if _, err := BuildCreateTableSQL("t", nil); err == nil {
		t.Errorf("expected error for empty schema")
	}
}

/*
TestQuoteHelpers verifies identifier quoting, including embedded quotes and
dotted names.
*/
func TestQuoteHelpers(t *testing.T) {
	t.Parallel()

	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("quoteIdent = %s", got)
	}
	if got := quoteFQN("main.observations"); got != `"main"."observations"` {
		t.Errorf("quoteFQN = %s", got)
	}
	if got := quoteFQN("observations"); got != `"observations"` {
		t.Errorf("quoteFQN plain = %s", got)
	}
}

/*
BenchmarkCopyFrom measures transactional insert throughput on an in-memory
database, the shape a batch flush takes in production.
*/
func BenchmarkCopyFrom(b *testing.B) {
	ctx := context.Background()
	r := newMemRepo(b, "observations")

	stmt, err := BuildCreateTableSQL("observations", schema.Default())
	if err != nil {
		b.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if err := r.Exec(ctx, stmt); err != nil {
		b.Fatalf("apply DDL: %v", err)
	}

	columns := []string{"SSID", "RSSI", "run_id"}
	rows := make([][]any, 500)
	for i := range rows {
		rows[i] = []any{"net", int64(-60), "bench"}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.CopyFrom(ctx, columns, rows); err != nil {
			b.Fatalf("CopyFrom: %v", err)
		}
	}
}

package storage

import (
	"context"
	"errors"
	"testing"
)

// TestEnsureTable verifies the registered bootstrapper runs with the table
// from the Config and its error bubbles up unchanged.
func TestEnsureTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var gotTable string
	RegisterDDL("ddl-ok", func(ctx context.Context, repo Repository, table string) error {
		gotTable = table
		return nil
	})

	cfg := Config{Kind: "ddl-ok", Table: "observations"}
	if err := EnsureTable(ctx, cfg, &fakeRepo{}); err != nil {
		t.Fatalf("EnsureTable error: %v", err)
	}
	if gotTable != "observations" {
		t.Fatalf("bootstrapper table = %q, want %q", gotTable, "observations")
	}

	want := errors.New("ddl boom")
	RegisterDDL("ddl-err", func(ctx context.Context, repo Repository, table string) error {
		return want
	})
	if err := EnsureTable(ctx, Config{Kind: "ddl-err", Table: "t"}, &fakeRepo{}); !errors.Is(err, want) {
		t.Fatalf("EnsureTable error = %v, want %v", err, want)
	}
}

// TestEnsureTable_Unregistered verifies an unregistered kind is a plain error.
func TestEnsureTable_Unregistered(t *testing.T) {
	t.Parallel()

	err := EnsureTable(context.Background(), Config{Kind: "no-such-kind"}, &fakeRepo{})
	if err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}

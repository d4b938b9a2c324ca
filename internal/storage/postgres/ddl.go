package postgres

import (
	"fmt"
	"strings"

	"wardrive/internal/dataset"
	"wardrive/internal/schema"
	"wardrive/internal/storage"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE statement for the
// canonical observation columns plus run_id. Identifiers are quoted so the
// CamelCase canonical names survive Postgres's lower-case folding and line
// up with what pgx CopyFrom sends.
func BuildCreateTableSQL(table string, s schema.Schema) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("postgres ddl: table name must not be empty")
	}
	if len(s) == 0 {
		return "", fmt.Errorf("postgres ddl: schema must not be empty")
	}

	cols := make([]string, 0, len(s)+1)
	for _, f := range s {
		cols = append(cols, pgIdent(f.Canonical)+" "+sqlType(f.Kind))
	}
	cols = append(cols, pgIdent(storage.RunIDColumn)+" TEXT")

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		pgFQN(table),
		strings.Join(cols, ",\n  "),
	), nil
}

// sqlType maps a dataset.Kind onto a Postgres column type.
func sqlType(k dataset.Kind) string {
	switch k {
	case dataset.KindInt:
		return "BIGINT"
	case dataset.KindFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

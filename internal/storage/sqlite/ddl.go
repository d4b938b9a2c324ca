package sqlite

import (
	"fmt"
	"strings"

	"wardrive/internal/dataset"
	"wardrive/internal/schema"
	"wardrive/internal/storage"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the
// canonical observation columns plus run_id. The statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "observations" (
//	  "SSID" TEXT,
//	  "RSSI" INTEGER,
//	  ...
//	  "run_id" TEXT
//	);
//
// A dotted table name such as "main.observations" has each segment quoted
// individually.
func BuildCreateTableSQL(table string, s schema.Schema) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(s) == 0 {
		return "", fmt.Errorf("sqlite ddl: schema must not be empty")
	}

	cols := make([]string, 0, len(s)+1)
	for _, f := range s {
		cols = append(cols, quoteIdent(f.Canonical)+" "+sqlType(f.Kind))
	}
	cols = append(cols, quoteIdent(storage.RunIDColumn)+" TEXT")

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(table),
		strings.Join(cols, ",\n  "),
	), nil
}

// sqlType maps a dataset.Kind onto a SQLite column affinity.
func sqlType(k dataset.Kind) string {
	switch k {
	case dataset.KindInt:
		return "INTEGER"
	case dataset.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Package schema defines the canonical wardriving column set and resolves
// the header spellings observed in scan exports onto it. Survey tools
// rename columns across versions (RSSI vs Signal, FirstSeen vs Timestamp),
// so every consumer downstream of the resolver sees one fixed vocabulary.
package schema

import (
	"fmt"

	"wardrive/internal/dataset"
)

// Field declares one canonical column: its name, coarse type, whether a
// row is dropped when the value is missing after coercion, and the alias
// spellings accepted for it, in match-priority order.
type Field struct {
	Canonical string
	Kind      dataset.Kind
	Critical  bool
	Aliases   []string
}

// Schema is an ordered list of canonical fields. Order is preserved all
// the way into exports, so it should read naturally to an analyst.
type Schema []Field

// Default returns the canonical wardriving schema. The alias table covers
// the spellings seen across WiGLE, Kismet, and inSSIDer exports.
func Default() Schema {
	return Schema{
		{Canonical: "SSID", Kind: dataset.KindText,
			Aliases: []string{"ssid", "Ssid"}},
		{Canonical: "FirstSeen", Kind: dataset.KindText,
			Aliases: []string{"First seen", "firstseen", "Timestamp"}},
		{Canonical: "Channel", Kind: dataset.KindInt, Critical: true,
			Aliases: []string{"channel", "CH"}},
		{Canonical: "Frequency", Kind: dataset.KindInt,
			Aliases: []string{"frequency", "Freq"}},
		{Canonical: "RSSI", Kind: dataset.KindInt, Critical: true,
			Aliases: []string{"rssi", "Signal"}},
		{Canonical: "CurrentLatitude", Kind: dataset.KindFloat,
			Aliases: []string{"Latitude", "Lat", "latitude"}},
		{Canonical: "CurrentLongitude", Kind: dataset.KindFloat,
			Aliases: []string{"Longitude", "Lon", "longitude"}},
		{Canonical: "AuthMode", Kind: dataset.KindText,
			Aliases: []string{"Authentication", "Encryption", "auth"}},
	}
}

// Columns returns the canonical names in schema order.
func (s Schema) Columns() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Canonical
	}
	return out
}

// Critical returns the canonical names whose absence invalidates a row.
func (s Schema) Critical() []string {
	var out []string
	for _, f := range s {
		if f.Critical {
			out = append(out, f.Canonical)
		}
	}
	return out
}

// Kinds returns the canonical name to kind mapping.
func (s Schema) Kinds() map[string]dataset.Kind {
	out := make(map[string]dataset.Kind, len(s))
	for _, f := range s {
		out[f.Canonical] = f.Kind
	}
	return out
}

// Validate checks the structural invariants a resolution pass relies on:
// non-empty canonical names, no duplicate canonicals, and alias sets that
// stay disjoint across canonicals after folding. A violated invariant is
// a configuration bug, so Validate returns the first one found.
func Validate(s Schema) error {
	if len(s) == 0 {
		return fmt.Errorf("schema: no fields declared")
	}
	seen := make(map[string]string, len(s))
	for _, f := range s {
		if f.Canonical == "" {
			return fmt.Errorf("schema: field with empty canonical name")
		}
		key := foldHeader(f.Canonical)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("schema: canonical %q collides with %q", f.Canonical, prev)
		}
		seen[key] = f.Canonical
	}
	for _, f := range s {
		for _, a := range f.Aliases {
			key := foldHeader(a)
			if owner, ok := seen[key]; ok && owner != f.Canonical {
				return fmt.Errorf("schema: alias %q of %q collides with %q", a, f.Canonical, owner)
			}
			seen[key] = f.Canonical
		}
	}
	return nil
}

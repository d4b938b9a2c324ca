package schema

import (
	"fmt"
	"strings"
	"testing"
)

/*
TestResolve_AliasTable verifies the default schema resolves the header
spellings the major survey tools actually emit, and reports which source
column served each canonical.
*/
func TestResolve_AliasTable(t *testing.T) {
	header := []string{"Ssid", "Timestamp", "CH", "Freq", "Signal", "Lat", "Lon", "Encryption"}
	res := Resolve(header, Default())

	if len(res.Gaps) != 0 {
		t.Fatalf("gaps = %v; want none", res.Gaps)
	}
	wantSource := map[string]string{
		"SSID":             "Ssid",
		"FirstSeen":        "Timestamp",
		"Channel":          "CH",
		"Frequency":        "Freq",
		"RSSI":             "Signal",
		"CurrentLatitude":  "Lat",
		"CurrentLongitude": "Lon",
		"AuthMode":         "Encryption",
	}
	for canonical, source := range wantSource {
		m, ok := res.Mapping(canonical)
		if !ok {
			t.Fatalf("%s unresolved", canonical)
		}
		if m.Source != source {
			t.Errorf("%s resolved from %q; want %q", canonical, m.Source, source)
		}
		if !m.ViaAlias {
			t.Errorf("%s should be marked as an alias resolution", canonical)
		}
	}
}

/*
TestResolve_Idempotent verifies that resolving an already-canonical header
against the default schema maps every column onto itself with no gaps and
no alias hits. Repaired output is re-ingested through the same path, so
this must hold.
*/
func TestResolve_Idempotent(t *testing.T) {
	s := Default()
	res := Resolve(s.Columns(), s)

	if len(res.Gaps) != 0 {
		t.Fatalf("gaps = %v; want none", res.Gaps)
	}
	for i, f := range s {
		m, ok := res.Mapping(f.Canonical)
		if !ok {
			t.Fatalf("%s unresolved", f.Canonical)
		}
		if m.Index != i || m.Source != f.Canonical || m.ViaAlias {
			t.Errorf("%s mapped to %+v; want itself at index %d", f.Canonical, m, i)
		}
	}
}

/*
TestResolve_GapIsNotFatal verifies a canonical with no matching column is
reported as a gap and the rest of the header still resolves.
*/
func TestResolve_GapIsNotFatal(t *testing.T) {
	header := []string{"SSID", "Signal"}
	res := Resolve(header, Default())

	if _, ok := res.Mapping("RSSI"); !ok {
		t.Fatalf("RSSI should resolve from Signal")
	}
	found := false
	for _, g := range res.Gaps {
		if g == "Channel" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Channel should be reported as a gap; gaps = %v", res.Gaps)
	}
}

/*
TestResolve_FoldsCaseAccentsAndSeparators verifies the match key ignores
case, accents, and separator characters. Exports localized in Spanish use
headers like "Señal"; tools disagree about spaces vs camel case.
*/
func TestResolve_FoldsCaseAccentsAndSeparators(t *testing.T) {
	s := Schema{
		{Canonical: "RSSI", Aliases: []string{"Señal"}},
		{Canonical: "CurrentLatitude", Aliases: []string{"Latitude"}},
	}
	header := []string{"señal", "Current Latitude"}
	res := Resolve(header, s)

	if m, ok := res.Mapping("RSSI"); !ok || m.Index != 0 {
		t.Fatalf("RSSI should resolve from accented header; got %+v, %v", m, ok)
	}
	// "Current Latitude" folds to the canonical spelling itself.
	if m, ok := res.Mapping("CurrentLatitude"); !ok || m.Index != 1 || m.ViaAlias {
		t.Fatalf("CurrentLatitude should resolve directly; got %+v, %v", m, ok)
	}
}

/*
TestResolve_EmitsDiagnosticPerAlias verifies one diagnostic line per alias
resolution, none for direct matches.
*/
func TestResolve_EmitsDiagnosticPerAlias(t *testing.T) {
	var logged []string
	orig := logf
	logf = func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	defer func() { logf = orig }()

	Resolve([]string{"SSID", "Signal"}, Schema{
		{Canonical: "SSID"},
		{Canonical: "RSSI", Aliases: []string{"Signal"}},
	})

	aliasLines := 0
	for _, l := range logged {
		if strings.Contains(l, "resolved from") {
			aliasLines++
		}
	}
	if aliasLines != 1 {
		t.Fatalf("got %d alias diagnostics (%v); want 1", aliasLines, logged)
	}
}

/*
TestValidate_Disjointness verifies the alias-disjointness invariant: the
same spelling may not serve two canonical names within one schema.
*/
func TestValidate_Disjointness(t *testing.T) {
	bad := Schema{
		{Canonical: "RSSI", Aliases: []string{"Signal"}},
		{Canonical: "Quality", Aliases: []string{"signal"}},
	}
	if err := Validate(bad); err == nil {
		t.Fatalf("Validate should reject schemas with shared aliases")
	}

	if err := Validate(Default()); err != nil {
		t.Fatalf("default schema failed validation: %v", err)
	}
	if err := Validate(nil); err == nil {
		t.Fatalf("Validate should reject an empty schema")
	}
}

func TestSchemaAccessors(t *testing.T) {
	s := Default()
	cols := s.Columns()
	if len(cols) != 8 || cols[0] != "SSID" || cols[7] != "AuthMode" {
		t.Fatalf("Columns = %v", cols)
	}
	crit := s.Critical()
	if len(crit) != 2 || crit[0] != "Channel" || crit[1] != "RSSI" {
		t.Fatalf("Critical = %v; want [Channel RSSI]", crit)
	}
}

func BenchmarkResolve(b *testing.B) {
	header := []string{"Ssid", "Timestamp", "CH", "Freq", "Signal", "Lat", "Lon", "Encryption"}
	s := Default()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Resolve(header, s)
	}
}

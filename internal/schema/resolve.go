package schema

import (
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// logf is a seam so tests can capture resolver diagnostics.
var logf = log.Printf

// Mapping records where one canonical column's values come from.
type Mapping struct {
	Canonical string
	Source    string // observed header spelling that matched
	Index     int    // column index in the observed header
	ViaAlias  bool   // false when the canonical spelling itself matched
}

// Resolution is the outcome of matching an observed header against a
// Schema: one Mapping per resolved canonical, plus the canonicals no
// observed column could serve. A gap is a warning, never an error;
// downstream stages treat the column as wholly missing.
type Resolution struct {
	Mappings []Mapping
	Gaps     []string
}

// Mapping returns the mapping for a canonical name, if resolved.
func (r Resolution) Mapping(canonical string) (Mapping, bool) {
	for _, m := range r.Mappings {
		if m.Canonical == canonical {
			return m, true
		}
	}
	return Mapping{}, false
}

// Resolve matches the observed header against the schema. For each
// canonical field the canonical spelling is tried first, then the declared
// aliases in order; the first observed column that matches wins. Matching
// is case- and accent-insensitive and ignores separator characters, so
// "Current Latitude", "current-latitude", and "CurrentLatitude" all fold
// to the same key. Each alias resolution emits one diagnostic line.
//
// Resolving an already-canonical header against its own schema maps every
// column to itself, which is what makes re-ingesting repaired output safe.
func Resolve(header []string, s Schema) Resolution {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := foldHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var res Resolution
	for _, f := range s {
		if i, ok := index[foldHeader(f.Canonical)]; ok {
			res.Mappings = append(res.Mappings, Mapping{
				Canonical: f.Canonical, Source: header[i], Index: i,
			})
			continue
		}
		found := false
		for _, a := range f.Aliases {
			i, ok := index[foldHeader(a)]
			if !ok {
				continue
			}
			res.Mappings = append(res.Mappings, Mapping{
				Canonical: f.Canonical, Source: header[i], Index: i, ViaAlias: true,
			})
			logf("schema: %s resolved from column %q", f.Canonical, header[i])
			found = true
			break
		}
		if !found {
			res.Gaps = append(res.Gaps, f.Canonical)
			logf("schema: no column resolves %s; column will be missing", f.Canonical)
		}
	}
	return res
}

// foldHeader reduces a header spelling to a comparison key: lowercase,
// accents stripped (NFD, drop nonspacing marks, NFC), and everything that
// is not a letter or digit removed.
func foldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, _ := transform.String(t, s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

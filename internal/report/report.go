// Package report renders analysis findings as plain text, Markdown, and
// HTML. The text form follows the field-report layout surveyors read on
// site; the Markdown form is the source for the HTML rendering.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"wardrive/internal/analysis"
)

var timeNow = time.Now

// Meta carries the ingestion diagnostics that open every report, so a
// reader knows how much repair stands behind the numbers.
type Meta struct {
	InputPath    string
	RunID        string
	Strategy     string
	Corrections  int
	Skipped      int
	Dropped      int
	CoerceFailed map[string]int

	// Generated defaults to the current time when zero.
	Generated time.Time
}

func (m Meta) generated() time.Time {
	if m.Generated.IsZero() {
		return timeNow()
	}
	return m.Generated
}

// Paths are the report locations for one scan file, derived beside it.
type Paths struct {
	Text     string
	Markdown string
	HTML     string
}

// PathsFor derives the three report paths from the scan file name:
// capture.csv becomes capture_report.txt, .md, and .html.
func PathsFor(input string) Paths {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return Paths{
		Text:     base + "_report.txt",
		Markdown: base + "_report.md",
		HTML:     base + "_report.html",
	}
}

// WriteAll renders the report in all three forms.
func WriteAll(p Paths, m Meta, rep *analysis.Report) error {
	if err := os.WriteFile(p.Text, []byte(Text(m, rep)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(p.Markdown, []byte(Markdown(m, rep)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(p.HTML, HTML(m, rep), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// HTML renders the Markdown report as a complete standalone page.
func HTML(m Meta, rep *analysis.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(m, rep)))
	r := html.NewRenderer(html.RendererOptions{
		Title: "WiFi survey report " + filepath.Base(m.InputPath),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, r)
}

// pct is a safe percentage for report lines.
func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// joinInts renders a channel or frequency list as "1, 6, 11".
func joinInts(vs []int64) string {
	if len(vs) == 0 {
		return "none"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

// coerceLine folds the per-column failure counts into one stable line.
func coerceLine(failed map[string]int) string {
	if len(failed) == 0 {
		return "none"
	}
	cols := make([]string, 0, len(failed))
	for c := range failed {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%d", c, failed[c])
	}
	return strings.Join(parts, ", ")
}

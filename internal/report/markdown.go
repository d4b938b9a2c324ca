package report

import (
	"fmt"
	"strings"

	"wardrive/internal/analysis"
)

// Markdown renders the report for the HTML pipeline. Sections mirror the
// text form; tabular data becomes tables.
func Markdown(m Meta, rep *analysis.Report) string {
	var b strings.Builder
	total := rep.Summary.Total

	fmt.Fprintln(&b, "# WiFi interference and coverage report")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Scan file: `%s`  \n", m.InputPath)
	fmt.Fprintf(&b, "Run: `%s`  \n", m.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", m.generated().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Ingestion")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- Parse strategy: %s\n", m.Strategy)
	fmt.Fprintf(&b, "- Rows analyzed: %d\n", total)
	fmt.Fprintf(&b, "- Recovered shapes: %d\n", m.Corrections)
	fmt.Fprintf(&b, "- Skipped rows: %d\n", m.Skipped)
	fmt.Fprintf(&b, "- Dropped rows: %d\n", m.Dropped)
	fmt.Fprintf(&b, "- Failed coercions: %s\n", coerceLine(m.CoerceFailed))
	fmt.Fprintln(&b)

	ch := rep.Channels
	fmt.Fprintln(&b, "## Executive summary")
	fmt.Fprintln(&b)
	if len(ch.Stats) > 0 {
		fmt.Fprintf(&b, "- Most congested channel: %d (%d networks)\n",
			ch.MostCongested, channelCount(ch, ch.MostCongested))
		fmt.Fprintf(&b, "- Least congested channel: %d (%d networks)\n",
			ch.LeastCongested, channelCount(ch, ch.LeastCongested))
	}
	fmt.Fprintf(&b, "- Free anchor channels: %s\n", joinInts(ch.Optimal))
	fmt.Fprintf(&b, "- Weak signals at or below %d dBm: %d (%.1f%%)\n",
		analysis.WeakThreshold, rep.WeakTotal, pct(rep.WeakTotal, total))
	fmt.Fprintf(&b, "- Distinct networks: %d\n", rep.Summary.UniqueSSIDs)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Channel occupancy")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Channel | Networks | Mean RSSI (dBm) | State |")
	fmt.Fprintln(&b, "|--------:|---------:|----------------:|-------|")
	for _, cs := range ch.Stats {
		fmt.Fprintf(&b, "| %d | %d | %.1f | %s |\n", cs.Channel, cs.Count, cs.MeanRSSI, cs.Tier)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Interference")
	fmt.Fprintln(&b)
	if len(ch.Interferers) == 0 {
		fmt.Fprintln(&b, "No networks outside the anchor channels.")
	} else {
		fmt.Fprintln(&b, "| Channel | Overlaps | Distance | Networks |")
		fmt.Fprintln(&b, "|--------:|---------:|---------:|---------:|")
		for _, in := range ch.Interferers {
			fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", in.Channel, in.Nearest, in.Distance, in.Count)
		}
	}
	fmt.Fprintln(&b)

	q := rep.Quality
	fmt.Fprintln(&b, "## Signal quality")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Band | Observations | Share |")
	fmt.Fprintln(&b, "|------|-------------:|------:|")
	fmt.Fprintf(&b, "| Excellent (> -65 dBm) | %d | %.1f%% |\n", q.Excellent, pct(q.Excellent, total))
	fmt.Fprintf(&b, "| Good (-75 to -65) | %d | %.1f%% |\n", q.Good, pct(q.Good, total))
	fmt.Fprintf(&b, "| Acceptable (-85 to -75) | %d | %.1f%% |\n", q.Acceptable, pct(q.Acceptable, total))
	fmt.Fprintf(&b, "| Weak (< -85 dBm) | %d | %.1f%% |\n", q.Weak, pct(q.Weak, total))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Security")
	fmt.Fprintln(&b)
	sec := rep.Security
	fmt.Fprintf(&b, "- Open networks: %d%s\n", sec.OpenCount, nameList(sec.OpenSSIDs))
	fmt.Fprintf(&b, "- WEP networks: %d%s\n", sec.WEPCount, nameList(sec.WEPSSIDs))
	fmt.Fprintf(&b, "- WPA2 networks: %d\n", sec.WPA2Count)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Top networks")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| # | SSID | Observations | Mean RSSI (dBm) |")
	fmt.Fprintln(&b, "|--:|------|-------------:|----------------:|")
	for i, tc := range rep.Summary.TopSSIDs {
		fmt.Fprintf(&b, "| %d | %s | %d | %.1f |\n", i+1, orHidden(tc.SSID), tc.Count, tc.MeanRSSI)
	}
	fmt.Fprintln(&b)

	rs := rep.Summary.RSSI
	sh := rep.Shape
	fmt.Fprintln(&b, "## RSSI distribution")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- mean %.1f, stddev %.1f, median %.1f\n", rs.Mean, rs.StdDev, rs.Median)
	fmt.Fprintf(&b, "- min %.1f, q25 %.1f, q75 %.1f, max %.1f\n", rs.Min, rs.Q25, rs.Q75, rs.Max)
	fmt.Fprintf(&b, "- skewness %.2f, kurtosis %.2f, normality p=%.3f (%s)\n",
		sh.Skewness, sh.Kurtosis, sh.PValue, normalWord(sh.Normal))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Capture period")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- %s to %s\n", rep.Summary.FirstSeen, rep.Summary.LastSeen)
	fmt.Fprintf(&b, "- Channels: %s\n", joinInts(rep.Summary.Channels))
	fmt.Fprintf(&b, "- Frequencies: %s MHz\n", joinInts(rep.Summary.Frequencies))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Recommendations")
	fmt.Fprintln(&b)
	for i, r := range recommendations(rep) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}

package report

import (
	"fmt"
	"strings"

	"wardrive/internal/analysis"
)

const (
	rule    = "================================================================================"
	subrule = "----------------------------------------"
)

// Text renders the plain-text field report.
func Text(m Meta, rep *analysis.Report) string {
	var b strings.Builder
	total := rep.Summary.Total

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, " WIFI INTERFERENCE AND COVERAGE REPORT - 2.4 GHZ BAND")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Scan file:  %s\n", m.InputPath)
	fmt.Fprintf(&b, "Run:        %s\n", m.RunID)
	fmt.Fprintf(&b, "Generated:  %s\n", m.generated().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b)

	section(&b, "INGESTION")
	fmt.Fprintf(&b, "Parse strategy:     %s\n", m.Strategy)
	fmt.Fprintf(&b, "Rows analyzed:      %d\n", total)
	fmt.Fprintf(&b, "Recovered shapes:   %d\n", m.Corrections)
	fmt.Fprintf(&b, "Skipped rows:       %d\n", m.Skipped)
	fmt.Fprintf(&b, "Dropped rows:       %d (missing critical values)\n", m.Dropped)
	fmt.Fprintf(&b, "Failed coercions:   %s\n", coerceLine(m.CoerceFailed))
	fmt.Fprintln(&b)

	section(&b, "EXECUTIVE SUMMARY")
	ch := rep.Channels
	if len(ch.Stats) > 0 {
		fmt.Fprintf(&b, "* Most congested channel:  %d (%d networks)\n",
			ch.MostCongested, channelCount(ch, ch.MostCongested))
		fmt.Fprintf(&b, "* Least congested channel: %d (%d networks)\n",
			ch.LeastCongested, channelCount(ch, ch.LeastCongested))
	}
	fmt.Fprintf(&b, "* Free anchor channels:    %s\n", joinInts(ch.Optimal))
	fmt.Fprintf(&b, "* Weak signals (<= %d dBm): %d (%.1f%%)\n",
		analysis.WeakThreshold, rep.WeakTotal, pct(rep.WeakTotal, total))
	fmt.Fprintf(&b, "* Distinct networks:       %d\n", rep.Summary.UniqueSSIDs)
	fmt.Fprintf(&b, "* Open networks:           %d\n", rep.Security.OpenCount)
	fmt.Fprintln(&b)

	section(&b, "CHANNEL OCCUPANCY")
	if len(ch.Stats) == 0 {
		fmt.Fprintln(&b, "No channel data.")
	}
	for _, cs := range ch.Stats {
		fmt.Fprintf(&b, "Channel %2d: %4d networks | mean RSSI %6.1f dBm | %s\n",
			cs.Channel, cs.Count, cs.MeanRSSI, cs.Tier)
	}
	fmt.Fprintln(&b)

	section(&b, "NON-OVERLAPPING CHANNELS (1, 6, 11)")
	for _, cs := range ch.NonOverlapping {
		fmt.Fprintf(&b, "Channel %2d: %4d networks - %s\n", cs.Channel, cs.Count, cs.Tier)
	}
	fmt.Fprintln(&b)

	section(&b, "INTERFERENCE")
	if len(ch.Interferers) == 0 {
		fmt.Fprintln(&b, "No networks outside the anchor channels.")
	}
	for _, in := range ch.Interferers {
		fmt.Fprintf(&b, "Channel %2d overlaps channel %2d (distance %d) - %d networks\n",
			in.Channel, in.Nearest, in.Distance, in.Count)
	}
	fmt.Fprintln(&b)

	section(&b, "SIGNAL QUALITY")
	q := rep.Quality
	fmt.Fprintf(&b, "Excellent  (> -65 dBm):     %4d (%.1f%%)\n", q.Excellent, pct(q.Excellent, total))
	fmt.Fprintf(&b, "Good       (-75 to -65):    %4d (%.1f%%)\n", q.Good, pct(q.Good, total))
	fmt.Fprintf(&b, "Acceptable (-85 to -75):    %4d (%.1f%%)\n", q.Acceptable, pct(q.Acceptable, total))
	fmt.Fprintf(&b, "Weak       (< -85 dBm):     %4d (%.1f%%)\n", q.Weak, pct(q.Weak, total))
	fmt.Fprintln(&b)

	section(&b, fmt.Sprintf("WEAK SIGNALS (<= %d dBm)", analysis.WeakThreshold))
	if len(rep.Weak) == 0 {
		fmt.Fprintln(&b, "None detected.")
	}
	for _, w := range rep.Weak {
		fmt.Fprintf(&b, "%s: %d dBm (channel %d)\n", orHidden(w.SSID), w.RSSI, w.Channel)
	}
	if rep.WeakTotal > len(rep.Weak) {
		fmt.Fprintf(&b, "... and %d more\n", rep.WeakTotal-len(rep.Weak))
	}
	fmt.Fprintln(&b)

	section(&b, "SECURITY")
	sec := rep.Security
	fmt.Fprintf(&b, "Open networks:  %d%s\n", sec.OpenCount, nameList(sec.OpenSSIDs))
	fmt.Fprintf(&b, "WEP networks:   %d%s\n", sec.WEPCount, nameList(sec.WEPSSIDs))
	fmt.Fprintf(&b, "WPA2 networks:  %d\n", sec.WPA2Count)
	fmt.Fprintln(&b)

	section(&b, "TOP NETWORKS")
	for i, tc := range rep.Summary.TopSSIDs {
		fmt.Fprintf(&b, "%2d. %-24s %4d obs | mean RSSI %6.1f dBm\n",
			i+1, orHidden(tc.SSID), tc.Count, tc.MeanRSSI)
	}
	fmt.Fprintln(&b)

	section(&b, "RSSI DISTRIBUTION")
	rs := rep.Summary.RSSI
	fmt.Fprintf(&b, "mean %.1f  stddev %.1f  median %.1f\n", rs.Mean, rs.StdDev, rs.Median)
	fmt.Fprintf(&b, "min %.1f  q25 %.1f  q75 %.1f  max %.1f\n", rs.Min, rs.Q25, rs.Q75, rs.Max)
	sh := rep.Shape
	fmt.Fprintf(&b, "skewness %.2f  kurtosis %.2f  normality p=%.3f (%s)\n",
		sh.Skewness, sh.Kurtosis, sh.PValue, normalWord(sh.Normal))
	fmt.Fprintln(&b)

	section(&b, "CAPTURE PERIOD")
	fmt.Fprintf(&b, "%s to %s\n", rep.Summary.FirstSeen, rep.Summary.LastSeen)
	fmt.Fprintf(&b, "Channels:    %s\n", joinInts(rep.Summary.Channels))
	fmt.Fprintf(&b, "Frequencies: %s MHz\n", joinInts(rep.Summary.Frequencies))
	fmt.Fprintln(&b)

	section(&b, "RECOMMENDATIONS")
	for i, r := range recommendations(rep) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintln(b, title)
	fmt.Fprintln(b, subrule)
}

func channelCount(ch analysis.ChannelReport, channel int64) int {
	for _, cs := range ch.Stats {
		if cs.Channel == channel {
			return cs.Count
		}
	}
	return 0
}

// orHidden keeps hidden-network rows legible in listings.
func orHidden(ssid string) string {
	if strings.TrimSpace(ssid) == "" {
		return "<hidden>"
	}
	return ssid
}

func nameList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	shown := make([]string, len(names))
	for i, n := range names {
		shown[i] = orHidden(n)
	}
	return "  (" + strings.Join(shown, ", ") + ")"
}

func normalWord(normal bool) string {
	if normal {
		return "normal"
	}
	return "not normal"
}

// recommendations derives the action list from the findings. Every line
// is conditional on the data, so an empty survey yields only the 5 GHz
// advice.
func recommendations(rep *analysis.Report) []string {
	var out []string
	ch := rep.Channels
	if len(ch.Optimal) > 0 {
		out = append(out, fmt.Sprintf("Prefer channels %s for new deployments.", joinInts(ch.Optimal)))
	}
	if len(ch.Interferers) > 0 {
		chans := make([]int64, len(ch.Interferers))
		for i, in := range ch.Interferers {
			chans[i] = in.Channel
		}
		out = append(out, fmt.Sprintf("Move networks on channels %s onto an anchor channel.", joinInts(chans)))
	}
	out = append(out, "Migrate dense deployments to the 5 GHz band where hardware allows.")
	if rep.WeakTotal > 0 {
		out = append(out, fmt.Sprintf("Investigate the %d weak signals for coverage gaps.", rep.WeakTotal))
	}
	if rep.Security.OpenCount > 0 || rep.Security.WEPCount > 0 {
		out = append(out, fmt.Sprintf("Secure the %d open networks and retire the %d WEP networks.",
			rep.Security.OpenCount, rep.Security.WEPCount))
	}
	return out
}

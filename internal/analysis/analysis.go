// Package analysis derives interference, coverage, and security findings
// from a canonical dataset. It consumes typed rows only: recovery and
// repair diagnostics stay upstream, so every number here describes the
// surviving data, not the damage.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"wardrive/internal/dataset"
)

// WeakThreshold is the interference floor: observations at or below it
// are reported as weak-signal networks.
const WeakThreshold = -80

// RSSIStats are the summary statistics of the RSSI column.
type RSSIStats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	Q25    float64
	Q75    float64
}

// SSIDCount is one network ranked by observation count.
type SSIDCount struct {
	SSID     string
	Count    int
	MeanRSSI float64
}

// Summary is the general section of an analysis report.
type Summary struct {
	Total       int
	UniqueSSIDs int
	TopSSIDs    []SSIDCount // five most observed
	RSSI        RSSIStats
	FirstSeen   string // earliest and latest FirstSeen values
	LastSeen    string
	Channels    []int64 // distinct, ascending
	Frequencies []int64 // distinct, ascending, MHz
}

// QualityBands counts observations per signal-quality band. Boundaries
// follow survey convention: excellent above -65 dBm, good down to -75,
// acceptable down to but excluding -85, weak below that.
type QualityBands struct {
	Excellent  int
	Good       int
	Acceptable int
	Weak       int
}

// Band returns the band name for one RSSI value.
func Band(rssi float64) string {
	switch {
	case rssi > -65:
		return "excellent"
	case rssi >= -75:
		return "good"
	case rssi >= -85:
		return "acceptable"
	default:
		return "weak"
	}
}

// WeakSignal is one observation at or below WeakThreshold.
type WeakSignal struct {
	SSID    string
	Channel int64
	RSSI    int64
}

// Security summarizes authentication modes by distinct SSID. SSID lists
// keep the first five in observation order.
type Security struct {
	OpenCount int
	OpenSSIDs []string
	WEPCount  int
	WEPSSIDs  []string
	WPA2Count int
}

// Report is the complete analysis output consumed by the reporters and
// map writers.
type Report struct {
	Summary   Summary
	Channels  ChannelReport
	Quality   QualityBands
	Weak      []WeakSignal // first ten
	WeakTotal int
	Security  Security
	Shape     Shape
}

// Analyze runs every analysis over the dataset. It fails only when the
// dataset carries no usable RSSI values, since every section hangs off
// signal strength.
func Analyze(ds *dataset.Dataset) (*Report, error) {
	summary, err := Summarize(ds)
	if err != nil {
		return nil, err
	}
	weak, weakTotal := WeakSignals(ds)
	return &Report{
		Summary:   summary,
		Channels:  Channels(ds),
		Quality:   Quality(ds),
		Weak:      weak,
		WeakTotal: weakTotal,
		Security:  SecurityMix(ds),
		Shape:     DistributionShape(ds.Floats("RSSI")),
	}, nil
}

// Summarize builds the general section: totals, top networks, RSSI
// statistics, capture period, and the channel/frequency inventory.
func Summarize(ds *dataset.Dataset) (Summary, error) {
	rssi := ds.Floats("RSSI")
	if len(rssi) == 0 {
		return Summary{}, fmt.Errorf("analyze: no usable RSSI values in %d rows", len(ds.Rows))
	}
	rs, err := rssiStats(rssi)
	if err != nil {
		return Summary{}, fmt.Errorf("analyze rssi: %w", err)
	}

	s := Summary{
		Total:       len(ds.Rows),
		RSSI:        rs,
		Channels:    distinctInts(ds, "Channel"),
		Frequencies: distinctInts(ds, "Frequency"),
	}

	seen := ds.Strings("FirstSeen")
	for _, v := range seen {
		if s.FirstSeen == "" || v < s.FirstSeen {
			s.FirstSeen = v
		}
		if v > s.LastSeen {
			s.LastSeen = v
		}
	}

	s.UniqueSSIDs, s.TopSSIDs = topSSIDs(ds, 5)
	return s, nil
}

func rssiStats(data []float64) (RSSIStats, error) {
	var rs RSSIStats
	var err error
	if rs.Mean, err = stats.Mean(data); err != nil {
		return rs, err
	}
	if rs.StdDev, err = stats.StandardDeviation(data); err != nil {
		return rs, err
	}
	if rs.Min, err = stats.Min(data); err != nil {
		return rs, err
	}
	if rs.Max, err = stats.Max(data); err != nil {
		return rs, err
	}
	if rs.Median, err = stats.Median(data); err != nil {
		return rs, err
	}
	// Quartiles are undefined for very small samples; fall back to the
	// median so min <= q25 <= median <= q75 <= max always holds.
	if q, qerr := stats.Percentile(data, 25); qerr == nil {
		rs.Q25 = q
	} else {
		rs.Q25 = rs.Median
	}
	if q, qerr := stats.Percentile(data, 75); qerr == nil {
		rs.Q75 = q
	} else {
		rs.Q75 = rs.Median
	}
	return rs, nil
}

// topSSIDs counts observations per SSID and returns the unique count and
// the n most observed with their mean RSSI. Ties break toward the name
// seen first.
func topSSIDs(ds *dataset.Dataset, n int) (unique int, top []SSIDCount) {
	counts := make(map[string]int)
	sums := make(map[string]float64)
	var order []string
	for _, row := range ds.Rows {
		ssid, ok := row.String("SSID")
		if !ok {
			continue
		}
		if counts[ssid] == 0 {
			order = append(order, ssid)
		}
		counts[ssid]++
		if v, ok := row.Float("RSSI"); ok {
			sums[ssid] += v
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	for i, ssid := range order {
		if i == n {
			break
		}
		top = append(top, SSIDCount{
			SSID:     ssid,
			Count:    counts[ssid],
			MeanRSSI: sums[ssid] / float64(counts[ssid]),
		})
	}
	return len(order), top
}

// Quality buckets every RSSI observation into its band.
func Quality(ds *dataset.Dataset) QualityBands {
	var q QualityBands
	for _, v := range ds.Floats("RSSI") {
		switch Band(v) {
		case "excellent":
			q.Excellent++
		case "good":
			q.Good++
		case "acceptable":
			q.Acceptable++
		default:
			q.Weak++
		}
	}
	return q
}

// WeakSignals returns the first ten observations at or below
// WeakThreshold plus the total count.
func WeakSignals(ds *dataset.Dataset) ([]WeakSignal, int) {
	var out []WeakSignal
	total := 0
	for _, row := range ds.Rows {
		rssi, ok := row.Int("RSSI")
		if !ok || rssi > WeakThreshold {
			continue
		}
		total++
		if len(out) == 10 {
			continue
		}
		ssid, _ := row.String("SSID")
		ch, _ := row.Int("Channel")
		out = append(out, WeakSignal{SSID: ssid, Channel: ch, RSSI: rssi})
	}
	return out, total
}

// SecurityMix queries authentication modes: open networks, weakly
// encrypted WEP, and the WPA2 family, each counted by distinct SSID.
func SecurityMix(ds *dataset.Dataset) Security {
	var sec Security
	open := make(map[string]bool)
	wep := make(map[string]bool)
	wpa2 := make(map[string]bool)
	for _, row := range ds.Rows {
		auth, ok := row.String("AuthMode")
		if !ok {
			continue
		}
		ssid, _ := row.String("SSID")
		switch {
		case auth == "OPEN":
			if !open[ssid] {
				open[ssid] = true
				sec.OpenCount++
				if len(sec.OpenSSIDs) < 5 {
					sec.OpenSSIDs = append(sec.OpenSSIDs, ssid)
				}
			}
		case auth == "WEP":
			if !wep[ssid] {
				wep[ssid] = true
				sec.WEPCount++
				if len(sec.WEPSSIDs) < 5 {
					sec.WEPSSIDs = append(sec.WEPSSIDs, ssid)
				}
			}
		}
		if strings.Contains(auth, "WPA2") && !wpa2[ssid] {
			wpa2[ssid] = true
			sec.WPA2Count++
		}
	}
	return sec
}

func distinctInts(ds *dataset.Dataset, col string) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, v := range ds.Ints(col) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

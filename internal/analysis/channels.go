package analysis

import (
	"sort"

	"github.com/montanaflynn/stats"

	"wardrive/internal/dataset"
)

// anchors are the 2.4 GHz channels that do not overlap each other.
// Every other channel in the band bleeds into at least one of them.
var anchors = []int64{1, 6, 11}

// ChannelStats aggregates one channel.
type ChannelStats struct {
	Channel  int64
	Count    int
	MeanRSSI float64
	Tier     string
}

// Interferer is a populated channel outside the anchor set, paired with
// the anchor it overlaps.
type Interferer struct {
	Channel  int64
	Nearest  int64
	Distance int64
	Count    int
}

// ChannelReport is the channel section of an analysis report.
type ChannelReport struct {
	Stats          []ChannelStats // ascending by channel
	NonOverlapping []ChannelStats // anchors 1, 6, 11, always all three
	Interferers    []Interferer   // by count descending, six at most
	MostCongested  int64
	LeastCongested int64
	Optimal        []int64 // anchors with fewer than 2 observations
}

// CongestionTier labels a channel population count.
func CongestionTier(count int) string {
	switch {
	case count > 400:
		return "extremely congested"
	case count > 300:
		return "very congested"
	case count > 200:
		return "congested"
	case count > 100:
		return "moderate"
	default:
		return "optimal"
	}
}

// Channels aggregates observations per channel and derives the
// congestion and interference findings.
func Channels(ds *dataset.Dataset) ChannelReport {
	counts := make(map[int64]int)
	rssis := make(map[int64][]float64)
	for _, row := range ds.Rows {
		ch, ok := row.Int("Channel")
		if !ok {
			continue
		}
		counts[ch]++
		if v, ok := row.Float("RSSI"); ok {
			rssis[ch] = append(rssis[ch], v)
		}
	}

	var rep ChannelReport
	for ch, n := range counts {
		mean, _ := stats.Mean(rssis[ch])
		rep.Stats = append(rep.Stats, ChannelStats{
			Channel:  ch,
			Count:    n,
			MeanRSSI: mean,
			Tier:     CongestionTier(n),
		})
	}
	sort.Slice(rep.Stats, func(i, j int) bool {
		return rep.Stats[i].Channel < rep.Stats[j].Channel
	})

	for _, a := range anchors {
		mean, _ := stats.Mean(rssis[a])
		rep.NonOverlapping = append(rep.NonOverlapping, ChannelStats{
			Channel:  a,
			Count:    counts[a],
			MeanRSSI: mean,
			Tier:     CongestionTier(counts[a]),
		})
		if counts[a] < 2 {
			rep.Optimal = append(rep.Optimal, a)
		}
	}

	for _, cs := range rep.Stats {
		if isAnchor(cs.Channel) {
			continue
		}
		nearest, dist := nearestAnchor(cs.Channel)
		rep.Interferers = append(rep.Interferers, Interferer{
			Channel:  cs.Channel,
			Nearest:  nearest,
			Distance: dist,
			Count:    cs.Count,
		})
	}
	sort.SliceStable(rep.Interferers, func(i, j int) bool {
		return rep.Interferers[i].Count > rep.Interferers[j].Count
	})
	if len(rep.Interferers) > 6 {
		rep.Interferers = rep.Interferers[:6]
	}

	if len(rep.Stats) > 0 {
		most, least := rep.Stats[0], rep.Stats[0]
		for _, cs := range rep.Stats[1:] {
			if cs.Count > most.Count {
				most = cs
			}
			if cs.Count < least.Count {
				least = cs
			}
		}
		rep.MostCongested = most.Channel
		rep.LeastCongested = least.Channel
	}
	return rep
}

func isAnchor(ch int64) bool {
	for _, a := range anchors {
		if ch == a {
			return true
		}
	}
	return false
}

// nearestAnchor picks the non-overlapping channel closest to ch. Integer
// channels are never equidistant from two anchors, so the choice is
// unambiguous.
func nearestAnchor(ch int64) (anchor, distance int64) {
	anchor = anchors[0]
	distance = abs(ch - anchors[0])
	for _, a := range anchors[1:] {
		if d := abs(ch - a); d < distance {
			anchor, distance = a, d
		}
	}
	return anchor, distance
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

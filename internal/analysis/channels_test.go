package analysis

import (
	"testing"

	"wardrive/internal/dataset"
)

/*
TestCongestionTier pins the tier ladder at its boundaries.
*/
func TestCongestionTier(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "optimal"},
		{100, "optimal"},
		{101, "moderate"},
		{200, "moderate"},
		{201, "congested"},
		{300, "congested"},
		{301, "very congested"},
		{400, "very congested"},
		{401, "extremely congested"},
	}
	for _, c := range cases {
		if got := CongestionTier(c.count); got != c.want {
			t.Fatalf("CongestionTier(%d) = %q, want %q", c.count, got, c.want)
		}
	}
}

/*
TestChannels aggregates a small survey: per-channel counts and mean
RSSI, interferers paired with their nearest anchor, and the congestion
extremes.
*/
func TestChannels(t *testing.T) {
	ds := set(
		obs("a", -60, 6, "WPA2", "x", 2437),
		obs("b", -70, 6, "WPA2", "x", 2437),
		obs("c", -80, 6, "WPA2", "x", 2437),
		obs("d", -55, 1, "WPA2", "x", 2412),
		obs("e", -65, 3, "WPA2", "x", 2422),
		obs("f", -75, 3, "WPA2", "x", 2422),
		obs("g", -85, 13, "WPA2", "x", 2472),
	)
	rep := Channels(ds)

	if len(rep.Stats) != 4 {
		t.Fatalf("Stats len = %d, want 4", len(rep.Stats))
	}
	wantOrder := []int64{1, 3, 6, 13}
	for i, want := range wantOrder {
		if rep.Stats[i].Channel != want {
			t.Fatalf("Stats[%d].Channel = %d, want %d", i, rep.Stats[i].Channel, want)
		}
	}
	six := rep.Stats[2]
	if six.Count != 3 || !near(six.MeanRSSI, -70, 1e-9) || six.Tier != "optimal" {
		t.Fatalf("channel 6 stats = %+v", six)
	}

	if len(rep.NonOverlapping) != 3 {
		t.Fatalf("NonOverlapping len = %d, want 3", len(rep.NonOverlapping))
	}
	if rep.NonOverlapping[2].Channel != 11 || rep.NonOverlapping[2].Count != 0 {
		t.Fatalf("channel 11 = %+v, want empty", rep.NonOverlapping[2])
	}

	if len(rep.Interferers) != 2 {
		t.Fatalf("Interferers = %+v, want 2 entries", rep.Interferers)
	}
	first := rep.Interferers[0]
	if first.Channel != 3 || first.Nearest != 1 || first.Distance != 2 || first.Count != 2 {
		t.Fatalf("Interferers[0] = %+v", first)
	}
	second := rep.Interferers[1]
	if second.Channel != 13 || second.Nearest != 11 || second.Distance != 2 {
		t.Fatalf("Interferers[1] = %+v", second)
	}

	if rep.MostCongested != 6 {
		t.Fatalf("MostCongested = %d, want 6", rep.MostCongested)
	}
	if rep.LeastCongested != 1 {
		t.Fatalf("LeastCongested = %d, want 1", rep.LeastCongested)
	}

	// 1 holds a single observation and 11 none, so both stay optimal.
	if len(rep.Optimal) != 2 || rep.Optimal[0] != 1 || rep.Optimal[1] != 11 {
		t.Fatalf("Optimal = %v, want [1 11]", rep.Optimal)
	}
}

/*
TestChannelsInterfererCap verifies the interferer listing keeps the six
most populated channels.
*/
func TestChannelsInterfererCap(t *testing.T) {
	var rows []dataset.Row
	// Channels 2,3,4,5,7,8,9 with 8,7,6,5,4,3,2 observations each.
	chans := []int64{2, 3, 4, 5, 7, 8, 9}
	for i, ch := range chans {
		for n := 0; n < 8-i; n++ {
			rows = append(rows, obs("n", -70, ch, "WPA2", "x", 2412))
		}
	}
	rep := Channels(set(rows...))
	if len(rep.Interferers) != 6 {
		t.Fatalf("Interferers len = %d, want 6", len(rep.Interferers))
	}
	if rep.Interferers[0].Channel != 2 || rep.Interferers[0].Count != 8 {
		t.Fatalf("Interferers[0] = %+v", rep.Interferers[0])
	}
	for _, in := range rep.Interferers {
		if in.Channel == 9 {
			t.Fatalf("channel 9 should have been cut: %+v", rep.Interferers)
		}
	}
}

/*
TestChannelsEmpty verifies the report stays well formed with no data:
anchors listed at zero, all of them optimal.
*/
func TestChannelsEmpty(t *testing.T) {
	rep := Channels(set())
	if len(rep.Stats) != 0 || len(rep.Interferers) != 0 {
		t.Fatalf("empty dataset produced stats: %+v", rep)
	}
	if rep.MostCongested != 0 || rep.LeastCongested != 0 {
		t.Fatalf("congestion extremes = %d/%d, want 0/0", rep.MostCongested, rep.LeastCongested)
	}
	if len(rep.NonOverlapping) != 3 {
		t.Fatalf("NonOverlapping len = %d, want 3", len(rep.NonOverlapping))
	}
	if len(rep.Optimal) != 3 {
		t.Fatalf("Optimal = %v, want all anchors", rep.Optimal)
	}
}

/*
TestNearestAnchor pins the overlap pairing for the usual offenders.
*/
func TestNearestAnchor(t *testing.T) {
	cases := []struct {
		ch, anchor, dist int64
	}{
		{2, 1, 1},
		{3, 1, 2},
		{4, 6, 2},
		{5, 6, 1},
		{7, 6, 1},
		{8, 6, 2},
		{9, 11, 2},
		{10, 11, 1},
		{13, 11, 2},
		{14, 11, 3},
	}
	for _, c := range cases {
		a, d := nearestAnchor(c.ch)
		if a != c.anchor || d != c.dist {
			t.Fatalf("nearestAnchor(%d) = %d,%d, want %d,%d", c.ch, a, d, c.anchor, c.dist)
		}
	}
}

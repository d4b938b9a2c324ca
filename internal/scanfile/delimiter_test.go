package scanfile

import "testing"

/*
TestDetectDelimiter verifies the sniffing heuristic over the delimiters we
actually see in the wild: comma, semicolon, tab, and pipe, plus the
fallback cases (no delimiter at all, empty input).
*/
func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  rune
	}{
		{
			name:  "comma",
			lines: []string{"SSID,RSSI,Channel", "a,-50,6", "b,-60,11"},
			want:  ',',
		},
		{
			name:  "semicolon",
			lines: []string{"SSID;RSSI;Channel", "a;-50;6", "b;-60;11"},
			want:  ';',
		},
		{
			name:  "tab",
			lines: []string{"SSID\tRSSI", "a\t-50", "b\t-60"},
			want:  '\t',
		},
		{
			name:  "pipe",
			lines: []string{"SSID|RSSI", "a|-50", "b|-60"},
			want:  '|',
		},
		{
			// Commas split every line the same way; a single stray
			// semicolon must not win.
			name:  "mixed favors consistency",
			lines: []string{"SSID,RSSI,Channel", "a;x,-50,6", "b,-60,11"},
			want:  ',',
		},
		{
			name:  "no delimiter falls back to comma",
			lines: []string{"justoneword", "another"},
			want:  ',',
		},
		{
			name:  "empty input falls back to comma",
			lines: nil,
			want:  ',',
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectDelimiter(tc.lines); got != tc.want {
				t.Fatalf("DetectDelimiter = %q; want %q", got, tc.want)
			}
		})
	}
}

/*
TestDetectDelimiter_SkipsBlankLines verifies blank lines do not dilute the
consistency score.
*/
func TestDetectDelimiter_SkipsBlankLines(t *testing.T) {
	lines := []string{"", "a;1;2", "", "b;3;4", ""}
	if got := DetectDelimiter(lines); got != ';' {
		t.Fatalf("DetectDelimiter = %q; want ';'", got)
	}
}

package daterepair

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wardrive/internal/scanfile"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// fixClock pins the wall clock sentinel replacements use.
func fixClock(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
	return now
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

/*
TestRepairSentinel verifies rule 1: auth tokens in a date column are
replaced with the current wall clock, case-insensitively, while other
columns pass through untouched.
*/
func TestRepairSentinel(t *testing.T) {
	now := fixClock(t)
	path := writeTemp(t, "scan.csv", strings.Join([]string{
		"meta",
		"SSID,FirstSeen,AuthMode",
		"cafe,WPA2,[WPA2-PSK-CCMP]",
		"bar,open,[ESS]",
	}, "\n")+"\n")

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Corrections != 2 {
		t.Fatalf("corrections = %d, want 2", res.Corrections)
	}
	if len(res.DateColumns) != 1 || res.DateColumns[0] != "FirstSeen" {
		t.Fatalf("date columns = %v, want [FirstSeen]", res.DateColumns)
	}

	stamp := now.Format(NormalizedLayout)
	lines := readLines(t, res.OutputPath)
	if lines[2] != "cafe,"+stamp+",[WPA2-PSK-CCMP]" {
		t.Fatalf("line 3 = %q", lines[2])
	}
	if lines[3] != "bar,"+stamp+",[ESS]" {
		t.Fatalf("line 4 = %q", lines[3])
	}
}

/*
TestRepairNormalize verifies rule 2: each accepted layout re-emits in the
normalized format, with day-first layouts winning over month-first on
ambiguous input.
*/
func TestRepairNormalize(t *testing.T) {
	path := writeTemp(t, "scan.csv", strings.Join([]string{
		"meta",
		"SSID,FirstSeen,RSSI",
		"a,15/03/2024 10:30:00,-50",
		"b,03/15/2024 10:30:00,-51",
		"c,20240315103000,-52",
		"d,2024/03/15 10:30:00,-53",
		"e,05/03/2024 10:30:00,-54",
	}, "\n")+"\n")

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Corrections != 5 {
		t.Fatalf("corrections = %d, want 5", res.Corrections)
	}

	lines := readLines(t, res.OutputPath)
	wants := []string{
		"a,2024-03-15 10:30:00,-50",
		"b,2024-03-15 10:30:00,-51",
		"c,2024-03-15 10:30:00,-52",
		"d,2024-03-15 10:30:00,-53",
		// Day-first: 05/03 is 5 March, not May 3rd.
		"e,2024-03-05 10:30:00,-54",
	}
	for i, want := range wants {
		if lines[i+2] != want {
			t.Fatalf("line %d = %q, want %q", i+3, lines[i+2], want)
		}
	}
}

/*
TestRepairIdempotent verifies the headline property: repairing the
engine's own output counts zero corrections and changes zero bytes.
*/
func TestRepairIdempotent(t *testing.T) {
	fixClock(t)
	path := writeTemp(t, "scan.csv", strings.Join([]string{
		"meta",
		"SSID,FirstSeen,RSSI",
		"a,WPA2,-50",
		"b,15/03/2024 10:30:00,-51",
		"c,not a date,-52",
	}, "\n")+"\n")

	first, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("first Repair: %v", err)
	}
	if first.Corrections != 2 {
		t.Fatalf("first corrections = %d, want 2", first.Corrections)
	}

	second, err := Repair(first.OutputPath, 0)
	if err != nil {
		t.Fatalf("second Repair: %v", err)
	}
	if second.Corrections != 0 {
		t.Fatalf("second corrections = %d, want 0", second.Corrections)
	}

	a, err := os.ReadFile(first.OutputPath)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}
	b, err := os.ReadFile(second.OutputPath)
	if err != nil {
		t.Fatalf("read second output: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("second pass changed bytes:\nfirst:  %q\nsecond: %q", a, b)
	}
}

/*
TestRepairPreservesEnvelope verifies the first two lines, the BOM, the
CRLF endings, and the final-newline state all survive a rewrite exactly.
*/
func TestRepairPreservesEnvelope(t *testing.T) {
	fixClock(t)
	orig := "\ufeffWigleWifi-1.4,appRelease=2.26\r\nSSID,FirstSeen,RSSI\r\na,WPA2,-50\r\n"
	path := writeTemp(t, "scan.csv", orig)

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "\ufeffWigleWifi-1.4,appRelease=2.26\r\nSSID,FirstSeen,RSSI\r\n") {
		t.Fatalf("envelope changed: %q", got)
	}
	if !strings.HasSuffix(got, "\r\n") {
		t.Fatalf("final CRLF lost: %q", got)
	}

	unterminated := writeTemp(t, "flat.csv", "meta\nSSID,FirstSeen\na,WPA2")
	res, err = Repair(unterminated, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	data, err = os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.HasSuffix(string(data), "\n") {
		t.Fatalf("trailing newline invented: %q", data)
	}
}

/*
TestRepairPassThrough verifies rule 3: unrepairable values keep their
bytes, count as unrepaired, and a file needing no changes comes out
byte-identical.
*/
func TestRepairPassThrough(t *testing.T) {
	orig := strings.Join([]string{
		"meta",
		"SSID,FirstSeen,RSSI",
		"a,certainly not a date,-50",
		"b,,-51",
	}, "\n") + "\n"
	path := writeTemp(t, "scan.csv", orig)

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Corrections != 0 {
		t.Fatalf("corrections = %d, want 0", res.Corrections)
	}
	if res.Unrepaired != 2 {
		t.Fatalf("unrepaired = %d, want 2", res.Unrepaired)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != orig {
		t.Fatalf("output differs from input:\ngot  %q\nwant %q", data, orig)
	}
}

/*
TestRepairNoDateColumns verifies a file without date-bearing headers is
copied through untouched.
*/
func TestRepairNoDateColumns(t *testing.T) {
	orig := "meta\nSSID,Channel,RSSI\na,6,-50\n"
	path := writeTemp(t, "scan.csv", orig)

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(res.DateColumns) != 0 || res.Corrections != 0 || res.Unrepaired != 0 {
		t.Fatalf("result = %+v, want untouched copy", res)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != orig {
		t.Fatalf("output differs from input: %q", data)
	}
}

/*
TestRepairLogsFirstFive verifies the before/after sample cap: five logged
corrections regardless of how many were applied.
*/
func TestRepairLogsFirstFive(t *testing.T) {
	fixClock(t)
	var logged []string
	orig := logf
	logf = func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	defer func() { logf = orig }()

	lines := []string{"meta", "SSID,FirstSeen"}
	for i := 0; i < 7; i++ {
		lines = append(lines, fmt.Sprintf("net%d,WPA2", i))
	}
	path := writeTemp(t, "scan.csv", strings.Join(lines, "\n")+"\n")

	res, err := Repair(path, 0)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if res.Corrections != 7 {
		t.Fatalf("corrections = %d, want 7", res.Corrections)
	}
	if len(logged) != 5 {
		t.Fatalf("logged %d samples, want 5:\n%s", len(logged), strings.Join(logged, "\n"))
	}
	for _, l := range logged {
		if !strings.Contains(l, "->") {
			t.Fatalf("sample without before/after: %q", l)
		}
	}
}

/*
TestRepairTooShort verifies a file without a header line cannot be
repaired.
*/
func TestRepairTooShort(t *testing.T) {
	path := writeTemp(t, "scan.csv", "only metadata")
	if _, err := Repair(path, 0); !errors.Is(err, scanfile.ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

/*
TestFixedPath verifies the output naming rule across extension shapes.
*/
func TestFixedPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"scan.csv", "scan_fixed.csv"},
		{"/data/scan.csv", "/data/scan_fixed.csv"},
		{"scan", "scan_fixed"},
		{"export.kismet.csv", "export.kismet_fixed.csv"},
	}
	for _, tc := range cases {
		if got := FixedPath(tc.in); got != tc.want {
			t.Fatalf("FixedPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package scanfile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

/*
TestRead_SplitsLinesAndTracksFinalNewline verifies the basic line split,
CR trimming, and that the trailing-newline flag round-trips correctly
for both terminated and unterminated files.
*/
func TestRead_SplitsLinesAndTracksFinalNewline(t *testing.T) {
	f, err := Read(writeTemp(t, "meta\r\nSSID,RSSI\r\na,-50\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"meta", "SSID,RSSI", "a,-50"}
	if len(f.Lines) != len(want) {
		t.Fatalf("got %d lines %q; want %d", len(f.Lines), f.Lines, len(want))
	}
	for i := range want {
		if f.Lines[i] != want[i] {
			t.Errorf("line %d: got %q; want %q", i+1, f.Lines[i], want[i])
		}
	}
	if !f.FinalNewline {
		t.Errorf("FinalNewline = false; want true")
	}

	f, err = Read(writeTemp(t, "meta\nheader"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.FinalNewline {
		t.Errorf("FinalNewline = true for unterminated file; want false")
	}
	if len(f.Lines) != 2 {
		t.Fatalf("got %d lines; want 2", len(f.Lines))
	}
}

/*
TestRead_StripsBOM verifies that a UTF-8 BOM on the first line does not
leak into the metadata line (and therefore never into a header either).
*/
func TestRead_StripsBOM(t *testing.T) {
	f, err := Read(writeTemp(t, "\ufeffWigleWifi-1.4\nSSID,RSSI\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Lines[0] != "WigleWifi-1.4" {
		t.Fatalf("metadata line = %q; want BOM stripped", f.Lines[0])
	}
}

/*
TestRead_EmptyFile verifies an empty file yields zero lines rather than a
single empty line.
*/
func TestRead_EmptyFile(t *testing.T) {
	f, err := Read(writeTemp(t, ""))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Lines) != 0 {
		t.Fatalf("got %d lines for empty file; want 0", len(f.Lines))
	}
}

/*
TestDataLinesAndHeader verifies the metadata/header/data layout accessors:
line 1 is metadata, line 2 is the header, the rest are data.
*/
func TestDataLinesAndHeader(t *testing.T) {
	f := &File{Lines: []string{"meta", "SSID,RSSI,Channel", "a,-50,6", "b,-71,11"}}

	h := f.Header(',')
	if len(h) != 3 || h[0] != "SSID" || h[2] != "Channel" {
		t.Fatalf("Header = %q; want [SSID RSSI Channel]", h)
	}
	d := f.DataLines()
	if len(d) != 2 || d[0] != "a,-50,6" {
		t.Fatalf("DataLines = %q; want the two data rows", d)
	}

	short := &File{Lines: []string{"meta"}}
	if short.Header(',') != nil || short.DataLines() != nil {
		t.Fatalf("short file should have no header and no data lines")
	}
}

/*
TestRender_PreservesFraming verifies that Read followed by Render is the
identity on BOM, line-ending style, and final-newline state. The repair
path rewrites files through Render and must not disturb their framing.
*/
func TestRender_PreservesFraming(t *testing.T) {
	originals := []string{
		"\ufeffmeta\r\nSSID,RSSI\r\na,-50\r\n",
		"meta\nSSID,RSSI\na,-50\n",
		"meta\nSSID,RSSI\na,-50",
	}
	for _, orig := range originals {
		f, err := Read(writeTemp(t, orig))
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if got := string(f.Render(f.Lines)); got != orig {
			t.Errorf("Render changed framing: got %q; want %q", got, orig)
		}
	}
}

/*
TestSplitJoin_RoundTrip verifies Split/Join are exact inverses, including
fields that are empty strings. The repair path depends on this to rewrite
untouched fields byte-for-byte.
*/
func TestSplitJoin_RoundTrip(t *testing.T) {
	lines := []string{
		"a,b,c",
		"a,,c,",
		"",
		"no-delimiter-here",
	}
	for _, l := range lines {
		if got := Join(Split(l, ','), ','); got != l {
			t.Errorf("round trip changed %q into %q", l, got)
		}
	}
}

func BenchmarkSplit(b *testing.B) {
	line := "MySSID,2024-01-05 10:30:00,6,2437,-55,40.4168,-3.7038,WPA2"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Split(line, ',')
	}
}

package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"wardrive/internal/dataset"
)

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Columns: []string{"SSID", "Channel", "RSSI", "CurrentLatitude"},
		Kinds: map[string]dataset.Kind{
			"SSID":            dataset.KindText,
			"Channel":         dataset.KindInt,
			"RSSI":            dataset.KindInt,
			"CurrentLatitude": dataset.KindFloat,
		},
		Rows: []dataset.Row{
			{"SSID": "CoffeeNet", "Channel": int64(6), "RSSI": int64(-70), "CurrentLatitude": 41.25},
			{"SSID": "Depot", "Channel": int64(11), "RSSI": int64(-82)},
		},
	}
}

/*
TestWriteCSVRoundTrip verifies the CSV export: canonical header order, one
record per row, numeric cells rendered plainly, and missing cells empty.
*/
func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	n, err := WriteCSV(path, sampleDataset())
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows written = %d, want 2", n)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header plus 2 rows", len(records))
	}
	if got := records[0][1]; got != "Channel" {
		t.Fatalf("header[1] = %q, want Channel", got)
	}
	if got := records[1]; got[0] != "CoffeeNet" || got[1] != "6" || got[2] != "-70" || got[3] != "41.25" {
		t.Fatalf("row 1 = %q", got)
	}
	if got := records[2][3]; got != "" {
		t.Fatalf("missing latitude rendered %q, want empty cell", got)
	}
}

/*
TestWriteXLSXRoundTrip verifies the workbook export by reading it back:
header row first, then data rows with the same visible values.
*/
func TestWriteXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	n, err := WriteXLSX(path, sampleDataset())
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows written = %d, want 2", n)
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()
	rows, err := wb.GetRows(SheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("sheet rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "SSID" || rows[0][3] != "CurrentLatitude" {
		t.Fatalf("header = %q", rows[0])
	}
	if rows[1][0] != "CoffeeNet" || rows[1][1] != "6" {
		t.Fatalf("row 1 = %q", rows[1])
	}
	// The second row's trailing missing cell may be absent entirely.
	if len(rows[2]) > 3 && rows[2][3] != "" {
		t.Fatalf("missing cell = %q, want empty", rows[2][3])
	}
}

/*
TestWriteCSVEmptyDataset verifies an empty dataset still produces a
header-only file rather than failing.
*/
func TestWriteCSVEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	ds := &dataset.Dataset{Columns: []string{"SSID", "RSSI"}}
	n, err := WriteCSV(path, ds)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows written = %d, want 0", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "SSID,RSSI\n" {
		t.Fatalf("content = %q, want header only", data)
	}
}

// Package export writes the canonical dataset back out as tidy files: a
// plain CSV for tooling and an XLSX workbook for people. Exports carry the
// canonical columns in schema order with typed cells; a missing value is
// an empty cell, never a filler token, so re-ingesting an export stays
// lossless.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"wardrive/internal/dataset"
)

// SheetName is the workbook sheet the XLSX exporter writes.
const SheetName = "Sheet1"

// WriteCSV writes ds to path as a comma-separated file with a header row.
// It returns the number of data rows written.
func WriteCSV(path string, ds *dataset.Dataset) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ds.Columns); err != nil {
		return 0, fmt.Errorf("export csv header: %w", err)
	}
	record := make([]string, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, col := range ds.Columns {
			record[j] = cellString(row, col)
		}
		if err := w.Write(record); err != nil {
			return i, fmt.Errorf("export csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return len(ds.Rows), fmt.Errorf("export csv flush: %w", err)
	}
	return len(ds.Rows), nil
}

// WriteXLSX writes ds to path as a single-sheet workbook. Cells keep their
// coerced types, so numeric columns sort and aggregate correctly in a
// spreadsheet. Returns the number of data rows written.
func WriteXLSX(path string, ds *dataset.Dataset) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	for j, col := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return 0, fmt.Errorf("export xlsx header: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return 0, fmt.Errorf("export xlsx header: %w", err)
		}
	}

	for i, row := range ds.Rows {
		for j, col := range ds.Columns {
			v, ok := row[col]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return i, fmt.Errorf("export xlsx row %d: %w", i+1, err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return i, fmt.Errorf("export xlsx row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return len(ds.Rows), fmt.Errorf("export xlsx save: %w", err)
	}
	return len(ds.Rows), nil
}

// cellString renders one cell for the CSV form. Missing cells render
// empty; floats keep the shortest round-trip form.
func cellString(row dataset.Row, col string) string {
	v, ok := row[col]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

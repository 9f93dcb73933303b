package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet is a table read from a workbook sheet or a CSV file. The first
// non-empty row is the header.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Records returns each row keyed by its lower-cased, trimmed header name.
// Cells past the header width are dropped.
func (s Sheet) Records() []map[string]string {
	keys := make([]string, len(s.Header))
	for i, h := range s.Header {
		keys[i] = strings.ToLower(strings.TrimSpace(h))
	}
	out := make([]map[string]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := make(map[string]string, len(keys))
		for i, k := range keys {
			if k == "" || i >= len(row) {
				continue
			}
			rec[k] = strings.TrimSpace(row[i])
		}
		out = append(out, rec)
	}
	return out
}

// ReadXLSX reads the named sheet of an XLSX file, or every sheet in workbook
// order when name is empty.
func ReadXLSX(path, name string) ([]Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheets := f.Sheets
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		sheets = []*xlsx.Sheet{sheet}
	}

	out := make([]Sheet, 0, len(sheets))
	for _, sh := range sheets {
		rows := make([][]string, 0, len(sh.Rows))
		for _, row := range sh.Rows {
			rows = append(rows, rowToStrings(row))
		}
		out = append(out, newSheet(sh.Name, rows))
	}
	return out, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// newSheet splits rows into header and data, skipping blank rows.
func newSheet(name string, rows [][]string) Sheet {
	s := Sheet{Name: name}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if s.Header == nil {
			s.Header = row
			continue
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

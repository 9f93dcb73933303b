package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV reads a comma-separated vendor sheet. Quotes are parsed lazily and
// rows may have a variable number of fields.
func ReadCSV(r io.Reader, name string) (Sheet, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, eris.Wrap(err, "csv: read rows")
	}
	return newSheet(name, rows), nil
}

// ReadSheets reads a vendor sheet file, choosing the parser by extension.
// sheet selects one XLSX sheet and is ignored for CSV.
func ReadSheets(path, sheet string) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, sheet)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "csv: open file")
		}
		defer f.Close() //nolint:errcheck

		s, err := ReadCSV(f, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return []Sheet{s}, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported sheet format %q", filepath.Ext(path))
	}
}

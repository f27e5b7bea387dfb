// Package tabular reads uploaded company tables and writes enriched output.
package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyTable is returned for a blank or header-only upload.
	ErrEmptyTable = eris.New("tabular: table has no data rows")
	// ErrUnparseable is returned when the upload is neither CSV nor XLSX.
	ErrUnparseable = eris.New("tabular: unable to parse table")
)

// Table is a parsed upload. Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// zipMagic prefixes every XLSX file.
var zipMagic = []byte("PK\x03\x04")

// Parse decodes an uploaded table. XLSX is detected by extension or by the
// ZIP signature; anything else is read as CSV.
func Parse(filename string, data []byte) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") || bytes.HasPrefix(data, zipMagic) {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return toTable(records)
}

func readCSV(data []byte) ([][]string, error) {
	// BOMOverride switches to UTF-16 when a UTF-16 BOM is present and strips
	// a UTF-8 BOM.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrUnparseable, "csv: %v", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrapf(ErrUnparseable, "xlsx: %v", err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmptyTable
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func toTable(records [][]string) (*Table, error) {
	// Drop trailing blank rows; spreadsheets often carry them.
	for len(records) > 0 && isBlank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}
	if len(records) < 2 {
		return nil, ErrEmptyTable
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}, nil
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

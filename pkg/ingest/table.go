package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Format is the encoding of an input table
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the table format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported table format %q, expected .csv or .xlsx", filepath.Ext(path))
	}
}

// Table is a header-indexed set of rows. Column lookups are case-insensitive.
type Table struct {
	Name    string
	Rows    [][]string
	columns map[string]int
}

// NewTable builds a table from a header row and data rows. Blank rows are dropped.
func NewTable(name string, header []string, rows [][]string) *Table {
	columns := make(map[string]int, len(header))
	for i, col := range header {
		key := normaliseColumn(col)
		if _, dup := columns[key]; !dup && key != "" {
			columns[key] = i
		}
	}

	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		kept = append(kept, row)
	}

	return &Table{Name: name, Rows: kept, columns: columns}
}

// ReadFile reads the table at path, choosing the format from its extension
func ReadFile(name, path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s table: %w", name, err)
	}
	defer f.Close()

	return Read(name, f, format)
}

// Read parses a table in the given format. The first row is the header; for
// workbooks only the first sheet is read.
func Read(name string, r io.Reader, format Format) (*Table, error) {
	var records [][]string
	var err error

	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s table: %w", name, err)
	}

	if len(records) == 0 {
		return nil, model.NewValidationError(name, "table is empty")
	}

	return NewTable(name, records[0], records[1:]), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	return f.GetRows(sheets[0])
}

// Require returns a ValidationError naming the first missing column
func (t *Table) Require(columns ...string) error {
	for _, col := range columns {
		if !t.Has(col) {
			return model.NewValidationError(t.Name, "missing required column %q", col)
		}
	}
	return nil
}

// Has reports whether the table has the column
func (t *Table) Has(column string) bool {
	_, ok := t.columns[normaliseColumn(column)]
	return ok
}

// Get returns the trimmed cell in row for column, or "" when the column or
// cell is absent. Spreadsheet rows may be shorter than the header.
func (t *Table) Get(row []string, column string) string {
	idx, ok := t.columns[normaliseColumn(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normaliseColumn(col string) string {
	// Strip a UTF-8 byte order mark left by spreadsheet exports
	col = strings.TrimPrefix(col, "\ufeff")
	return strings.ToLower(strings.TrimSpace(col))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

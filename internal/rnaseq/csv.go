package rnaseq

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table holds one parsed DEG CSV file: the raw header and the data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadFile parses a DEG CSV file. The header row defines the schema; every
// data row must carry the same number of fields.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row in %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	return &Table{Header: header, Rows: rows}, nil
}

// BindRows converts the table's string cells into typed insert arguments in
// schema column order, one []any per row. Cells in columns the schema
// excluded are not bound. Empty and NA cells become NULL.
func (s *Schema) BindRows(table *Table) ([][]any, error) {
	position := make(map[string]int, len(table.Header))
	for i, h := range table.Header {
		position[h] = i
	}

	indexes := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		idx, ok := position[c.Source]
		if !ok {
			return nil, fmt.Errorf("schema column %s (source %q) missing from CSV header", c.Name, c.Source)
		}
		indexes[i] = idx
	}

	rows := make([][]any, 0, len(table.Rows))
	for n, raw := range table.Rows {
		if len(raw) != len(table.Header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", n+1, len(raw), len(table.Header))
		}

		row := make([]any, len(s.Columns))
		for i, c := range s.Columns {
			value, err := convertCell(raw[indexes[i]], c.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+1, c.Name, err)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// convertCell converts one CSV cell to the value bound for its SQL type.
func convertCell(cell, sqlType string) (any, error) {
	trimmed := strings.TrimSpace(cell)

	switch sqlType {
	case typeInteger, typeBigint:
		if isNull(trimmed) {
			return nil, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return n, nil
		}
		// Upstream exports sometimes render counts as floats ("73.0").
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("invalid integer value %q", cell)
		}
		return int64(f), nil

	case typeDouble:
		if isNull(trimmed) {
			return nil, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric value %q", cell)
		}
		return f, nil

	default:
		// Text types keep the cell verbatim; NA markers become NULL.
		if isNull(trimmed) && trimmed != "" {
			return nil, nil
		}
		return cell, nil
	}
}

// isNull reports whether a cell represents a missing value.
func isNull(trimmed string) bool {
	switch trimmed {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return true
	default:
		return false
	}
}

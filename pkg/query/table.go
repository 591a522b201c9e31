// Package query executes warehouse queries and materializes the results.
package query

import (
	"strings"
	"time"
)

// ColumnType is the inferred type of a result column.
type ColumnType string

const (
	// TypeText is the fallback type for anything not coerced
	TypeText ColumnType = "text"
	// TypeInteger is used for integral numeric values
	TypeInteger ColumnType = "integer"
	// TypeFloat is used for fractional numeric values
	TypeFloat ColumnType = "float"
	// TypeBool is used for boolean values
	TypeBool ColumnType = "bool"
	// TypeTime is used for date and timestamp values
	TypeTime ColumnType = "time"
)

// Column is one named, typed result column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is a fully materialized query result. Rows hold coerced values:
// int64, float64, bool, time.Time, string or nil.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// NumRows returns the number of data rows (the header is not counted).
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// SanitizeColumnNames strips literal apostrophes from every column name.
// Nothing else is altered.
func (t *Table) SanitizeColumnNames() {
	for i := range t.Columns {
		t.Columns[i].Name = strings.ReplaceAll(t.Columns[i].Name, "'", "")
	}
}

// Grid renders the table as a rectangular cell grid, header row first, in
// the shape the Sheets values API expects. Times are formatted as dates or
// timestamps, nils become empty cells, everything else passes through.
func (t *Table) Grid() [][]any {
	grid := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	grid = append(grid, header)

	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = renderCell(v)
		}
		grid = append(grid, cells)
	}

	return grid
}

func renderCell(v any) any {
	switch value := v.(type) {
	case nil:
		return ""
	case time.Time:
		if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 {
			return value.Format("2006-01-02")
		}
		return value.Format("2006-01-02 15:04:05")
	default:
		return value
	}
}

package analysis

import (
	"github.com/spf13/cast"
)

// Dataset is an ordered sequence of records sharing one fixed, ordered
// column set. Duplicate header names are preserved as given, so columns are
// a positional slice rather than a map. Every row has exactly
// len(Columns) cells.
type Dataset struct {
	Columns []string
	Rows    [][]Cell
}

// ColumnCells returns the cells of column i in row order.
func (d *Dataset) ColumnCells(i int) []Cell {
	cells := make([]Cell, len(d.Rows))
	for r, row := range d.Rows {
		cells[r] = row[i]
	}
	return cells
}

// FromStringRows builds a Dataset from already-split rows of raw field
// literals, applying the same literal coercion as Parse. Short rows are
// padded with the missing sentinel and long rows truncated, so workbook
// rows with trailing blanks line up with the header.
func FromStringRows(header []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Columns: header,
		Rows:    make([][]Cell, 0, len(rows)),
	}
	for _, raw := range rows {
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(raw) {
				row[i] = coerceToken(raw[i])
			} else {
				row[i] = EmptyCell()
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// FromRows builds a Dataset from rows of dynamic values, the
// already-tokenized input form. Numbers and booleans pass through, strings
// go through literal coercion, nil and non-primitive shapes normalize to
// the missing sentinel.
func FromRows(header []string, rows [][]interface{}) *Dataset {
	ds := &Dataset{
		Columns: header,
		Rows:    make([][]Cell, 0, len(rows)),
	}
	for _, raw := range rows {
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(raw) {
				row[i] = coerceValue(raw[i])
			} else {
				row[i] = EmptyCell()
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// coerceValue converts one dynamic value into a Cell. Booleans must be
// checked before the numeric cast, which would otherwise fold them to 0/1.
func coerceValue(v interface{}) Cell {
	if v == nil {
		return EmptyCell()
	}
	switch tv := v.(type) {
	case bool:
		return BoolCell(tv)
	case string:
		return coerceToken(tv)
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return NumberCell(f)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return coerceToken(s)
	}
	return EmptyCell()
}

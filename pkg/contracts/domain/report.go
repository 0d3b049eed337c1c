package domain

import (
	"encoding/json"
	"strconv"
)

// NotApplicable is the display value reported for numeric statistics on
// columns whose inferred type is not number. The fields are reported with
// this marker rather than omitted.
const NotApplicable = "N/A"

// ColumnType is the canonical type tag committed to a column by inference.
// Inference always commits to a single majority type; no "mixed" tag exists.
type ColumnType string

const (
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeString  ColumnType = "string"
)

// NumericSummary holds the descriptive statistics computed for number
// columns. Median is the element at sorted index n/2, which for even-length
// inputs is the upper-middle value; reports round-trip against the original
// tool only if this stays.
type NumericSummary struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// ColumnStat describes one audited column. Numeric is nil unless
// InferredType is TypeNumber.
type ColumnStat struct {
	Column            string
	InferredType      ColumnType
	Numeric           *NumericSummary
	UniqueCount       int
	NanCount          int
	TypeMismatchCount int
}

// MeanDisplay returns the mean in normalized scientific notation with two
// fractional digits, or NotApplicable for non-numeric columns.
func (s ColumnStat) MeanDisplay() string {
	if s.Numeric == nil {
		return NotApplicable
	}
	return strconv.FormatFloat(s.Numeric.Mean, 'e', 2, 64)
}

type columnStatWire struct {
	Column            string      `json:"column"`
	InferredType      ColumnType  `json:"inferred_type"`
	Mean              interface{} `json:"mean"`
	Median            interface{} `json:"median"`
	Min               interface{} `json:"min"`
	Max               interface{} `json:"max"`
	UniqueCount       int         `json:"unique_count"`
	NanCount          int         `json:"nan_count"`
	TypeMismatchCount int         `json:"type_mismatch_count"`
}

// MarshalJSON renders mean as its scientific display form, keeps
// median/min/max as raw numbers, and substitutes NotApplicable for all four
// on non-numeric columns.
func (s ColumnStat) MarshalJSON() ([]byte, error) {
	w := columnStatWire{
		Column:            s.Column,
		InferredType:      s.InferredType,
		Mean:              NotApplicable,
		Median:            NotApplicable,
		Min:               NotApplicable,
		Max:               NotApplicable,
		UniqueCount:       s.UniqueCount,
		NanCount:          s.NanCount,
		TypeMismatchCount: s.TypeMismatchCount,
	}
	if s.Numeric != nil {
		w.Mean = s.MeanDisplay()
		w.Median = s.Numeric.Median
		w.Min = s.Numeric.Min
		w.Max = s.Numeric.Max
	}
	return json.Marshal(w)
}

// BadCell flags one missing or type-inconsistent cell. Value carries the
// cell's display form; a missing cell is recorded with the empty sentinel.
type BadCell struct {
	Column   string `json:"column"`
	RowIndex int    `json:"row_index"`
	Value    string `json:"value"`
}

// Report is the complete audit result for one dataset. Columns follow input
// column order. TotalRows counts post-cleaning rows; ValidRows is TotalRows
// minus the number of distinct row indexes present in BadCells.
type Report struct {
	Columns     []ColumnStat `json:"columns"`
	BadCells    []BadCell    `json:"bad_cells"`
	TotalRows   int          `json:"total_rows"`
	ValidRows   int          `json:"valid_rows"`
	Fingerprint string       `json:"fingerprint,omitempty"`
}

// BadRowCount returns the number of distinct rows contributing at least one
// bad cell.
func (r *Report) BadRowCount() int {
	rows := make(map[int]struct{}, len(r.BadCells))
	for _, bc := range r.BadCells {
		rows[bc.RowIndex] = struct{}{}
	}
	return len(rows)
}

// Column returns the stat for the named column, or nil if the report has no
// such column. With duplicate header names the first occurrence wins.
func (r *Report) Column(name string) *ColumnStat {
	for i := range r.Columns {
		if r.Columns[i].Column == name {
			return &r.Columns[i]
		}
	}
	return nil
}

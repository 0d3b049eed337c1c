package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

func TestDetectBadCells(t *testing.T) {
	tests := []struct {
		name           string
		inferred       domain.ColumnType
		cells          []Cell
		wantBad        []domain.BadCell
		wantMismatches int
	}{
		{
			name:     "clean number column",
			inferred: domain.TypeNumber,
			cells:    []Cell{NumberCell(1), NumberCell(2)},
		},
		{
			name:     "mismatched string in number column",
			inferred: domain.TypeNumber,
			cells:    []Cell{NumberCell(1), StringCell("foo"), NumberCell(2)},
			wantBad: []domain.BadCell{
				{Column: "a", RowIndex: 1, Value: "foo"},
			},
			wantMismatches: 1,
		},
		{
			name:     "missing cell is flagged without a mismatch",
			inferred: domain.TypeNumber,
			cells:    []Cell{NumberCell(1), EmptyCell()},
			wantBad: []domain.BadCell{
				{Column: "a", RowIndex: 1, Value: ""},
			},
			wantMismatches: 0,
		},
		{
			name:     "binary numbers pass in a boolean column",
			inferred: domain.TypeBoolean,
			cells:    []Cell{BoolCell(true), NumberCell(0), NumberCell(1)},
		},
		{
			name:     "non-binary number fails in a boolean column",
			inferred: domain.TypeBoolean,
			cells:    []Cell{BoolCell(true), NumberCell(2)},
			wantBad: []domain.BadCell{
				{Column: "a", RowIndex: 1, Value: "2"},
			},
			wantMismatches: 1,
		},
		{
			name:     "number in string column",
			inferred: domain.TypeString,
			cells:    []Cell{StringCell("x"), NumberCell(3.5)},
			wantBad: []domain.BadCell{
				{Column: "a", RowIndex: 1, Value: "3.5"},
			},
			wantMismatches: 1,
		},
		{
			name:     "missing and mismatched cells accumulate",
			inferred: domain.TypeNumber,
			cells:    []Cell{EmptyCell(), StringCell("foo"), NumberCell(1), EmptyCell()},
			wantBad: []domain.BadCell{
				{Column: "a", RowIndex: 0, Value: ""},
				{Column: "a", RowIndex: 1, Value: "foo"},
				{Column: "a", RowIndex: 3, Value: ""},
			},
			wantMismatches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad, mismatches := DetectBadCells("a", tt.inferred, tt.cells)

			assert.Equal(t, tt.wantBad, bad)
			assert.Equal(t, tt.wantMismatches, mismatches)
		})
	}
}

package analysis

import (
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// DetectBadCells flags every cell in a column that is either missing or
// disagrees with the column's committed type. Missing cells are reported
// with an empty display value and do not count as type mismatches; the
// returned int counts mismatches only. Numeric 0/1 cells in a boolean
// column are legitimate boolean spellings and pass.
func DetectBadCells(column string, inferred domain.ColumnType, cells []Cell) ([]domain.BadCell, int) {
	var bad []domain.BadCell
	mismatches := 0
	for i, c := range cells {
		if c.IsEmpty() {
			bad = append(bad, domain.BadCell{Column: column, RowIndex: i, Value: ""})
			continue
		}
		if c.typeTag() == inferred {
			continue
		}
		if inferred == domain.TypeBoolean && c.isBinaryNumber() {
			continue
		}
		mismatches++
		bad = append(bad, domain.BadCell{Column: column, RowIndex: i, Value: c.Display()})
	}
	return bad, mismatches
}

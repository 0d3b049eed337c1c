package analysis

import (
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// InferColumnType commits a column to its single canonical type tag.
// Missing cells never influence inference. A non-empty column holding only
// the numbers 0 and 1 is boolean before any majority counting runs, which
// is how 0/1 indicator columns audit as booleans. Otherwise the tag with
// the strictly highest count wins and ties go to the tag seen first in the
// column. A column with no present values is string by convention.
func InferColumnType(cells []Cell) domain.ColumnType {
	present := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if !c.IsEmpty() {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return domain.TypeString
	}

	allBinary := true
	for _, c := range present {
		if !c.isBinaryNumber() {
			allBinary = false
			break
		}
	}
	if allBinary {
		return domain.TypeBoolean
	}

	counts := make(map[domain.ColumnType]int, 3)
	order := make([]domain.ColumnType, 0, 3)
	for _, c := range present {
		tag := c.typeTag()
		if _, seen := counts[tag]; !seen {
			order = append(order, tag)
		}
		counts[tag]++
	}

	best := order[0]
	for _, tag := range order[1:] {
		if counts[tag] > counts[best] {
			best = tag
		}
	}
	return best
}

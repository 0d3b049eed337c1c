package analysis

import (
	"sort"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// ComputeStats derives the descriptive statistics for one column. Missing
// cells feed NanCount and nothing else. Uniqueness is counted two ways on
// purpose: number columns compare exact numeric values, every other column
// compares display strings, so numeric 1 and the text "1" collapse into one
// unique value there. Numeric summaries exist only for number columns with
// at least one parseable value.
func ComputeStats(column string, inferred domain.ColumnType, cells []Cell) domain.ColumnStat {
	stat := domain.ColumnStat{
		Column:       column,
		InferredType: inferred,
	}
	for _, c := range cells {
		if c.IsEmpty() {
			stat.NanCount++
		}
	}

	if inferred == domain.TypeNumber {
		values := numericValues(cells)
		stat.UniqueCount = uniqueByValue(values)
		if len(values) > 0 {
			stat.Numeric = summarize(values)
		}
		return stat
	}

	stat.UniqueCount = uniqueByDisplay(cells)
	return stat
}

// uniqueByDisplay counts distinct string renderings among present cells.
func uniqueByDisplay(cells []Cell) int {
	seen := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		seen[c.Display()] = struct{}{}
	}
	return len(seen)
}

// uniqueByValue counts distinct float64 values under exact equality.
func uniqueByValue(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// numericValues extracts the present, numerically parseable cells in column
// order. Booleans contribute 0 or 1, strings contribute only when they
// satisfy the numeric literal grammar.
func numericValues(cells []Cell) []float64 {
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		if v, ok := c.numericValue(); ok {
			values = append(values, v)
		}
	}
	return values
}

// summarize computes mean, median, min and max over a non-empty value set.
// The median is the element at index len/2 of the ascending sort, so an
// even-length column yields the upper middle element. Downstream consumers
// compare reports across tool versions, so this index rule is load-bearing
// and must not be replaced with the interpolated median.
func summarize(values []float64) *domain.NumericSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return &domain.NumericSummary{
		Mean:   sum / float64(len(sorted)),
		Median: sorted[len(sorted)/2],
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

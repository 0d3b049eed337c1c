package exporter

import (
	"fmt"
	"strconv"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// formatFloat formats a statistic value with the shortest exact decimal
// form, matching how cell values are displayed elsewhere.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatInt formats an integer counter for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// statFields returns the display forms of the four numeric statistics.
// Non-number columns report the N/A marker for all of them; the mean keeps
// its scientific display on number columns.
func statFields(s domain.ColumnStat) (mean, median, min, max string) {
	if s.Numeric == nil {
		return domain.NotApplicable, domain.NotApplicable, domain.NotApplicable, domain.NotApplicable
	}
	return s.MeanDisplay(),
		formatFloat(s.Numeric.Median),
		formatFloat(s.Numeric.Min),
		formatFloat(s.Numeric.Max)
}

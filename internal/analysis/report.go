package analysis

import (
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// BuildReport runs inference, bad-cell detection and statistics over every
// column of a cleaned dataset and aggregates the results. Columns appear in
// input order. A row with bad cells in several columns still counts once
// against ValidRows.
func BuildReport(d *Dataset) *domain.Report {
	report := &domain.Report{
		Columns:   make([]domain.ColumnStat, 0, len(d.Columns)),
		BadCells:  make([]domain.BadCell, 0),
		TotalRows: len(d.Rows),
	}

	badRows := make(map[int]struct{})
	for i, name := range d.Columns {
		cells := d.ColumnCells(i)
		inferred := InferColumnType(cells)

		bad, mismatches := DetectBadCells(name, inferred, cells)
		stat := ComputeStats(name, inferred, cells)
		stat.TypeMismatchCount = mismatches

		report.Columns = append(report.Columns, stat)
		for _, bc := range bad {
			badRows[bc.RowIndex] = struct{}{}
			report.BadCells = append(report.BadCells, bc)
		}
	}

	report.ValidRows = report.TotalRows - len(badRows)
	return report
}

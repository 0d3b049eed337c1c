package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// RenderText writes a human-scannable audit summary: a fixed-width column
// table, the row accounting, and the flagged cells.
func RenderText(w io.Writer, report *domain.Report) error {
	nameWidth := len("Column")
	for _, stat := range report.Columns {
		if len(stat.Column) > nameWidth {
			nameWidth = len(stat.Column)
		}
	}

	if _, err := fmt.Fprintf(w, "%-*s | %-7s | %12s | %12s | %12s | %12s | %6s | %5s | %8s\n",
		nameWidth, "Column", "Type", "Mean", "Median", "Min", "Max", "Unique", "NaN", "Mismatch"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s-|---------|--------------|--------------|--------------|--------------|--------|-------|---------\n",
		strings.Repeat("-", nameWidth)); err != nil {
		return err
	}

	for _, stat := range report.Columns {
		mean, median, min, max := statFields(stat)
		if _, err := fmt.Fprintf(w, "%-*s | %-7s | %12s | %12s | %12s | %12s | %6d | %5d | %8d\n",
			nameWidth, stat.Column, stat.InferredType, mean, median, min, max,
			stat.UniqueCount, stat.NanCount, stat.TypeMismatchCount); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nRows: %d total, %d valid, %d with bad cells\n",
		report.TotalRows, report.ValidRows, report.BadRowCount()); err != nil {
		return err
	}
	if report.Fingerprint != "" {
		if _, err := fmt.Fprintf(w, "Fingerprint: %s\n", report.Fingerprint); err != nil {
			return err
		}
	}

	if len(report.BadCells) > 0 {
		if _, err := fmt.Fprintf(w, "\nBad cells:\n"); err != nil {
			return err
		}
		for _, cell := range report.BadCells {
			value := cell.Value
			if value == "" {
				value = "(missing)"
			}
			if _, err := fmt.Fprintf(w, "  %s[%d] = %s\n", cell.Column, cell.RowIndex, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// Markdown renders the report as a pair of markdown tables.
func Markdown(report *domain.Report) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(columnStatHeaders, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columnStatHeaders)) + "\n")
	for _, stat := range report.Columns {
		mean, median, min, max := statFields(stat)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %d | %d | %d |\n",
			stat.Column, stat.InferredType, mean, median, min, max,
			stat.UniqueCount, stat.NanCount, stat.TypeMismatchCount)
	}

	fmt.Fprintf(&b, "\n**Rows:** %d total, %d valid, %d with bad cells\n",
		report.TotalRows, report.ValidRows, report.BadRowCount())
	if report.Fingerprint != "" {
		fmt.Fprintf(&b, "**Fingerprint:** `%s`\n", report.Fingerprint)
	}

	if len(report.BadCells) > 0 {
		b.WriteString("\n| " + strings.Join(badCellHeaders, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(badCellHeaders)) + "\n")
		for _, cell := range report.BadCells {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", cell.Column, cell.RowIndex, cell.Value)
		}
	}

	return b.String()
}

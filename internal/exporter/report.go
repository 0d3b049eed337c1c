package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// columnStatHeaders matches the JSON wire keys so the CSV and JSON exports
// of the same report line up field for field.
var columnStatHeaders = []string{
	"column", "inferred_type", "mean", "median", "min", "max",
	"unique_count", "nan_count", "type_mismatch_count",
}

var badCellHeaders = []string{"column", "row_index", "value"}

// ReportExporter writes audit reports in their file formats: indented JSON
// and the two CSV projections (column statistics, bad cells).
type ReportExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewReportExporter creates a report exporter over the shared path layout.
func NewReportExporter(paths *config.Paths) *ReportExporter {
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// WriteJSON writes the full report as indented JSON.
func (e *ReportExporter) WriteJSON(report *domain.Report, filePath string) error {
	fullPath := e.resolvePath(filePath)

	slog.Info("Writing JSON report",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("columns", len(report.Columns)))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(fullPath, data, 0644)
}

// WriteColumnStats writes one CSV row per audited column.
func (e *ReportExporter) WriteColumnStats(report *domain.Report, filePath string) error {
	records := make([][]string, 0, len(report.Columns))
	for _, stat := range report.Columns {
		mean, median, min, max := statFields(stat)
		records = append(records, []string{
			stat.Column,
			string(stat.InferredType),
			mean,
			median,
			min,
			max,
			formatInt(stat.UniqueCount),
			formatInt(stat.NanCount),
			formatInt(stat.TypeMismatchCount),
		})
	}

	return e.csvWriter.WriteSimpleCSV(filePath, columnStatHeaders, records)
}

// WriteBadCells writes one CSV row per flagged cell, preserving the
// report's column-major order.
func (e *ReportExporter) WriteBadCells(report *domain.Report, filePath string) error {
	records := make([][]string, 0, len(report.BadCells))
	for _, cell := range report.BadCells {
		records = append(records, []string{
			cell.Column,
			formatInt(cell.RowIndex),
			cell.Value,
		})
	}

	return e.csvWriter.WriteSimpleCSV(filePath, badCellHeaders, records)
}

func (e *ReportExporter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return e.paths.GetReportPath(filePath)
}

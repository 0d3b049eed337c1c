// Package exporter writes audit reports to their output formats.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, append
// mode, and UTF-8 BOM for Excel compatibility.
//
// ReportExporter: Persists an audit report as indented JSON and as the two
// CSV artifacts (per-column statistics and flagged cells).
//
// RenderText / Markdown: Render a report for terminals and for docs.
//
// Example usage:
//
//	// Persist the full report
//	reportExporter := exporter.NewReportExporter(paths)
//	err := reportExporter.WriteJSON(report, "scores_report.json")
//
//	// Write the per-column statistics CSV
//	err = reportExporter.WriteColumnStats(report, "scores_columns.csv")
//
//	// Print a summary table to the terminal
//	err = exporter.RenderText(os.Stdout, report)
package exporter

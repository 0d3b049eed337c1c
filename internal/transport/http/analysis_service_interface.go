package http

import (
	"context"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
)

// AnalysisServiceInterface defines the audit operations the analysis
// handler depends on. The concrete implementation is services.AnalysisService.
type AnalysisServiceInterface interface {
	// AnalyzeText audits raw delimited text submitted in the request body.
	AnalyzeText(ctx context.Context, name, text string) (*services.RunResult, error)

	// AnalyzeRows audits pre-tokenized rows with an explicit header.
	AnalyzeRows(ctx context.Context, name string, header []string, rows [][]interface{}) (*services.RunResult, error)

	// AnalyzeFile audits a file readable by the server process.
	AnalyzeFile(ctx context.Context, path, sheet string) (*services.RunResult, error)

	// AnalyzeSheet audits a Google Sheets range.
	AnalyzeSheet(ctx context.Context, spreadsheetID, readRange string) (*services.RunResult, error)
}

// BatchServiceInterface defines the directory audit operation.
type BatchServiceInterface interface {
	// Run audits every file in dir matching pattern, with at most workers
	// files in flight at once.
	Run(ctx context.Context, dir, pattern string, workers int) (*services.BatchResult, error)
}

// Package api contains API contract definitions for the NVFLARE CSV
// Analyzer. Version v1 represents the current stable API version.
package api

import (
	"time"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// Analysis API Requests

// AnalyzeRequest submits an in-request dataset for auditing. Exactly one of
// Text or Rows must be set; Header names the columns when Rows is used.
type AnalyzeRequest struct {
	Name   string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Text   string          `json:"text,omitempty"`
	Header []string        `json:"header,omitempty" validate:"required_with=Rows"`
	Rows   [][]interface{} `json:"rows,omitempty"`
}

// AnalyzeFileRequest audits a file readable by the server. Sheet selects a
// worksheet for workbook inputs; empty means the first sheet.
type AnalyzeFileRequest struct {
	Path  string `json:"path" validate:"required,relpath"`
	Sheet string `json:"sheet,omitempty" validate:"omitempty,max=64"`
}

// AnalyzeSheetRequest audits a Google Sheets range.
type AnalyzeSheetRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required,min=10"`
	Range         string `json:"range,omitempty" validate:"omitempty,max=128,a1range"`
}

// BatchRequest audits every matching delimited file under a directory.
// Workers bounds the number of files audited concurrently; zero means the
// server default.
type BatchRequest struct {
	Dir     string `json:"dir" validate:"required,relpath"`
	Pattern string `json:"pattern,omitempty" validate:"omitempty,max=128,globpattern"`
	Workers int    `json:"workers,omitempty" validate:"omitempty,min=1,max=64"`
}

// Analysis API Responses

// AnalysisResponse wraps one completed audit run.
type AnalysisResponse struct {
	RunID      string         `json:"run_id"`
	Source     string         `json:"source"`
	DurationMS int64          `json:"duration_ms"`
	Report     *domain.Report `json:"report"`
}

// FileResult is the outcome of one file within a batch audit. Counts are
// zero when the file failed; Error then carries the failure notice.
type FileResult struct {
	Path      string `json:"path"`
	RunID     string `json:"run_id,omitempty"`
	TotalRows int    `json:"total_rows"`
	ValidRows int    `json:"valid_rows"`
	BadCells  int    `json:"bad_cells"`
	Error     string `json:"error,omitempty"`
}

// BatchResponse summarizes a directory audit.
type BatchResponse struct {
	BatchID       string       `json:"batch_id"`
	Dir           string       `json:"dir"`
	Files         []FileResult `json:"files"`
	Audited       int          `json:"audited"`
	Failed        int          `json:"failed"`
	TotalBadCells int          `json:"total_bad_cells"`
	DurationMS    int64        `json:"duration_ms"`
}

// File discovery

// FileEntry describes one discoverable input file or report artifact.
type FileEntry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// FileListResponse lists discoverable input files under a directory.
type FileListResponse struct {
	Dir   string      `json:"dir"`
	Files []FileEntry `json:"files"`
}

package http

import (
	"context"
	"net/http"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
)

// DataServiceInterface defines file discovery and report retrieval for the
// data handler.
type DataServiceInterface interface {
	// ListInputFiles returns the auditable files under dir, or under the
	// configured input directory when dir is empty.
	ListInputFiles(ctx context.Context, dir string) ([]services.FileEntry, error)

	// ListReports returns generated audit artifacts, newest first.
	ListReports(ctx context.Context) ([]services.FileEntry, error)

	// DownloadReport streams one report artifact with download headers.
	DownloadReport(ctx context.Context, w http.ResponseWriter, r *http.Request, filename string) error
}

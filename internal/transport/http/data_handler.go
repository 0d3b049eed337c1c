package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	api "github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/api/v1"
)

// DataHandler serves file discovery and report artifact retrieval.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// ListFiles handles GET /api/v1/files?dir=. An empty dir lists the
// configured input directory.
func (h *DataHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	dir := r.URL.Query().Get("dir")

	h.logger.InfoContext(r.Context(), "listing input files",
		slog.String("request_id", reqID),
		slog.String("dir", dir),
	)

	files, err := h.service.ListInputFiles(r.Context(), dir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list input files",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dir", dir),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   api.FileListResponse{Dir: dir, Files: toAPIEntries(files)},
		"count":  len(files),
	})
}

// ListReports handles GET /api/v1/reports.
func (h *DataHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "listing reports",
		slog.String("request_id", reqID),
	)

	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list reports",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   toAPIEntries(reports),
		"count":  len(reports),
	})
}

// DownloadReport handles GET /api/v1/reports/download/{filename}.
func (h *DataHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	raw := chi.URLParam(r, "filename")

	// Decode percent-encoded names before handing them to the service,
	// which re-checks the decoded form for separators and traversal.
	filename, err := url.QueryUnescape(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_PATH",
			"Invalid file name encoding",
			map[string]interface{}{
				"filename": raw,
				"error":    err.Error(),
			},
		))
		return
	}

	h.logger.InfoContext(r.Context(), "downloading report",
		slog.String("request_id", reqID),
		slog.String("filename", filename),
	)

	if err := h.service.DownloadReport(r.Context(), w, r, filename); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to download report",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("filename", filename),
		)

		// The service may have started streaming before failing.
		if isResponseWritten(w) {
			return
		}

		switch {
		case errors.Is(err, services.ErrInvalidPath):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest,
				"INVALID_PATH",
				"Report names cannot contain path separators",
				map[string]interface{}{
					"filename": filename,
				},
			))
		case errors.Is(err, services.ErrFileNotFound):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"FILE_NOT_FOUND",
				fmt.Sprintf("Report '%s' not found", filename),
				map[string]interface{}{
					"filename": filename,
				},
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
	}
}

// toAPIEntries maps service file entries onto the API contract.
func toAPIEntries(files []services.FileEntry) []api.FileEntry {
	entries := make([]api.FileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, api.FileEntry{
			Path:     f.Path,
			Name:     f.Name,
			Category: f.Category,
			Size:     f.Size,
			ModTime:  f.Modified,
		})
	}
	return entries
}

// isResponseWritten checks if the response has already been written.
func isResponseWritten(w http.ResponseWriter) bool {
	if ww, ok := w.(interface{ Status() int }); ok {
		return ww.Status() != 0
	}
	return false
}

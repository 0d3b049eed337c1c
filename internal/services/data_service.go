package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/files"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
)

// DataService lists input files and generated report artifacts for the web
// UI. It never reads file contents; audits go through AnalysisService.
type DataService struct {
	paths     *config.Paths
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewDataService creates a new data service over the shared path layout.
func NewDataService(paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "data_service")

	logger.Info("DataService initialized with paths",
		slog.String("input_dir", paths.InputDir),
		slog.String("reports_dir", paths.ReportsDir))

	return &DataService{
		paths:     paths,
		discovery: files.NewDiscovery(""),
		logger:    logger,
	}
}

// FileEntry describes one listed file.
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Category string    `json:"category"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListInputFiles returns the auditable files in dir, or in the configured
// input directory when dir is empty. Entries keep discovery's name order.
func (ds *DataService) ListInputFiles(ctx context.Context, dir string) ([]FileEntry, error) {
	if dir == "" {
		dir = ds.paths.InputDir
	}

	ds.logger.DebugContext(ctx, "ListInputFiles: scanning directory",
		slog.String("dir", dir))

	found, err := ds.discovery.FindInputFiles(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("directory")
		}
		logDataError(ctx, "list_input_files", "failed to scan input directory",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil, apperrors.NewStorageError("failed to list input files", err)
	}

	entries := make([]FileEntry, 0, len(found))
	for _, f := range found {
		entries = append(entries, FileEntry{
			Name:     f.Name,
			Path:     f.Path,
			Category: inputCategory(f.Name),
			Size:     f.Size,
			Modified: f.ModTime,
		})
	}
	return entries, nil
}

// ListReports returns the generated audit artifacts in the reports
// directory, newest first. A missing reports directory is an empty
// listing, not an error.
func (ds *DataService) ListReports(ctx context.Context) ([]FileEntry, error) {
	reportsDir := ds.paths.ReportsDir

	ds.logger.DebugContext(ctx, "ListReports: scanning directory",
		slog.String("reports_dir", reportsDir))

	dirEntries, err := os.ReadDir(reportsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileEntry{}, nil
		}
		logDataError(ctx, "list_reports", "failed to scan reports directory",
			slog.String("reports_dir", reportsDir),
			slog.String("error", err.Error()))
		return nil, apperrors.NewStorageError("failed to list reports", err)
	}

	var entries []FileEntry
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".csv" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		entries = append(entries, FileEntry{
			Name:     entry.Name(),
			Path:     filepath.Join(reportsDir, entry.Name()),
			Category: reportCategory(entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})

	ds.logger.DebugContext(ctx, "ListReports: found reports",
		slog.Int("count", len(entries)))

	return entries, nil
}

// DownloadReport streams one report artifact to the client with download
// headers. Only flat names are served; reports never nest, so anything
// with a separator or traversal segment is rejected before touching disk.
func (ds *DataService) DownloadReport(ctx context.Context, w http.ResponseWriter, r *http.Request, filename string) error {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return ErrInvalidPath
	}

	fullPath := ds.paths.GetReportPath(filename)
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		logDataError(ctx, "download_report", "failed to stat report file",
			slog.String("path", fullPath),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to read report file", err)
	}
	if info.IsDir() {
		return ErrFileNotFound
	}

	ds.logger.InfoContext(ctx, "serving report download",
		slog.String("filename", filename),
		slog.Int64("size", info.Size()))

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		w.Header().Set("Content-Type", "application/json")
	case ".csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	http.ServeFile(w, r, fullPath)
	return nil
}

// inputCategory tags a file by how the audit will read it.
func inputCategory(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return "workbook"
	case ".tsv":
		return "tsv"
	default:
		return "csv"
	}
}

// reportCategory detects the artifact kind from the exporter's naming
// convention.
func reportCategory(name string) string {
	switch {
	case strings.HasSuffix(name, "_audit.json"):
		return "report"
	case strings.HasSuffix(name, "_audit_columns.csv"):
		return "columns"
	case strings.HasSuffix(name, "_audit_bad_cells.csv"):
		return "bad_cells"
	default:
		return "uncategorized"
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/analysis"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/files"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/validation"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// Source kinds used as the low-cardinality metric attribute.
const (
	sourceText     = "text"
	sourceFile     = "file"
	sourceWorkbook = "workbook"
	sourceSheet    = "sheet"
	sourceRows     = "rows"
)

// WorkbookRows reads one sheet of a local workbook as rendered rows.
type WorkbookRows interface {
	Rows(path, sheet string) ([][]string, error)
}

// SheetValues fetches a range of a remote spreadsheet as dynamic rows.
type SheetValues interface {
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// RunResult describes one completed audit run. A failed run produces an
// error and no result; the report is never partial.
type RunResult struct {
	RunID     string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Report    *domain.Report
}

// AnalysisService runs the audit pipeline over the supported input sources.
// Each call is one independent, stateless run.
type AnalysisService struct {
	cfg       config.AnalysisConfig
	validator *validation.InputValidator
	workbooks WorkbookRows
	sheets    SheetValues
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewAnalysisService creates the audit service. Nil workbook and sheet
// sources fall back to the real implementations; tests substitute stubs.
func NewAnalysisService(cfg *config.Config, workbooks WorkbookRows, sheets SheetValues, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "analysis_service")

	if workbooks == nil {
		workbooks = files.NewWorkbookSource(logger)
	}
	if sheets == nil {
		sheets = files.NewSheetsSource(cfg.Sheets, logger)
	}

	logger.Info("AnalysisService initialized",
		slog.Int64("max_input_bytes", cfg.Analysis.MaxInputBytes),
		slog.Any("allowed_extensions", cfg.Analysis.AllowedExtensions))

	return &AnalysisService{
		cfg:       cfg.Analysis,
		validator: validation.NewInputValidator(logger, cfg.Analysis.MaxInputBytes, cfg.Analysis.AllowedExtensions),
		workbooks: workbooks,
		sheets:    sheets,
		metrics:   metrics,
		logger:    logger,
	}
}

// AnalyzeText audits raw delimited text. name labels the run for logs and
// the result; it has no effect on the audit itself.
func (s *AnalysisService) AnalyzeText(ctx context.Context, name, text string) (*RunResult, error) {
	started := time.Now()
	source := sourceLabel(name, sourceText)

	infrastructure.RecordInputBytes(ctx, s.metrics, sourceText, int64(len(text)))

	report, err := analysis.Analyze(text)
	return s.finish(ctx, sourceText, source, started, report, err)
}

// AnalyzeFile audits a server-local file, dispatching on its extension:
// workbooks go through the sheet reader, everything else is read as
// delimited text (tab-separated for .tsv, comma otherwise). sheet selects
// the workbook sheet and is ignored for text files.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path, sheet string) (*RunResult, error) {
	started := time.Now()

	if err := s.validator.ValidateAuditFile(path); err != nil {
		return s.finish(ctx, sourceFile, path, started, nil, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return s.analyzeWorkbook(ctx, path, sheet, started)
	case ".tsv":
		return s.analyzeTextFile(ctx, path, started, '\t')
	default:
		return s.analyzeTextFile(ctx, path, started, ',')
	}
}

// AnalyzeSheet audits a range of a remote Google Sheets spreadsheet. The
// first fetched row is the header; values arrive typed, so no literal
// re-parsing happens for numbers and booleans.
func (s *AnalysisService) AnalyzeSheet(ctx context.Context, spreadsheetID, readRange string) (*RunResult, error) {
	started := time.Now()
	source := "sheets:" + spreadsheetID

	values, err := s.sheets.Values(ctx, spreadsheetID, readRange)
	if err != nil {
		return s.finish(ctx, sourceSheet, source, started, nil, err)
	}
	if len(values) == 0 {
		return s.finish(ctx, sourceSheet, source, started, nil, apperrors.NewNoInputError())
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = cast.ToString(v)
	}

	ds := analysis.FromRows(header, values[1:])
	report := analysis.AnalyzeDataset(ds, "")
	return s.finish(ctx, sourceSheet, source, started, report, nil)
}

// AnalyzeRows audits pre-tokenized rows, the input form API clients send
// when they already hold structured data. No fingerprint is attached since
// there are no raw input bytes.
func (s *AnalysisService) AnalyzeRows(ctx context.Context, name string, header []string, rows [][]interface{}) (*RunResult, error) {
	started := time.Now()
	source := sourceLabel(name, sourceRows)

	if len(header) == 0 {
		return s.finish(ctx, sourceRows, source, started, nil, apperrors.NewNoInputError())
	}

	ds := analysis.FromRows(header, rows)
	report := analysis.AnalyzeDataset(ds, "")
	return s.finish(ctx, sourceRows, source, started, report, nil)
}

func (s *AnalysisService) analyzeTextFile(ctx context.Context, path string, started time.Time, comma rune) (*RunResult, error) {
	text, err := files.ReadText(path, s.cfg.MaxInputBytes)
	if err != nil {
		return s.finish(ctx, sourceFile, path, started, nil, err)
	}
	infrastructure.RecordInputBytes(ctx, s.metrics, sourceFile, int64(len(text)))

	ds, err := analysis.ParseDelimited(text, comma)
	if err != nil {
		return s.finish(ctx, sourceFile, path, started, nil, err)
	}

	report := analysis.AnalyzeDataset(ds, analysis.Fingerprint([]byte(text)))
	return s.finish(ctx, sourceFile, path, started, report, nil)
}

func (s *AnalysisService) analyzeWorkbook(ctx context.Context, path, sheet string, started time.Time) (*RunResult, error) {
	rows, err := s.workbooks.Rows(path, sheet)
	if err != nil {
		return s.finish(ctx, sourceWorkbook, path, started, nil, err)
	}
	if len(rows) == 0 {
		return s.finish(ctx, sourceWorkbook, path, started, nil, apperrors.NewNoInputError())
	}

	// The fingerprint covers the workbook bytes, not the extracted rows.
	raw, err := os.ReadFile(path)
	if err != nil {
		return s.finish(ctx, sourceWorkbook, path, started, nil,
			apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err))
	}
	infrastructure.RecordInputBytes(ctx, s.metrics, sourceWorkbook, int64(len(raw)))

	ds := analysis.FromStringRows(rows[0], rows[1:])
	report := analysis.AnalyzeDataset(ds, analysis.Fingerprint(raw))
	return s.finish(ctx, sourceWorkbook, path, started, report, nil)
}

// finish closes out a run: metrics, span event, one log line, and the
// RunResult on success. Errors pass through untouched so the transport
// layer can map them by type.
func (s *AnalysisService) finish(ctx context.Context, kind, source string, started time.Time, report *domain.Report, err error) (*RunResult, error) {
	duration := time.Since(started)
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, kind, duration, report, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.LogAttrs(ctx, slog.LevelError, "audit run failed",
			slog.String("kind", kind),
			slog.String("source", source),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		Source:    source,
		StartedAt: started,
		Duration:  duration,
		Report:    report,
	}

	infrastructure.AddSpanEvent(ctx, "audit.complete", map[string]interface{}{
		"run_id":     result.RunID,
		"source":     source,
		"total_rows": report.TotalRows,
		"bad_cells":  len(report.BadCells),
	})

	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit run complete",
		slog.String("run_id", result.RunID),
		slog.String("kind", kind),
		slog.String("source", source),
		slog.Int("columns", len(report.Columns)),
		slog.Int("total_rows", report.TotalRows),
		slog.Int("valid_rows", report.ValidRows),
		slog.Int("bad_cells", len(report.BadCells)),
		slog.Duration("duration", duration))

	return result, nil
}

func sourceLabel(name, fallback string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fallback
}

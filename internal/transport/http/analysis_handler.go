package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	customMiddleware "github.com/trendscenter/nvflare-csv-analyzer/internal/middleware"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	api "github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/api/v1"
)

// AnalysisHandler exposes the synchronous audit operations over HTTP.
// Runs complete within the request; nothing is persisted server-side
// beyond the report artifacts the exporter writes.
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	batch        BatchServiceInterface
	validator    *customMiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(
	service AnalysisServiceInterface,
	batch BatchServiceInterface,
	validator *customMiddleware.ValidationMiddleware,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		batch:        batch,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "analysis")),
		errorHandler: errorHandler,
	}
}

// Routes returns a chi router for the audit endpoints.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Analyze)
	r.Post("/file", h.AnalyzeFile)
	r.Post("/sheet", h.AnalyzeSheet)
	r.Post("/batch", h.AnalyzeBatch)

	return r
}

// Analyze handles POST /api/v1/analyses. JSON bodies submit inline text or
// pre-tokenized rows; any other content type is read as raw delimited text
// with the dataset name taken from the "name" query parameter.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if isJSONRequest(r) {
		h.analyzeJSON(w, r)
		return
	}
	h.analyzeRaw(w, r)
}

func (h *AnalysisHandler) analyzeJSON(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	switch {
	case req.Text != "":
		h.logger.InfoContext(r.Context(), "auditing inline text",
			slog.String("request_id", reqID),
			slog.String("name", req.Name),
			slog.Int("bytes", len(req.Text)),
		)
		result, err := h.service.AnalyzeText(r.Context(), req.Name, req.Text)
		h.respondRun(w, r, result, err)

	case len(req.Rows) > 0:
		h.logger.InfoContext(r.Context(), "auditing tokenized rows",
			slog.String("request_id", reqID),
			slog.String("name", req.Name),
			slog.Int("rows", len(req.Rows)),
		)
		result, err := h.service.AnalyzeRows(r.Context(), req.Name, req.Header, req.Rows)
		h.respondRun(w, r, result, err)

	default:
		h.errorHandler.HandleError(w, r, apierrors.NewNoInputError())
	}
}

func (h *AnalysisHandler) analyzeRaw(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Failed to read request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	name := r.URL.Query().Get("name")
	h.logger.InfoContext(r.Context(), "auditing uploaded text",
		slog.String("request_id", reqID),
		slog.String("name", name),
		slog.String("content_type", r.Header.Get("Content-Type")),
		slog.Int("bytes", len(body)),
	)

	result, err := h.service.AnalyzeText(r.Context(), name, string(body))
	h.respondRun(w, r, result, err)
}

// AnalyzeFile handles POST /api/v1/analyses/file for server-local files.
func (h *AnalysisHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.AnalyzeFileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "auditing local file",
		slog.String("request_id", reqID),
		slog.String("path", req.Path),
		slog.String("sheet", req.Sheet),
	)

	result, err := h.service.AnalyzeFile(r.Context(), req.Path, req.Sheet)
	h.respondRun(w, r, result, err)
}

// AnalyzeSheet handles POST /api/v1/analyses/sheet for Google Sheets ranges.
func (h *AnalysisHandler) AnalyzeSheet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.AnalyzeSheetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "auditing remote sheet",
		slog.String("request_id", reqID),
		slog.String("spreadsheet_id", req.SpreadsheetID),
		slog.String("range", req.Range),
	)

	result, err := h.service.AnalyzeSheet(r.Context(), req.SpreadsheetID, req.Range)
	h.respondRun(w, r, result, err)
}

// AnalyzeBatch handles POST /api/v1/analyses/batch. Individual file
// failures stay inside the response; only a batch that cannot start at
// all is an error.
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.BatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "starting batch audit",
		slog.String("request_id", reqID),
		slog.String("dir", req.Dir),
		slog.String("pattern", req.Pattern),
		slog.Int("workers", req.Workers),
	)

	result, err := h.batch.Run(r.Context(), req.Dir, req.Pattern, req.Workers)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "batch audit failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dir", req.Dir),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.BatchResponse{
		BatchID:       result.BatchID,
		Dir:           result.Dir,
		Files:         make([]api.FileResult, 0, len(result.Files)),
		Audited:       result.Audited,
		Failed:        result.Failed,
		TotalBadCells: result.TotalBadCells,
		DurationMS:    result.Duration.Milliseconds(),
	}
	for _, f := range result.Files {
		resp.Files = append(resp.Files, api.FileResult{
			Path:      f.Path,
			RunID:     f.RunID,
			TotalRows: f.TotalRows,
			ValidRows: f.ValidRows,
			BadCells:  f.BadCells,
			Error:     fileErrorMessage(f.Err),
		})
	}

	render.JSON(w, r, resp)
}

// respondRun renders one completed run or routes the failure through the
// error handler.
func (h *AnalysisHandler) respondRun(w http.ResponseWriter, r *http.Request, result *services.RunResult, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.AnalysisResponse{
		RunID:      result.RunID,
		Source:     result.Source,
		DurationMS: result.Duration.Milliseconds(),
		Report:     result.Report,
	})
}

// isJSONRequest reports whether the request body should be decoded as an
// API request rather than read as raw delimited text.
func isJSONRequest(r *http.Request) bool {
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	return strings.HasPrefix(ct, "application/json")
}

// fileErrorMessage keeps parser internals out of batch responses. Typed
// audit failures surface their user notice, anything else collapses to
// the generic processing message.
func fileErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return apierrors.MsgProcessingFailed
}

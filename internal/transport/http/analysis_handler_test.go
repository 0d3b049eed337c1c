package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	customMiddleware "github.com/trendscenter/nvflare-csv-analyzer/internal/middleware"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/shared/testutil"
	api "github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/api/v1"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

type fakeAnalysisService struct {
	analyzeTextFn  func(ctx context.Context, name, text string) (*services.RunResult, error)
	analyzeRowsFn  func(ctx context.Context, name string, header []string, rows [][]interface{}) (*services.RunResult, error)
	analyzeFileFn  func(ctx context.Context, path, sheet string) (*services.RunResult, error)
	analyzeSheetFn func(ctx context.Context, spreadsheetID, readRange string) (*services.RunResult, error)
}

func (f *fakeAnalysisService) AnalyzeText(ctx context.Context, name, text string) (*services.RunResult, error) {
	if f.analyzeTextFn == nil {
		return nil, errors.New("unexpected AnalyzeText call")
	}
	return f.analyzeTextFn(ctx, name, text)
}

func (f *fakeAnalysisService) AnalyzeRows(ctx context.Context, name string, header []string, rows [][]interface{}) (*services.RunResult, error) {
	if f.analyzeRowsFn == nil {
		return nil, errors.New("unexpected AnalyzeRows call")
	}
	return f.analyzeRowsFn(ctx, name, header, rows)
}

func (f *fakeAnalysisService) AnalyzeFile(ctx context.Context, path, sheet string) (*services.RunResult, error) {
	if f.analyzeFileFn == nil {
		return nil, errors.New("unexpected AnalyzeFile call")
	}
	return f.analyzeFileFn(ctx, path, sheet)
}

func (f *fakeAnalysisService) AnalyzeSheet(ctx context.Context, spreadsheetID, readRange string) (*services.RunResult, error) {
	if f.analyzeSheetFn == nil {
		return nil, errors.New("unexpected AnalyzeSheet call")
	}
	return f.analyzeSheetFn(ctx, spreadsheetID, readRange)
}

type fakeBatchService struct {
	runFn func(ctx context.Context, dir, pattern string, workers int) (*services.BatchResult, error)
}

func (f *fakeBatchService) Run(ctx context.Context, dir, pattern string, workers int) (*services.BatchResult, error) {
	if f.runFn == nil {
		return nil, errors.New("unexpected Run call")
	}
	return f.runFn(ctx, dir, pattern, workers)
}

func newAnalysisRouter(t *testing.T, svc AnalysisServiceInterface, batch BatchServiceInterface) (chi.Router, *testutil.BufferedSlogHandler) {
	t.Helper()

	logger, logs := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := customMiddleware.NewValidationMiddleware(logger, errorHandler)
	h := NewAnalysisHandler(svc, batch, validator, logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/v1/analyses", h.Routes())
	return r, logs
}

func sampleRun() *services.RunResult {
	return &services.RunResult{
		RunID:     "run-1",
		Source:    "trades.csv",
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Report: &domain.Report{
			TotalRows: 2,
			ValidRows: 2,
		},
	}
}

func decodeProblemBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestAnalyze_InlineText(t *testing.T) {
	var gotName, gotText string
	svc := &fakeAnalysisService{
		analyzeTextFn: func(_ context.Context, name, text string) (*services.RunResult, error) {
			gotName, gotText = name, text
			return sampleRun(), nil
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	body := `{"name": "trades.csv", "text": "a,b\n1,2\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trades.csv", gotName)
	assert.Equal(t, "a,b\n1,2\n", gotText)

	var resp api.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, int64(1500), resp.DurationMS)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 2, resp.Report.TotalRows)
}

func TestAnalyze_RawBody(t *testing.T) {
	var gotName, gotText string
	svc := &fakeAnalysisService{
		analyzeTextFn: func(_ context.Context, name, text string) (*services.RunResult, error) {
			gotName, gotText = name, text
			return sampleRun(), nil
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses?name=upload.csv", strings.NewReader("a,b\n1,2\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upload.csv", gotName)
	assert.Equal(t, "a,b\n1,2\n", gotText)
}

func TestAnalyze_TokenizedRows(t *testing.T) {
	var gotHeader []string
	var gotRows [][]interface{}
	svc := &fakeAnalysisService{
		analyzeRowsFn: func(_ context.Context, _ string, header []string, rows [][]interface{}) (*services.RunResult, error) {
			gotHeader, gotRows = header, rows
			return sampleRun(), nil
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	body := `{"name": "rows", "header": ["a", "b"], "rows": [[1, "x"], [2.5, true]]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b"}, gotHeader)
	require.Len(t, gotRows, 2)
	assert.Equal(t, "x", gotRows[0][1])
}

func TestAnalyze_NoInput(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{"name": "empty"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, apierrors.TypeNoInput, problem["type"])
	assert.Equal(t, apierrors.MsgNoInput, problem["detail"])
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{"name": broken`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem["type"])
	assert.Equal(t, "INVALID_REQUEST", problem["error_code"])
}

func TestAnalyze_ParseFailureStaysGeneric(t *testing.T) {
	svc := &fakeAnalysisService{
		analyzeTextFn: func(_ context.Context, _, _ string) (*services.RunResult, error) {
			return nil, apierrors.NewParsingError(
				"row 3: bare \" in non-quoted-field",
				errors.New("csv: parse error"),
			)
		},
	}
	router, logs := newAnalysisRouter(t, svc, &fakeBatchService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{"text": "a,b\n\"broken"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, apierrors.TypeProcessingFailed, problem["type"])
	assert.Equal(t, apierrors.MsgProcessingFailed, problem["detail"])
	assert.NotContains(t, rec.Body.String(), "bare")

	testutil.AssertLogContains(t, logs, slog.LevelError, "audit failed")
}

func TestAnalyzeFile(t *testing.T) {
	var gotPath, gotSheet string
	svc := &fakeAnalysisService{
		analyzeFileFn: func(_ context.Context, path, sheet string) (*services.RunResult, error) {
			gotPath, gotSheet = path, sheet
			return sampleRun(), nil
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	body := `{"path": "input/trades.xlsx", "sheet": "prices"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/file", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "input/trades.xlsx", gotPath)
	assert.Equal(t, "prices", gotSheet)
}

func TestAnalyzeFile_RejectsTraversal(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	body := `{"path": "../../etc/passwd"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/file", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
	assert.Contains(t, rec.Body.String(), "path must be a relative path")
}

func TestAnalyzeFile_NotFound(t *testing.T) {
	svc := &fakeAnalysisService{
		analyzeFileFn: func(_ context.Context, path, _ string) (*services.RunResult, error) {
			return nil, apierrors.NewNotFoundError("file " + path)
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	body := `{"path": "input/missing.csv"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/file", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, apierrors.TypeNotFound, problem["type"])
}

func TestAnalyzeSheet(t *testing.T) {
	var gotID, gotRange string
	svc := &fakeAnalysisService{
		analyzeSheetFn: func(_ context.Context, spreadsheetID, readRange string) (*services.RunResult, error) {
			gotID, gotRange = spreadsheetID, readRange
			return sampleRun(), nil
		},
	}
	router, _ := newAnalysisRouter(t, svc, &fakeBatchService{})

	body := `{"spreadsheet_id": "1aBcDeFgHiJkL", "range": "Sheet1!A1:D100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/sheet", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1aBcDeFgHiJkL", gotID)
	assert.Equal(t, "Sheet1!A1:D100", gotRange)
}

func TestAnalyzeSheet_InvalidRange(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	body := `{"spreadsheet_id": "1aBcDeFgHiJkL", "range": "1A:xx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/sheet", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
}

func TestAnalyzeBatch(t *testing.T) {
	var gotDir, gotPattern string
	var gotWorkers int
	batch := &fakeBatchService{
		runFn: func(_ context.Context, dir, pattern string, workers int) (*services.BatchResult, error) {
			gotDir, gotPattern, gotWorkers = dir, pattern, workers
			return &services.BatchResult{
				BatchID:       "batch-1",
				Dir:           dir,
				Audited:       2,
				Failed:        1,
				TotalBadCells: 3,
				Duration:      2 * time.Second,
				Files: []services.FileOutcome{
					{Path: "data/a.csv", RunID: "run-a", TotalRows: 10, ValidRows: 9, BadCells: 1},
					{Path: "data/b.csv", RunID: "run-b", TotalRows: 5, ValidRows: 4, BadCells: 2},
					{Path: "data/broken.csv", Err: apierrors.NewParsingError("row 1: wrong field count", nil)},
				},
			}, nil
		},
	}
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, batch)

	body := `{"dir": "data", "pattern": "*.csv", "workers": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data", gotDir)
	assert.Equal(t, "*.csv", gotPattern)
	assert.Equal(t, 2, gotWorkers)

	var resp api.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-1", resp.BatchID)
	assert.Equal(t, 2, resp.Audited)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 3, resp.TotalBadCells)
	assert.Equal(t, int64(2000), resp.DurationMS)
	require.Len(t, resp.Files, 3)

	assert.Equal(t, "run-a", resp.Files[0].RunID)
	assert.Empty(t, resp.Files[0].Error)

	// Parse detail never leaks into the batch response.
	assert.Empty(t, resp.Files[2].RunID)
	assert.Equal(t, apierrors.MsgProcessingFailed, resp.Files[2].Error)
	assert.NotContains(t, rec.Body.String(), "wrong field count")
}

func TestAnalyzeBatch_EmptyDirectory(t *testing.T) {
	batch := &fakeBatchService{
		runFn: func(_ context.Context, _, _ string, _ int) (*services.BatchResult, error) {
			return nil, apierrors.NewAppError(
				apierrors.ErrTypeNoInput,
				"no auditable files in directory",
				services.ErrNoFilesFound,
			)
		},
	}
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, batch)

	body := `{"dir": "empty"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, apierrors.TypeNoInput, problem["type"])
}

func TestAnalyzeBatch_ValidationErrors(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	body := `{"dir": "../escape", "workers": 99}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblemBody(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
	assert.Contains(t, rec.Body.String(), "dir must be a relative path")
	assert.Contains(t, rec.Body.String(), "workers must be at most 64")
}

func TestFileErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error", err: nil, want: ""},
		{
			name: "parsing collapses to generic notice",
			err:  apierrors.NewParsingError("row 2: bare quote", nil),
			want: apierrors.MsgProcessingFailed,
		},
		{
			name: "not found keeps its message",
			err:  apierrors.NewNotFoundError("file data/x.csv"),
			want: "file data/x.csv not found",
		},
		{
			name: "untyped collapses to generic notice",
			err:  errors.New("driver exploded"),
			want: apierrors.MsgProcessingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileErrorMessage(tt.err))
		})
	}
}

func TestAnalyze_RawBodyReadError(t *testing.T) {
	router, _ := newAnalysisRouter(t, &fakeAnalysisService{}, &fakeBatchService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &failingReader{})
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read reset")
}

package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewClientLogHandler(logger)

	body := `{"level": "error", "message": "upload widget crashed", "source": "dashboard", "data": {"file": "trades.csv"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	testutil.AssertLogContains(t, logs, slog.LevelError, "upload widget crashed")
	testutil.AssertLogAttr(t, logs, "client_source", "dashboard")
}

func TestClientLogHandler_LevelMapping(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{name: "debug", level: "debug", want: slog.LevelDebug},
		{name: "warning alias", level: "warning", want: slog.LevelWarn},
		{name: "unknown degrades to info", level: "shout", want: slog.LevelInfo},
		{name: "empty degrades to info", level: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewClientLogHandler(logger)

			body := `{"level": "` + tt.level + `", "message": "browser event"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.Handle(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			testutil.AssertLogContains(t, logs, tt.want, "browser event")
		})
	}
}

func TestClientLogHandler_InvalidJSON(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewClientLogHandler(logger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(`{"level":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, logs.Count())
}

func TestClientLogHandler_DefaultSource(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewClientLogHandler(logger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(`{"message": "no source"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	testutil.AssertLogAttr(t, logs, "client_source", "web")
}

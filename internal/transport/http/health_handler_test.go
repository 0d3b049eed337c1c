package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/shared/testutil"
)

type fakeClientCounter int

func (f fakeClientCounter) ClientCount() int { return int(f) }

func newHealthRouter(t *testing.T, paths *config.Paths) chi.Router {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService("1.2.3", "https://github.com/trendscenter/nvflare-csv-analyzer",
		&config.Config{}, paths, fakeClientCounter(3), logger)
	h := NewHealthHandler(svc, logger)

	r := chi.NewRouter()
	r.Get("/api/v1/health", h.HealthCheck)
	r.Get("/api/v1/health/ready", h.ReadinessCheck)
	r.Get("/api/v1/health/live", h.LivenessCheck)
	r.Get("/api/v1/version", h.Version)
	r.Get("/api/v1/stats", h.Stats)
	return r
}

func tempPaths(t *testing.T) *config.Paths {
	t.Helper()

	base := t.TempDir()
	paths := &config.Paths{
		DataDir:    base,
		InputDir:   filepath.Join(base, "input"),
		ReportsDir: filepath.Join(base, "reports"),
	}
	require.NoError(t, os.MkdirAll(paths.InputDir, 0o755))
	require.NoError(t, os.MkdirAll(paths.ReportsDir, 0o755))
	return paths
}

func TestHealthCheck(t *testing.T) {
	router := newHealthRouter(t, tempPaths(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestReadinessCheck_Ready(t *testing.T) {
	router := newHealthRouter(t, tempPaths(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ready", status.Status)
	assert.Contains(t, status.Services, "input_dir")
	assert.Contains(t, status.Services, "reports_dir")
	assert.Contains(t, status.Services, "websocket")
	assert.Contains(t, status.Services, "sheets")
}

func TestReadinessCheck_MissingInputDir(t *testing.T) {
	paths := tempPaths(t)
	paths.InputDir = filepath.Join(paths.DataDir, "does-not-exist")
	router := newHealthRouter(t, paths)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "not_ready", status.Status)
}

func TestLivenessCheck(t *testing.T) {
	router := newHealthRouter(t, tempPaths(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "alive", status.Status)
	assert.NotEmpty(t, status.Runtime["go_version"])
}

func TestVersionEndpoint(t *testing.T) {
	router := newHealthRouter(t, tempPaths(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/version", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "repo_url")
}

func TestStatsEndpoint(t *testing.T) {
	paths := tempPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.InputDir, "trades.csv"), []byte("a,b\n1,2\n"), 0o644))
	router := newHealthRouter(t, paths)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats services.SystemStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.GreaterOrEqual(t, stats.TotalFiles, 1)
	assert.Equal(t, 3, stats.WebSocketClients)
	assert.NotEmpty(t, stats.GoVersion)
}

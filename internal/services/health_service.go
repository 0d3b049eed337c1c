package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
)

// ClientCounter is the slice of the websocket hub health checks need.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	repoURL   string
	buildTime string
	buildID   string
	cfg       *config.Config
	paths     *config.Paths
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	TotalFiles       int     `json:"total_files"`
	TotalSizeBytes   int64   `json:"total_size_bytes"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, repoURL string, cfg *config.Config, paths *config.Paths, hub ClientCounter, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, repoURL, "", "", cfg, paths, hub, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, repoURL, buildTime, buildID string, cfg *config.Config, paths *config.Paths, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("repo_url", repoURL),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		repoURL:   repoURL,
		buildTime: buildTime,
		buildID:   buildID,
		cfg:       cfg,
		paths:     paths,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the service can accept audit work. The
// path layout must be reachable; optional inputs (Google Sheets) only
// annotate the response.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["input_dir"] = hs.checkDirectory(hs.paths.InputDir)
	status.Services["reports_dir"] = hs.checkDirectory(hs.paths.ReportsDir)
	status.Services["websocket"] = hs.checkWebSocket()
	status.Services["sheets"] = hs.checkSheets()

	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}
	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"repo_url":     hs.repoURL,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	var totalFiles int
	var totalSize int64

	filepath.Walk(hs.paths.DataDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})

	clients := 0
	if hs.hub != nil {
		clients = hs.hub.ClientCount()
	}

	return SystemStats{
		UptimeSeconds:    time.Since(hs.startTime).Seconds(),
		TotalFiles:       totalFiles,
		TotalSizeBytes:   totalSize,
		WebSocketClients: clients,
		GoVersion:        runtime.Version(),
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
	}, nil
}

func (hs *HealthService) checkDirectory(dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ServiceHealth{Status: "not_ready", Message: "directory does not exist"}
		}
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: "not a directory"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "hub not attached"}
	}
	return ServiceHealth{Status: "ready"}
}

// checkSheets never blocks readiness: the Sheets source is an optional
// input and most deployments audit local files only.
func (hs *HealthService) checkSheets() ServiceHealth {
	if hs.cfg == nil || hs.cfg.Sheets.APIKey == "" {
		return ServiceHealth{Status: "ready", Message: "api key not configured"}
	}
	return ServiceHealth{Status: "ready"}
}

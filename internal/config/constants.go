package config

import "time"

// Application constants - all hardcoded values for the NVFLARE CSV Analyzer
const (
	// Application Info
	AppName   = "NVFLARE CSV Analyzer"
	AppVendor = "TReNDS Center"

	// Input Recognition
	CSVFilePattern      = `.*\.(csv|tsv|txt)$`
	WorkbookFilePattern = `.*\.xlsx?$`

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	SheetsFetchTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultInputDir   = "data/input"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"

	// Analysis Limits
	DefaultMaxInputBytes = 100 * 1024 * 1024 // 100MB
	DefaultBatchWorkers  = 4
	MaxBatchWorkers      = 64

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints (internal)
	APIBasePath       = "/api/v1"
	AnalysesEndpoint  = "/api/v1/analyses"
	FilesEndpoint     = "/api/v1/files"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	customMiddleware "github.com/trendscenter/nvflare-csv-analyzer/internal/middleware"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	handlers "github.com/trendscenter/nvflare-csv-analyzer/internal/transport/http"
	ws "github.com/trendscenter/nvflare-csv-analyzer/internal/websocket"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts"
)

const (
	// AppName identifies the service in startup logs and the health surface.
	AppName = "CSV Analyzer"
	// RepoURL is reported by the version endpoint.
	RepoURL = "https://github.com/trendscenter/nvflare-csv-analyzer"
)

// Application is the composition root for the web server: configuration,
// logging, observability, services, router and HTTP server, wired once at
// startup.
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Logger          *slog.Logger
	Router          *chi.Mux
	Server          *http.Server
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.BusinessMetrics
	WebSocketHub    *ws.Hub
	AnalysisService *services.AnalysisService
	BatchService    *services.BatchService
	DataService     *services.DataService
	HealthService   *services.HealthService

	systemCollector *infrastructure.SystemMetricsCollector
	collectorCancel context.CancelFunc
}

// NewApplication loads configuration and wires every component. It returns
// an error rather than exiting so main controls the process lifecycle.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket metrics: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the service layer in dependency order.
func (a *Application) initializeServices() {
	hub := ws.NewHub(a.Config.WebSocket, a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	a.AnalysisService = services.NewAnalysisService(a.Config, nil, nil, a.Metrics, a.Logger)
	a.BatchService = services.NewBatchService(a.Config, a.AnalysisService, hub, a.Metrics, a.Logger)
	a.DataService = services.NewDataService(a.Paths, a.Logger)
	a.HealthService = services.NewHealthServiceWithBuildInfo(
		contracts.Version,
		RepoURL,
		contracts.BuildTime,
		contracts.GitCommit,
		a.Config,
		a.Paths,
		hub,
		a.Logger,
	)

	if collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, 30*time.Second); err != nil {
		a.Logger.Warn("System metrics collector unavailable", slog.String("error", err.Error()))
	} else {
		a.systemCollector = collector
	}
}

// setupRouter configures the HTTP router. The websocket upgrade and the
// Prometheus scrape endpoint stay outside the main middleware group: the
// first because wrapped ResponseWriters break hijacking, the second so
// scrapes are not rate limited or logged per request.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes mounts the versioned JSON API.
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, false)
	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
	validator.SetMaxBodySize(a.Config.Analysis.MaxInputBytes)

	analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, a.BatchService, validator, a.Logger, errorHandler)
	dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Mount("/analyses", analysisHandler.Routes())

		r.Get("/files", dataHandler.ListFiles)
		r.Get("/reports", dataHandler.ListReports)
		r.Get("/reports/download/{filename}", dataHandler.DownloadReport)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/stats", healthHandler.Stats)
		r.Get("/version", healthHandler.Version)

		metricsHandler, err := handlers.NewMetricsHandler(a.WebSocketHub, a.HealthService, a.Logger)
		if err != nil {
			a.Logger.Error("Failed to create metrics handler", slog.String("error", err.Error()))
		} else {
			r.Mount("/metrics", metricsHandler.Routes())
		}

		r.Post("/logs", clientLogHandler.Handle)
	})
}

// setupHTMLRoutes serves the minimal web surface: the operator page from
// the web directory when one is deployed, and the built-in test page.
func (a *Application) setupHTMLRoutes(r chi.Router) {
	webDir := a.Config.GetWebDir()
	r.Get("/test", handlers.ServeTestPage())
	if config.FileExists(filepath.Join(webDir, "index.html")) {
		r.Get("/", handlers.ServeMainApp(webDir))
	} else {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/test", http.StatusTemporaryRedirect)
		})
	}
}

// corsConfig derives the CORS policy from configuration.
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Security.EnableCORS {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server from the router and config.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the server and background collectors. A listen failure
// cancels the supplied context so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if a.systemCollector != nil {
		collectorCtx, collectorCancel := context.WithCancel(context.Background())
		a.collectorCancel = collectorCancel
		a.systemCollector.Start(collectorCtx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.checkWritableDirectories(); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop shuts the application down gracefully.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.systemCollector != nil {
		a.systemCollector.Stop()
	}
	if a.collectorCancel != nil {
		a.collectorCancel()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the application and blocks until an interrupt or a fatal
// server error, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades /ws connections and hands them to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := customMiddleware.GetReqID(r.Context())
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	allowed := a.corsConfig().AllowedOrigins
	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin header.
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if origin == o {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "WebSocket origin rejected", slog.String("origin", origin))
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := ws.NewClientWithTrace(a.WebSocketHub, conn, reqID, a.Logger)
	a.WebSocketHub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// checkWritableDirectories verifies the directories the services write to.
// Failures are reported as warnings; the API can still audit inline text
// with a read-only data directory.
func (a *Application) checkWritableDirectories() error {
	directories := map[string]string{
		"Input":   a.Paths.InputDir,
		"Reports": a.Paths.ReportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	var warnings []string
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}
	return nil
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	ws "github.com/trendscenter/nvflare-csv-analyzer/internal/websocket"
)

// HubMetricsProvider exposes the websocket hub's counters.
type HubMetricsProvider interface {
	GetHubMetrics() map[string]interface{}
}

// SystemStatsProvider exposes aggregate runtime statistics.
type SystemStatsProvider interface {
	SystemStats(ctx context.Context) (services.SystemStats, error)
}

// MetricsHandler serves JSON snapshots of the analyzer's operational
// metrics. The Prometheus scrape endpoint lives at /metrics outside this
// handler; these routes exist for the web UI and ad-hoc inspection.
type MetricsHandler struct {
	hub    HubMetricsProvider
	stats  SystemStatsProvider
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics collectors
	httpRequestDuration metric.Float64Histogram
	httpRequestsTotal   metric.Int64Counter
	httpActiveRequests  metric.Int64UpDownCounter
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(hub HubMetricsProvider, stats SystemStatsProvider, logger *slog.Logger) (*MetricsHandler, error) {
	if hub == nil {
		panic("hub cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	tracer := otel.Tracer("metrics-handler")
	meter := otel.Meter("metrics-handler")

	httpRequestDuration, err := meter.Float64Histogram(
		"metrics_handler_request_duration_seconds",
		metric.WithDescription("HTTP request duration for metrics endpoints in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestsTotal, err := meter.Int64Counter(
		"metrics_handler_requests_total",
		metric.WithDescription("Total number of HTTP requests to metrics endpoints"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"metrics_handler_active_requests",
		metric.WithDescription("Number of active HTTP requests to metrics endpoints"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		hub:                 hub,
		stats:               stats,
		logger:              logger.With(slog.String("handler", "metrics")),
		tracer:              tracer,
		meter:               meter,
		httpRequestDuration: httpRequestDuration,
		httpRequestsTotal:   httpRequestsTotal,
		httpActiveRequests:  httpActiveRequests,
	}, nil
}

// Routes returns a chi router for metrics endpoints
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.instrumentMiddleware)

	r.Get("/websocket", h.GetWebSocketMetrics)
	r.Get("/runtime", h.GetRuntimeMetrics)

	return r
}

// instrumentMiddleware adds OpenTelemetry instrumentation to requests
func (h *MetricsHandler) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		route := chi.RouteContext(ctx).RoutePattern()

		h.httpActiveRequests.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
			),
		)
		defer h.httpActiveRequests.Add(ctx, -1,
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
			),
		)

		startTime := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(startTime)

		h.httpRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.Int("status", ww.Status()),
			),
		)

		h.httpRequestDuration.Record(ctx, duration.Seconds(),
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.Int("status", ww.Status()),
			),
		)
	})
}

// GetWebSocketMetrics returns hub and traffic counters for live clients
func (h *MetricsHandler) GetWebSocketMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	ctx, span := h.tracer.Start(ctx, "metrics.get_websocket_metrics",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/v1/metrics/websocket"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.DebugContext(ctx, "retrieving websocket metrics",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	render.JSON(w, r, map[string]interface{}{
		"hub":       h.hub.GetHubMetrics(),
		"traffic":   ws.GetMetrics().GetSnapshot(),
		"timestamp": time.Now().UTC(),
	})
}

// GetRuntimeMetrics returns process-level statistics
func (h *MetricsHandler) GetRuntimeMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	ctx, span := h.tracer.Start(ctx, "metrics.get_runtime_metrics",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/v1/metrics/runtime"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.DebugContext(ctx, "retrieving runtime metrics",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	stats, err := h.stats.SystemStats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to collect system stats")

		h.logger.ErrorContext(ctx, "failed to collect system stats",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{
			"error": "Failed to retrieve runtime stats",
		})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	span.SetAttributes(
		attribute.Float64("runtime.uptime_seconds", stats.UptimeSeconds),
		attribute.Int("runtime.goroutines", runtime.NumGoroutine()),
	)

	render.JSON(w, r, map[string]interface{}{
		"system": stats,
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
		"timestamp":  time.Now().UTC(),
	})
}

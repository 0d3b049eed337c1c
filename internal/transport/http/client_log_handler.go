package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// ClientLogHandler receives log entries from the web UI and folds them
// into the server's structured log stream.
type ClientLogHandler struct {
	logger *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		logger: logger.With(slog.String("handler", "client_log")),
	}
}

// LogRequest is one log entry submitted by the browser.
type LogRequest struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty"`
}

// Handle processes POST /api/v1/logs.
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierrors.WriteError(w, apierrors.NewValidationError("Invalid log entry"))
		return
	}

	// Unknown levels degrade to info rather than being rejected; the UI
	// should never lose a diagnostic because of a typo.
	var level slog.Level
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	source := req.Source
	if source == "" {
		source = "web"
	}

	h.logger.LogAttrs(r.Context(), level, req.Message,
		slog.String("client_source", source),
		slog.Time("client_timestamp", time.Now().UTC()),
		slog.Any("data", req.Data),
	)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
	})
}

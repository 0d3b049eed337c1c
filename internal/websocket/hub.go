package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// Every outbound payload is an events.WebSocketMessage envelope; callers
// pass the message type and data and the hub fills in id and timestamp.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound payloads fanned out to every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger instance
	logger *slog.Logger

	// Ping/pong and buffer settings handed to clients
	cfg config.WebSocketConfig

	// Counters exposed through GetHubMetrics
	totalConnections int64
	messagesSent     int64
	messagesReceived int64

	// Control
	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		cfg:         cfg,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// Start starts the hub's goroutines
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	GetMetrics().RecordConnection()
	if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
		otelMetrics.RecordConnection(ctx)
		otelMetrics.RecordClientCount(ctx, int64(count))
	}

	// Greet the new client so the UI can show its connection state
	welcome := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
			TraceID:   client.traceID,
		},
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
	}

	jsonData, err := json.Marshal(welcome)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling welcome message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- jsonData:
		h.logger.DebugContext(ctx, "Sent welcome message to client",
			slog.String("client_id", client.id))
	default:
		h.logger.WarnContext(ctx, "Failed to send welcome message - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	GetMetrics().RecordDisconnection(time.Since(client.connectedAt))
	if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
		otelMetrics.RecordDisconnection(ctx, time.Since(client.connectedAt), "normal")
		otelMetrics.RecordClientCount(ctx, int64(count))
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	// Copy the client set so sends happen without holding the lock
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("Broadcasting message to clients",
		slog.Int("client_count", len(clients)),
		slog.Int("message_size", len(message)))

	successCount := 0
	failCount := 0

	for _, client := range clients {
		select {
		case client.send <- message:
			successCount++
			GetMetrics().RecordMessage("sent", int64(len(message)), true)
		default:
			failCount++
			// Client's send channel is full, drop it
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()

			GetMetrics().RecordDroppedMessage()
			GetMetrics().RecordError("buffer_full")

			ctx := context.Background()
			if client.traceID != "" {
				ctx = infrastructure.WithTraceID(ctx, client.traceID)
			}
			h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
				otelMetrics.RecordDroppedMessage(ctx, "buffer_full")
			}
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(successCount)
	h.mu.Unlock()

	if failCount > 0 {
		h.logger.Warn("Some clients failed to receive broadcast",
			slog.Int("success_count", successCount),
			slog.Int("fail_count", failCount))
	}
}

// Broadcast implements the services.WebSocketHub interface
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace sends a typed message with a trace ID to all connected clients
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      events.MessageType(messageType),
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		ctx := context.Background()
		if traceID != "" {
			ctx = infrastructure.WithTraceID(ctx, traceID)
		}
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	select {
	case h.broadcast <- jsonData:
		if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
			otelMetrics.RecordBroadcast(context.Background(), messageType)
		}
	case <-h.quit:
		// Hub stopped, nobody left to deliver to
	}
}

// BroadcastError sends a structured error message to all connected clients
func (h *Hub) BroadcastError(code, message string) {
	h.Broadcast(string(events.MessageTypeError), events.ErrorEvent{
		Code:    code,
		Message: message,
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) recordReceived(bytes int) {
	h.mu.Lock()
	h.messagesReceived++
	h.mu.Unlock()

	GetMetrics().RecordMessage("received", int64(bytes), true)
}

// reportMetrics periodically reports hub metrics
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			h.logger.Info("Metrics reporting shutting down")
			return

		case <-ticker.C:
			h.mu.RLock()
			activeClients := len(h.clients)
			totalConnections := h.totalConnections
			messagesSent := h.messagesSent
			messagesReceived := h.messagesReceived
			h.mu.RUnlock()

			GetMetrics().RecordQueueDepth(int64(len(h.broadcast)))

			h.logger.Info("WebSocket hub metrics",
				slog.Int("active_clients", activeClients),
				slog.Int64("total_connections", totalConnections),
				slog.Int64("messages_sent", messagesSent),
				slog.Int64("messages_received", messagesReceived),
				slog.Int("broadcast_queue", len(h.broadcast)),
			)
		}
	}
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_received": h.messagesReceived,
	}
}

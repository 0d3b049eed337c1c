package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Default time allowed to read the next pong message from the peer,
	// used when the configuration does not set one
	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	// Ping/pong timing resolved from the hub configuration
	pongWait   time.Duration
	pingPeriod time.Duration

	// Logger
	logger *slog.Logger

	// Metrics
	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient creates a new Client around a gorilla websocket connection
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, NewConnectionWrapper(conn), logger)
}

// NewClientWithConnection creates a new Client with a custom connection (for testing)
func NewClientWithConnection(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)

	pongWait := hub.cfg.PongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	// The ping period must be shorter than the pong wait or the peer
	// times out between pings
	pingPeriod := hub.cfg.PingPeriod
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = pongWait * 9 / 10
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		pongWait:    pongWait,
		pingPeriod:  pingPeriod,
		logger:      logger,
	}
}

// NewClientWithTrace creates a new Client carrying the request's trace ID
func NewClientWithTrace(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) *Client {
	client := NewClient(hub, conn, logger)
	client.traceID = traceID
	client.logger = client.logger.With(slog.String("trace_id", traceID))
	return client
}

func (c *Client) ctx() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.ctx(), "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.ctx(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
				if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
					otelMetrics.RecordMessageError(c.ctx(), "inbound", err)
				}
			}
			break
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))

		c.messagesReceived++
		c.bytesReceived += int64(len(message))
		c.hub.recordReceived(len(message))

		if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
			otelMetrics.RecordMessageReceived(c.ctx(), int64(len(message)))
		}

		// Browser clients send an application-level heartbeat alongside
		// protocol pings; the pong handler already refreshed the deadline
		if string(message) == `{"type":"heartbeat"}` {
			c.logger.Debug("Heartbeat received")
			continue
		}

		// Other inbound messages are ignored; clients only listen
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()

		c.logger.InfoContext(c.ctx(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeMessage(message); err != nil {
				return
			}

			// Drain whatever queued up behind this message, each as its
			// own frame so the peer sees complete JSON documents
			n := len(c.send)
			for i := 0; i < n; i++ {
				select {
				case msg := <-c.send:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.writeMessage(msg); err != nil {
						return
					}
				default:
					// Channel was empty
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Client) writeMessage(message []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.ErrorContext(c.ctx(), "Error writing message to WebSocket",
			slog.String("error", err.Error()))
		if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
			otelMetrics.RecordMessageError(c.ctx(), "outbound", err)
		}
		return err
	}

	c.messagesSent++
	c.bytesSent += int64(len(message))

	if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
		otelMetrics.RecordMessageSent(c.ctx(), int64(len(message)))
	}
	return nil
}

// ServeWS attaches an upgraded websocket connection to the hub and starts
// the client's read and write pumps
func ServeWS(hub *Hub, conn *websocket.Conn) {
	client := NewClient(hub, conn, nil)
	client.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// ServeWSWithTrace is ServeWS for handlers that carry a request trace ID
func ServeWSWithTrace(hub *Hub, conn *websocket.Conn, traceID string) {
	client := NewClientWithTrace(hub, conn, traceID, nil)
	client.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

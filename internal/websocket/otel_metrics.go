package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "csvanalyzer.websocket"
)

// OTelMetrics provides OpenTelemetry metrics for WebSocket operations.
// Attributes stay low-cardinality: message types and directions, never
// client ids or addresses.
type OTelMetrics struct {
	// Connection metrics
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram

	// Message metrics
	messagesTotal   metric.Int64Counter
	messageBytes    metric.Int64Counter
	messageErrors   metric.Int64Counter
	droppedMessages metric.Int64Counter

	// Hub metrics
	broadcastOperations metric.Int64Counter
	clientCount         metric.Int64Gauge
}

// NewOTelMetrics creates a new OpenTelemetry metrics instance
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter(meterName)

	connectionsTotal, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionsActive, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionDuration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	messagesTotal, err := meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	messageBytes, err := meter.Int64Counter(
		"websocket_message_bytes_total",
		metric.WithDescription("Total bytes of WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	messageErrors, err := meter.Int64Counter(
		"websocket_message_errors_total",
		metric.WithDescription("Total number of WebSocket message errors"),
	)
	if err != nil {
		return nil, err
	}

	droppedMessages, err := meter.Int64Counter(
		"websocket_dropped_messages_total",
		metric.WithDescription("Total number of dropped WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	broadcastOperations, err := meter.Int64Counter(
		"websocket_broadcast_operations_total",
		metric.WithDescription("Total number of WebSocket broadcast operations"),
	)
	if err != nil {
		return nil, err
	}

	clientCount, err := meter.Int64Gauge(
		"websocket_client_count",
		metric.WithDescription("Current number of connected WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	return &OTelMetrics{
		connectionsTotal:    connectionsTotal,
		connectionsActive:   connectionsActive,
		connectionDuration:  connectionDuration,
		messagesTotal:       messagesTotal,
		messageBytes:        messageBytes,
		messageErrors:       messageErrors,
		droppedMessages:     droppedMessages,
		broadcastOperations: broadcastOperations,
		clientCount:         clientCount,
	}, nil
}

// RecordConnection records a new WebSocket connection
func (m *OTelMetrics) RecordConnection(ctx context.Context) {
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

// RecordDisconnection records a WebSocket disconnection
func (m *OTelMetrics) RecordDisconnection(ctx context.Context, duration time.Duration, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("disconnect_reason", reason),
	}

	m.connectionsActive.Add(ctx, -1)
	m.connectionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMessageSent records a message written to a client
func (m *OTelMetrics) RecordMessageSent(ctx context.Context, size int64) {
	attrs := []attribute.KeyValue{
		attribute.String("direction", "outbound"),
	}

	m.messagesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.messageBytes.Add(ctx, size, metric.WithAttributes(attrs...))
}

// RecordMessageReceived records a message read from a client
func (m *OTelMetrics) RecordMessageReceived(ctx context.Context, size int64) {
	attrs := []attribute.KeyValue{
		attribute.String("direction", "inbound"),
	}

	m.messagesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.messageBytes.Add(ctx, size, metric.WithAttributes(attrs...))
}

// RecordMessageError records a failed read or write
func (m *OTelMetrics) RecordMessageError(ctx context.Context, direction string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("direction", direction),
		attribute.String("error", err.Error()),
	}

	m.messageErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDroppedMessage records a message dropped before delivery
func (m *OTelMetrics) RecordDroppedMessage(ctx context.Context, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("drop_reason", reason),
	}

	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBroadcast records a broadcast operation by message type
func (m *OTelMetrics) RecordBroadcast(ctx context.Context, messageType string) {
	attrs := []attribute.KeyValue{
		attribute.String("message_type", messageType),
	}

	m.broadcastOperations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordClientCount records the current number of connected clients
func (m *OTelMetrics) RecordClientCount(ctx context.Context, count int64) {
	m.clientCount.Record(ctx, count)
}

// Global OTel metrics instance
var globalOTelMetrics *OTelMetrics

// InitOTelMetrics initializes the global OpenTelemetry metrics. Call it
// once after the meter provider is installed; before that the instruments
// would bind to the no-op global meter.
func InitOTelMetrics() error {
	metrics, err := NewOTelMetrics()
	if err != nil {
		return err
	}
	globalOTelMetrics = metrics
	return nil
}

// GetOTelMetrics returns the global OpenTelemetry metrics instance, or nil
// when InitOTelMetrics has not run
func GetOTelMetrics() *OTelMetrics {
	return globalOTelMetrics
}

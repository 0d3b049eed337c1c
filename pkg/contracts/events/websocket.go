// Package events contains event contract definitions for WebSocket
// communication in the NVFLARE CSV Analyzer.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Batch audit messages - the primary event types
	MessageTypeBatchFile     MessageType = "batch:file"
	MessageTypeBatchComplete MessageType = "batch:complete"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// File statuses carried by batch:file events
const (
	FileStatusStarted   = "started"
	FileStatusCompleted = "completed"
	FileStatusFailed    = "failed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// BatchFileEvent reports the progress of one file within a batch audit.
// Counts are only set once the file's run completed.
type BatchFileEvent struct {
	BatchID   string `json:"batch_id"`
	Path      string `json:"path"`
	Status    string `json:"status"`
	TotalRows int    `json:"total_rows,omitempty"`
	ValidRows int    `json:"valid_rows,omitempty"`
	BadCells  int    `json:"bad_cells,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchCompleteEvent closes out a batch audit.
type BatchCompleteEvent struct {
	BatchID  string `json:"batch_id"`
	Audited  int    `json:"audited"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
}

// ErrorEvent reports a server-side failure to subscribed clients.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

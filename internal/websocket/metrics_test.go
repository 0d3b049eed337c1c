package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Connections(t *testing.T) {
	m := NewMetrics()

	m.RecordConnection()
	m.RecordConnection()
	m.RecordConnection()
	assert.Equal(t, int64(3), m.TotalConnections)
	assert.Equal(t, int64(3), m.ActiveConnections)
	assert.Equal(t, int64(3), m.MaxConcurrent)

	m.RecordDisconnection(100 * time.Millisecond)
	m.RecordDisconnection(300 * time.Millisecond)
	assert.Equal(t, int64(1), m.ActiveConnections)
	assert.Equal(t, int64(3), m.MaxConcurrent)
	assert.Equal(t, 200*time.Millisecond, m.AvgConnectionTime)
}

func TestMetrics_Messages(t *testing.T) {
	m := NewMetrics()

	m.RecordMessage("sent", 100, true)
	m.RecordMessage("received", 50, true)
	m.RecordMessage("sent", 30, false)

	assert.Equal(t, int64(2), m.MessagesSent)
	assert.Equal(t, int64(1), m.MessagesReceived)
	assert.Equal(t, int64(130), m.BytesSent)
	assert.Equal(t, int64(50), m.BytesReceived)
	assert.Equal(t, int64(1), m.MessageErrors)
	assert.Equal(t, int64(60), m.AvgMessageSize)
}

func TestMetrics_ErrorsByType(t *testing.T) {
	m := NewMetrics()

	m.RecordError("buffer_full")
	m.RecordError("buffer_full")
	m.RecordError("write_timeout")

	assert.Equal(t, int64(2), m.ErrorsByType["buffer_full"])
	assert.Equal(t, int64(1), m.ErrorsByType["write_timeout"])
}

func TestMetrics_QueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	assert.Equal(t, int64(10), m.AvgQueueDepth)
	assert.Equal(t, int64(10), m.MaxQueueDepth)

	m.RecordQueueDepth(20)
	assert.Equal(t, int64(20), m.MaxQueueDepth)
	assert.Equal(t, int64(11), m.AvgQueueDepth, "moving average weights history 9:1")
}

func TestMetrics_DroppedMessages(t *testing.T) {
	m := NewMetrics()

	m.RecordDroppedMessage()
	m.RecordDroppedMessage()

	assert.Equal(t, int64(2), m.DroppedMessages)
}

func TestMetrics_GetSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordMessage("sent", 64, true)
	m.RecordError("buffer_full")
	m.RecordDroppedMessage()

	snapshot := m.GetSnapshot()

	connections, ok := snapshot["connections"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), connections["total"])
	assert.Equal(t, int64(1), connections["active"])

	messages, ok := snapshot["messages"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), messages["sent"])
	assert.Equal(t, int64(64), messages["bytes_sent"])
	assert.Equal(t, int64(1), messages["dropped"])

	errorCounts, ok := snapshot["errors"].(map[string]int64)
	require.True(t, ok)
	assert.Equal(t, int64(1), errorCounts["buffer_full"])

	assert.Contains(t, snapshot, "performance")
	assert.Contains(t, snapshot, "uptime_seconds")
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordMessage("sent", 100, true)
	m.RecordError("buffer_full")
	m.RecordQueueDepth(5)

	m.Reset()

	assert.Equal(t, int64(0), m.TotalConnections)
	assert.Equal(t, int64(0), m.ActiveConnections)
	assert.Equal(t, int64(0), m.MessagesSent)
	assert.Equal(t, int64(0), m.BytesSent)
	assert.Equal(t, int64(0), m.MaxQueueDepth)
	assert.Empty(t, m.ErrorsByType)
}

func TestGetMetrics_SharedInstance(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}

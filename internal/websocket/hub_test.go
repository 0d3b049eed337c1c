package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      30 * time.Second,
		PongWait:        60 * time.Second,
	}, quietLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	return hub
}

func newTestClient(t *testing.T, hub *Hub) (*Client, *MockConnection) {
	t.Helper()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, quietLogger())
	return client, conn
}

// receiveEnvelope pops the next payload queued for the client and decodes it.
func receiveEnvelope(t *testing.T, client *Client) events.WebSocketMessage {
	t.Helper()

	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed unexpectedly")
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return events.WebSocketMessage{}
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, nil)

	require.NotNil(t, hub)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)

	hub.Register(client)

	welcome := receiveEnvelope(t, client)
	assert.Equal(t, events.MessageTypeConnect, welcome.Type)
	assert.NotEmpty(t, welcome.ID)
	assert.False(t, welcome.Timestamp.IsZero())

	data, ok := welcome.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	hub := newTestHub(t)

	first, _ := newTestClient(t, hub)
	second, _ := newTestClient(t, hub)
	hub.Register(first)
	hub.Register(second)
	receiveEnvelope(t, first)
	receiveEnvelope(t, second)

	hub.Broadcast(string(events.MessageTypeBatchFile), events.BatchFileEvent{
		BatchID: "batch-1",
		Path:    "input/trades.csv",
		Status:  events.FileStatusStarted,
	})

	for _, client := range []*Client{first, second} {
		msg := receiveEnvelope(t, client)
		assert.Equal(t, events.MessageTypeBatchFile, msg.Type)
		assert.NotEmpty(t, msg.ID)

		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "batch-1", data["batch_id"])
		assert.Equal(t, "input/trades.csv", data["path"])
		assert.Equal(t, events.FileStatusStarted, data["status"])
	}

	assert.Eventually(t, func() bool {
		sent, ok := hub.GetHubMetrics()["messages_sent"].(int64)
		return ok && sent >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithTrace(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)

	hub.BroadcastWithTrace(string(events.MessageTypeBatchComplete), events.BatchCompleteEvent{
		BatchID:  "batch-2",
		Audited:  4,
		Failed:   0,
		Duration: "1.2s",
	}, "trace-abc-123")

	msg := receiveEnvelope(t, client)
	assert.Equal(t, events.MessageTypeBatchComplete, msg.Type)
	assert.Equal(t, "trace-abc-123", msg.TraceID)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), data["audited"])
	assert.Equal(t, "1.2s", data["duration"])
}

func TestHub_BroadcastError(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)

	hub.BroadcastError("STORAGE_ERROR", "reports directory is not writable")

	msg := receiveEnvelope(t, client)
	assert.Equal(t, events.MessageTypeError, msg.Type)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "STORAGE_ERROR", data["code"])
	assert.Equal(t, "reports directory is not writable", data["message"])
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)
	require.Equal(t, 1, hub.ClientCount())

	// Nobody drains the send channel, so fill it to simulate a stalled reader
	filled := false
	for !filled {
		select {
		case client.send <- []byte("{}"):
		default:
			filled = true
		}
	}

	hub.Broadcast(string(events.MessageTypeBatchFile), events.BatchFileEvent{
		BatchID: "batch-3",
		Path:    "input/a.csv",
		Status:  events.FileStatusCompleted,
	})

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "slow client should be dropped")
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)
	require.Equal(t, 1, hub.ClientCount())

	hub.unregister <- client

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The hub closed the send channel on unregister
	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHub_Stop(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, quietLogger())
	hub.Start()

	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	// Stopping twice must not panic
	hub.Stop()

	// Broadcast after stop returns without blocking
	done := make(chan struct{})
	go func() {
		hub.Broadcast(string(events.MessageTypeBatchFile), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}

func TestHub_GetHubMetrics(t *testing.T) {
	hub := newTestHub(t)
	client, _ := newTestClient(t, hub)
	hub.Register(client)
	receiveEnvelope(t, client)

	metrics := hub.GetHubMetrics()
	assert.Equal(t, int64(1), metrics["total_connections"])
	assert.Equal(t, 1, metrics["active_clients"])
	assert.Contains(t, metrics, "messages_sent")
	assert.Contains(t, metrics, "messages_received")
}

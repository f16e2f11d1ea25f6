package broadcast

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mailmind/ai-gateway/internal/core"
)

type wsEnvelope struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlationId"`
}

func dialWS(t *testing.T) (*Broadcaster, *websocket.Conn) {
	t.Helper()

	b := NewBroadcaster(16, zap.NewNop())
	handler := NewWSHandler(b, zap.NewNop())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	return b, conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope wsEnvelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func TestWSDeliversEventEnvelope(t *testing.T) {
	b, conn := dialWS(t)

	b.Publish(testEvent("c1"))

	envelope := readEnvelope(t, conn)
	assert.Equal(t, core.EventResultReady, envelope.Type)
	assert.Equal(t, "c1", envelope.CorrelationID)
}

func TestWSUnsubscribeResubscribeControlFrames(t *testing.T) {
	b, conn := dialWS(t)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "unsubscribe"}))
	require.Eventually(t, func() bool { return b.SubscriberCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Published while paused; must never reach the client
	b.Publish(testEvent("missed"))

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "subscribe"}))
	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	b.Publish(testEvent("resumed"))

	envelope := readEnvelope(t, conn)
	assert.Equal(t, "resumed", envelope.CorrelationID)
}

func TestWSIgnoresMalformedControlFrames(t *testing.T) {
	b, conn := dialWS(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	b.Publish(testEvent("c1"))
	envelope := readEnvelope(t, conn)
	assert.Equal(t, "c1", envelope.CorrelationID)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestWSClientDisconnectRemovesSubscriber(t *testing.T) {
	b, conn := dialWS(t)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return b.SubscriberCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Publishing after teardown must not panic
	b.Publish(testEvent("c1"))
}

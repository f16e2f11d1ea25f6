package broadcast

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// controlMessage is the in-band frame clients send on the push channel
type controlMessage struct {
	Action string `json:"action"`
}

// WSHandler upgrades HTTP connections to the live-push channel. Each
// connection gets its own subscriber; clients may pause and resume
// delivery with {"action":"unsubscribe"} / {"action":"subscribe"}
// control frames.
type WSHandler struct {
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewWSHandler creates a new websocket handler on top of the broadcaster
func NewWSHandler(broadcaster *Broadcaster, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	session := &wsSession{
		handler: h,
		conn:    conn,
		resub:   make(chan *Subscriber, 1),
		closed:  make(chan struct{}),
	}

	sub := h.broadcaster.Subscribe()
	go session.writeLoop(sub)
	session.readLoop(sub)
}

type wsSession struct {
	handler *WSHandler
	conn    *websocket.Conn
	resub   chan *Subscriber
	closed  chan struct{}
}

// readLoop consumes control frames until the client disconnects
func (s *wsSession) readLoop(sub *Subscriber) {
	current := sub
	defer func() {
		close(s.closed)
		s.handler.broadcaster.Unsubscribe(current)
		s.conn.Close()
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.handler.logger.Debug("Ignoring malformed control frame", zap.Error(err))
			continue
		}

		switch msg.Action {
		case "unsubscribe":
			s.handler.broadcaster.Unsubscribe(current)
		case "subscribe":
			s.handler.broadcaster.Unsubscribe(current)
			current = s.handler.broadcaster.Subscribe()
			s.resub <- current
		}
	}
}

// writeLoop pumps events to the client until the connection is gone
func (s *wsSession) writeLoop(sub *Subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-sub.Events():
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(event); err != nil {
				s.handler.logger.Debug("Websocket write failed",
					zap.String("subscriber_id", sub.ID()),
					zap.Error(err))
				s.conn.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		case next := <-s.resub:
			sub = next
		case <-sub.Done():
			// Paused: wait for resume or teardown
			select {
			case next := <-s.resub:
				sub = next
			case <-s.closed:
				return
			}
		case <-s.closed:
			return
		}
	}
}

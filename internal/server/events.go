package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/session"
	"github.com/gorilla/websocket"
)

const (
	eventBuffer  = 16
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one event pushed to WebSocket clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventHub broadcasts session events to WebSocket clients. It implements
// session.Listener. Slow clients drop messages rather than block the session.
type EventHub struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewEventHub creates an empty EventHub.
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		log:     logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// CountChanged implements session.Listener.
func (h *EventHub) CountChanged(e session.CountChangedEvent) {
	h.Broadcast(Message{Type: "count_changed", Payload: e})
}

// SessionEnded implements session.Listener.
func (h *EventHub) SessionEnded(e session.EndedEvent) {
	h.Broadcast(Message{Type: "session_ended", Payload: e})
}

// SessionStarted announces a newly started session.
func (h *EventHub) SessionStarted(st session.Status) {
	h.Broadcast(Message{Type: "session_started", Payload: st})
}

// Broadcast queues msg for every connected client without blocking.
func (h *EventHub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode event", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.log.Debug("dropping event for slow client", "type", msg.Type, "remote", conn.RemoteAddr().String())
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. Later connections are refused.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for conn, ch := range h.clients {
		close(ch)
		delete(h.clients, conn)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, eventBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = ch
	h.mu.Unlock()

	defer h.remove(conn)

	// Reader detects disconnects; client messages are ignored.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case data, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
}

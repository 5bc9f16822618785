package monitor

import (
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const reconnectDelay = 2 * time.Second

// Event is one message from /api/events.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// eventPayload holds the fields the monitor shows from any session event.
type eventPayload struct {
	Task     string `json:"task_name"`
	Count    int    `json:"count"`
	MaxCount int    `json:"max_count"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
}

// --- Bubble Tea messages ---

type eventMsg struct {
	Event Event
	conn  *websocket.Conn
}

type eventsConnectedMsg struct{ conn *websocket.Conn }

type eventsDisconnectedMsg struct{ Err error }

// EventFeed streams server events into the Bubble Tea program.
type EventFeed struct {
	url string
}

// NewEventFeed creates a feed for the given websocket URL.
func NewEventFeed(url string) *EventFeed {
	return &EventFeed{url: url}
}

// Connect dials the event endpoint.
func (f *EventFeed) Connect() tea.Cmd {
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
		if err != nil {
			return eventsDisconnectedMsg{Err: err}
		}
		return eventsConnectedMsg{conn: conn}
	}
}

// Reconnect dials again after a delay.
func (f *EventFeed) Reconnect() tea.Cmd {
	return tea.Tick(reconnectDelay, func(time.Time) tea.Msg {
		return f.Connect()()
	})
}

// Next reads one event from conn.
func (f *EventFeed) Next(conn *websocket.Conn) tea.Cmd {
	return func() tea.Msg {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			conn.Close()
			return eventsDisconnectedMsg{Err: err}
		}
		return eventMsg{Event: ev, conn: conn}
	}
}

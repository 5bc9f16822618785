// Package hook runs user executables in response to counting session events.
package hook

import "encoding/json"

// Event names a hook can subscribe to.
const (
	EventCountChanged = "count_changed"
	EventSessionEnded = "session_ended"
)

// Manifest describes a hook's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Handles reports whether the hook subscribes to event. An empty list subscribes to all.
func (m Manifest) Handles(event string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is written to a hook's stdin.
type Request struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response is read from a hook's stdout. Hooks may print nothing.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

package session

import "time"

// EndReason describes why a session stopped counting.
type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndStopped   EndReason = "stopped"
	EndFailed    EndReason = "failed"
)

// CountChangedEvent is emitted once per counted repetition.
type CountChangedEvent struct {
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	Game      string    `json:"game"`
	Task      string    `json:"task_name"`
	Count     int       `json:"count"`
	MaxCount  int       `json:"max_count"`
	At        time.Time `json:"at"`
}

// EndedEvent is emitted once when a session leaves the counting state.
type EndedEvent struct {
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	Game      string    `json:"game"`
	Task      string    `json:"task_name"`
	Count     int       `json:"count"`
	MaxCount  int       `json:"max_count"`
	Reason    EndReason `json:"reason"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Listener receives session events on the worker goroutine.
// Implementations must return quickly and hand slow work off to their own goroutines.
type Listener interface {
	CountChanged(e CountChangedEvent)
	SessionEnded(e EndedEvent)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnCountChanged func(CountChangedEvent)
	OnSessionEnded func(EndedEvent)
}

func (f ListenerFuncs) CountChanged(e CountChangedEvent) {
	if f.OnCountChanged != nil {
		f.OnCountChanged(e)
	}
}

func (f ListenerFuncs) SessionEnded(e EndedEvent) {
	if f.OnSessionEnded != nil {
		f.OnSessionEnded(e)
	}
}

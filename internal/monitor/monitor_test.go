package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSource struct {
	snap    Snapshot
	err     error
	stopped int
}

func (f *fakeSource) Counts(ctx context.Context) (Snapshot, error) { return f.snap, f.err }

func (f *fakeSource) Stop(ctx context.Context) error {
	f.stopped++
	return nil
}

func TestClient_Counts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_counts" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"task_name":"Squats","count":4,"max_count":10,"state":"counting","counts":{"a:g:Squats":4}}`))
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL + "/").Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if !snap.Success || snap.Task != "Squats" || snap.Count != 4 || snap.MaxCount != 10 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestClient_CountsNoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"No active session"}`))
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL).Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if snap.Success || snap.Message != "No active session" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestClient_Stop(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Method + " " + r.URL.Path
		w.Write([]byte(`{"success":true,"message":"Counting stopped"}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got != "POST /stop_counting" {
		t.Errorf("request = %q", got)
	}
}

func TestClient_EventsURL(t *testing.T) {
	tests := map[string]string{
		"http://127.0.0.1:5000":   "ws://127.0.0.1:5000/api/events",
		"https://example.com/":    "wss://example.com/api/events",
		"http://localhost:8080/x": "ws://localhost:8080/api/events",
	}
	for base, want := range tests {
		if got := NewClient(base).EventsURL(); got != want {
			t.Errorf("EventsURL(%q) = %q, want %q", base, got, want)
		}
	}
}

func TestModel_SnapshotRendersSession(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)

	updated, cmd := m.Update(snapshotMsg{Snap: Snapshot{
		Success:  true,
		Task:     "Squats",
		Count:    3,
		MaxCount: 10,
		State:    "counting",
		Angle:    91.5,
		Correct:  true,
		Counts:   map[string]int{"a@b.c:fit:Squats": 3, "a@b.c:fit:Planks": 10},
	}, loop: true})
	if cmd == nil {
		t.Error("a looping snapshot should schedule the next poll")
	}

	view := updated.View()
	for _, want := range []string{"Squats", "3 / 10", "91.5", "correct", "Planks 10"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_OneShotSnapshotDoesNotReschedule(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)
	if _, cmd := m.Update(snapshotMsg{Snap: Snapshot{}}); cmd != nil {
		t.Error("a one-shot snapshot must not start another poll loop")
	}
}

func TestModel_NoSession(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)
	updated, _ := m.Update(snapshotMsg{Snap: Snapshot{Success: false, Message: "No active session"}})

	if !strings.Contains(updated.View(), "No active session") {
		t.Errorf("view should say there is no session:\n%s", updated.View())
	}
}

func TestModel_PollError(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)
	updated, _ := m.Update(snapshotMsg{Err: errors.New("connection refused"), loop: true})

	if !strings.Contains(updated.View(), "connection refused") {
		t.Errorf("view should show the error:\n%s", updated.View())
	}
}

func TestModel_StopKey(t *testing.T) {
	src := &fakeSource{}
	m := New(src, nil, 0)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if cmd == nil {
		t.Fatal("expected a stop command")
	}
	if _, ok := cmd().(stopDoneMsg); !ok {
		t.Error("stop command should produce stopDoneMsg")
	}
	if src.stopped != 1 {
		t.Errorf("Stop called %d times, want 1", src.stopped)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_EventsAreLogged(t *testing.T) {
	m := New(&fakeSource{}, nil, 0)

	payload, _ := json.Marshal(map[string]interface{}{
		"task_name": "Squats", "count": 10, "max_count": 10, "reason": "completed",
	})
	updated, _ := m.Update(eventMsg{Event: Event{Type: "session_ended", Payload: payload}})

	if !strings.Contains(updated.View(), "Squats ended: completed at 10/10") {
		t.Errorf("event not logged:\n%s", updated.View())
	}
}

func TestDescribeEvent(t *testing.T) {
	payload := json.RawMessage(`{"task_name":"Planks","count":2,"max_count":10}`)
	if got := describeEvent(Event{Type: "count_changed", Payload: payload}); !strings.Contains(got, "+1 Planks (2/10)") {
		t.Errorf("describeEvent = %q", got)
	}
	if got := describeEvent(Event{Type: "mystery"}); got != "mystery" {
		t.Errorf("unknown events should show their type, got %q", got)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/formcheck/internal/session"
	"github.com/go-chi/chi/v5"
)

type fakeController struct {
	startErr  error
	countsErr error
	status    session.Status
	started   []string
	stopped   bool
}

func (f *fakeController) Start(ctx context.Context, email, game, task string) (session.Status, error) {
	f.started = append(f.started, email+":"+game+":"+task)
	if f.startErr != nil {
		return session.Status{}, f.startErr
	}
	return f.status, nil
}

func (f *fakeController) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

func (f *fakeController) Counts() (session.Status, error) {
	return f.status, f.countsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCountingRouter(ctrl SessionController) (*chi.Mux, *CountingHandler) {
	r := chi.NewRouter()
	h := NewCountingHandler(ctrl, discardLogger())
	h.RegisterRoutes(r)
	return r, h
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) controlResponse {
	t.Helper()
	var resp controlResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestCountingHandler_Start(t *testing.T) {
	ctrl := &fakeController{status: session.Status{Task: "Squats"}}
	r, h := newCountingRouter(ctrl)

	var notified session.Status
	h.OnStarted(func(st session.Status) { notified = st })

	body := `{"email":"a@b.c","game":"fit","task_name":"Squats"}`
	req := httptest.NewRequest(http.MethodPost, "/start_counting", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decodeResult(t, rec)
	if !resp.Success || resp.Message != "Counting started" {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(ctrl.started) != 1 || ctrl.started[0] != "a@b.c:fit:Squats" {
		t.Errorf("controller started with %v", ctrl.started)
	}
	if notified.Task != "Squats" {
		t.Errorf("OnStarted not called with status, got %+v", notified)
	}
}

func TestCountingHandler_StartErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest, "Invalid JSON"},
		{"missing parameters", `{}`, session.ErrMissingParameters, http.StatusBadRequest, "Missing required parameters"},
		{"already completed", `{}`, fmt.Errorf("wrap: %w", session.ErrAlreadyCompleted), http.StatusBadRequest, "Task already completed"},
		{"unknown exercise", `{}`, session.ErrUnknownExercise, http.StatusNotFound, "Unknown exercise"},
		{"session active", `{}`, session.ErrSessionActive, http.StatusConflict, "A counting session is already active"},
		{"camera", `{}`, session.ErrCameraUnavailable, http.StatusServiceUnavailable, "Camera unavailable"},
		{"other", `{}`, fmt.Errorf("boom"), http.StatusInternalServerError, "Failed to start counting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newCountingRouter(&fakeController{startErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/start_counting", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeResult(t, rec)
			if resp.Success || resp.Message != tt.wantMsg {
				t.Errorf("response = %+v, want message %q", resp, tt.wantMsg)
			}
		})
	}
}

func TestCountingHandler_StopAlwaysSucceeds(t *testing.T) {
	r, _ := newCountingRouter(&fakeController{})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/stop_counting", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: expected status 200, got %d", i, rec.Code)
		}
		if resp := decodeResult(t, rec); !resp.Success {
			t.Errorf("call %d: expected success", i)
		}
	}
}

func TestCountingHandler_Counts(t *testing.T) {
	ctrl := &fakeController{status: session.Status{
		Email:    "a@b.c",
		Game:     "fit",
		Task:     "Squats",
		Count:    4,
		MaxCount: 10,
		State:    "counting",
		Counts:   map[string]int{"Squats": 4, "Planks": 2},
		Angle:    92.5,
		Correct:  true,
	}}
	r, _ := newCountingRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/get_counts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp countsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Count != 4 || resp.MaxCount != 10 || !resp.Correct {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Counts["a@b.c:fit:Squats"] != 4 || resp.Counts["a@b.c:fit:Planks"] != 2 {
		t.Errorf("counts not keyed by email:game:task, got %v", resp.Counts)
	}
}

func TestCountingHandler_CountsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no session", session.ErrNoActiveSession, http.StatusBadRequest},
		{"failed", session.ErrSessionFailed, http.StatusInternalServerError},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newCountingRouter(&fakeController{countsErr: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/get_counts", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp := decodeResult(t, rec); resp.Success {
				t.Error("expected success=false")
			}
		})
	}
}

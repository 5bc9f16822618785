package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayusman/formcheck/internal/session"
	"github.com/go-chi/chi/v5"
)

// SessionController is the control surface of the counting session.
// *session.Controller satisfies it.
type SessionController interface {
	Start(ctx context.Context, email, game, task string) (session.Status, error)
	Stop() bool
	Counts() (session.Status, error)
}

// CountingHandler serves the start/stop/get_counts control routes.
type CountingHandler struct {
	ctrl      SessionController
	log       *slog.Logger
	onStarted func(session.Status)
}

// NewCountingHandler creates a new CountingHandler.
func NewCountingHandler(ctrl SessionController, logger *slog.Logger) *CountingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CountingHandler{ctrl: ctrl, log: logger}
}

// OnStarted registers fn to be called after a session starts.
func (h *CountingHandler) OnStarted(fn func(session.Status)) {
	h.onStarted = fn
}

// RegisterRoutes registers the control routes.
func (h *CountingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/start_counting", h.start)
	r.Post("/stop_counting", h.stop)
	r.Get("/get_counts", h.counts)
}

type startRequest struct {
	Email    string `json:"email"`
	Game     string `json:"game"`
	TaskName string `json:"task_name"`
}

type countsResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Counts   map[string]int `json:"counts"`
	Task     string         `json:"task_name"`
	Count    int            `json:"count"`
	MaxCount int            `json:"max_count"`
	State    string         `json:"state"`
	Angle    float64        `json:"angle"`
	Correct  bool           `json:"correct"`
}

// start handles POST /start_counting.
func (h *CountingHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid JSON")
		return
	}

	st, err := h.ctrl.Start(r.Context(), req.Email, req.Game, req.TaskName)
	if err != nil {
		status, message := startError(err)
		h.log.Info("start rejected", "email", req.Email, "task", req.TaskName, "status", status, "error", err)
		writeResult(w, status, false, message)
		return
	}

	if h.onStarted != nil {
		h.onStarted(st)
	}
	writeResult(w, http.StatusOK, true, "Counting started")
}

func startError(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrMissingParameters):
		return http.StatusBadRequest, "Missing required parameters"
	case errors.Is(err, session.ErrAlreadyCompleted):
		return http.StatusBadRequest, "Task already completed"
	case errors.Is(err, session.ErrUnknownExercise):
		return http.StatusNotFound, "Unknown exercise"
	case errors.Is(err, session.ErrSessionActive):
		return http.StatusConflict, "A counting session is already active"
	case errors.Is(err, session.ErrCameraUnavailable):
		return http.StatusServiceUnavailable, "Camera unavailable"
	default:
		return http.StatusInternalServerError, "Failed to start counting"
	}
}

// stop handles POST /stop_counting. It always succeeds.
func (h *CountingHandler) stop(w http.ResponseWriter, r *http.Request) {
	if h.ctrl.Stop() {
		h.log.Info("counting stopped")
	}
	writeResult(w, http.StatusOK, true, "Counting stopped")
}

// counts handles GET /get_counts.
func (h *CountingHandler) counts(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.Counts()
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		writeResult(w, http.StatusBadRequest, false, "No active session")
		return
	case errors.Is(err, session.ErrSessionFailed):
		resp := toCountsResponse(st)
		resp.Success = false
		resp.Message = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	case err != nil:
		writeResult(w, http.StatusInternalServerError, false, "Failed to fetch counts")
		return
	}

	writeJSON(w, http.StatusOK, toCountsResponse(st))
}

func toCountsResponse(st session.Status) countsResponse {
	return countsResponse{
		Success:  true,
		Counts:   st.KeyedCounts(),
		Task:     st.Task,
		Count:    st.Count,
		MaxCount: st.MaxCount,
		State:    st.State,
		Angle:    st.Angle,
		Correct:  st.Correct,
	}
}

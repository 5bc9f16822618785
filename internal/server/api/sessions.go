package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/formcheck/internal/store"
	"github.com/go-chi/chi/v5"
)

// SessionLister lists recorded sessions. *store.SessionRepository satisfies it.
type SessionLister interface {
	List(ctx context.Context, email string, limit int) ([]*store.SessionRecord, error)
}

// SessionHistoryHandler serves recorded session history.
type SessionHistoryHandler struct {
	history SessionLister
}

// NewSessionHistoryHandler creates a new SessionHistoryHandler.
func NewSessionHistoryHandler(h SessionLister) *SessionHistoryHandler {
	return &SessionHistoryHandler{history: h}
}

// RegisterRoutes registers the history routes.
func (h *SessionHistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/sessions", h.list)
}

type sessionResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Game       string `json:"game"`
	TaskName   string `json:"task_name"`
	StartCount int    `json:"start_count"`
	FinalCount int    `json:"final_count"`
	MaxCount   int    `json:"max_count"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toSessionResponse(rec *store.SessionRecord) sessionResponse {
	resp := sessionResponse{
		ID:         rec.ID,
		Email:      rec.Email,
		Game:       rec.Game,
		TaskName:   rec.TaskName,
		StartCount: rec.StartCount,
		FinalCount: rec.FinalCount,
		MaxCount:   rec.MaxCount,
		Status:     string(rec.Status),
		Reason:     rec.Reason,
		StartedAt:  rec.StartedAt.Format(time.RFC3339),
	}
	if rec.EndedAt != nil {
		resp.EndedAt = rec.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// list handles GET /api/sessions?email=&limit=.
func (h *SessionHistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), r.URL.Query().Get("email"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(records)),
	}
	for _, rec := range records {
		response.Sessions = append(response.Sessions, toSessionResponse(rec))
	}
	writeJSON(w, http.StatusOK, response)
}

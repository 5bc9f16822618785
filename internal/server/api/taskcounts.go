package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ayusman/formcheck/internal/countstore"
	"github.com/go-chi/chi/v5"
)

// TaskCountHandler exposes a count store as the count service HTTP API.
type TaskCountHandler struct {
	store countstore.Store
	log   *slog.Logger
}

// NewTaskCountHandler creates a new TaskCountHandler.
func NewTaskCountHandler(s countstore.Store, logger *slog.Logger) *TaskCountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskCountHandler{store: s, log: logger}
}

// RegisterRoutes registers the count service routes.
func (h *TaskCountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/get_task_counts", h.fetch)
	r.Post("/update_task_count", h.update)
}

// fetch handles POST /get_task_counts.
func (h *TaskCountHandler) fetch(w http.ResponseWriter, r *http.Request) {
	var req countstore.FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Game) == "" {
		writeResult(w, http.StatusBadRequest, false, "Email and game are required")
		return
	}

	counts, err := h.store.FetchCounts(r.Context(), req.Email, req.Game)
	if err != nil {
		h.log.Error("failed to fetch task counts", "email", req.Email, "game", req.Game, "error", err)
		writeResult(w, http.StatusInternalServerError, false, "Failed to fetch task counts")
		return
	}

	rows := make([]countstore.TaskCount, 0, len(counts))
	for task, n := range counts {
		rows = append(rows, countstore.TaskCount{TaskName: task, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TaskName < rows[j].TaskName })

	writeJSON(w, http.StatusOK, countstore.FetchResponse{Success: true, Counts: rows})
}

// update handles POST /update_task_count.
func (h *TaskCountHandler) update(w http.ResponseWriter, r *http.Request) {
	var req countstore.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Game) == "" ||
		strings.TrimSpace(req.TaskName) == "" || req.Count == nil {
		writeResult(w, http.StatusBadRequest, false, "Email, game, task_name, and count are required")
		return
	}
	if *req.Count < 0 {
		writeResult(w, http.StatusBadRequest, false, "Count must be non-negative")
		return
	}

	if err := h.store.UpdateCount(r.Context(), req.Email, req.Game, req.TaskName, *req.Count); err != nil {
		h.log.Error("failed to update task count", "email", req.Email, "task", req.TaskName, "error", err)
		writeResult(w, http.StatusInternalServerError, false, "Failed to update task count")
		return
	}

	h.log.Debug("task count updated", "email", req.Email, "game", req.Game, "task", req.TaskName, "count", *req.Count)
	writeResult(w, http.StatusOK, true, "Task count updated successfully")
}

package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/go-chi/chi/v5"
)

// ExerciseHandler serves the exercise catalog.
type ExerciseHandler struct {
	catalog *exercise.Catalog
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(c *exercise.Catalog) *ExerciseHandler {
	return &ExerciseHandler{catalog: c}
}

// RegisterRoutes registers the catalog routes.
func (h *ExerciseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/exercises", h.list)
	r.Get("/api/exercises/{name}", h.get)
}

type exerciseResponse struct {
	Name      string    `json:"name"`
	Joints    [3]string `json:"joints"`
	MinAngle  float64   `json:"min_angle"`
	MaxAngle  float64   `json:"max_angle"`
	Threshold float64   `json:"threshold"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

func toExerciseResponse(c exercise.Config) exerciseResponse {
	return exerciseResponse{
		Name:      c.Name,
		Joints:    [3]string{string(c.Joints[0]), string(c.Joints[1]), string(c.Joints[2])},
		MinAngle:  c.Range.Min,
		MaxAngle:  c.Range.Max,
		Threshold: c.Threshold,
	}
}

// list handles GET /api/exercises.
func (h *ExerciseHandler) list(w http.ResponseWriter, r *http.Request) {
	configs := h.catalog.List()
	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(configs)),
	}
	for _, c := range configs {
		response.Exercises = append(response.Exercises, toExerciseResponse(c))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/exercises/{name}.
func (h *ExerciseHandler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.catalog.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, exercise.ErrUnknownExercise) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}
	writeJSON(w, http.StatusOK, toExerciseResponse(cfg))
}

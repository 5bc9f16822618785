package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/go-chi/chi/v5"
)

func newExerciseRouter() *chi.Mux {
	r := chi.NewRouter()
	NewExerciseHandler(exercise.Default()).RegisterRoutes(r)
	return r
}

func TestExerciseHandler_List(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/exercises", nil)
	rec := httptest.NewRecorder()
	newExerciseRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp listExercisesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Exercises) != exercise.Default().Len() {
		t.Errorf("expected %d exercises, got %d", exercise.Default().Len(), len(resp.Exercises))
	}
}

func TestExerciseHandler_Get(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/exercises/Wall%20Sits", nil)
	rec := httptest.NewRecorder()
	newExerciseRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp exerciseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Name != "Wall Sits" || resp.MinAngle != 85 || resp.MaxAngle != 95 {
		t.Errorf("unexpected exercise %+v", resp)
	}
	if resp.Joints[1] != "KNEE" {
		t.Errorf("vertex = %s, want KNEE", resp.Joints[1])
	}
}

func TestExerciseHandler_GetUnknown(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/exercises/Jumping%20Jacks", nil)
	rec := httptest.NewRecorder()
	newExerciseRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

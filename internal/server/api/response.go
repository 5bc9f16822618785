// Package api provides HTTP API handlers for formcheck.
package api

import (
	"encoding/json"
	"net/http"
)

// controlResponse is the envelope of every control and count service route.
type controlResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeResult writes a {success, message} envelope.
func writeResult(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, controlResponse{Success: success, Message: message})
}

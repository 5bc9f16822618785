// Package countstore is the client side of the persistent per-task repetition counts.
package countstore

import (
	"context"
	"errors"
)

// ErrRejected is returned when the count service answers with success=false.
var ErrRejected = errors.New("count service rejected request")

// Store fetches and persists repetition counts keyed by (email, game, task).
//
// Implementations must honor ctx cancellation so callers can bound every call.
type Store interface {
	FetchCounts(ctx context.Context, email, game string) (map[string]int, error)
	UpdateCount(ctx context.Context, email, game, task string, count int) error
}

// TaskCount is one row of the count service's fetch response.
type TaskCount struct {
	TaskName string `json:"task_name"`
	Count    int    `json:"count"`
}

// FetchRequest is the body of POST /get_task_counts.
type FetchRequest struct {
	Email string `json:"email"`
	Game  string `json:"game"`
}

// FetchResponse is the reply to POST /get_task_counts.
type FetchResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Counts  []TaskCount `json:"counts"`
}

// UpdateRequest is the body of POST /update_task_count.
type UpdateRequest struct {
	Email    string `json:"email"`
	Game     string `json:"game"`
	TaskName string `json:"task_name"`
	Count    *int   `json:"count"`
}

// UpdateResponse is the reply to POST /update_task_count.
type UpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ToMap converts fetched rows into a task name to count map.
func ToMap(rows []TaskCount) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.TaskName] = r.Count
	}
	return counts
}

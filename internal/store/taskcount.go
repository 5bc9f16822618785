package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TaskCount is the persisted repetition count for one task.
type TaskCount struct {
	Email     string    `json:"email"`
	Game      string    `json:"game"`
	TaskName  string    `json:"task_name"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskCountRepository stores repetition counts keyed by (email, game, task_name).
type TaskCountRepository struct {
	db *sql.DB
}

// TaskCounts returns the task count repository for this store.
func (s *Store) TaskCounts() *TaskCountRepository {
	return &TaskCountRepository{db: s.db}
}

// FetchCounts returns every task count recorded for the user and activity,
// keyed by task name. An empty map means no progress has been recorded.
func (r *TaskCountRepository) FetchCounts(ctx context.Context, email, game string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT task_name, count FROM task_counts WHERE email = ? AND game = ?`,
		email, game,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var task string
		var count int
		if err := rows.Scan(&task, &count); err != nil {
			return nil, err
		}
		counts[task] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// UpdateCount inserts or replaces the count for a task.
func (r *TaskCountRepository) UpdateCount(ctx context.Context, email, game, task string, count int) error {
	if count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", count)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_counts (email, game, task_name, count, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email, game, task_name) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at`,
		email, game, task, count, time.Now().UTC(),
	)
	return err
}

// Get retrieves a single task count.
func (r *TaskCountRepository) Get(ctx context.Context, email, game, task string) (*TaskCount, error) {
	tc := &TaskCount{}

	err := r.db.QueryRowContext(ctx,
		`SELECT email, game, task_name, count, updated_at
		 FROM task_counts WHERE email = ? AND game = ? AND task_name = ?`,
		email, game, task,
	).Scan(&tc.Email, &tc.Game, &tc.TaskName, &tc.Count, &tc.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return tc, nil
}

// Delete removes a task count.
func (r *TaskCountRepository) Delete(ctx context.Context, email, game, task string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM task_counts WHERE email = ? AND game = ? AND task_name = ?`,
		email, game, task,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionStatus is the outcome of a counting session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionStopped   SessionStatus = "stopped"
	SessionFailed    SessionStatus = "failed"
)

// SessionRecord is the history entry for one counting session.
type SessionRecord struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	Game       string        `json:"game"`
	TaskName   string        `json:"task_name"`
	StartCount int           `json:"start_count"`
	FinalCount int           `json:"final_count"`
	MaxCount   int           `json:"max_count"`
	Status     SessionStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    *time.Time    `json:"ended_at,omitempty"`
}

// SessionRepository stores session history.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session record. StartedAt defaults to now.
func (r *SessionRepository) Create(ctx context.Context, rec *SessionRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = SessionActive
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, email, game, task_name, start_count, final_count, max_count, status, reason, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Email, rec.Game, rec.TaskName, rec.StartCount, rec.FinalCount, rec.MaxCount,
		string(rec.Status), rec.Reason, rec.StartedAt,
	)
	return err
}

// Finish records the outcome of a session. EndedAt defaults to now.
func (r *SessionRepository) Finish(ctx context.Context, rec *SessionRecord) error {
	if rec.EndedAt == nil {
		now := time.Now().UTC()
		rec.EndedAt = &now
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET final_count = ?, status = ?, reason = ?, ended_at = ? WHERE id = ?`,
		rec.FinalCount, string(rec.Status), rec.Reason, *rec.EndedAt, rec.ID,
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

// GetByID retrieves a session record by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*SessionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, game, task_name, start_count, final_count, max_count, status, reason, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns the most recent sessions, newest first. An empty email lists every user.
func (r *SessionRepository) List(ctx context.Context, email string, limit int) ([]*SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, game, task_name, start_count, final_count, max_count, status, reason, started_at, ended_at
		 FROM sessions WHERE (? = '' OR email = ?) ORDER BY started_at DESC LIMIT ?`,
		email, email, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*SessionRecord, error) {
	rec := &SessionRecord{}
	var status string
	var endedAt sql.NullTime

	err := row.Scan(&rec.ID, &rec.Email, &rec.Game, &rec.TaskName, &rec.StartCount, &rec.FinalCount,
		&rec.MaxCount, &status, &rec.Reason, &rec.StartedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = SessionStatus(status)
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	return rec, nil
}

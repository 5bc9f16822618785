package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessions_CreateFinishGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	rec := &SessionRecord{
		ID:         uuid.New().String(),
		Email:      "a@example.com",
		Game:       "Fitness",
		TaskName:   "Wall Sits",
		StartCount: 2,
		FinalCount: 2,
		MaxCount:   10,
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.Status != SessionActive {
		t.Errorf("default status = %q, want active", rec.Status)
	}
	if rec.StartedAt.IsZero() {
		t.Error("StartedAt should default to now")
	}

	rec.FinalCount = 10
	rec.Status = SessionCompleted
	if err := repo.Finish(ctx, rec); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != SessionCompleted || got.FinalCount != 10 || got.StartCount != 2 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should be set after Finish")
	}
}

func TestSessions_FinishUnknown(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Finish(context.Background(), &SessionRecord{ID: "missing", Status: SessionStopped})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Sessions().GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSessions_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@example.com", "a@example.com", "b@example.com"} {
		rec := &SessionRecord{
			ID:        uuid.New().String(),
			Email:     email,
			Game:      "Fitness",
			TaskName:  "Squats",
			MaxCount:  10,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	mine, err := repo.List(ctx, "a@example.com", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("List(a) returned %d records, want 2", len(mine))
	}
	if !mine[0].StartedAt.After(mine[1].StartedAt) {
		t.Error("List() should order newest first")
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(all) returned %d records, want 3", len(all))
	}

	limited, err := repo.List(ctx, "", 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("List(limit 1) returned %d records", len(limited))
	}
}

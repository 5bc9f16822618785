package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/store"
)

// session is the state of one counting run. Identity fields are immutable
// after Start; the rest is written by the worker and read under mu.
type session struct {
	id         string
	email      string
	game       string
	task       string
	exercise   exercise.Config
	counter    *counter.Counter
	startCount int
	startedAt  time.Time
	listeners  []Listener

	cancel context.CancelFunc
	done   chan struct{}

	// worker only
	detectorErrors int

	mu      sync.RWMutex
	counts  map[string]int
	verdict exercise.Verdict
	ended   bool
	reason  EndReason
	failure error
}

func (s *session) status() Status {
	snap := s.counter.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	state := snap.State.String()
	if s.ended && s.reason != EndCompleted {
		state = string(s.reason)
	}

	return Status{
		SessionID: s.id,
		Email:     s.email,
		Game:      s.game,
		Task:      s.task,
		Count:     snap.Count,
		MaxCount:  snap.MaxCount,
		State:     state,
		Counts:    maps.Clone(s.counts),
		Angle:     s.verdict.Angle,
		Correct:   s.verdict.Correct,
		StartedAt: s.startedAt,
	}
}

func (s *session) setCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[s.task] = n
}

func (s *session) setVerdict(v exercise.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdict = v
}

func (s *session) end(reason EndReason, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.reason = reason
	s.failure = cause
}

func (s *session) isEnded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ended
}

func (s *session) failureCause() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reason != EndFailed {
		return nil
	}
	return s.failure
}

// run is the worker goroutine. It owns the camera until it returns.
func (c *Controller) run(ctx context.Context, s *session) {
	defer close(s.done)

	reason, cause := c.loop(ctx, s)

	if err := c.cfg.Camera.Close(); err != nil {
		c.log.Warn("failed to close camera", "session_id", s.id, "error", err)
	}

	c.finish(ctx, s, reason, cause)
}

func (c *Controller) loop(ctx context.Context, s *session) (EndReason, error) {
	ticker := time.NewTicker(c.cfg.FrameDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return EndStopped, nil
		case <-ticker.C:
		}

		// Both channels may be ready; stop wins.
		if ctx.Err() != nil {
			return EndStopped, nil
		}

		if err := c.step(ctx, s); err != nil {
			return EndFailed, err
		}

		if s.counter.State() == counter.Completed {
			return EndCompleted, nil
		}
	}
}

// step processes exactly one frame.
func (c *Controller) step(ctx context.Context, s *session) error {
	frame, err := c.cfg.Camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	var v exercise.Verdict
	lm, err := c.cfg.Detector.Detect(frame)
	if err != nil {
		s.detectorErrors++
		c.log.Debug("pose detection failed", "session_id", s.id, "consecutive", s.detectorErrors, "error", err)
		if s.detectorErrors >= c.cfg.MaxDetectorErrors {
			return fmt.Errorf("pose detector failed %d times in a row: %w", s.detectorErrors, err)
		}
	} else {
		s.detectorErrors = 0
		v = exercise.Classify(lm, s.exercise)
	}

	count, incremented := s.counter.Observe(v.Correct, c.now())
	s.setVerdict(v)

	if c.cfg.Preview != nil {
		if err := c.cfg.Preview.Update(frame, s.exercise, lm, v, count, c.cfg.MaxCount); err != nil {
			c.log.Debug("failed to update preview", "error", err)
		}
	}

	if incremented {
		c.increment(ctx, s, count)
	}
	return nil
}

// increment persists a new count and notifies listeners. A failed update is
// logged and not retried; the in-memory count stays authoritative.
func (c *Controller) increment(ctx context.Context, s *session, count int) {
	s.setCount(count)

	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.StoreTimeout)
	defer cancel()

	if err := c.cfg.Counts.UpdateCount(uctx, s.email, s.game, s.task, count); err != nil {
		c.log.Warn("failed to persist count",
			"session_id", s.id, "task", s.task, "count", count, "error", err)
	} else {
		c.log.Info("count updated", "session_id", s.id, "task", s.task, "count", count)
	}

	e := CountChangedEvent{
		SessionID: s.id,
		Email:     s.email,
		Game:      s.game,
		Task:      s.task,
		Count:     count,
		MaxCount:  c.cfg.MaxCount,
		At:        c.now(),
	}
	for _, l := range s.listeners {
		l.CountChanged(e)
	}
}

func (c *Controller) finish(ctx context.Context, s *session, reason EndReason, cause error) {
	if reason != EndCompleted {
		s.counter.Reset()
	}
	snap := s.counter.Snapshot()
	s.end(reason, cause)

	attrs := []any{"session_id", s.id, "task", s.task, "count", snap.Count, "reason", reason}
	if cause != nil {
		c.log.Error("counting session failed", append(attrs, "error", cause)...)
	} else {
		c.log.Info("counting session ended", attrs...)
	}

	e := EndedEvent{
		SessionID: s.id,
		Email:     s.email,
		Game:      s.game,
		Task:      s.task,
		Count:     snap.Count,
		MaxCount:  snap.MaxCount,
		Reason:    reason,
		At:        c.now(),
	}
	if cause != nil {
		e.Error = cause.Error()
	}

	if c.cfg.Recorder != nil {
		ended := e.At
		rec := &store.SessionRecord{
			ID:         s.id,
			FinalCount: snap.Count,
			Status:     recordStatus(reason),
			Reason:     e.Error,
			EndedAt:    &ended,
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.StoreTimeout)
		if err := c.cfg.Recorder.Finish(rctx, rec); err != nil {
			c.log.Warn("failed to record session end", "session_id", s.id, "error", err)
		}
		cancel()
	}

	for _, l := range s.listeners {
		l.SessionEnded(e)
	}
}

func recordStatus(r EndReason) store.SessionStatus {
	switch r {
	case EndCompleted:
		return store.SessionCompleted
	case EndFailed:
		return store.SessionFailed
	default:
		return store.SessionStopped
	}
}

// Package session runs exercise counting sessions.
//
// A Controller owns at most one active session. Start validates the request,
// seeds the repetition counter from the count store and acquires the camera,
// then a single worker goroutine reads frames, classifies them and counts
// repetitions until the task completes, Stop is called or capture fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/countstore"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/google/uuid"
)

// Control surface errors.
var (
	ErrMissingParameters = errors.New("missing required parameters")
	ErrUnknownExercise   = exercise.ErrUnknownExercise
	ErrAlreadyCompleted  = counter.ErrAlreadyCompleted
	ErrSessionActive     = errors.New("a counting session is already active")
	ErrNoActiveSession   = errors.New("no active session")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrSessionFailed     = errors.New("session failed")
)

// Loop defaults.
const (
	DefaultFrameDelay        = 100 * time.Millisecond
	DefaultStoreTimeout      = 5 * time.Second
	DefaultMaxDetectorErrors = 30
)

// Recorder persists session history. *store.SessionRepository satisfies it.
type Recorder interface {
	Create(ctx context.Context, rec *store.SessionRecord) error
	Finish(ctx context.Context, rec *store.SessionRecord) error
}

// Config holds the collaborators and tuning of a Controller.
// Camera, Detector, Counts and Catalog are required.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Counts   countstore.Store
	Catalog  *exercise.Catalog
	Recorder Recorder
	Preview  *Preview
	Logger   *slog.Logger
	Now      func() time.Time

	MaxCount          int
	Cooldown          time.Duration
	FrameDelay        time.Duration
	StoreTimeout      time.Duration
	MaxDetectorErrors int
}

// Status is a snapshot of the current session for the control surface.
type Status struct {
	SessionID string         `json:"session_id"`
	Email     string         `json:"email"`
	Game      string         `json:"game"`
	Task      string         `json:"task_name"`
	Count     int            `json:"count"`
	MaxCount  int            `json:"max_count"`
	State     string         `json:"state"`
	Counts    map[string]int `json:"counts"`
	Angle     float64        `json:"angle"`
	Correct   bool           `json:"correct"`
	StartedAt time.Time      `json:"started_at"`
}

// KeyedCounts returns Counts keyed as "email:game:task".
func (s Status) KeyedCounts() map[string]int {
	out := make(map[string]int, len(s.Counts))
	for task, n := range s.Counts {
		out[s.Email+":"+s.Game+":"+task] = n
	}
	return out
}

// Controller owns the active counting session. It is safe for concurrent use.
type Controller struct {
	cfg Config
	log *slog.Logger
	now func() time.Time

	mu        sync.Mutex
	current   *session
	starting  bool
	listeners []Listener
}

// New creates a Controller. Zero or negative tuning fields take the defaults.
func New(cfg Config) *Controller {
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = counter.DefaultMaxCount
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = counter.DefaultCooldown
	}
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = DefaultFrameDelay
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.MaxDetectorErrors <= 0 {
		cfg.MaxDetectorErrors = DefaultMaxDetectorErrors
	}
	if cfg.Catalog == nil {
		cfg.Catalog = exercise.Default()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		cfg: cfg,
		log: logger.With("component", "session"),
		now: now,
	}
}

// AddListener registers l for events of sessions started after this call.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Catalog returns the exercise catalog used to resolve tasks.
func (c *Controller) Catalog() *exercise.Catalog {
	return c.cfg.Catalog
}

// MaxCount returns the repetition cap applied to every session.
func (c *Controller) MaxCount() int {
	return c.cfg.MaxCount
}

// Start begins counting task for (email, game).
//
// Validation errors leave the controller unchanged. A failed count fetch is
// treated as no prior progress. The camera is acquired before Start returns,
// so ErrCameraUnavailable is reported to the caller.
func (c *Controller) Start(ctx context.Context, email, game, task string) (Status, error) {
	email = strings.TrimSpace(email)
	game = strings.TrimSpace(game)
	task = strings.TrimSpace(task)
	if email == "" || game == "" || task == "" {
		return Status{}, ErrMissingParameters
	}

	ex, err := c.cfg.Catalog.Lookup(task)
	if err != nil {
		return Status{}, err
	}

	c.mu.Lock()
	if c.starting || (c.current != nil && c.current.counter.State() == counter.Counting) {
		c.mu.Unlock()
		return Status{}, ErrSessionActive
	}
	prev := c.current
	c.starting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	// A completed or failed session may still be releasing the camera.
	if prev != nil {
		<-prev.done
	}

	counts := c.fetchCounts(ctx, email, game)

	ctr := counter.New(c.cfg.MaxCount, c.cfg.Cooldown)
	if err := ctr.Begin(counts[task]); err != nil {
		c.log.Info("task already completed", "email", email, "game", game, "task", task, "count", counts[task])
		return Status{}, err
	}

	if err := c.cfg.Camera.Open(); err != nil {
		c.log.Error("failed to open camera", "error", err)
		return Status{}, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:         uuid.New().String(),
		email:      email,
		game:       game,
		task:       task,
		exercise:   ex,
		counter:    ctr,
		startCount: counts[task],
		startedAt:  c.now(),
		counts:     counts,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	c.record(ctx, s)

	c.mu.Lock()
	s.listeners = append([]Listener(nil), c.listeners...)
	c.current = s
	c.mu.Unlock()

	if c.cfg.Preview != nil {
		c.cfg.Preview.Clear()
	}

	go c.run(runCtx, s)

	c.log.Info("counting started",
		"session_id", s.id, "email", email, "game", game, "task", task,
		"count", s.startCount, "max_count", c.cfg.MaxCount)

	return s.status(), nil
}

// Stop ends the current session and waits for the worker to release the camera.
// It is idempotent and reports whether a counting session was actually stopped.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	s := c.current
	c.current = nil
	c.mu.Unlock()

	if s == nil {
		return false
	}

	wasCounting := !s.isEnded()
	s.cancel()
	<-s.done
	s.counter.Reset()

	if c.cfg.Preview != nil {
		c.cfg.Preview.Clear()
	}
	return wasCounting
}

// Counts returns the counts of the current session's (email, game).
//
// A session that failed is reported exactly once as ErrSessionFailed together
// with its final status; after that, or when nothing was started, Counts
// returns ErrNoActiveSession.
func (c *Controller) Counts() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil {
		return Status{}, ErrNoActiveSession
	}

	st := s.status()
	if cause := s.failureCause(); cause != nil {
		c.current = nil
		return st, fmt.Errorf("%w: %v", ErrSessionFailed, cause)
	}
	return st, nil
}

// Close stops any session and releases the detector.
func (c *Controller) Close() error {
	c.Stop()
	if c.cfg.Detector != nil {
		return c.cfg.Detector.Close()
	}
	return nil
}

func (c *Controller) fetchCounts(ctx context.Context, email, game string) map[string]int {
	fctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()

	counts, err := c.cfg.Counts.FetchCounts(fctx, email, game)
	if err != nil {
		c.log.Warn("failed to fetch task counts, starting from zero",
			"email", email, "game", game, "error", err)
		return make(map[string]int)
	}
	if counts == nil {
		counts = make(map[string]int)
	}
	return counts
}

func (c *Controller) record(ctx context.Context, s *session) {
	if c.cfg.Recorder == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.StoreTimeout)
	defer cancel()

	rec := &store.SessionRecord{
		ID:         s.id,
		Email:      s.email,
		Game:       s.game,
		TaskName:   s.task,
		StartCount: s.startCount,
		FinalCount: s.startCount,
		MaxCount:   c.cfg.MaxCount,
		Status:     store.SessionActive,
		StartedAt:  s.startedAt,
	}
	if err := c.cfg.Recorder.Create(rctx, rec); err != nil {
		c.log.Warn("failed to record session start", "session_id", s.id, "error", err)
	}
}

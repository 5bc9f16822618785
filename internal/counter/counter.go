// Package counter implements the repetition counting state machine.
//
// A Counter turns a stream of per-frame "correct form" booleans into discrete
// repetitions. Only a rising edge (not correct -> correct) can count, and only
// once the cooldown since the last counted repetition has elapsed. The count
// never exceeds the configured maximum.
package counter

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between two counted repetitions.
const DefaultCooldown = time.Second

// DefaultMaxCount is the number of repetitions that completes a task.
const DefaultMaxCount = 10

// ErrAlreadyCompleted is returned by Begin when the seed count already meets the cap.
var ErrAlreadyCompleted = errors.New("task already completed")

// State is the lifecycle state of a Counter.
type State int

const (
	// Idle means no session is being counted.
	Idle State = iota
	// Counting means a session is active and below its cap.
	Counting
	// Completed means the cap was reached. Terminal until Reset.
	Completed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a consistent read of the counter's state.
type Snapshot struct {
	State         State
	Count         int
	MaxCount      int
	LastIncrement time.Time // zero until the first counted repetition
	LastCorrect   bool
}

// Counter is safe for concurrent use. Observe is expected to be called from a
// single goroutine in frame order; Snapshot may be called from any goroutine.
type Counter struct {
	mu            sync.RWMutex
	state         State
	count         int
	maxCount      int
	cooldown      time.Duration
	lastIncrement time.Time
	lastCorrect   bool
}

// New creates an idle Counter. Non-positive arguments fall back to the defaults.
func New(maxCount int, cooldown time.Duration) *Counter {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	return &Counter{
		state:    Idle,
		maxCount: maxCount,
		cooldown: cooldown,
	}
}

// Begin moves an Idle or Completed counter to Counting, seeded with count.
// If seed already meets the cap the counter stays where it was and
// ErrAlreadyCompleted is returned.
func (c *Counter) Begin(seed int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Counting {
		return errors.New("counter is already counting")
	}
	if seed < 0 {
		seed = 0
	}
	if seed >= c.maxCount {
		return fmt.Errorf("%w: %d of %d", ErrAlreadyCompleted, seed, c.maxCount)
	}

	c.state = Counting
	c.count = seed
	c.lastIncrement = time.Time{}
	c.lastCorrect = false
	return nil
}

// Observe feeds one frame's classification taken at now.
// It returns the count after the frame and whether this frame incremented it.
func (c *Counter) Observe(correct bool, now time.Time) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rising := correct && !c.lastCorrect
	c.lastCorrect = correct

	if c.state != Counting {
		return c.count, false
	}
	if c.count >= c.maxCount {
		c.state = Completed
		return c.count, false
	}
	if !rising {
		return c.count, false
	}
	if !c.lastIncrement.IsZero() && now.Sub(c.lastIncrement) < c.cooldown {
		return c.count, false
	}

	c.count++
	c.lastIncrement = now
	if c.count >= c.maxCount {
		c.state = Completed
	}
	return c.count, true
}

// Reset returns the counter to Idle. Calling Reset on an idle counter is a no-op.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Idle
	c.lastCorrect = false
	c.lastIncrement = time.Time{}
}

// State returns the current state.
func (c *Counter) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns a consistent copy of the counter's state.
func (c *Counter) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		State:         c.state,
		Count:         c.count,
		MaxCount:      c.maxCount,
		LastIncrement: c.lastIncrement,
		LastCorrect:   c.lastCorrect,
	}
}

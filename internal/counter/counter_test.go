package counter

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func begin(t *testing.T, c *Counter, seed int) {
	t.Helper()
	if err := c.Begin(seed); err != nil {
		t.Fatalf("Begin(%d) error = %v", seed, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, -1)
	snap := c.Snapshot()

	if snap.State != Idle {
		t.Errorf("new counter state = %s, want idle", snap.State)
	}
	if snap.MaxCount != DefaultMaxCount {
		t.Errorf("MaxCount = %d, want %d", snap.MaxCount, DefaultMaxCount)
	}
	if c.cooldown != DefaultCooldown {
		t.Errorf("cooldown = %v, want %v", c.cooldown, DefaultCooldown)
	}
}

func TestBegin(t *testing.T) {
	tests := []struct {
		name      string
		seed      int
		wantErr   error
		wantState State
		wantCount int
	}{
		{name: "fresh task", seed: 0, wantState: Counting, wantCount: 0},
		{name: "partial progress", seed: 7, wantState: Counting, wantCount: 7},
		{name: "negative seed clamps to zero", seed: -3, wantState: Counting, wantCount: 0},
		{name: "seed at cap", seed: 10, wantErr: ErrAlreadyCompleted, wantState: Idle},
		{name: "seed above cap", seed: 12, wantErr: ErrAlreadyCompleted, wantState: Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, time.Second)
			err := c.Begin(tt.seed)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Begin(%d) error = %v, want %v", tt.seed, err, tt.wantErr)
			}
			snap := c.Snapshot()
			if snap.State != tt.wantState {
				t.Errorf("state = %s, want %s", snap.State, tt.wantState)
			}
			if tt.wantErr == nil && snap.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", snap.Count, tt.wantCount)
			}
		})
	}
}

func TestBegin_WhileCounting(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	if err := c.Begin(0); err == nil {
		t.Error("Begin while counting should fail")
	}
}

func TestObserve_FirstCorrectFrameCounts(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	count, inc := c.Observe(true, at(0))
	if !inc || count != 1 {
		t.Errorf("Observe(true) = (%d, %v), want (1, true)", count, inc)
	}
}

func TestObserve_SustainedCorrectCountsOnce(t *testing.T) {
	for _, n := range []int{1, 2, 10, 500} {
		c := New(10, time.Second)
		begin(t, c, 0)

		increments := 0
		for i := 0; i < n; i++ {
			if _, inc := c.Observe(true, at(float64(i))); inc {
				increments++
			}
		}

		if increments != 1 {
			t.Errorf("%d sustained correct frames produced %d increments, want 1", n, increments)
		}
	}
}

func TestObserve_EdgesWithinCooldown(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	frames := []struct {
		t       float64
		correct bool
	}{
		{0.0, true}, // edge, counts
		{0.2, false},
		{0.4, true}, // edge within cooldown
		{0.6, false},
		{0.8, true}, // edge within cooldown
	}

	increments := 0
	for _, f := range frames {
		if _, inc := c.Observe(f.correct, at(f.t)); inc {
			increments++
		}
	}

	if increments != 1 {
		t.Errorf("edges within cooldown produced %d increments, want 1", increments)
	}
}

func TestObserve_CooldownFromLastIncrementNotLastEdge(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	c.Observe(true, at(0)) // counts
	c.Observe(false, at(0.5))
	c.Observe(true, at(0.9)) // edge, suppressed
	c.Observe(false, at(0.95))

	// 1.0s after the last increment, even though only 0.1s after the last edge.
	count, inc := c.Observe(true, at(1.0))
	if !inc || count != 2 {
		t.Errorf("Observe at cooldown boundary = (%d, %v), want (2, true)", count, inc)
	}
}

func TestObserve_SuppressedEdgeIsConsumed(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	c.Observe(true, at(0))
	c.Observe(false, at(0.1))
	c.Observe(true, at(0.2)) // suppressed by cooldown

	// Holding the pose past the cooldown must not count: there is no new edge.
	for ts := 0.3; ts < 3; ts += 0.1 {
		if _, inc := c.Observe(true, at(ts)); inc {
			t.Fatalf("held pose counted at t=%.1f without a new rising edge", ts)
		}
	}
}

func TestObserve_NeverExceedsMax(t *testing.T) {
	c := New(3, 0)
	begin(t, c, 0)

	for i := 0; i < 20; i++ {
		c.Observe(true, at(float64(i)))
		c.Observe(false, at(float64(i)+0.5))
	}

	snap := c.Snapshot()
	if snap.Count != 3 {
		t.Errorf("count = %d, want 3", snap.Count)
	}
	if snap.State != Completed {
		t.Errorf("state = %s, want completed", snap.State)
	}
}

func TestObserve_CompletesOnIncrementToMax(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 9)

	count, inc := c.Observe(true, at(0))
	if !inc || count != 10 {
		t.Fatalf("Observe = (%d, %v), want (10, true)", count, inc)
	}
	if c.State() != Completed {
		t.Errorf("state = %s, want completed", c.State())
	}

	c.Observe(false, at(2))
	if _, inc := c.Observe(true, at(4)); inc {
		t.Error("completed counter must not increment")
	}
}

func TestObserve_IdleIgnoresFrames(t *testing.T) {
	c := New(10, time.Second)

	if _, inc := c.Observe(true, at(0)); inc {
		t.Error("idle counter must not increment")
	}
}

func TestReset(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 2)
	c.Observe(true, at(0))

	c.Reset()
	c.Reset()

	snap := c.Snapshot()
	if snap.State != Idle {
		t.Errorf("state = %s, want idle", snap.State)
	}
	if snap.Count != 3 {
		t.Errorf("Reset should keep the last count for reporting, got %d", snap.Count)
	}
	if !snap.LastIncrement.IsZero() {
		t.Error("Reset should clear the last increment time")
	}

	begin(t, c, 0)
	if _, inc := c.Observe(true, at(0.1)); !inc {
		t.Error("first edge after a fresh Begin should count")
	}
}

// 10 fps for 3 s at 90 degrees, one 60 degree frame at t=1.5 s.
func TestObserve_WallSitsScenario(t *testing.T) {
	c := New(10, time.Second)
	begin(t, c, 0)

	increments := 0
	for i := 0; i < 30; i++ {
		ts := float64(i) / 10
		correct := i != 15
		if _, inc := c.Observe(correct, at(ts)); inc {
			increments++
		}
	}

	if increments != 2 {
		t.Errorf("increments = %d, want 2", increments)
	}
}

func TestSnapshot_ConcurrentReads(t *testing.T) {
	c := New(1000, 0)
	begin(t, c, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Observe(i%2 == 0, at(float64(i)))
		}
	}()

	last := 0
	for i := 0; i < 1000; i++ {
		snap := c.Snapshot()
		if snap.Count < last {
			t.Fatalf("count went backwards: %d after %d", snap.Count, last)
		}
		last = snap.Count
	}
	wg.Wait()

	if got := c.Snapshot().Count; got != 500 {
		t.Errorf("final count = %d, want 500", got)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Idle:      "idle",
		Counting:  "counting",
		Completed: "completed",
		State(9):  "state(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

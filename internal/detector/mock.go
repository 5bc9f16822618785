package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It replays a scripted sequence of results, one per Detect call, and
// repeats the last entry once the sequence is exhausted.
type MockDetector struct {
	mu       sync.Mutex
	sequence []Landmarks
	errs     []error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks makes every Detect call return lm.
func (m *MockDetector) SetLandmarks(lm Landmarks) {
	m.SetSequence([]Landmarks{lm})
}

// SetSequence sets the per-call landmarks returned by Detect.
func (m *MockDetector) SetSequence(seq []Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.errs = nil
	m.calls = 0
}

// SetError makes every Detect call fail with err.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = []error{err}
}

// Detect returns the next scripted landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++

	if len(m.errs) > 0 {
		if err := m.errs[min(i, len(m.errs)-1)]; err != nil {
			return nil, err
		}
	}
	if len(m.sequence) == 0 {
		return nil, nil
	}
	return m.sequence[min(i, len(m.sequence)-1)], nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PoseWithAngle returns landmarks whose a-b-c joints form the given angle at b,
// with every located joint reporting the given visibility.
// b sits at (0.5, 0.5) and a lies straight above it.
func PoseWithAngle(a, b, c Joint, degrees, visibility float64) Landmarks {
	const arm = 0.2
	rad := degrees * math.Pi / 180

	lm := Landmarks{
		b: {X: 0.5, Y: 0.5, Visibility: visibility},
		a: {X: 0.5, Y: 0.5 - arm, Visibility: visibility},
		c: {X: 0.5 + arm*math.Sin(rad), Y: 0.5 - arm*math.Cos(rad), Visibility: visibility},
	}
	return lm
}

// SquatLandmarks returns a preset pose with the hip-knee-ankle angle at 90 degrees.
func SquatLandmarks() Landmarks {
	return PoseWithAngle(Hip, Knee, Ankle, 90, 0.95)
}

// StandingLandmarks returns a preset pose with straight legs.
func StandingLandmarks() Landmarks {
	return PoseWithAngle(Hip, Knee, Ankle, 178, 0.95)
}

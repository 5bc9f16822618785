// Package exercise provides the exercise catalog and the pose form classifier.
package exercise

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ayusman/formcheck/internal/detector"
)

// DefaultThreshold is the minimum average joint visibility used by the built-in exercises.
const DefaultThreshold = 0.8

// ErrUnknownExercise is returned when an exercise name is not in the catalog.
var ErrUnknownExercise = errors.New("unknown exercise")

// AngleRange is the inclusive range of joint angles, in degrees, accepted as correct form.
type AngleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether angle lies within the range, bounds included.
func (r AngleRange) Contains(angle float64) bool {
	return r.Min <= angle && angle <= r.Max
}

// Config is the correct-form template for one exercise. Configs are immutable
// once registered in a Catalog.
type Config struct {
	Name      string            `json:"name"`
	Joints    [3]detector.Joint `json:"joints"` // vertex is Joints[1]
	Range     AngleRange        `json:"angle_range"`
	Threshold float64           `json:"threshold"`
}

// Validate checks the angle range and confidence threshold invariants.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("exercise name is required")
	}
	for _, j := range c.Joints {
		if _, ok := j.Index(); !ok {
			return fmt.Errorf("exercise %q: unknown joint %q", c.Name, j)
		}
	}
	if c.Range.Min < 0 || c.Range.Max > 180 || c.Range.Min > c.Range.Max {
		return fmt.Errorf("exercise %q: angle range [%g, %g] must satisfy 0 <= min <= max <= 180",
			c.Name, c.Range.Min, c.Range.Max)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("exercise %q: threshold %g must be within [0, 1]", c.Name, c.Threshold)
	}
	return nil
}

// Catalog is a registry of exercise configurations keyed by name.
type Catalog struct {
	mu        sync.RWMutex
	exercises map[string]Config
}

// NewCatalog creates a catalog holding the given configs.
// A later config replaces an earlier one with the same name.
func NewCatalog(configs ...Config) (*Catalog, error) {
	c := &Catalog{exercises: make(map[string]Config, len(configs))}
	for _, cfg := range configs {
		if err := c.Register(cfg); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns a catalog with the built-in exercises.
func Default() *Catalog {
	c, err := NewCatalog(builtins()...)
	if err != nil {
		panic(fmt.Sprintf("exercise: invalid built-in catalog: %v", err))
	}
	return c
}

// Register validates and adds a config, replacing any existing entry with the same name.
func (c *Catalog) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercises[cfg.Name] = cfg
	return nil
}

// Lookup returns the config registered under name.
func (c *Catalog) Lookup(name string) (Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg, ok := c.exercises[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
	}
	return cfg, nil
}

// List returns all configs sorted by name.
func (c *Catalog) List() []Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Config, 0, len(c.exercises))
	for _, cfg := range c.exercises {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of registered exercises.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.exercises)
}

func builtin(name string, a, b, cj detector.Joint, lo, hi float64) Config {
	return Config{
		Name:      name,
		Joints:    [3]detector.Joint{a, b, cj},
		Range:     AngleRange{Min: lo, Max: hi},
		Threshold: DefaultThreshold,
	}
}

func builtins() []Config {
	const (
		shoulder = detector.Shoulder
		elbow    = detector.Elbow
		wrist    = detector.Wrist
		hip      = detector.Hip
		knee     = detector.Knee
		ankle    = detector.Ankle
		toe      = detector.Toe
		neck     = detector.Neck
	)

	return []Config{
		builtin("Bodyweight Squats", hip, knee, ankle, 80, 160),
		builtin("Lunges", hip, knee, ankle, 70, 150),
		builtin("Calf Raises", knee, ankle, toe, 160, 180),
		builtin("Wall Sits", hip, knee, ankle, 85, 95),
		builtin("Step-Ups", hip, knee, ankle, 70, 150),
		builtin("Glute Bridges", shoulder, hip, knee, 140, 180),
		builtin("Push-Ups", shoulder, elbow, wrist, 70, 160),
		builtin("Incline Push-Ups", shoulder, elbow, wrist, 70, 160),
		builtin("Dumbbell Bench Press", shoulder, elbow, wrist, 70, 160),
		builtin("Dumbbell Flyes", shoulder, elbow, wrist, 90, 170),
		builtin("Chest Dips (Assisted)", shoulder, elbow, wrist, 70, 150),
		builtin("Wall Push-Ups", shoulder, elbow, wrist, 70, 160),
		builtin("Dumbbell Shoulder Press", shoulder, elbow, wrist, 70, 170),
		builtin("Lateral Raises", shoulder, elbow, wrist, 80, 100),
		builtin("Front Raises", shoulder, elbow, wrist, 80, 100),
		builtin("Pike Push-Ups", shoulder, elbow, wrist, 70, 150),
		builtin("Rear Delt Flyes", shoulder, elbow, wrist, 80, 100),
		// Shrugs only track shoulder and neck; the ankle closes the triplet.
		builtin("Shoulder Shrugs", shoulder, neck, ankle, 0, 20),
		builtin("Deadlifts (Light)", hip, knee, ankle, 70, 170),
		builtin("Pull-Ups (Assisted)", shoulder, elbow, wrist, 70, 150),
		builtin("Dumbbell Rows", shoulder, elbow, wrist, 70, 150),
		builtin("Plank", shoulder, hip, knee, 160, 180),
		builtin("Mountain Climbers", hip, knee, ankle, 70, 150),
		builtin("Burpees", hip, knee, ankle, 70, 170),
	}
}

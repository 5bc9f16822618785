package config

import (
	"fmt"

	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
)

// ExerciseConfig declares a custom exercise or overrides a built-in one by name.
type ExerciseConfig struct {
	Name      string   `yaml:"name"`
	Joints    []string `yaml:"joints"`
	MinAngle  float64  `yaml:"min_angle"`
	MaxAngle  float64  `yaml:"max_angle"`
	Threshold *float64 `yaml:"threshold"`
}

// Exercise converts the entry into a validated exercise.Config.
// A missing threshold takes exercise.DefaultThreshold.
func (e ExerciseConfig) Exercise() (exercise.Config, error) {
	if len(e.Joints) != 3 {
		return exercise.Config{}, fmt.Errorf("exercise %q needs exactly 3 joints, got %d", e.Name, len(e.Joints))
	}

	var joints [3]detector.Joint
	for i, name := range e.Joints {
		j, ok := detector.ParseJoint(name)
		if !ok {
			return exercise.Config{}, fmt.Errorf("exercise %q: unknown joint %q", e.Name, name)
		}
		joints[i] = j
	}

	threshold := exercise.DefaultThreshold
	if e.Threshold != nil {
		threshold = *e.Threshold
	}

	cfg := exercise.Config{
		Name:      e.Name,
		Joints:    joints,
		Range:     exercise.AngleRange{Min: e.MinAngle, Max: e.MaxAngle},
		Threshold: threshold,
	}
	if err := cfg.Validate(); err != nil {
		return exercise.Config{}, err
	}
	return cfg, nil
}

// Catalog returns the built-in catalog with the configured exercises registered over it.
func (c *Config) Catalog() (*exercise.Catalog, error) {
	catalog := exercise.Default()
	for _, e := range c.Exercises {
		ex, err := e.Exercise()
		if err != nil {
			return nil, err
		}
		if err := catalog.Register(ex); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

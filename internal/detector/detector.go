package detector

import "gocv.io/x/gocv"

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the located joints.
	// Returns nil landmarks if no person is visible in the frame.
	Detect(frame *gocv.Mat) (Landmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ScriptPath overrides the location of pose_service.py.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.8,
		MinTrackingConf: 0.8,
	}
}

package exercise

import (
	"math"

	"github.com/ayusman/formcheck/internal/detector"
)

// Point2D is a position in normalized image coordinates.
type Point2D struct {
	X float64
	Y float64
}

// CalculateAngle returns the angle ABC in degrees, with b as the vertex.
// The result is always within [0, 180].
func CalculateAngle(a, b, c Point2D) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360 - angle
	}
	return angle
}

// Verdict is the outcome of classifying one frame against an exercise.
type Verdict struct {
	Correct    bool             `json:"correct"`
	Angle      float64          `json:"angle"`
	Confidence float64          `json:"confidence"`
	Missing    []detector.Joint `json:"missing,omitempty"`
}

// Classify decides whether the pose in lm matches cfg.
//
// A frame with any required joint missing, or with coordinates that do not
// produce a finite angle, is never correct.
func Classify(lm detector.Landmarks, cfg Config) Verdict {
	var points [3]detector.JointPoint
	var missing []detector.Joint

	for i, j := range cfg.Joints {
		p, ok := lm.Get(j)
		if !ok {
			missing = append(missing, j)
			continue
		}
		points[i] = p
	}
	if len(missing) > 0 {
		return Verdict{Missing: missing}
	}

	angle := CalculateAngle(
		Point2D{X: points[0].X, Y: points[0].Y},
		Point2D{X: points[1].X, Y: points[1].Y},
		Point2D{X: points[2].X, Y: points[2].Y},
	)
	confidence := (points[0].Visibility + points[1].Visibility + points[2].Visibility) / 3

	v := Verdict{Angle: angle, Confidence: confidence}
	if math.IsNaN(angle) || math.IsNaN(confidence) {
		return v
	}
	v.Correct = cfg.Range.Contains(angle) && confidence >= cfg.Threshold
	return v
}

// Package detector provides pose detection interfaces and landmark types for form checking.
package detector

import "strings"

// Pose landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Joint names an anatomical point used by exercise templates.
type Joint string

// Joints understood by the exercise catalog.
const (
	Shoulder Joint = "SHOULDER"
	Elbow    Joint = "ELBOW"
	Wrist    Joint = "WRIST"
	Hip      Joint = "HIP"
	Knee     Joint = "KNEE"
	Ankle    Joint = "ANKLE"
	Toe      Joint = "TOE"
	Neck     Joint = "NECK" // approximated by the nose landmark
)

// jointIndex maps each joint onto the left-side MediaPipe landmark.
var jointIndex = map[Joint]int{
	Shoulder: LeftShoulder,
	Elbow:    LeftElbow,
	Wrist:    LeftWrist,
	Hip:      LeftHip,
	Knee:     LeftKnee,
	Ankle:    LeftAnkle,
	Toe:      LeftFootIndex,
	Neck:     Nose,
}

// ParseJoint converts a case-insensitive joint name into a Joint.
func ParseJoint(name string) (Joint, bool) {
	j := Joint(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := jointIndex[j]
	return j, ok
}

// Joints returns every joint the detector can report.
func Joints() []Joint {
	return []Joint{Shoulder, Elbow, Wrist, Hip, Knee, Ankle, Toe, Neck}
}

// Index returns the MediaPipe landmark index backing the joint.
func (j Joint) Index() (int, bool) {
	i, ok := jointIndex[j]
	return i, ok
}

// JointPoint is a 2D joint position in normalized image coordinates.
// Visibility is the detector's confidence in [0,1] that the joint was located.
type JointPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Landmarks holds the joints located in a single frame.
// A joint the detector could not locate is absent from the map.
type Landmarks map[Joint]JointPoint

// Get returns the point for a joint and whether it was located.
func (l Landmarks) Get(j Joint) (JointPoint, bool) {
	if l == nil {
		return JointPoint{}, false
	}
	p, ok := l[j]
	return p, ok
}

// FromPoseLandmarks builds named landmarks from a raw MediaPipe Pose landmark list.
// Indices missing from a short list are left out of the result.
func FromPoseLandmarks(points []JointPoint) Landmarks {
	if len(points) == 0 {
		return nil
	}

	lm := make(Landmarks, len(jointIndex))
	for joint, idx := range jointIndex {
		if idx < len(points) {
			lm[joint] = points[idx]
		}
	}
	return lm
}

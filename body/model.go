// Package body holds the articulated body-model side of sample preparation:
// pose/shape parameter vectors, the kinematic tree, per-bone rigid transforms
// between the canonical and posed configurations, and the approximate
// motion-weight volume used to bind canonical-space points to bones.
//
// The body-model forward evaluation itself (pose+shape -> vertices+joints)
// is consumed through the Model interface; this package never implements it.
package body

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Dimensions of the SMPL-style parameterization.
const (
	// NumJoints is the number of joints in the kinematic tree.
	NumJoints = 24
	// PoseDim is the length of a full pose vector: 3 global-orientation
	// values followed by 23 per-joint axis-angle rotations.
	PoseDim = NumJoints * 3
	// BodyPoseDim is the pose vector without the global orientation.
	BodyPoseDim = PoseDim - 3
	// ShapeDim is the length of the shape (betas) vector.
	ShapeDim = 10
)

// PoseBias is the small constant added to destination pose vectors so a
// frame with an all-zero pose never degenerates.
const PoseBias = 1e-2

// Pose is a flat PoseDim-length pose vector.
type Pose []float64

// Shape is a flat ShapeDim-length shape (betas) vector.
type Shape []float64

// ParentIndices maps each joint to its parent in the kinematic tree; the
// root has parent -1.
var ParentIndices = [NumJoints]int{
	-1, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 12, 13, 14, 16, 17, 18, 19, 20, 21,
}

// Model evaluates the body model at a pose and shape, returning mesh vertex
// positions and the ordered joint positions of the kinematic tree.
type Model interface {
	Evaluate(pose Pose, shape Shape) (vertices, joints []r3.Vector, err error)
}

// NewPose returns a zeroed full pose vector.
func NewPose() Pose {
	return make(Pose, PoseDim)
}

// NewPoseFromBody returns a full pose vector with zero global orientation
// and the given body pose.
func NewPoseFromBody(bodyPose []float64) (Pose, error) {
	if len(bodyPose) != BodyPoseDim {
		return nil, errors.Errorf("body pose must have length %d, got %d", BodyPoseDim, len(bodyPose))
	}
	pose := NewPose()
	copy(pose[3:], bodyPose)
	return pose, nil
}

// CanonicalPose returns the fixed reference pose every subject is de-posed
// into: a "da-pose" with the legs spread by one radian at each hip.
func CanonicalPose() Pose {
	pose := NewPose()
	pose[5] = 1.0
	pose[8] = -1.0
	return pose
}

// Body returns the pose vector without its global orientation.
func (p Pose) Body() []float64 {
	if len(p) < 3 {
		return nil
	}
	return p[3:]
}

// GlobalOrient returns the axis-angle global orientation of the pose.
func (p Pose) GlobalOrient() r3.Vector {
	if len(p) < 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: p[0], Y: p[1], Z: p[2]}
}

// Biased returns a copy of the body portion of the pose with PoseBias added
// to every component.
func (p Pose) Biased() []float64 {
	out := make([]float64, len(p)-3)
	for i, v := range p[3:] {
		out[i] = v + PoseBias
	}
	return out
}

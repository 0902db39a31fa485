package body

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/spatialmath"
)

// RigidTransforms are the per-bone rotations and translations that carry the
// canonical joint configuration into a posed one. Rotations[i] is the
// Rodrigues rotation of joint i's axis-angle pose; Translations[0] is the
// canonical root position and Translations[i] the canonical offset of joint
// i from its parent, so composing down the tree reproduces the posed
// skeleton.
type RigidTransforms struct {
	Rotations    []*mat.Dense
	Translations []r3.Vector
}

// PoseToRigidTransforms derives per-bone rigid transforms from a full pose
// vector and the canonical-pose joint positions.
func PoseToRigidTransforms(pose Pose, canonicalJoints []r3.Vector) (*RigidTransforms, error) {
	if len(pose) != PoseDim {
		return nil, errors.Errorf("pose must have length %d, got %d", PoseDim, len(pose))
	}
	if len(canonicalJoints) != NumJoints {
		return nil, errors.Errorf("expected %d canonical joints, got %d", NumJoints, len(canonicalJoints))
	}
	out := &RigidTransforms{
		Rotations:    make([]*mat.Dense, NumJoints),
		Translations: make([]r3.Vector, NumJoints),
	}
	out.Rotations[0] = spatialmath.Rodrigues(r3.Vector{X: pose[0], Y: pose[1], Z: pose[2]})
	out.Translations[0] = canonicalJoints[0]
	for i := 1; i < NumJoints; i++ {
		angle := r3.Vector{X: pose[3*i], Y: pose[3*i+1], Z: pose[3*i+2]}
		out.Rotations[i] = spatialmath.Rodrigues(angle)
		out.Translations[i] = canonicalJoints[i].Sub(canonicalJoints[ParentIndices[i]])
	}
	return out, nil
}

// CanonicalGlobalTransforms returns, per bone, the 4x4 transform from the
// bone-local frame to the canonical frame, composed root-to-leaf with
// identity rotations over the canonical joint offsets.
func CanonicalGlobalTransforms(canonicalJoints []r3.Vector) ([]*mat.Dense, error) {
	if len(canonicalJoints) != NumJoints {
		return nil, errors.Errorf("expected %d canonical joints, got %d", NumJoints, len(canonicalJoints))
	}
	gtfms := make([]*mat.Dense, NumJoints)
	gtfms[0] = translation44(canonicalJoints[0])
	for i := 1; i < NumJoints; i++ {
		local := translation44(canonicalJoints[i].Sub(canonicalJoints[ParentIndices[i]]))
		var global mat.Dense
		global.Mul(gtfms[ParentIndices[i]], local)
		gtfms[i] = mat.DenseCopyOf(&global)
	}
	return gtfms, nil
}

func translation44(t r3.Vector) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, t.X,
		0, 1, 0, t.Y,
		0, 0, 1, t.Z,
		0, 0, 0, 1,
	})
}

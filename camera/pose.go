package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/spatialmath"
)

// Pose is a world<->camera rigid transform, stored as the 4x4 world-to-camera
// extrinsic matrix [R|T; 0 1] with p_cam = R*p_world + T.
type Pose struct {
	worldToCamera *mat.Dense
	cameraToWorld *mat.Dense
}

// NewPoseFromExtrinsic builds a Pose from a 3x4 or 4x4 extrinsic matrix.
// The rotation block must be orthonormal.
func NewPoseFromExtrinsic(extrinsic *mat.Dense) (*Pose, error) {
	rows, cols := extrinsic.Dims()
	if cols != 4 || (rows != 3 && rows != 4) {
		return nil, errors.Errorf("extrinsic matrix must be 3x4 or 4x4, got %dx%d", rows, cols)
	}
	w2c := mat.NewDense(4, 4, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < 4; j++ {
			w2c.Set(i, j, extrinsic.At(i, j))
		}
	}
	if rows == 3 {
		w2c.Set(3, 3, 1)
	}
	rot := w2c.Slice(0, 3, 0, 3)
	if det := mat.Det(rot); det < 1-1e-4 || det > 1+1e-4 {
		return nil, errors.Errorf("extrinsic rotation block is not a rotation (det=%f)", det)
	}
	var c2w mat.Dense
	if err := c2w.Inverse(w2c); err != nil {
		return nil, errors.Wrap(err, "cannot invert extrinsic matrix")
	}
	return &Pose{worldToCamera: w2c, cameraToWorld: mat.DenseCopyOf(&c2w)}, nil
}

// NewPoseFromRotationAndCenter builds a Pose looking with rotation r (3x3
// world-to-camera) from a camera center expressed in world coordinates,
// so T = -R*center.
func NewPoseFromRotationAndCenter(r *mat.Dense, center r3.Vector) (*Pose, error) {
	t := spatialmath.RotatePoint(r, center).Mul(-1)
	ext := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext.Set(i, j, r.At(i, j))
		}
	}
	ext.Set(0, 3, t.X)
	ext.Set(1, 3, t.Y)
	ext.Set(2, 3, t.Z)
	return NewPoseFromExtrinsic(ext)
}

// WorldToCamera returns a copy of the 4x4 world-to-camera matrix.
func (p *Pose) WorldToCamera() *mat.Dense {
	return mat.DenseCopyOf(p.worldToCamera)
}

// CameraToWorld returns a copy of the 4x4 camera-to-world matrix.
func (p *Pose) CameraToWorld() *mat.Dense {
	return mat.DenseCopyOf(p.cameraToWorld)
}

// Rotation returns the 3x3 world-to-camera rotation block.
func (p *Pose) Rotation() *mat.Dense {
	return mat.DenseCopyOf(p.worldToCamera.Slice(0, 3, 0, 3))
}

// Translation returns the world-to-camera translation column.
func (p *Pose) Translation() r3.Vector {
	return r3.Vector{
		X: p.worldToCamera.At(0, 3),
		Y: p.worldToCamera.At(1, 3),
		Z: p.worldToCamera.At(2, 3),
	}
}

// Center returns the camera position in world coordinates, -R^T * T.
func (p *Pose) Center() r3.Vector {
	return r3.Vector{
		X: p.cameraToWorld.At(0, 3),
		Y: p.cameraToWorld.At(1, 3),
		Z: p.cameraToWorld.At(2, 3),
	}
}

// Right returns the camera's x axis in world coordinates.
func (p *Pose) Right() r3.Vector {
	return p.rotationRow(0)
}

// Up returns the camera's up direction in world coordinates. Image y grows
// downward, so this is the negated y axis.
func (p *Pose) Up() r3.Vector {
	return p.rotationRow(1).Mul(-1)
}

// Forward returns the camera's viewing direction in world coordinates.
func (p *Pose) Forward() r3.Vector {
	return p.rotationRow(2)
}

func (p *Pose) rotationRow(i int) r3.Vector {
	return r3.Vector{
		X: p.worldToCamera.At(i, 0),
		Y: p.worldToCamera.At(i, 1),
		Z: p.worldToCamera.At(i, 2),
	}
}

// ApplyGlobalTransform composes a subject's global rigid motion (axis-angle
// rotation rh, translation th) onto a world-to-camera extrinsic, yielding
// the extrinsic of the same camera expressed in the subject's local frame:
// E' = E * [R(rh) th; 0 1].
func ApplyGlobalTransform(extrinsic *mat.Dense, rh, th r3.Vector) (*mat.Dense, error) {
	rows, cols := extrinsic.Dims()
	if cols != 4 || (rows != 3 && rows != 4) {
		return nil, errors.Errorf("extrinsic matrix must be 3x4 or 4x4, got %dx%d", rows, cols)
	}
	e := mat.NewDense(4, 4, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < 4; j++ {
			e.Set(i, j, extrinsic.At(i, j))
		}
	}
	if rows == 3 {
		e.Set(3, 3, 1)
	}
	rot := spatialmath.Rodrigues(rh)
	global := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			global.Set(i, j, rot.At(i, j))
		}
	}
	global.Set(0, 3, th.X)
	global.Set(1, 3, th.Y)
	global.Set(2, 3, th.Z)
	global.Set(3, 3, 1)
	var out mat.Dense
	out.Mul(e, global)
	return mat.DenseCopyOf(&out), nil
}

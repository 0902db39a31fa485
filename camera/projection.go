package camera

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Clip planes used for every camera of a sequence.
const (
	DefaultNearClip = 0.01
	DefaultFarClip  = 100.0
)

// WorldViewTransform returns the transposed world-to-camera matrix, the
// row-vector convention rasterizers multiply points against.
func WorldViewTransform(worldToCamera *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(worldToCamera.T())
	return mat.DenseCopyOf(&out)
}

// ProjectionMatrix builds the transposed perspective projection matrix for
// the given clip planes and fields of view (radians). Depth maps to
// [0, 1] between znear and zfar with z forward.
func ProjectionMatrix(znear, zfar, fovx, fovy float64) *mat.Dense {
	tanHalfX := math.Tan(fovx / 2)
	tanHalfY := math.Tan(fovy / 2)
	top := tanHalfY * znear
	right := tanHalfX * znear

	p := mat.NewDense(4, 4, nil)
	p.Set(0, 0, znear/right)
	p.Set(1, 1, znear/top)
	p.Set(2, 2, zfar/(zfar-znear))
	p.Set(2, 3, -(zfar*znear)/(zfar-znear))
	p.Set(3, 2, 1)
	return mat.DenseCopyOf(p.T())
}

// FullProjection composes the (already transposed) world-view and projection
// matrices into the full camera transform.
func FullProjection(worldView, projection *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(worldView, projection)
	return mat.DenseCopyOf(&out)
}

// CameraCenter recovers the camera position in world space from a
// (transposed) world-view matrix.
func CameraCenter(worldView *mat.Dense) (r3.Vector, error) {
	var inv mat.Dense
	if err := inv.Inverse(worldView); err != nil {
		return r3.Vector{}, errors.Wrap(err, "world-view matrix is singular")
	}
	return r3.Vector{X: inv.At(3, 0), Y: inv.At(3, 1), Z: inv.At(3, 2)}, nil
}

package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// GenerateRays produces one world-space ray per pixel of an h x w image.
// Each pixel (row r, col c) is back-projected through the inverse intrinsic
// matrix into a camera-space direction, which is rotated into world space
// with the camera-to-world rotation (the transpose of the world-to-camera
// rotation r3x3). Every ray originates at the camera center -R^T * t.
//
// The returned slices are row-major with h*w entries, matching pixel order.
// Directions are not unit length; parametric distances along them are in
// units of the unnormalized direction.
func GenerateRays(h, w int, intr *Intrinsics, rot *mat.Dense, t r3.Vector) ([]r3.Vector, []r3.Vector, error) {
	if h <= 0 || w <= 0 {
		return nil, nil, errors.Errorf("image dimensions must be positive, got (%d, %d)", h, w)
	}
	if err := intr.CheckValid(); err != nil {
		return nil, nil, err
	}
	if rr, rc := rot.Dims(); rr != 3 || rc != 3 {
		return nil, nil, errors.Errorf("rotation must be 3x3, got %dx%d", rr, rc)
	}

	// Camera center in world space: -R^T * t.
	origin := rotateTransposed(rot, t).Mul(-1)

	raysO := make([]r3.Vector, h*w)
	raysD := make([]r3.Vector, h*w)
	idx := 0
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			dx, dy, dz := intr.PixelToDirection(float64(c), float64(r))
			raysD[idx] = rotateTransposed(rot, r3.Vector{X: dx, Y: dy, Z: dz})
			raysO[idx] = origin
			idx++
		}
	}
	return raysO, raysD, nil
}

// rotateTransposed applies R^T to a point.
func rotateTransposed(r *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*p.X + r.At(1, 0)*p.Y + r.At(2, 0)*p.Z,
		Y: r.At(0, 1)*p.X + r.At(1, 1)*p.Y + r.At(2, 1)*p.Z,
		Z: r.At(0, 2)*p.X + r.At(1, 2)*p.Y + r.At(2, 2)*p.Z,
	}
}

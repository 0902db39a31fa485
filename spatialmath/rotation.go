package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Rodrigues converts an axis-angle vector into a 3x3 rotation matrix. The
// vector's norm is the rotation angle in radians; near-zero vectors yield
// the identity.
func Rodrigues(v r3.Vector) *mat.Dense {
	theta := v.Norm()
	r := identity3()
	if theta < 1e-12 {
		return r
	}
	axis := v.Mul(1 / theta)
	k := mat.NewDense(3, 3, []float64{
		0, -axis.Z, axis.Y,
		axis.Z, 0, -axis.X,
		-axis.Y, axis.X, 0,
	})
	sin, cos := math.Sincos(theta)
	var k2 mat.Dense
	k2.Mul(k, k)
	var term1, term2 mat.Dense
	term1.Scale(sin, k)
	term2.Scale(1-cos, &k2)
	r.Add(r, &term1)
	r.Add(r, &term2)
	return r
}

// EulerXYZ builds a rotation matrix from static-frame Euler angles in
// radians, applied about x, then y, then z.
func EulerXYZ(rx, ry, rz float64) *mat.Dense {
	sx, cx := math.Sincos(rx)
	sy, cy := math.Sincos(ry)
	sz, cz := math.Sincos(rz)
	rxm := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	rym := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rzm := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})
	var tmp, out mat.Dense
	tmp.Mul(rym, rxm)
	out.Mul(rzm, &tmp)
	return mat.DenseCopyOf(&out)
}

// RotatePoint applies a 3x3 rotation matrix to a point.
func RotatePoint(r *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*p.X + r.At(0, 1)*p.Y + r.At(0, 2)*p.Z,
		Y: r.At(1, 0)*p.X + r.At(1, 1)*p.Y + r.At(1, 2)*p.Z,
		Z: r.At(2, 0)*p.X + r.At(2, 1)*p.Y + r.At(2, 2)*p.Z,
	}
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

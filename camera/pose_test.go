package camera

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestNewPoseFromExtrinsic(t *testing.T) {
	ext := mat.NewDense(3, 4, []float64{
		1, 0, 0, 1,
		0, 1, 0, 2,
		0, 0, 1, 3,
	})
	pose, err := NewPoseFromExtrinsic(ext)
	test.That(t, err, test.ShouldBeNil)

	center := pose.Center()
	test.That(t, center.X, test.ShouldAlmostEqual, -1)
	test.That(t, center.Y, test.ShouldAlmostEqual, -2)
	test.That(t, center.Z, test.ShouldAlmostEqual, -3)

	test.That(t, pose.Right().X, test.ShouldAlmostEqual, 1)
	test.That(t, pose.Up().Y, test.ShouldAlmostEqual, -1)
	test.That(t, pose.Forward().Z, test.ShouldAlmostEqual, 1)

	// world-to-camera composed with camera-to-world is the identity.
	var prod mat.Dense
	prod.Mul(pose.WorldToCamera(), pose.CameraToWorld())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			test.That(t, prod.At(i, j), test.ShouldAlmostEqual, want, 1e-9)
		}
	}
}

func TestNewPoseFromExtrinsicRejectsNonRotation(t *testing.T) {
	ext := mat.NewDense(3, 4, []float64{
		2, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})
	_, err := NewPoseFromExtrinsic(ext)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPoseFromExtrinsic(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewPoseFromRotationAndCenter(t *testing.T) {
	center := r3.Vector{X: 0.5, Y: -1, Z: 2}
	pose, err := NewPoseFromRotationAndCenter(identity3(), center)
	test.That(t, err, test.ShouldBeNil)
	got := pose.Center()
	test.That(t, got.X, test.ShouldAlmostEqual, center.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, center.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, center.Z)
}

func TestApplyGlobalTransform(t *testing.T) {
	ext := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 5,
		0, 0, 0, 1,
	})

	// Identity body transform leaves the extrinsic unchanged.
	same, err := ApplyGlobalTransform(ext, r3.Vector{}, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(same, ext, 1e-12), test.ShouldBeTrue)

	// A pure body translation shifts the camera translation by R*th = th here.
	shifted, err := ApplyGlobalTransform(ext, r3.Vector{}, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, shifted.At(0, 3), test.ShouldAlmostEqual, 1)
	test.That(t, shifted.At(1, 3), test.ShouldAlmostEqual, 2)
	test.That(t, shifted.At(2, 3), test.ShouldAlmostEqual, 8)

	// A body rotation composes on the rotation block.
	rotated, err := ApplyGlobalTransform(ext, r3.Vector{Z: math.Pi / 2}, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rotated.At(0, 0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rotated.At(0, 1), test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, rotated.At(1, 0), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestProjectionPipeline(t *testing.T) {
	intr := &Intrinsics{Width: 640, Height: 480, Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}
	fovx, fovy := intr.FieldOfView()
	test.That(t, fovx, test.ShouldAlmostEqual, 2*math.Atan(640.0/1000.0))
	test.That(t, fovy, test.ShouldAlmostEqual, 2*math.Atan(480.0/1000.0))

	ext := mat.NewDense(4, 4, []float64{
		1, 0, 0, 1,
		0, 1, 0, -2,
		0, 0, 1, 4,
		0, 0, 0, 1,
	})
	pose, err := NewPoseFromExtrinsic(ext)
	test.That(t, err, test.ShouldBeNil)

	worldView := WorldViewTransform(pose.WorldToCamera())
	proj := ProjectionMatrix(DefaultNearClip, DefaultFarClip, fovx, fovy)
	full := FullProjection(worldView, proj)
	r, c := full.Dims()
	test.That(t, r, test.ShouldEqual, 4)
	test.That(t, c, test.ShouldEqual, 4)

	// The camera center recovered from the world-view matrix matches the pose.
	center, err := CameraCenter(worldView)
	test.That(t, err, test.ShouldBeNil)
	want := pose.Center()
	test.That(t, center.X, test.ShouldAlmostEqual, want.X, 1e-9)
	test.That(t, center.Y, test.ShouldAlmostEqual, want.Y, 1e-9)
	test.That(t, center.Z, test.ShouldAlmostEqual, want.Z, 1e-9)

	// Projection maps znear on the axis to depth 0 and zfar to depth 1
	// (row-vector convention, so multiply from the left).
	project := func(z float64) float64 {
		v := mat.NewDense(1, 4, []float64{0, 0, z, 1})
		var out mat.Dense
		out.Mul(v, proj)
		return out.At(0, 2) / out.At(0, 3)
	}
	test.That(t, project(DefaultNearClip), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, project(DefaultFarClip), test.ShouldAlmostEqual, 1, 1e-9)
}

package spatialmath

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestSkeletonBounds(t *testing.T) {
	pts := []r3.Vector{
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: 0, Z: 5},
		{X: 0.5, Y: -2, Z: 4},
	}
	box, err := SkeletonBounds(pts, 0.3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Min.X, test.ShouldAlmostEqual, -1.3)
	test.That(t, box.Min.Y, test.ShouldAlmostEqual, -2.3)
	test.That(t, box.Min.Z, test.ShouldAlmostEqual, 2.7)
	test.That(t, box.Max.X, test.ShouldAlmostEqual, 1.3)
	test.That(t, box.Max.Y, test.ShouldAlmostEqual, 2.3)
	test.That(t, box.Max.Z, test.ShouldAlmostEqual, 5.3)

	// Min <= Max componentwise and every input point is inside.
	test.That(t, box.Min.X <= box.Max.X, test.ShouldBeTrue)
	test.That(t, box.Min.Y <= box.Max.Y, test.ShouldBeTrue)
	test.That(t, box.Min.Z <= box.Max.Z, test.ShouldBeTrue)
	for _, p := range pts {
		test.That(t, box.Contains(p), test.ShouldBeTrue)
	}
}

func TestSkeletonBoundsSinglePoint(t *testing.T) {
	box, err := SkeletonBounds([]r3.Vector{{X: 1, Y: 1, Z: 1}}, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Size().X, test.ShouldAlmostEqual, 1.0)
	test.That(t, box.Size().Y, test.ShouldAlmostEqual, 1.0)
	test.That(t, box.Size().Z, test.ShouldAlmostEqual, 1.0)
}

func TestSkeletonBoundsEmpty(t *testing.T) {
	_, err := SkeletonBounds(nil, 0.3)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrEmptySkeleton), test.ShouldBeTrue)
}

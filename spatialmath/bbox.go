// Package spatialmath defines the 3D geometric primitives used to bound a
// posed subject and cull camera rays against it.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DefaultBoundsOffset is the padding, in scene units, applied around a
// skeleton when deriving its bounding box.
const DefaultBoundsOffset = 0.3

// ErrEmptySkeleton is returned when bounds are requested for zero points.
var ErrEmptySkeleton = errors.New("cannot compute bounds of an empty point set")

// BoundingBox is an axis-aligned box, Min <= Max componentwise.
type BoundingBox struct {
	Min r3.Vector
	Max r3.Vector
}

// String returns a human readable string that represents the box.
func (b BoundingBox) String() string {
	return fmt.Sprintf("Box | Min: X:%.2f, Y:%.2f, Z:%.2f | Max: X:%.2f, Y:%.2f, Z:%.2f",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Size returns the box extents along each axis.
func (b BoundingBox) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Contains reports whether the point lies inside the box, faces inclusive.
func (b BoundingBox) Contains(pt r3.Vector) bool {
	return pt.X >= b.Min.X && pt.X <= b.Max.X &&
		pt.Y >= b.Min.Y && pt.Y <= b.Max.Y &&
		pt.Z >= b.Min.Z && pt.Z <= b.Max.Z
}

// SkeletonBounds computes the axis-aligned box around a set of joint
// positions, padded by offset on every side.
func SkeletonBounds(points []r3.Vector, offset float64) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrEmptySkeleton
	}
	minPt := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxPt := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range points {
		minPt.X = math.Min(minPt.X, p.X)
		minPt.Y = math.Min(minPt.Y, p.Y)
		minPt.Z = math.Min(minPt.Z, p.Z)
		maxPt.X = math.Max(maxPt.X, p.X)
		maxPt.Y = math.Max(maxPt.Y, p.Y)
		maxPt.Z = math.Max(maxPt.Z, p.Z)
	}
	pad := r3.Vector{X: offset, Y: offset, Z: offset}
	return BoundingBox{Min: minPt.Sub(pad), Max: maxPt.Add(pad)}, nil
}

package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// parallelEps is the direction-component magnitude below which a ray is
// treated as parallel to the corresponding slab.
const parallelEps = 1e-12

// RayIntersections holds the result of intersecting a batch of rays with a
// bounding box. Near and Far are parametric distances along the ray
// direction (not normalized) and are compacted: they only contain entries
// for rays whose Mask entry is true. Mask has one entry per input ray.
type RayIntersections struct {
	Near []float64
	Far  []float64
	Mask []bool
}

// Hits returns the number of intersecting rays.
func (ri *RayIntersections) Hits() int {
	return len(ri.Near)
}

// IntersectRays intersects every ray (origin, direction) with the box using
// the slab method. Bounds are inclusive: a ray lying exactly on a face
// intersects. A ray intersects iff the running maximum of per-axis entry
// distances does not exceed the running minimum of per-axis exit distances,
// and the box is not entirely behind the origin. Directions with a zero
// component on an axis contribute no constraint on that axis when the origin
// already lies within the slab, and reject the ray otherwise, so no division
// by zero ever occurs.
func IntersectRays(box BoundingBox, raysO, raysD []r3.Vector) *RayIntersections {
	n := len(raysO)
	if len(raysD) < n {
		n = len(raysD)
	}
	res := &RayIntersections{
		Near: make([]float64, 0, n),
		Far:  make([]float64, 0, n),
		Mask: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		near, far, ok := intersectRay(box, raysO[i], raysD[i])
		if !ok {
			continue
		}
		res.Mask[i] = true
		res.Near = append(res.Near, near)
		res.Far = append(res.Far, far)
	}
	return res
}

func intersectRay(box BoundingBox, o, d r3.Vector) (float64, float64, bool) {
	near, far, ok := slab(o.X, d.X, box.Min.X, box.Max.X, 0, 0, true)
	if !ok {
		return 0, 0, false
	}
	near, far, ok = slab(o.Y, d.Y, box.Min.Y, box.Max.Y, near, far, false)
	if !ok {
		return 0, 0, false
	}
	near, far, ok = slab(o.Z, d.Z, box.Min.Z, box.Max.Z, near, far, false)
	if !ok {
		return 0, 0, false
	}
	if near > far || far < 0 {
		return 0, 0, false
	}
	return near, far, true
}

// slab folds one axis into the running (near, far) interval. When first is
// true the axis initializes the interval instead of narrowing it.
func slab(o, d, lo, hi, near, far float64, first bool) (float64, float64, bool) {
	if d > -parallelEps && d < parallelEps {
		// Parallel to this slab: unconstrained if the origin is inside it.
		if o < lo || o > hi {
			return 0, 0, false
		}
		if first {
			return math.Inf(-1), math.Inf(1), true
		}
		return near, far, true
	}
	t0 := (lo - o) / d
	t1 := (hi - o) / d
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if first {
		return t0, t1, true
	}
	if t0 > near {
		near = t0
	}
	if t1 < far {
		far = t1
	}
	return near, far, true
}

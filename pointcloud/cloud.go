// Package pointcloud loads and augments the sparse scene point cloud that
// seeds the background model of a reconstruction.
package pointcloud

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// Cloud is a set of colored 3D points. Colors are normalized to [0, 1].
type Cloud struct {
	Points []r3.Vector
	Colors []r3.Vector
}

// Size returns the number of points.
func (c *Cloud) Size() int {
	return len(c.Points)
}

// Merge appends another cloud's points and colors.
func (c *Cloud) Merge(other *Cloud) {
	c.Points = append(c.Points, other.Points...)
	c.Colors = append(c.Colors, other.Colors...)
}

// Bounds returns the componentwise min and max of the points.
func (c *Cloud) Bounds() (r3.Vector, r3.Vector) {
	minPt := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxPt := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range c.Points {
		minPt.X = math.Min(minPt.X, p.X)
		minPt.Y = math.Min(minPt.Y, p.Y)
		minPt.Z = math.Min(minPt.Z, p.Z)
		maxPt.X = math.Max(maxPt.X, p.X)
		maxPt.Y = math.Max(maxPt.Y, p.Y)
		maxPt.Z = math.Max(maxPt.Z, p.Z)
	}
	return minPt, maxPt
}

// RemoveOutliers drops points whose distance from the cloud centroid exceeds
// the mean distance by more than maxDev standard deviations, returning the
// filtered cloud. Sparse reconstruction clouds carry stray triangulations far
// outside the scene; this trims them before the cloud seeds a model.
func (c *Cloud) RemoveOutliers(maxDev float64) *Cloud {
	if c.Size() < 2 || maxDev <= 0 {
		return c
	}
	centroid, _ := CenterAndDiag(c.Points)
	dists := make([]float64, len(c.Points))
	mean := 0.0
	for i, p := range c.Points {
		dists[i] = p.Sub(centroid).Norm()
		mean += dists[i]
	}
	mean /= float64(len(dists))
	variance := 0.0
	for _, d := range dists {
		variance += (d - mean) * (d - mean)
	}
	std := math.Sqrt(variance / float64(len(dists)))
	limit := mean + maxDev*std

	out := &Cloud{}
	for i, p := range c.Points {
		if dists[i] > limit {
			continue
		}
		out.Points = append(out.Points, p)
		out.Colors = append(out.Colors, c.Colors[i])
	}
	return out
}

// CenterAndDiag returns the mean of the given positions and the largest
// distance from any position to that mean. Used on camera centers to derive
// a scene radius.
func CenterAndDiag(centers []r3.Vector) (r3.Vector, float64) {
	if len(centers) == 0 {
		return r3.Vector{}, 0
	}
	var center r3.Vector
	for _, c := range centers {
		center = center.Add(c)
	}
	center = center.Mul(1 / float64(len(centers)))
	diag := 0.0
	for _, c := range centers {
		diag = math.Max(diag, c.Sub(center).Norm())
	}
	return center, diag
}

// BackgroundSphere builds n randomly colored points on a golden-spiral
// sphere of radius size*dist around center, used to pad the scene with a
// distant background shell.
func BackgroundSphere(n int, center r3.Vector, size, dist float64, seed int64) *Cloud {
	rng := rand.New(rand.NewSource(seed))
	goldenAngle := math.Pi * (math.Sqrt(5) - 1)
	cloud := &Cloud{
		Points: make([]r3.Vector, 0, n),
		Colors: make([]r3.Vector, 0, n),
	}
	for i := 0; i < n; i++ {
		y := 1 - float64(i)/float64(n-1)*2
		radius := math.Sqrt(1 - y*y)
		theta := goldenAngle * float64(i)
		unit := r3.Vector{
			X: math.Cos(theta) * radius,
			Y: y,
			Z: math.Sin(theta) * radius,
		}
		cloud.Points = append(cloud.Points, unit.Mul(size*dist).Add(center))
		cloud.Colors = append(cloud.Colors, r3.Vector{
			X: rng.Float64(),
			Y: rng.Float64(),
			Z: rng.Float64(),
		})
	}
	return cloud
}

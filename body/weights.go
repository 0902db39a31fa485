package body

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/humanray/humanray/spatialmath"
)

const (
	// VolumeResolution is the voxel count per axis of a motion-weight volume.
	VolumeResolution = 32
	// boneSigma is the Gaussian falloff, in scene units, around each bone segment.
	boneSigma = 0.1
)

// WeightVolume is a per-bone soft-binding field over the canonical bounding
// box. Channel i (i < NumJoints) holds the weight of bone i; the final
// channel is the background. Weights sum to 1 per voxel.
type WeightVolume struct {
	Resolution int
	Channels   int
	Min        r3.Vector
	Max        r3.Vector
	data       []float64
}

// At returns the weight of channel ch at voxel (ix, iy, iz).
func (v *WeightVolume) At(ch, ix, iy, iz int) float64 {
	return v.data[v.index(ch, ix, iy, iz)]
}

func (v *WeightVolume) index(ch, ix, iy, iz int) int {
	r := v.Resolution
	return ((ch*r+ix)*r+iy)*r + iz
}

// Raw exposes the channel-major flattened weights, read-only by convention:
// volumes are shared across frames once computed.
func (v *WeightVolume) Raw() []float64 {
	return v.data
}

// MotionWeightVolume approximates skinning weights over the canonical
// bounding box: each voxel center gets a Gaussian falloff from the nearest
// point on each bone's canonical-frame segment, plus a background channel,
// normalized so the weights sum to 1 per voxel. Shape is pose-invariant, so
// the volume is computed once per subject and reused across frames.
func MotionWeightVolume(canonicalJoints []r3.Vector, box spatialmath.BoundingBox) (*WeightVolume, error) {
	if len(canonicalJoints) != NumJoints {
		return nil, errors.Errorf("expected %d canonical joints, got %d", NumJoints, len(canonicalJoints))
	}
	size := box.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errors.Errorf("degenerate canonical bounding box %v", box)
	}

	res := VolumeResolution
	vol := &WeightVolume{
		Resolution: res,
		Channels:   NumJoints + 1,
		Min:        box.Min,
		Max:        box.Max,
		data:       make([]float64, (NumJoints+1)*res*res*res),
	}
	step := r3.Vector{X: size.X / float64(res), Y: size.Y / float64(res), Z: size.Z / float64(res)}
	inv2Sigma2 := 1 / (2 * boneSigma * boneSigma)

	weights := make([]float64, NumJoints)
	for ix := 0; ix < res; ix++ {
		for iy := 0; iy < res; iy++ {
			for iz := 0; iz < res; iz++ {
				center := r3.Vector{
					X: box.Min.X + (float64(ix)+0.5)*step.X,
					Y: box.Min.Y + (float64(iy)+0.5)*step.Y,
					Z: box.Min.Z + (float64(iz)+0.5)*step.Z,
				}
				sum := 0.0
				for j := 0; j < NumJoints; j++ {
					a := canonicalJoints[j]
					b := a
					if p := ParentIndices[j]; p >= 0 {
						b = canonicalJoints[p]
					}
					d := distanceToSegment(center, a, b)
					w := math.Exp(-d * d * inv2Sigma2)
					weights[j] = w
					sum += w
				}
				bg := 1 - sum
				if bg < 0 {
					bg = 0
				}
				total := sum + bg
				for j := 0; j < NumJoints; j++ {
					vol.data[vol.index(j, ix, iy, iz)] = weights[j] / total
				}
				vol.data[vol.index(NumJoints, ix, iy, iz)] = bg / total
			}
		}
	}
	return vol, nil
}

// distanceToSegment returns the distance from p to the closest point on the
// segment ab.
func distanceToSegment(p, a, b r3.Vector) float64 {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den < 1e-12 {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / den
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(a.Add(ab.Mul(t))).Norm()
}

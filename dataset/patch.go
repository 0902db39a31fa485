package dataset

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/humanray/humanray/scene"
)

// Default patch policy.
const (
	DefaultNumPatches = 1
	DefaultPatchSize  = 160
)

// PatchSampler draws spatially contiguous pixel windows centered on the
// subject silhouette for patch-based supervision.
type PatchSampler struct {
	NumPatches int
	PatchSize  int
}

// PatchSet is the aggregated result of sampling NumPatches windows.
type PatchSet struct {
	// RayIndices are compacted-ray-space indices of all patches,
	// concatenated in patch order.
	RayIndices []int
	// DivIndices has NumPatches+1 entries; patch p owns
	// RayIndices[DivIndices[p]:DivIndices[p+1]].
	DivIndices []int
	// Masks holds, per patch, the PatchSize x PatchSize validity mask of
	// pixels covered both by the window and by the ray mask.
	Masks [][]bool
	// XYMin and XYMax are the inclusive-exclusive window corners.
	XYMin [][2]int
	XYMax [][2]int
}

// Sample selects NumPatches windows. Window centers are drawn uniformly
// among subjectMask's true pixels, then the window is clamped inside the
// image by shifting (never shrinking). Each window's pixels are intersected
// with rayMask and mapped into compacted ray indices via a prefix sum.
func (s *PatchSampler) Sample(rng *rand.Rand, rayMask, subjectMask []bool, h, w int) (*PatchSet, error) {
	if len(rayMask) != h*w || len(subjectMask) != h*w {
		return nil, errors.Errorf("masks must have length %d, got %d and %d", h*w, len(rayMask), len(subjectMask))
	}
	if s.PatchSize <= 0 || s.PatchSize > w || s.PatchSize > h {
		return nil, errors.Errorf("patch size %d does not fit a %dx%d image", s.PatchSize, w, h)
	}

	var candidates []int
	for i, v := range subjectMask {
		if v {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, scene.ErrEmptyMask
	}

	// Prefix sum: compacted[i] is the compacted ray index of pixel i when
	// rayMask[i] is true.
	compacted := make([]int, h*w)
	count := 0
	for i, v := range rayMask {
		if v {
			compacted[i] = count
			count++
		} else {
			compacted[i] = -1
		}
	}

	set := &PatchSet{DivIndices: []int{0}}
	for p := 0; p < s.NumPatches; p++ {
		center := candidates[rng.Intn(len(candidates))]
		cx, cy := center%w, center/w

		half := s.PatchSize / 2
		xMin := clamp(cx-half, 0, w-s.PatchSize)
		yMin := clamp(cy-half, 0, h-s.PatchSize)
		xMax := xMin + s.PatchSize
		yMax := yMin + s.PatchSize

		mask := make([]bool, s.PatchSize*s.PatchSize)
		for y := yMin; y < yMax; y++ {
			for x := xMin; x < xMax; x++ {
				pixel := y*w + x
				if !rayMask[pixel] {
					continue
				}
				mask[(y-yMin)*s.PatchSize+(x-xMin)] = true
				set.RayIndices = append(set.RayIndices, compacted[pixel])
			}
		}
		set.Masks = append(set.Masks, mask)
		set.XYMin = append(set.XYMin, [2]int{xMin, yMin})
		set.XYMax = append(set.XYMax, [2]int{xMax, yMax})
		set.DivIndices = append(set.DivIndices, len(set.RayIndices))
	}
	return set, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

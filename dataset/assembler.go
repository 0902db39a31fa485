package dataset

import (
	"image"
	"math/rand"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/body"
	"github.com/humanray/humanray/camera"
	"github.com/humanray/humanray/scene"
	"github.com/humanray/humanray/spatialmath"
)

// Render modes.
const (
	ModeHumanScene = "human_scene"
	ModeScene      = "scene"
)

// sceneModeDilateRadius grows the subject mask when supervising only the
// background, so no subject pixel leaks into it.
const sceneModeDilateRadius = 10

// Options tune per-frame sample assembly.
type Options struct {
	Mode       string
	NumPatches int
	PatchSize  int
	BGColor    r3.Vector
	// Seed drives patch-center selection; each frame derives its own rng
	// from it so eager and lazy assembly agree.
	Seed int64
	// Animation skips image/ray supervision and attaches the manual
	// alignment instead.
	Animation         bool
	ManualRotation    *mat.Dense
	ManualTranslation r3.Vector
	ManualScale       float64
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Mode == "" {
		out.Mode = ModeHumanScene
	}
	if out.NumPatches == 0 {
		out.NumPatches = DefaultNumPatches
	}
	if out.PatchSize == 0 {
		out.PatchSize = DefaultPatchSize
	}
	if out.ManualScale == 0 {
		out.ManualScale = 1
	}
	return out
}

// CanonicalState is the once-per-subject canonical-frame data shared by all
// samples: the canonical skeleton, its bounding box, the per-bone global
// transforms, and the motion-weight volume.
type CanonicalState struct {
	Joints           []r3.Vector
	Bounds           spatialmath.BoundingBox
	GlobalTransforms []*mat.Dense
	MotionWeights    *body.WeightVolume
}

// Assembler produces one Sample per frame index. Frames are independent of
// each other; the canonical state is computed lazily on first use and then
// shared read-only, so Assemble is safe to call from multiple goroutines.
type Assembler struct {
	scene   *scene.Scene
	poses   *scene.PoseStore
	masks   *scene.MaskStore
	model   body.Model
	logger  golog.Logger
	opts    Options
	sampler *PatchSampler

	canonicalOnce sync.Once
	canonical     *CanonicalState
	canonicalErr  error
}

// NewAssembler validates the collaborators and returns an Assembler. The
// mask store may be nil only for animation assembly.
func NewAssembler(
	scn *scene.Scene,
	poses *scene.PoseStore,
	masks *scene.MaskStore,
	model body.Model,
	opts Options,
	logger golog.Logger,
) (*Assembler, error) {
	if scn == nil || poses == nil || model == nil {
		return nil, errors.New("assembler needs a scene, pose store, and body model")
	}
	opts = opts.withDefaults()
	if !opts.Animation && masks == nil {
		return nil, errors.New("assembler needs a mask store outside animation mode")
	}
	if poses.NumFrames() < len(scn.Captures) {
		return nil, errors.Errorf("pose store has %d frames for %d captures", poses.NumFrames(), len(scn.Captures))
	}
	return &Assembler{
		scene:   scn,
		poses:   poses,
		masks:   masks,
		model:   model,
		logger:  logger,
		opts:    opts,
		sampler: &PatchSampler{NumPatches: opts.NumPatches, PatchSize: opts.PatchSize},
	}, nil
}

// Canonical returns the memoized canonical state, computing it on first use
// from the mean shape held in the canonical pose.
func (a *Assembler) Canonical() (*CanonicalState, error) {
	a.canonicalOnce.Do(func() {
		a.canonical, a.canonicalErr = a.computeCanonical()
	})
	return a.canonical, a.canonicalErr
}

func (a *Assembler) computeCanonical() (*CanonicalState, error) {
	_, joints, err := a.model.Evaluate(body.CanonicalPose(), a.poses.MeanBetas())
	if err != nil {
		return nil, errors.Wrap(err, "error evaluating canonical pose")
	}
	bounds, err := spatialmath.SkeletonBounds(joints, spatialmath.DefaultBoundsOffset)
	if err != nil {
		return nil, err
	}
	gtfms, err := body.CanonicalGlobalTransforms(joints)
	if err != nil {
		return nil, err
	}
	weights, err := body.MotionWeightVolume(joints, bounds)
	if err != nil {
		return nil, err
	}
	a.logger.Debugf("canonical state ready: bounds %v", bounds)
	return &CanonicalState{
		Joints:           joints,
		Bounds:           bounds,
		GlobalTransforms: gtfms,
		MotionWeights:    weights,
	}, nil
}

// Assemble builds the sample for one capture index.
func (a *Assembler) Assemble(idx int) (*Sample, error) {
	if idx < 0 || idx >= len(a.scene.Captures) {
		return nil, errors.Errorf("capture index %d out of range [0, %d)", idx, len(a.scene.Captures))
	}
	cap := a.scene.Captures[idx]
	params, err := a.poses.Frame(idx)
	if err != nil {
		return nil, err
	}

	h, w := cap.Size()
	intr := cap.Intrinsics()
	fovx, fovy := intr.FieldOfView()
	worldView := camera.WorldViewTransform(cap.Extrinsic())
	proj := camera.ProjectionMatrix(camera.DefaultNearClip, camera.DefaultFarClip, fovx, fovy)
	center, err := camera.CameraCenter(worldView)
	if err != nil {
		return nil, err
	}

	sample := &Sample{
		FrameIndex:    idx,
		FovX:          fovx,
		FovY:          fovy,
		ImageWidth:    w,
		ImageHeight:   h,
		WorldView:     worldView,
		CameraToWorld: cap.CamPose().CameraToWorld(),
		FullProj:      camera.FullProjection(worldView, proj),
		CameraCenter:  center,
		Intrinsics:    intr.Matrix(),
		Near:          camera.DefaultNearClip,
		Far:           camera.DefaultFarClip,
		Betas:         params.Betas,
		GlobalOrient:  params.GlobalOrient,
		BodyPose:      params.BodyPose,
		Transl:        params.Transl,
		Scale:         params.Scale,
		BGColor:       a.opts.BGColor,
	}

	if a.opts.Animation {
		sample.ManualRotation = a.opts.ManualRotation
		sample.ManualTranslation = a.opts.ManualTranslation
		sample.ManualScale = a.opts.ManualScale
		return sample, nil
	}
	if err := a.assembleRays(sample, cap, params); err != nil {
		return nil, errors.Wrapf(err, "error assembling frame %d", idx)
	}
	return sample, nil
}

func (a *Assembler) assembleRays(sample *Sample, cap scene.Capture, params scene.FrameParams) error {
	h, w := cap.Size()

	img, err := cap.Image()
	if err != nil {
		return err
	}
	rgb, err := imageColors(img, w, h)
	if err != nil {
		return err
	}
	mask, err := a.masks.Load(sample.FrameIndex)
	if err != nil {
		return err
	}
	if mask.Width != w || mask.Height != h {
		return errors.Errorf("mask size (%d, %d) does not match image (%d, %d)", mask.Width, mask.Height, w, h)
	}
	if a.opts.Mode == ModeScene {
		mask.Dilate(sceneModeDilateRadius)
	}
	sample.RGB = rgb
	sample.Mask = append([]float64(nil), mask.Data...)
	bbox2d, err := mask.BBox()
	if err != nil {
		return err
	}
	sample.SubjectBBox2D = bbox2d

	canonical, err := a.Canonical()
	if err != nil {
		return err
	}

	// Destination skeleton and box from the frame's body pose.
	dstPose, err := body.NewPoseFromBody(params.BodyPose)
	if err != nil {
		return err
	}
	_, dstJoints, err := a.model.Evaluate(dstPose, params.Betas)
	if err != nil {
		return errors.Wrap(err, "error evaluating frame pose")
	}
	dstBounds, err := spatialmath.SkeletonBounds(dstJoints, spatialmath.DefaultBoundsOffset)
	if err != nil {
		return err
	}

	// Camera in the subject's local frame: compose the global body motion
	// onto the extrinsic.
	ext, err := camera.ApplyGlobalTransform(cap.Extrinsic(), params.GlobalOrient, params.Transl)
	if err != nil {
		return err
	}
	rot := mat.DenseCopyOf(ext.Slice(0, 3, 0, 3))
	trans := r3.Vector{X: ext.At(0, 3), Y: ext.At(1, 3), Z: ext.At(2, 3)}.Mul(1 / a.scene.TranslScale)

	raysO, raysD, err := camera.GenerateRays(h, w, cap.Intrinsics(), rot, trans)
	if err != nil {
		return err
	}
	hits := spatialmath.IntersectRays(dstBounds, raysO, raysD)
	sample.RayMask = hits.Mask

	// Compact to box-intersecting rays.
	compactO := make([]r3.Vector, 0, hits.Hits())
	compactD := make([]r3.Vector, 0, hits.Hits())
	compactRGB := make([]r3.Vector, 0, hits.Hits())
	for i, m := range hits.Mask {
		if !m {
			continue
		}
		compactO = append(compactO, raysO[i])
		compactD = append(compactD, raysD[i])
		compactRGB = append(compactRGB, rgb[i])
	}

	// Patch selection within the silhouette.
	rng := rand.New(rand.NewSource(a.opts.Seed + int64(sample.FrameIndex)*1000003))
	patches, err := a.sampler.Sample(rng, hits.Mask, mask.Binary(0), h, w)
	if err != nil {
		return err
	}
	sample.PatchDivIndices = patches.DivIndices
	sample.PatchMasks = patches.Masks
	sample.PatchXYMin = patches.XYMin
	sample.PatchXYMax = patches.XYMax

	sample.RaysO = make([]r3.Vector, 0, len(patches.RayIndices))
	sample.RaysD = make([]r3.Vector, 0, len(patches.RayIndices))
	sample.RayNear = make([]float64, 0, len(patches.RayIndices))
	sample.RayFar = make([]float64, 0, len(patches.RayIndices))
	sample.TargetRGBs = make([]r3.Vector, 0, len(patches.RayIndices))
	for _, ri := range patches.RayIndices {
		sample.RaysO = append(sample.RaysO, compactO[ri])
		sample.RaysD = append(sample.RaysD, compactD[ri])
		sample.RayNear = append(sample.RayNear, hits.Near[ri])
		sample.RayFar = append(sample.RayFar, hits.Far[ri])
		sample.TargetRGBs = append(sample.TargetRGBs, compactRGB[ri])
	}

	// Target patches crop the background-substituted image.
	substituted := make([]r3.Vector, len(rgb))
	for i, c := range rgb {
		if mask.Data[i] == 0 {
			substituted[i] = a.opts.BGColor
		} else {
			substituted[i] = c
		}
	}
	for p := range patches.XYMin {
		xMin, yMin := patches.XYMin[p][0], patches.XYMin[p][1]
		xMax, yMax := patches.XYMax[p][0], patches.XYMax[p][1]
		crop := make([]r3.Vector, 0, (xMax-xMin)*(yMax-yMin))
		maskCrop := make([]float64, 0, (xMax-xMin)*(yMax-yMin))
		for y := yMin; y < yMax; y++ {
			for x := xMin; x < xMax; x++ {
				crop = append(crop, substituted[y*w+x])
				maskCrop = append(maskCrop, mask.Data[y*w+x])
			}
		}
		sample.TargetPatches = append(sample.TargetPatches, crop)
		sample.TargetPatchMasks = append(sample.TargetPatchMasks, maskCrop)
	}

	// Canonical-frame transforms and pose vector.
	tfms, err := body.PoseToRigidTransforms(dstPose, canonical.Joints)
	if err != nil {
		return err
	}
	sample.DstRs = tfms.Rotations
	sample.DstTs = tfms.Translations
	sample.CnlGtfms = canonical.GlobalTransforms
	sample.MotionWeights = canonical.MotionWeights
	sample.CnlBBoxMin = canonical.Bounds.Min
	sample.CnlBBoxMax = canonical.Bounds.Max
	size := canonical.Bounds.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return errors.Errorf("degenerate canonical bounds %v", canonical.Bounds)
	}
	sample.CnlBBoxScale = r3.Vector{X: 2 / size.X, Y: 2 / size.Y, Z: 2 / size.Z}
	sample.DstPoseVec = dstPose.Biased()
	return nil
}

// imageColors flattens an image into normalized per-pixel colors, row-major.
func imageColors(img image.Image, w, h int) ([]r3.Vector, error) {
	bounds := img.Bounds()
	if bounds.Dx() != w || bounds.Dy() != h {
		return nil, errors.Errorf("image size (%d, %d) does not match camera (%d, %d)", bounds.Dx(), bounds.Dy(), w, h)
	}
	out := make([]r3.Vector, 0, w*h)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, r3.Vector{
				X: float64(r) / 0xffff,
				Y: float64(g) / 0xffff,
				Z: float64(b) / 0xffff,
			})
		}
	}
	return out, nil
}

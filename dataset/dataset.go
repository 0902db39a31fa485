package dataset

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/humanray/humanray/body"
	"github.com/humanray/humanray/mocap"
	"github.com/humanray/humanray/pointcloud"
	"github.com/humanray/humanray/scene"
)

// Split names one subset of a scene's captures.
type Split string

// Splits of a captured sequence.
const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
	SplitAnim  Split = "anim"
)

// Config selects and tunes one dataset split.
type Config struct {
	Split Split
	// Eager materializes every sample up front instead of assembling on
	// access.
	Eager      bool
	Mode       string
	NumPatches int
	PatchSize  int
	Seed       int64
	BGColor    r3.Vector
	// BackgroundPoints, when positive, augments the scene cloud with that
	// many sphere points surrounding the captures.
	BackgroundPoints int
}

// Dataset serves assembled samples for one split of a scene.
type Dataset struct {
	scene *scene.Scene
	split Split
	store Store
}

// New builds a dataset over the given split of a captured scene.
func New(
	scn *scene.Scene,
	poses *scene.PoseStore,
	masks *scene.MaskStore,
	model body.Model,
	cfg Config,
	logger golog.Logger,
) (*Dataset, error) {
	if scn == nil {
		return nil, errors.New("dataset needs a scene")
	}
	train, val, test, err := Splits(len(scn.Captures))
	if err != nil {
		return nil, err
	}
	var indices []int
	switch cfg.Split {
	case SplitTrain, "":
		indices = train
	case SplitVal:
		indices = val
	case SplitTest:
		indices = test
	default:
		return nil, errors.Errorf("undefined split %q", cfg.Split)
	}

	scn = augmentBackground(scn, cfg)
	assembler, err := NewAssembler(scn, poses, masks, model, Options{
		Mode:       cfg.Mode,
		NumPatches: cfg.NumPatches,
		PatchSize:  cfg.PatchSize,
		BGColor:    cfg.BGColor,
		Seed:       cfg.Seed,
	}, logger)
	if err != nil {
		return nil, err
	}
	store, err := newStore(assembler, indices, cfg.Eager, logger)
	if err != nil {
		return nil, err
	}
	logger.Infow("dataset ready", "scene", scn.Name, "split", cfg.Split, "frames", len(indices))
	return &Dataset{scene: scn, split: cfg.Split, store: store}, nil
}

// NewAnimationDataset builds a dataset that replays a motion-capture
// sequence through a synthesized camera path. Poses come from the mocap
// archive with the subject's fitted mean shape; each sample carries the
// scene's manual alignment transform instead of image supervision.
func NewAnimationDataset(
	scn *scene.Scene,
	poses *scene.PoseStore,
	model body.Model,
	sc mocap.SceneConfig,
	cfg Config,
	logger golog.Logger,
) (*Dataset, error) {
	if scn == nil || poses == nil {
		return nil, errors.New("animation dataset needs a scene and pose store")
	}
	ref := sc.CameraPath.Reference
	if ref < 0 || ref >= len(scn.Captures) {
		return nil, errors.Errorf("camera path reference %d out of range [0, %d)", ref, len(scn.Captures))
	}

	seq, err := mocap.LoadSequence(sc.Mocap)
	if err != nil {
		return nil, err
	}
	frames, err := seq.Frames(poses.MeanBetas())
	if err != nil {
		return nil, err
	}
	animPoses, err := scene.NewPoseStore(frames)
	if err != nil {
		return nil, err
	}

	refCap := scn.Captures[ref]
	camPoses, err := sc.CameraPath.GeneratePoses(refCap.CamPose(), seq.NumFrames())
	if err != nil {
		return nil, err
	}
	captures := make([]scene.Capture, 0, len(camPoses))
	for _, pose := range camPoses {
		captures = append(captures, scene.NewVirtualCapture(refCap.Intrinsics(), pose))
	}
	animScene := &scene.Scene{
		Name:        scn.Name,
		Captures:    captures,
		Cloud:       scn.Cloud,
		TranslScale: scn.TranslScale,
	}
	animScene = augmentBackground(animScene, cfg)

	assembler, err := NewAssembler(animScene, animPoses, nil, model, Options{
		BGColor:           cfg.BGColor,
		Seed:              cfg.Seed,
		Animation:         true,
		ManualRotation:    sc.Alignment.RotationMatrix(),
		ManualTranslation: sc.Alignment.TranslationVec(),
		ManualScale:       sc.Alignment.Scale,
	}, logger)
	if err != nil {
		return nil, err
	}
	indices := make([]int, seq.NumFrames())
	for i := range indices {
		indices[i] = i
	}
	store, err := newStore(assembler, indices, cfg.Eager, logger)
	if err != nil {
		return nil, err
	}
	logger.Infow("animation dataset ready", "scene", scn.Name, "frames", len(indices))
	return &Dataset{scene: animScene, split: SplitAnim, store: store}, nil
}

func newStore(assembler *Assembler, indices []int, eager bool, logger golog.Logger) (Store, error) {
	if eager {
		return NewEagerStore(assembler, indices, logger)
	}
	return NewLazyStore(assembler, indices), nil
}

// augmentBackground returns a shallow copy of the scene whose cloud gains a
// surrounding sphere of points, leaving the caller's scene untouched.
func augmentBackground(scn *scene.Scene, cfg Config) *scene.Scene {
	if cfg.BackgroundPoints <= 0 || scn.Cloud == nil {
		return scn
	}
	center, _ := pointcloud.CenterAndDiag(scn.CameraCenters())
	sphere := pointcloud.BackgroundSphere(cfg.BackgroundPoints, center, scn.Radius(), 2, cfg.Seed)
	cloud := &pointcloud.Cloud{
		Points: append([]r3.Vector(nil), scn.Cloud.Points...),
		Colors: append([]r3.Vector(nil), scn.Cloud.Colors...),
	}
	cloud.Merge(sphere)
	out := *scn
	out.Cloud = cloud
	return &out
}

// Len returns the number of samples in the split.
func (d *Dataset) Len() int {
	return d.store.Len()
}

// Get returns the sample at position i within the split.
func (d *Dataset) Get(i int) (*Sample, error) {
	return d.store.Get(i)
}

// Split returns the split this dataset serves.
func (d *Dataset) Split() Split {
	return d.split
}

// Scene returns the (possibly augmented) scene behind the dataset.
func (d *Dataset) Scene() *scene.Scene {
	return d.scene
}

// Radius returns the scene's normalization radius.
func (d *Dataset) Radius() float64 {
	return d.scene.Radius()
}

package dataset

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/body"
)

// Sample is the per-frame record consumed by training, evaluation, or
// animation rendering. Samples are immutable once assembled; the
// motion-weight volume and canonical transforms are shared across frames
// and must be treated as read-only.
type Sample struct {
	FrameIndex int

	// Camera.
	FovX          float64
	FovY          float64
	ImageWidth    int
	ImageHeight   int
	WorldView     *mat.Dense // 4x4, transposed world-to-camera
	CameraToWorld *mat.Dense // 4x4
	FullProj      *mat.Dense // 4x4
	CameraCenter  r3.Vector
	Intrinsics    *mat.Dense // 3x3
	Near          float64
	Far           float64

	// Body parameters of the frame.
	Betas        body.Shape
	GlobalOrient r3.Vector
	BodyPose     []float64
	Transl       r3.Vector
	Scale        float64

	// Target image data (training/validation only).
	RGB           []r3.Vector // one color per pixel, row-major
	Mask          []float64   // subject silhouette in [0, 1]
	SubjectBBox2D [4]int      // tight pixel box [xMin, yMin, xMax, yMax]

	// Ray batch, compacted to box-intersecting rays and then selected by
	// the patch sample.
	RayMask    []bool
	RaysO      []r3.Vector
	RaysD      []r3.Vector
	RayNear    []float64
	RayFar     []float64
	TargetRGBs []r3.Vector
	BGColor    r3.Vector

	// Patch selection.
	PatchDivIndices  []int
	PatchMasks       [][]bool
	PatchXYMin       [][2]int
	PatchXYMax       [][2]int
	TargetPatches    [][]r3.Vector // background-substituted crops
	TargetPatchMasks [][]float64

	// Canonical-frame metadata.
	DstRs           []*mat.Dense
	DstTs           []r3.Vector
	CnlGtfms        []*mat.Dense
	MotionWeights   *body.WeightVolume
	CnlBBoxMin      r3.Vector
	CnlBBoxMax      r3.Vector
	CnlBBoxScale    r3.Vector
	DstPoseVec      []float64

	// Animation mode only: manual mocap-to-scene alignment.
	ManualRotation    *mat.Dense
	ManualTranslation r3.Vector
	ManualScale       float64
}

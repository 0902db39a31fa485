package dataset

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/humanray/humanray/body"
	"github.com/humanray/humanray/scene"
)

// rigModel is a body model stub with a fixed skeleton floating in front of
// the test cameras, independent of pose and shape.
type rigModel struct{}

func (rigModel) Evaluate(pose body.Pose, shape body.Shape) ([]r3.Vector, []r3.Vector, error) {
	joints := make([]r3.Vector, body.NumJoints)
	for i := range joints {
		joints[i] = r3.Vector{
			X: -2 + 4*float64(i)/float64(body.NumJoints-1),
			Y: -1 + 2*float64(i%2),
			Z: 4,
		}
	}
	return nil, joints, nil
}

const testW, testH = 16, 12

func writeSceneDir(t *testing.T, nCaptures int) string {
	t.Helper()
	dir := t.TempDir()
	test.That(t, os.MkdirAll(filepath.Join(dir, "images"), 0o750), test.ShouldBeNil)

	var captures []string
	for i := 0; i < nCaptures; i++ {
		captures = append(captures, fmt.Sprintf(`    {
      "image": "images/%04d.png",
      "intrinsics": {"width_px": %d, "height_px": %d, "fx": 4, "fy": 4, "ppx": 8, "ppy": 6},
      "extrinsic": [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0]
    }`, i, testW, testH))
	}
	manifest := fmt.Sprintf(
		"{\n  \"name\": \"lab\",\n  \"captures\": [\n%s\n  ]\n}", strings.Join(captures, ",\n"))
	test.That(t, os.WriteFile(filepath.Join(dir, scene.ManifestName), []byte(manifest), 0o600), test.ShouldBeNil)

	img := image.NewNRGBA(image.Rect(0, 0, testW, testH))
	for y := 0; y < testH; y++ {
		for x := 0; x < testW; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 15), G: uint8(y * 20), B: 90, A: 255})
		}
	}
	for i := 0; i < nCaptures; i++ {
		fn := filepath.Join(dir, "images", fmt.Sprintf("%04d.png", i))
		test.That(t, imaging.Save(img, fn), test.ShouldBeNil)
	}
	return dir
}

func writeMaskDir(t *testing.T, nFrames int) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, testW, testH))
	for y := 5; y <= 7; y++ {
		for x := 7; x <= 9; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for i := 0; i < nFrames; i++ {
		fn := filepath.Join(dir, fmt.Sprintf("%04d.png", i))
		test.That(t, imaging.Save(img, fn), test.ShouldBeNil)
	}
	return dir
}

func testFrames(n int) []scene.FrameParams {
	frames := make([]scene.FrameParams, n)
	for i := range frames {
		frames[i] = scene.FrameParams{
			Betas:    make(body.Shape, body.ShapeDim),
			BodyPose: make([]float64, body.BodyPoseDim),
			Scale:    1,
		}
	}
	return frames
}

func newTestAssembler(t *testing.T, nCaptures int, opts Options) *Assembler {
	t.Helper()
	logger := golog.NewTestLogger(t)
	scn, err := scene.ReadScene(writeSceneDir(t, nCaptures), logger)
	test.That(t, err, test.ShouldBeNil)
	poses, err := scene.NewPoseStore(testFrames(nCaptures))
	test.That(t, err, test.ShouldBeNil)
	masks, err := scene.NewMaskStore(writeMaskDir(t, nCaptures))
	test.That(t, err, test.ShouldBeNil)

	assembler, err := NewAssembler(scn, poses, masks, rigModel{}, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	return assembler
}

func TestAssemble(t *testing.T) {
	assembler := newTestAssembler(t, 2, Options{NumPatches: 1, PatchSize: 4, Seed: 3})

	sample, err := assembler.Assemble(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.FrameIndex, test.ShouldEqual, 0)
	test.That(t, sample.ImageWidth, test.ShouldEqual, testW)
	test.That(t, sample.ImageHeight, test.ShouldEqual, testH)
	test.That(t, sample.FovX, test.ShouldAlmostEqual, 2*math.Atan(2))
	test.That(t, sample.RGB, test.ShouldHaveLength, testW*testH)
	test.That(t, sample.Mask, test.ShouldHaveLength, testW*testH)
	test.That(t, sample.SubjectBBox2D, test.ShouldResemble, [4]int{7, 5, 9, 7})

	// Rays through the image center hit the skeleton box; far corners miss.
	test.That(t, sample.RayMask, test.ShouldHaveLength, testW*testH)
	test.That(t, sample.RayMask[6*testW+8], test.ShouldBeTrue)
	test.That(t, sample.RayMask[0], test.ShouldBeFalse)

	n := len(sample.RaysO)
	test.That(t, n, test.ShouldBeGreaterThan, 0)
	test.That(t, sample.RaysD, test.ShouldHaveLength, n)
	test.That(t, sample.RayNear, test.ShouldHaveLength, n)
	test.That(t, sample.RayFar, test.ShouldHaveLength, n)
	test.That(t, sample.TargetRGBs, test.ShouldHaveLength, n)
	test.That(t, sample.PatchDivIndices[len(sample.PatchDivIndices)-1], test.ShouldEqual, n)
	for i := range sample.RayNear {
		test.That(t, sample.RayNear[i], test.ShouldBeLessThan, sample.RayFar[i])
		test.That(t, sample.RayNear[i], test.ShouldBeGreaterThan, 3)
	}

	test.That(t, sample.PatchMasks, test.ShouldHaveLength, 1)
	test.That(t, sample.TargetPatches[0], test.ShouldHaveLength, 16)
	test.That(t, sample.TargetPatchMasks[0], test.ShouldHaveLength, 16)

	test.That(t, sample.DstRs, test.ShouldHaveLength, body.NumJoints)
	test.That(t, sample.DstTs, test.ShouldHaveLength, body.NumJoints)
	test.That(t, sample.CnlGtfms, test.ShouldHaveLength, body.NumJoints)
	test.That(t, sample.MotionWeights, test.ShouldNotBeNil)
	test.That(t, sample.CnlBBoxScale.X, test.ShouldBeGreaterThan, 0.0)
	test.That(t, sample.DstPoseVec, test.ShouldHaveLength, body.BodyPoseDim)
	test.That(t, sample.DstPoseVec[0], test.ShouldAlmostEqual, body.PoseBias)
}

func TestAssembleDeterministic(t *testing.T) {
	assembler := newTestAssembler(t, 2, Options{NumPatches: 1, PatchSize: 4, Seed: 3})

	a, err := assembler.Assemble(1)
	test.That(t, err, test.ShouldBeNil)
	b, err := assembler.Assemble(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.PatchXYMin, test.ShouldResemble, b.PatchXYMin)
	test.That(t, a.RaysO, test.ShouldResemble, b.RaysO)
	test.That(t, a.TargetRGBs, test.ShouldResemble, b.TargetRGBs)
}

func TestAssembleBackgroundSubstitution(t *testing.T) {
	bg := r3.Vector{X: 1, Y: 0, Z: 1}
	assembler := newTestAssembler(t, 2, Options{NumPatches: 1, PatchSize: 4, Seed: 3, BGColor: bg})

	sample, err := assembler.Assemble(0)
	test.That(t, err, test.ShouldBeNil)
	// The 4x4 patch around the 3x3 silhouette contains background pixels;
	// those must carry the substituted color.
	substituted := 0
	for i, m := range sample.TargetPatchMasks[0] {
		if m == 0 {
			test.That(t, sample.TargetPatches[0][i], test.ShouldResemble, bg)
			substituted++
		}
	}
	test.That(t, substituted, test.ShouldBeGreaterThan, 0)
}

func TestAssembleAnimation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	scn, err := scene.ReadScene(writeSceneDir(t, 2), logger)
	test.That(t, err, test.ShouldBeNil)
	poses, err := scene.NewPoseStore(testFrames(2))
	test.That(t, err, test.ShouldBeNil)

	assembler, err := NewAssembler(scn, poses, nil, rigModel{}, Options{
		Animation:         true,
		ManualTranslation: r3.Vector{X: 1},
		ManualScale:       2,
	}, logger)
	test.That(t, err, test.ShouldBeNil)

	sample, err := assembler.Assemble(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.RGB, test.ShouldBeNil)
	test.That(t, sample.RaysO, test.ShouldBeNil)
	test.That(t, sample.ManualScale, test.ShouldAlmostEqual, 2)
	test.That(t, sample.ManualTranslation.X, test.ShouldAlmostEqual, 1)
	test.That(t, sample.WorldView, test.ShouldNotBeNil)
	test.That(t, sample.FullProj, test.ShouldNotBeNil)
}

func TestNewAssemblerValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	scn, err := scene.ReadScene(writeSceneDir(t, 2), logger)
	test.That(t, err, test.ShouldBeNil)
	poses, err := scene.NewPoseStore(testFrames(2))
	test.That(t, err, test.ShouldBeNil)

	// No mask store outside animation mode.
	_, err = NewAssembler(scn, poses, nil, rigModel{}, Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	// Fewer pose frames than captures.
	short, err := scene.NewPoseStore(testFrames(1))
	test.That(t, err, test.ShouldBeNil)
	masks, err := scene.NewMaskStore(writeMaskDir(t, 2))
	test.That(t, err, test.ShouldBeNil)
	_, err = NewAssembler(scn, short, masks, rigModel{}, Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	assembler, err := NewAssembler(scn, poses, masks, rigModel{}, Options{NumPatches: 1, PatchSize: 4}, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = assembler.Assemble(5)
	test.That(t, err, test.ShouldNotBeNil)
}

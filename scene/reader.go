package scene

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/camera"
	"github.com/humanray/humanray/pointcloud"
)

// ManifestName is the capture manifest file expected inside a scene directory.
const ManifestName = "manifest.json"

type captureConfig struct {
	ImagePath  string            `json:"image"`
	Intrinsics camera.Intrinsics `json:"intrinsics"`
	// Extrinsic is the row-major world-to-camera matrix, 12 (3x4) or 16
	// (4x4) values.
	Extrinsic []float64 `json:"extrinsic"`
}

type sceneManifest struct {
	Name        string          `json:"name"`
	PointCloud  string          `json:"point_cloud"`
	TranslScale float64         `json:"transl_scale"`
	Captures    []captureConfig `json:"captures"`
}

// ReadScene loads a scene directory: its manifest, cameras, and point cloud.
// Images are opened lazily per capture.
func ReadScene(dir string, logger golog.Logger) (*Scene, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, errors.Wrapf(err, "error opening scene manifest in %q", dir)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading scene manifest")
	}
	var manifest sceneManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, errors.Wrap(err, "error parsing scene manifest")
	}
	if len(manifest.Captures) == 0 {
		return nil, errors.Errorf("scene %q has no captures", manifest.Name)
	}

	scn := &Scene{
		Name:        manifest.Name,
		Captures:    make([]Capture, 0, len(manifest.Captures)),
		TranslScale: manifest.TranslScale,
	}
	if scn.TranslScale == 0 {
		scn.TranslScale = 1
	}
	for i, cc := range manifest.Captures {
		cap, err := newFileCapture(dir, cc)
		if err != nil {
			return nil, errors.Wrapf(err, "error in capture %d", i)
		}
		scn.Captures = append(scn.Captures, cap)
	}

	points := 0
	if manifest.PointCloud != "" {
		cloud, err := pointcloud.NewFromFile(filepath.Join(dir, manifest.PointCloud), logger)
		if err != nil {
			return nil, err
		}
		scn.Cloud = cloud
		points = cloud.Size()
	}
	logger.Infof("scene %q: %d captures, %d cloud points", scn.Name, len(scn.Captures), points)
	return scn, nil
}

func newFileCapture(dir string, cc captureConfig) (Capture, error) {
	if err := cc.Intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	var ext *mat.Dense
	switch len(cc.Extrinsic) {
	case 12:
		ext = mat.NewDense(3, 4, cc.Extrinsic)
	case 16:
		ext = mat.NewDense(4, 4, cc.Extrinsic)
	default:
		return nil, errors.Errorf("extrinsic must have 12 or 16 values, got %d", len(cc.Extrinsic))
	}
	pose, err := camera.NewPoseFromExtrinsic(ext)
	if err != nil {
		return nil, err
	}
	intr := cc.Intrinsics
	return &fileCapture{
		imagePath:  filepath.Join(dir, cc.ImagePath),
		intrinsics: &intr,
		extrinsic:  pose.WorldToCamera(),
		pose:       pose,
	}, nil
}

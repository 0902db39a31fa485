// Package scene exposes a captured video sequence to sample preparation:
// per-frame cameras and images, the sparse scene point cloud, the subject
// silhouette masks, and the fitted body-model parameters.
package scene

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/camera"
	"github.com/humanray/humanray/pointcloud"
)

// Capture is one frame of a captured sequence: an image and the camera that
// took it.
type Capture interface {
	// Image loads the captured image.
	Image() (image.Image, error)
	// Intrinsics returns the pinhole parameters of the capturing camera.
	Intrinsics() *camera.Intrinsics
	// Extrinsic returns the 4x4 world-to-camera matrix.
	Extrinsic() *mat.Dense
	// CamPose returns the camera pose with its world-frame basis accessors.
	CamPose() *camera.Pose
	// Size returns the image dimensions (height, width).
	Size() (int, int)
}

// Scene is an ordered sequence of captures plus the initial scene cloud.
type Scene struct {
	Name     string
	Captures []Capture
	Cloud    *pointcloud.Cloud
	// TranslScale divides the destination extrinsic translation; per-scene
	// calibration data, 1 when unset.
	TranslScale float64
}

// CameraCenters returns the world-space camera centers of all captures.
func (s *Scene) CameraCenters() []r3.Vector {
	centers := make([]r3.Vector, 0, len(s.Captures))
	for _, cap := range s.Captures {
		centers = append(centers, cap.CamPose().Center())
	}
	return centers
}

// Radius returns 1.1x the largest camera-center distance from the mean
// camera center, the spatial extent the renderer normalizes against.
func (s *Scene) Radius() float64 {
	_, diag := pointcloud.CenterAndDiag(s.CameraCenters())
	return diag * 1.1
}

// fileCapture is a Capture backed by an image file on disk.
type fileCapture struct {
	imagePath  string
	intrinsics *camera.Intrinsics
	extrinsic  *mat.Dense
	pose       *camera.Pose
}

func (c *fileCapture) Image() (image.Image, error) {
	img, err := imaging.Open(c.imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading capture image %q", c.imagePath)
	}
	return img, nil
}

func (c *fileCapture) Intrinsics() *camera.Intrinsics { return c.intrinsics }
func (c *fileCapture) Extrinsic() *mat.Dense          { return mat.DenseCopyOf(c.extrinsic) }
func (c *fileCapture) CamPose() *camera.Pose          { return c.pose }
func (c *fileCapture) Size() (int, int)               { return c.intrinsics.Height, c.intrinsics.Width }

// virtualCapture is a synthesized camera with no backing image, used for
// animation rendering paths.
type virtualCapture struct {
	intrinsics *camera.Intrinsics
	pose       *camera.Pose
}

// NewVirtualCapture wraps a synthesized camera pose as a Capture.
func NewVirtualCapture(intrinsics *camera.Intrinsics, pose *camera.Pose) Capture {
	return &virtualCapture{intrinsics: intrinsics, pose: pose}
}

func (c *virtualCapture) Image() (image.Image, error) {
	return nil, errors.New("virtual capture has no image")
}

func (c *virtualCapture) Intrinsics() *camera.Intrinsics { return c.intrinsics }
func (c *virtualCapture) Extrinsic() *mat.Dense          { return c.pose.WorldToCamera() }
func (c *virtualCapture) CamPose() *camera.Pose          { return c.pose }
func (c *virtualCapture) Size() (int, int)               { return c.intrinsics.Height, c.intrinsics.Width }

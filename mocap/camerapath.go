package mocap

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/humanray/humanray/camera"
)

// Camera path kinds.
const (
	PathEllipse = "ellipse"
	PathLinear  = "linear"
)

// CameraPathConfig describes how to synthesize one virtual camera per output
// frame, as offsets from a fixed reference capture.
type CameraPathConfig struct {
	Kind string `json:"kind"`
	// Reference is the capture index whose pose anchors the path.
	Reference  int                    `json:"reference"`
	Attributes map[string]interface{} `json:"attributes"`
}

// EllipseAttributes sweep the camera center along an ellipse in the
// reference camera's right/up plane.
type EllipseAttributes struct {
	A             float64 `mapstructure:"a"`
	B             float64 `mapstructure:"b"`
	Cycles        float64 `mapstructure:"cycles"`
	XOffset       float64 `mapstructure:"x_offset"`
	ForwardOffset float64 `mapstructure:"forward_offset"`
}

// LinearAttributes slide the camera center along the reference camera's
// right axis at a fixed interval per frame.
type LinearAttributes struct {
	Interval float64 `mapstructure:"interval"`
	Negate   bool    `mapstructure:"negate"`
}

// GeneratePoses synthesizes n camera poses offset from the reference pose.
// The rotation is held fixed; only the camera center moves.
func (cp CameraPathConfig) GeneratePoses(ref *camera.Pose, n int) ([]*camera.Pose, error) {
	if n <= 0 {
		return nil, errors.Errorf("camera path needs a positive frame count, got %d", n)
	}
	rot := ref.Rotation()
	center := ref.Center()
	right, up, forward := ref.Right(), ref.Up(), ref.Forward()

	poses := make([]*camera.Pose, 0, n)
	switch cp.Kind {
	case PathEllipse:
		var attrs EllipseAttributes
		if err := mapstructure.Decode(cp.Attributes, &attrs); err != nil {
			return nil, errors.Wrap(err, "invalid ellipse camera path attributes")
		}
		if attrs.Cycles == 0 {
			attrs.Cycles = 1
		}
		for i := 0; i < n; i++ {
			phase := attrs.Cycles * float64(i) / float64(n) * 2 * math.Pi
			c := center.
				Add(right.Mul(attrs.A*math.Cos(phase) + attrs.XOffset)).
				Add(up.Mul(attrs.B * math.Sin(phase))).
				Add(forward.Mul(attrs.ForwardOffset))
			pose, err := camera.NewPoseFromRotationAndCenter(rot, c)
			if err != nil {
				return nil, err
			}
			poses = append(poses, pose)
		}
	case PathLinear:
		var attrs LinearAttributes
		if err := mapstructure.Decode(cp.Attributes, &attrs); err != nil {
			return nil, errors.Wrap(err, "invalid linear camera path attributes")
		}
		step := attrs.Interval
		if attrs.Negate {
			step = -step
		}
		for i := 0; i < n; i++ {
			pose, err := camera.NewPoseFromRotationAndCenter(rot, center.Add(right.Mul(step*float64(i))))
			if err != nil {
				return nil, err
			}
			poses = append(poses, pose)
		}
	default:
		return nil, errors.Errorf("undefined camera path kind %q", cp.Kind)
	}
	return poses, nil
}

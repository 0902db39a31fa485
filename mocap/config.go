// Package mocap drives animation-mode sample preparation: retargeting an
// external motion-capture sequence onto the fitted subject and synthesizing
// a virtual camera path through the scene.
//
// Per-scene constants (mocap trim windows, manual rigid alignment, camera
// paths) are data, not code: they load from a JSON lookup table keyed by
// scene name, and an unknown scene is an explicit error.
package mocap

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/humanray/humanray/spatialmath"
)

// ErrUnknownScene is returned when a scene has no entry in the lookup
// table. There is deliberately no default configuration: a made-up camera
// path is worse than a loud failure.
var ErrUnknownScene = errors.New("scene has no mocap configuration")

// Source locates a motion-capture archive and its trim window.
type Source struct {
	Path string `json:"path"`
	// Start/End/Skip slice the pose sequence as [start:end:skip].
	Start int `json:"start"`
	End   int `json:"end"`
	Skip  int `json:"skip"`
}

// Alignment is the hand-tuned rigid transform placing the mocap subject in
// the scene.
type Alignment struct {
	RotationDeg [3]float64 `json:"rotation_deg"`
	Translation [3]float64 `json:"translation"`
	Scale       float64    `json:"scale"`
}

// RotationMatrix converts the Euler angles (degrees, static xyz order) to a
// rotation matrix.
func (a Alignment) RotationMatrix() *mat.Dense {
	const degToRad = math.Pi / 180
	return spatialmath.EulerXYZ(
		a.RotationDeg[0]*degToRad,
		a.RotationDeg[1]*degToRad,
		a.RotationDeg[2]*degToRad,
	)
}

// TranslationVec returns the alignment translation as a vector.
func (a Alignment) TranslationVec() r3.Vector {
	return r3.Vector{X: a.Translation[0], Y: a.Translation[1], Z: a.Translation[2]}
}

// SceneConfig is one scene's animation configuration.
type SceneConfig struct {
	Mocap      Source           `json:"mocap"`
	Alignment  Alignment        `json:"alignment"`
	CameraPath CameraPathConfig `json:"camera_path"`
}

// Config is the full lookup table.
type Config struct {
	Scenes map[string]SceneConfig `json:"scenes"`
}

// LoadConfig reads the lookup table from a JSON file.
func LoadConfig(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening mocap config %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading mocap config")
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing mocap config")
	}
	return &cfg, nil
}

// Scene looks up the configuration for a scene by name.
func (c *Config) Scene(name string) (SceneConfig, error) {
	sc, ok := c.Scenes[name]
	if !ok {
		return SceneConfig{}, errors.Wrapf(ErrUnknownScene, "scene %q", name)
	}
	if sc.Mocap.Skip <= 0 {
		sc.Mocap.Skip = 1
	}
	if sc.Alignment.Scale == 0 {
		sc.Alignment.Scale = 1
	}
	return sc, nil
}

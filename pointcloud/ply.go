package pointcloud

import (
	"os"
	"path/filepath"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// NewFromFile returns a point cloud read in from the given file.
func NewFromFile(fn string, logger golog.Logger) (*Cloud, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		return NewFromPLYFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// NewFromPLYFile reads a scene point cloud from a PLY file. Color channels
// are normalized from 0-255 to [0, 1]; clouds without color get zeros and a
// warning.
func NewFromPLYFile(fn string, logger golog.Logger) (*Cloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening PLY file %q", fn)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	ply := goply.New(f)
	vertices := ply.Elements("vertex")
	if len(vertices) == 0 {
		return nil, errors.Errorf("PLY file %q has no vertices", fn)
	}

	cloud := &Cloud{
		Points: make([]r3.Vector, 0, len(vertices)),
		Colors: make([]r3.Vector, 0, len(vertices)),
	}
	_, hasColor := vertices[0]["red"]
	if !hasColor {
		logger.Warnf("PLY file %q has no color channels, using zeros", fn)
	}
	for _, v := range vertices {
		x, err := asFloat(v["x"])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid vertex in %q", fn)
		}
		y, err := asFloat(v["y"])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid vertex in %q", fn)
		}
		z, err := asFloat(v["z"])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid vertex in %q", fn)
		}
		cloud.Points = append(cloud.Points, r3.Vector{X: x, Y: y, Z: z})

		var color r3.Vector
		if hasColor {
			r, err := asFloat(v["red"])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid color in %q", fn)
			}
			g, err := asFloat(v["green"])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid color in %q", fn)
			}
			b, err := asFloat(v["blue"])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid color in %q", fn)
			}
			color = r3.Vector{X: r / 255., Y: g / 255., Z: b / 255.}
		}
		cloud.Colors = append(cloud.Colors, color)
	}
	logger.Debugf("loaded %d points from %q", cloud.Size(), fn)
	return cloud, nil
}

func asFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int:
		return float64(t), nil
	default:
		return 0, errors.Errorf("unsupported PLY property type %T", v)
	}
}

package scene

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ErrEmptyMask is returned when an operation needs at least one foreground
// pixel and the mask has none.
var ErrEmptyMask = errors.New("subject mask has no foreground pixels")

// Mask is a single-channel subject silhouette with values in [0, 1],
// row-major.
type Mask struct {
	Width  int
	Height int
	Data   []float64
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) float64 {
	return m.Data[y*m.Width+x]
}

// Binary thresholds the mask into a flat boolean silhouette.
func (m *Mask) Binary(threshold float64) []bool {
	out := make([]bool, len(m.Data))
	for i, v := range m.Data {
		out[i] = v > threshold
	}
	return out
}

// Dilate grows the foreground by a square structuring element of the given
// radius, in place, and returns the mask. Scene-only rendering dilates the
// subject out of the background supervision region.
func (m *Mask) Dilate(radius int) *Mask {
	if radius <= 0 {
		return m
	}
	// Separable box max filter: rows, then columns.
	tmp := make([]float64, len(m.Data))
	for y := 0; y < m.Height; y++ {
		row := m.Data[y*m.Width : (y+1)*m.Width]
		for x := 0; x < m.Width; x++ {
			maxV := 0.0
			for dx := -radius; dx <= radius; dx++ {
				if x+dx < 0 || x+dx >= m.Width {
					continue
				}
				if row[x+dx] > maxV {
					maxV = row[x+dx]
				}
			}
			tmp[y*m.Width+x] = maxV
		}
	}
	for x := 0; x < m.Width; x++ {
		for y := 0; y < m.Height; y++ {
			maxV := 0.0
			for dy := -radius; dy <= radius; dy++ {
				if y+dy < 0 || y+dy >= m.Height {
					continue
				}
				if tmp[(y+dy)*m.Width+x] > maxV {
					maxV = tmp[(y+dy)*m.Width+x]
				}
			}
			m.Data[y*m.Width+x] = maxV
		}
	}
	return m
}

// BBox returns the tight pixel bounding box [xMin, yMin, xMax, yMax]
// (inclusive) of the mask's foreground.
func (m *Mask) BBox() ([4]int, error) {
	xMin, yMin := m.Width, m.Height
	xMax, yMax := -1, -1
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) <= 0 {
				continue
			}
			if x < xMin {
				xMin = x
			}
			if x > xMax {
				xMax = x
			}
			if y < yMin {
				yMin = y
			}
			if y > yMax {
				yMax = y
			}
		}
	}
	if xMax < 0 {
		return [4]int{}, ErrEmptyMask
	}
	return [4]int{xMin, yMin, xMax, yMax}, nil
}

// MaskStore serves the per-frame segmentation mask files of a sequence.
type MaskStore struct {
	files []string
}

// NewMaskStore indexes the mask image files of a directory in name order.
func NewMaskStore(dir string) (*MaskStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading mask directory %q", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no mask files in %q", dir)
	}
	sort.Strings(files)
	return &MaskStore{files: files}, nil
}

// NumFrames returns the number of indexed mask files.
func (s *MaskStore) NumFrames() int {
	return len(s.files)
}

// Load reads the mask for a frame index, normalized to [0, 1].
func (s *MaskStore) Load(idx int) (*Mask, error) {
	if idx < 0 || idx >= len(s.files) {
		return nil, errors.Errorf("mask index %d out of range [0, %d)", idx, len(s.files))
	}
	img, err := imaging.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "error loading mask %q", s.files[idx])
	}
	return MaskFromImage(img), nil
}

// MaskFromImage converts an image to a normalized single-channel mask using
// its luminance.
func MaskFromImage(img image.Image) *Mask {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := &Mask{Width: w, Height: h, Data: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Grayscale output has R == G == B.
			i := gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			m.Data[y*w+x] = float64(gray.Pix[i]) / 255.
		}
	}
	return m
}

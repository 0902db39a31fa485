// Package npz reads NumPy ".npz" archives, the interchange format the
// upstream body-fitting and mocap pipelines emit.
package npz

import (
	"archive/zip"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"go.viam.com/utils"
)

// Array is one named array of an archive, flattened row-major.
type Array struct {
	Shape []int
	Data  []float64
}

// Len returns the total element count implied by the shape.
func (a Array) Len() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Rows treats the array as 2D (collapsing any leading dimensions) and
// returns the number of rows for the given row width.
func (a Array) Rows(width int) (int, error) {
	if width <= 0 || len(a.Data)%width != 0 {
		return 0, errors.Errorf("array of %d elements is not divisible into rows of %d", len(a.Data), width)
	}
	return len(a.Data) / width, nil
}

// Row returns row i of the array for the given row width.
func (a Array) Row(i, width int) []float64 {
	return a.Data[i*width : (i+1)*width]
}

// ReadFile reads every array of an .npz archive into float64 slices.
func ReadFile(path string) (map[string]Array, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening npz archive %q", path)
	}
	defer utils.UncheckedErrorFunc(zr.Close)

	out := make(map[string]Array, len(zr.File))
	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, ".npy")
		arr, err := readEntry(f)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %q from %q", f.Name, path)
		}
		out[name] = arr
	}
	return out, nil
}

func readEntry(f *zip.File) (Array, error) {
	rc, err := f.Open()
	if err != nil {
		return Array{}, err
	}
	defer utils.UncheckedErrorFunc(rc.Close)

	r, err := npyio.NewReader(rc)
	if err != nil {
		return Array{}, err
	}
	shape := append([]int(nil), r.Header.Descr.Shape...)
	n := 1
	for _, s := range shape {
		n *= s
	}

	descr := r.Header.Descr.Type
	switch {
	case strings.Contains(descr, "f8"):
		data := make([]float64, n)
		if err := r.Read(&data); err != nil {
			return Array{}, err
		}
		return Array{Shape: shape, Data: data}, nil
	case strings.Contains(descr, "f4"):
		data := make([]float32, n)
		if err := r.Read(&data); err != nil {
			return Array{}, err
		}
		out := make([]float64, n)
		for i, v := range data {
			out[i] = float64(v)
		}
		return Array{Shape: shape, Data: out}, nil
	case strings.Contains(descr, "i8"):
		data := make([]int64, n)
		if err := r.Read(&data); err != nil {
			return Array{}, err
		}
		out := make([]float64, n)
		for i, v := range data {
			out[i] = float64(v)
		}
		return Array{Shape: shape, Data: out}, nil
	case strings.Contains(descr, "i4"):
		data := make([]int32, n)
		if err := r.Read(&data); err != nil {
			return Array{}, err
		}
		out := make([]float64, n)
		for i, v := range data {
			out[i] = float64(v)
		}
		return Array{Shape: shape, Data: out}, nil
	default:
		return Array{}, errors.Errorf("unsupported dtype %q", descr)
	}
}

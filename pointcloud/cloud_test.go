package pointcloud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewFromPLYFile(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 255 0 0
1 2 3 0 255 0
-1 -2 -3 0 0 255
`
	dir := t.TempDir()
	fn := filepath.Join(dir, "scene.ply")
	test.That(t, os.WriteFile(fn, []byte(ply), 0o600), test.ShouldBeNil)

	logger := golog.NewTestLogger(t)
	cloud, err := NewFromPLYFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 3)
	test.That(t, cloud.Points[1].X, test.ShouldAlmostEqual, 1)
	test.That(t, cloud.Points[1].Y, test.ShouldAlmostEqual, 2)
	test.That(t, cloud.Points[1].Z, test.ShouldAlmostEqual, 3)
	test.That(t, cloud.Colors[0].X, test.ShouldAlmostEqual, 1)
	test.That(t, cloud.Colors[1].Y, test.ShouldAlmostEqual, 1)
	test.That(t, cloud.Colors[2].Z, test.ShouldAlmostEqual, 1)

	_, err = NewFromFile(filepath.Join(dir, "scene.xyz"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCenterAndDiag(t *testing.T) {
	centers := []r3.Vector{
		{X: 1, Y: 0, Z: 0},
		{X: -1, Y: 0, Z: 0},
	}
	center, diag := CenterAndDiag(centers)
	test.That(t, center.Norm(), test.ShouldAlmostEqual, 0)
	test.That(t, diag, test.ShouldAlmostEqual, 1)

	_, diag = CenterAndDiag(nil)
	test.That(t, diag, test.ShouldAlmostEqual, 0)
}

func TestBackgroundSphere(t *testing.T) {
	center := r3.Vector{X: 1, Y: 2, Z: 3}
	cloud := BackgroundSphere(100, center, 2.0, 5.0, 7)
	test.That(t, cloud.Size(), test.ShouldEqual, 100)
	for _, p := range cloud.Points {
		test.That(t, p.Sub(center).Norm(), test.ShouldAlmostEqual, 10.0, 1e-9)
	}
	for _, c := range cloud.Colors {
		test.That(t, c.X >= 0 && c.X <= 1, test.ShouldBeTrue)
	}

	// Deterministic for a fixed seed.
	again := BackgroundSphere(100, center, 2.0, 5.0, 7)
	test.That(t, again.Colors[0], test.ShouldResemble, cloud.Colors[0])
}

func TestRemoveOutliers(t *testing.T) {
	cloud := &Cloud{}
	for i := 0; i < 20; i++ {
		cloud.Points = append(cloud.Points, r3.Vector{X: float64(i % 3), Y: float64(i % 2)})
		cloud.Colors = append(cloud.Colors, r3.Vector{})
	}
	cloud.Points = append(cloud.Points, r3.Vector{X: 500})
	cloud.Colors = append(cloud.Colors, r3.Vector{X: 1})

	cleaned := cloud.RemoveOutliers(2)
	test.That(t, cleaned.Size(), test.ShouldEqual, 20)
	for _, p := range cleaned.Points {
		test.That(t, p.X, test.ShouldBeLessThan, 500.0)
	}

	// Non-positive deviation leaves the cloud alone.
	test.That(t, cloud.RemoveOutliers(0).Size(), test.ShouldEqual, 21)
}

func TestMergeAndBounds(t *testing.T) {
	a := &Cloud{Points: []r3.Vector{{X: 1}}, Colors: []r3.Vector{{}}}
	b := &Cloud{Points: []r3.Vector{{X: -2, Y: 3}}, Colors: []r3.Vector{{}}}
	a.Merge(b)
	test.That(t, a.Size(), test.ShouldEqual, 2)
	minPt, maxPt := a.Bounds()
	test.That(t, minPt.X, test.ShouldAlmostEqual, -2)
	test.That(t, maxPt.X, test.ShouldAlmostEqual, 1)
	test.That(t, maxPt.Y, test.ShouldAlmostEqual, 3)
}

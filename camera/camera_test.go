package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const tolerance = 1e-4

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < tolerance
}

func TestSetAspect(t *testing.T) {
	c := New(1)
	c.SetAspect(1600, 900)
	if want := float32(1600) / 900; !approx(c.Aspect, want) {
		t.Errorf("aspect after resize = %v, want %v", c.Aspect, want)
	}

	// Degenerate framebuffer sizes (minimized window) must not poison the
	// projection.
	c.SetAspect(100, 0)
	if want := float32(1600) / 900; !approx(c.Aspect, want) {
		t.Errorf("aspect after zero-height resize = %v, want unchanged %v", c.Aspect, want)
	}
}

func TestPlaneSize(t *testing.T) {
	c := New(16.0 / 9.0)
	size := c.PlaneSize()

	wantH := 2 * c.Distance * float32(math.Tan(float64(c.FOV)/2))
	if !approx(size.Y(), wantH) {
		t.Errorf("plane height = %v, want %v", size.Y(), wantH)
	}
	if !approx(size.X(), wantH*c.Aspect) {
		t.Errorf("plane width = %v, want %v", size.X(), wantH*c.Aspect)
	}
}

func TestPlaneFillsView(t *testing.T) {
	for _, aspect := range []float32{16.0 / 9.0, 4.0 / 3.0, 0.75} {
		c := New(aspect)
		vp := c.ViewProjection()
		size := c.PlaneSize()

		center := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, 0}, vp)
		if !approx(center.X(), 0) || !approx(center.Y(), 0) {
			t.Errorf("aspect %v: plane center projects to (%v, %v), want origin", aspect, center.X(), center.Y())
		}

		// The top-right plane corner must land exactly on the top-right of
		// clip space, meaning the plane fills the viewport edge to edge.
		corner := mgl32.TransformCoordinate(mgl32.Vec3{size.X() / 2, size.Y() / 2, 0}, vp)
		if !approx(corner.X(), 1) || !approx(corner.Y(), 1) {
			t.Errorf("aspect %v: plane corner projects to (%v, %v), want (1, 1)", aspect, corner.X(), corner.Y())
		}
	}
}

// Package camera provides the fixed perspective camera the effect plane is
// rendered through. Only the aspect ratio changes after construction, on
// viewport resize.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera looks down -Z at the origin from a fixed distance.
type Camera struct {
	FOV      float32 // vertical field of view in radians
	Aspect   float32
	Near     float32
	Far      float32
	Distance float32
}

// New returns a camera with the stock hero framing at the given aspect
// ratio.
func New(aspect float32) *Camera {
	return &Camera{
		FOV:      mgl32.DegToRad(45),
		Aspect:   aspect,
		Near:     0.1,
		Far:      100,
		Distance: 5,
	}
}

// SetAspect updates the projection aspect ratio to width over height.
// Degenerate sizes are ignored.
func (c *Camera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// ViewProjection returns the combined projection and view matrix.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	proj := mgl32.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, c.Distance},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)
	return proj.Mul4(view)
}

// PlaneSize returns the world-space size of a plane at the origin that
// exactly fills the frustum at the camera distance: height is
// 2*distance*tan(fov/2), width follows the aspect.
func (c *Camera) PlaneSize() mgl32.Vec2 {
	h := 2 * c.Distance * float32(math.Tan(float64(c.FOV)/2))
	return mgl32.Vec2{h * c.Aspect, h}
}

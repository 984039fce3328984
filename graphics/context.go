// Package graphics defines the seams between the hero component and its
// windowing and GPU backends, so the component can be driven headless in
// tests.
package graphics

import (
	"image"

	"github.com/glasshero/glasshero/camera"
	"github.com/glasshero/glasshero/effect"
)

// Context defines the interface for a live OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
}

// Surface is the presentable area the hero component attaches its output
// to. The GLFW implementation maps attach and detach to showing and hiding
// the window.
type Surface interface {
	Attach()
	Detach()
}

// PointerEvent carries a pointer position in framebuffer pixels with the
// origin at the bottom left, matching the GL fragment coordinate space.
type PointerEvent struct {
	X, Y float32
}

// ResizeEvent carries a framebuffer size change in pixels.
type ResizeEvent struct {
	Width, Height int
}

// EventSource delivers viewport events to passive subscribers. The
// returned remove functions detach the subscription and are safe to call
// more than once.
type EventSource interface {
	OnPointerMove(fn func(PointerEvent)) (remove func())
	OnResize(fn func(ResizeEvent)) (remove func())
}

// Plane is the one textured quad of the hero scene.
type Plane interface {
	// SetImage replaces the plane texture with the decoded background
	// image. Until called, the plane samples a 1x1 placeholder.
	SetImage(img *image.RGBA)
	// Draw renders one frame. The viewport is taken from the state's
	// resolution, the projection from the camera.
	Draw(st *effect.State, cam *camera.Camera)
	// Release frees the plane's GPU resources.
	Release()
}

// Backend creates the scene's render resources. The OpenGL renderer is the
// real implementation; tests substitute a recording mock.
type Backend interface {
	CreatePlane() (Plane, error)
}

// Package hero assembles the glass effect into a mountable component: one
// textured plane, one effect state, one repeating frame task, wired to
// whatever backend, surface, and scheduler the host provides.
package hero

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/glasshero/glasshero/audio"
	"github.com/glasshero/glasshero/camera"
	"github.com/glasshero/glasshero/effect"
	"github.com/glasshero/glasshero/graphics"
	"github.com/glasshero/glasshero/inputs"
	"github.com/glasshero/glasshero/loop"
)

var (
	// ErrMounted is returned by Mount on a component that is already live.
	ErrMounted = errors.New("hero: component already mounted")
	// ErrUnmounted is returned by Mount on a component that has been torn
	// down. Components mount once.
	ErrUnmounted = errors.New("hero: component was unmounted")
)

// LevelSource supplies audio band levels once per frame.
type LevelSource interface {
	Levels() audio.Levels
}

// Config wires a Component to its host.
type Config struct {
	Backend   graphics.Backend
	Surface   graphics.Surface
	Events    graphics.EventSource
	Scheduler loop.Scheduler

	// Initial framebuffer size in pixels. Resize events keep it current.
	Width  int
	Height int

	Tunables effect.Tunables
	TimeStep float32

	// ImageSource is a file path or http(s) URL for the background
	// image. Empty selects the builtin gradient.
	ImageSource  string
	FetchTimeout time.Duration

	// Levels, when set, modulates glass strength and flow speed from
	// audio band levels through the two gains.
	Levels       LevelSource
	StrengthGain float32
	FlowGain     float32

	// PostDraw, when set, runs after the plane draw inside the same
	// frame, with the framebuffer still bound. Used for overlays.
	PostDraw func(st *effect.State)
}

type componentPhase int

const (
	phaseIdle componentPhase = iota
	phaseMounted
	phaseUnmounted
)

// Component is one instance of the effect with a mount-once lifecycle.
// All methods must run on the goroutine that drives the scheduler.
type Component struct {
	cfg Config

	state *effect.State
	cam   *camera.Camera
	plane graphics.Plane
	task  *loop.Task

	removePointer func()
	removeResize  func()

	imageResult <-chan inputs.Result
	pointerSeen bool

	phase componentPhase
}

func New(cfg Config) *Component {
	return &Component{cfg: cfg}
}

// Mount builds the scene, subscribes to viewport events, attaches the
// surface, kicks off the background image fetch, and schedules the frame
// loop.
func (c *Component) Mount() error {
	switch c.phase {
	case phaseMounted:
		return ErrMounted
	case phaseUnmounted:
		return ErrUnmounted
	}

	plane, err := c.cfg.Backend.CreatePlane()
	if err != nil {
		return fmt.Errorf("hero: creating plane: %w", err)
	}
	c.plane = plane

	c.state = effect.NewState(c.cfg.Tunables, c.cfg.TimeStep)
	c.setViewport(c.cfg.Width, c.cfg.Height)
	c.cam = camera.New(aspectOf(c.cfg.Width, c.cfg.Height))

	c.removePointer = c.cfg.Events.OnPointerMove(c.onPointerMove)
	c.removeResize = c.cfg.Events.OnResize(c.onResize)

	c.cfg.Surface.Attach()

	c.imageResult = inputs.LoadAsync(c.cfg.ImageSource, c.cfg.FetchTimeout)

	c.task = loop.Start(c.cfg.Scheduler, c.frame)
	c.phase = phaseMounted
	return nil
}

// Unmount tears the component down: listeners first so no event lands in
// a dying scene, then the frame task, then the surface, then the GPU
// resources. Idempotent; an unmounted component stays unmounted.
func (c *Component) Unmount() {
	if c.phase != phaseMounted {
		return
	}
	c.phase = phaseUnmounted

	c.removePointer()
	c.removeResize()
	c.removePointer, c.removeResize = nil, nil

	c.task.Cancel()
	c.cfg.Surface.Detach()
	c.plane.Release()

	// A load still in flight is abandoned, never applied.
	c.imageResult = nil
}

// Mounted reports whether the component is live.
func (c *Component) Mounted() bool {
	return c.phase == phaseMounted
}

// State exposes the live effect state. The frame task mutates it, so
// hosts read it only from frame callbacks.
func (c *Component) State() *effect.State {
	return c.state
}

// frame runs once per scheduler frame: consume a finished image load,
// apply audio modulation, advance the clock, draw.
func (c *Component) frame() {
	if c.imageResult != nil {
		select {
		case res, ok := <-c.imageResult:
			c.imageResult = nil
			if ok {
				if res.Err != nil {
					// Texture size stays (1,1), so the plane keeps
					// sampling its single placeholder texel.
					log.Printf("background image unavailable: %v", res.Err)
				} else {
					c.applyImage(res.Image)
				}
			}
		default:
		}
	}

	if c.cfg.Levels != nil {
		lv := c.cfg.Levels.Levels()
		c.state.StrengthScale = 1 + lv.Bass*c.cfg.StrengthGain
		c.state.FlowScale = 1 + lv.Mid*c.cfg.FlowGain
	}

	c.state.Advance()
	c.plane.Draw(c.state, c.cam)

	if c.cfg.PostDraw != nil {
		c.cfg.PostDraw(c.state)
	}
}

func (c *Component) applyImage(img *image.RGBA) {
	c.plane.SetImage(img)
	b := img.Bounds()
	c.state.TexSize = mgl32.Vec2{float32(b.Dx()), float32(b.Dy())}
}

// setViewport records the framebuffer size. Until the pointer first
// moves, the mouse tracks the center so the parallax rests neutral.
func (c *Component) setViewport(w, h int) {
	c.state.Resolution = mgl32.Vec2{float32(w), float32(h)}
	if !c.pointerSeen {
		c.state.Mouse = mgl32.Vec2{float32(w) / 2, float32(h) / 2}
	}
}

func (c *Component) onPointerMove(ev graphics.PointerEvent) {
	c.pointerSeen = true
	c.state.Mouse = mgl32.Vec2{ev.X, ev.Y}
}

func (c *Component) onResize(ev graphics.ResizeEvent) {
	c.setViewport(ev.Width, ev.Height)
	c.cam.SetAspect(ev.Width, ev.Height)
}

func aspectOf(w, h int) float32 {
	if h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

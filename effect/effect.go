// Package effect holds the uniform state of the glass-ripple effect and a
// pure Go implementation of its shader math. The fragment shader in the
// shader package is the GPU form of these functions; tests and the
// screenshot reference path use this form.
package effect

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// glassTaps is the number of shifted sawtooth samples averaged per fragment.
const glassTaps = 11

// Tunables are the seven effect constants. They are fixed for the lifetime
// of a mounted component; audio modulation scales them per frame without
// touching the configured values.
type Tunables struct {
	ParallaxStrength float32
	DistortionMult   float32
	GlassStrength    float32
	StripesFrequency float32
	GlassSmoothness  float32
	EdgePadding      float32
	FlowSpeed        float32
}

// Validate rejects tunable values the shader math cannot handle.
func (t Tunables) Validate() error {
	if t.StripesFrequency <= 0 {
		return fmt.Errorf("stripes frequency must be positive, got %g", t.StripesFrequency)
	}
	if t.EdgePadding < 0 || t.EdgePadding >= 0.5 {
		return fmt.Errorf("edge padding must be in [0, 0.5), got %g", t.EdgePadding)
	}
	if t.GlassSmoothness < 0 {
		return fmt.Errorf("glass smoothness must not be negative, got %g", t.GlassSmoothness)
	}
	return nil
}

// DefaultTunables matches config/defaults.yaml.
func DefaultTunables() Tunables {
	return Tunables{
		ParallaxStrength: 0.08,
		DistortionMult:   2.5,
		GlassStrength:    10,
		StripesFrequency: 10,
		GlassSmoothness:  0.004,
		EdgePadding:      0.08,
		FlowSpeed:        0.3,
	}
}

// State is the complete mutable uniform state of one effect instance.
// Time and Mouse change every frame/event, Resolution on resize, TexSize
// once when the background image finishes loading. The modulation scales
// stay 1 unless an audio source drives them.
type State struct {
	Tunables

	Resolution mgl32.Vec2
	TexSize    mgl32.Vec2
	Mouse      mgl32.Vec2
	Time       float32

	// Step is added to Time once per frame, regardless of wall time.
	Step float32

	StrengthScale float32
	FlowScale     float32
}

// NewState returns a State with the texture size at its (1,1) placeholder
// default and modulation at identity.
func NewState(tun Tunables, step float32) *State {
	return &State{
		Tunables:      tun,
		TexSize:       mgl32.Vec2{1, 1},
		Step:          step,
		StrengthScale: 1,
		FlowScale:     1,
	}
}

// Advance moves the effect clock forward one frame.
func (s *State) Advance() {
	s.Time += s.Step
}

// Effective returns the tunables with the per-frame modulation applied.
func (s *State) Effective() Tunables {
	t := s.Tunables
	t.GlassStrength *= s.StrengthScale
	t.FlowSpeed *= s.FlowScale
	return t
}

// WarpUV maps a viewport UV in [0,1]² to the texture-space UV the shader
// samples: edge-faded glass displacement, parallax, clamp, then cover-fit.
func (s *State) WarpUV(uv mgl32.Vec2) mgl32.Vec2 {
	tun := s.Effective()
	fade := EdgeFade(uv.X(), tun.EdgePadding)
	glassX := FractalGlass(uv.X(), s.Time, tun)
	mixedX := mix(uv.X(), glassX, fade)
	dist := glassX - uv.X()

	mx := float32(0.5)
	if s.Resolution.X() > 0 {
		mx = s.Mouse.X() / s.Resolution.X()
	}
	par := (mx - 0.5) * tun.ParallaxStrength * (1 + mgl32.Abs(dist)*tun.DistortionMult) * fade

	warped := mgl32.Vec2{
		mgl32.Clamp(mixedX+par, 0, 1),
		mgl32.Clamp(uv.Y(), 0, 1),
	}
	return CoverFit(warped, s.Resolution, s.TexSize)
}

// CoverScale is the cover-fit scale factor: the larger of the two per-axis
// viewport/texture ratios, so the scaled texture covers the viewport.
func CoverScale(viewport, tex mgl32.Vec2) float32 {
	return max(viewport.X()/tex.X(), viewport.Y()/tex.Y())
}

// CoverOffset centers the scaled texture on the viewport. At most one axis
// is nonzero and it is never positive.
func CoverOffset(viewport, tex mgl32.Vec2) mgl32.Vec2 {
	scaled := tex.Mul(CoverScale(viewport, tex))
	return viewport.Sub(scaled).Mul(0.5)
}

// CoverFit maps a viewport UV to the texture UV under cover-fit scaling.
// A degenerate texture size (under one pixel on either axis) maps
// identically.
func CoverFit(uv, viewport, tex mgl32.Vec2) mgl32.Vec2 {
	if tex.X() < 1 || tex.Y() < 1 {
		return uv
	}
	scaled := tex.Mul(CoverScale(viewport, tex))
	offset := viewport.Sub(scaled).Mul(0.5)
	return mgl32.Vec2{
		(uv.X()*viewport.X() - offset.X()) / scaled.X(),
		(uv.Y()*viewport.Y() - offset.Y()) / scaled.Y(),
	}
}

// EdgeFade is 1 in the interior of [0,1] and tapers smoothly to 0 within
// padding of either end. Zero padding disables the fade.
func EdgeFade(x, padding float32) float32 {
	if padding <= 0 {
		return 1
	}
	return Smoothstep(0, padding, x) * (1 - Smoothstep(1-padding, 1, x))
}

// FractalGlass is the displaced horizontal coordinate at x and time t: the
// average of eleven sawtooth samples taken at smoothness-spaced offsets,
// drifting at FlowSpeed. Periodic in x with period 1/StripesFrequency.
func FractalGlass(x, t float32, tun Tunables) float32 {
	period := 1 / tun.StripesFrequency
	var sum float32
	for i := -glassTaps / 2; i <= glassTaps/2; i++ {
		u := x + float32(i)*tun.GlassSmoothness + t*tun.FlowSpeed
		sum += glslMod(u, period) * tun.GlassStrength
	}
	return sum / glassTaps
}

// Smoothstep mirrors the GLSL builtin. edge0 must be less than edge1;
// GLSL leaves the reversed order undefined.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// glslMod mirrors GLSL mod(): x - y*floor(x/y), in [0,y) for positive y
// whatever the sign of x. Go's math.Mod truncates instead.
func glslMod(x, y float32) float32 {
	return x - y*float32(math.Floor(float64(x/y)))
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

package effect

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const tolerance = 1e-4

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < tolerance
}

func TestCoverScale(t *testing.T) {
	tests := []struct {
		name     string
		viewport mgl32.Vec2
		tex      mgl32.Vec2
		want     float32
	}{
		{"wide viewport tall texture", mgl32.Vec2{1600, 900}, mgl32.Vec2{800, 600}, 2.0},
		{"small viewport", mgl32.Vec2{800, 600}, mgl32.Vec2{1600, 900}, 2.0 / 3.0},
		{"matching aspect", mgl32.Vec2{1920, 1080}, mgl32.Vec2{960, 540}, 2.0},
		{"portrait viewport", mgl32.Vec2{900, 1600}, mgl32.Vec2{800, 600}, 1600.0 / 600.0},
		{"same size", mgl32.Vec2{1024, 768}, mgl32.Vec2{1024, 768}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoverScale(tt.viewport, tt.tex)
			if !approx(got, tt.want) {
				t.Errorf("CoverScale(%v, %v) = %v, want %v", tt.viewport, tt.tex, got, tt.want)
			}
			// The scale rule exists so the scaled texture covers the
			// viewport on both axes.
			scaled := tt.tex.Mul(got)
			if scaled.X() < tt.viewport.X()-tolerance || scaled.Y() < tt.viewport.Y()-tolerance {
				t.Errorf("scaled texture %v does not cover viewport %v", scaled, tt.viewport)
			}
		})
	}
}

func TestCoverFitEndToEnd(t *testing.T) {
	viewport := mgl32.Vec2{1600, 900}
	tex := mgl32.Vec2{800, 600}

	if got := CoverScale(viewport, tex); !approx(got, 2.0) {
		t.Fatalf("scale = %v, want 2.0", got)
	}
	offset := CoverOffset(viewport, tex)
	if !approx(offset.X(), 0) || !approx(offset.Y(), -150) {
		t.Fatalf("offset = %v, want (0, -150)", offset)
	}

	// No horizontal cropping, 150px of vertical overflow on each side.
	corners := []struct {
		uv   mgl32.Vec2
		want mgl32.Vec2
	}{
		{mgl32.Vec2{0, 0}, mgl32.Vec2{0, 0.125}},
		{mgl32.Vec2{1, 1}, mgl32.Vec2{1, 0.875}},
		{mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.5, 0.5}},
	}
	for _, c := range corners {
		got := CoverFit(c.uv, viewport, tex)
		if !approx(got.X(), c.want.X()) || !approx(got.Y(), c.want.Y()) {
			t.Errorf("CoverFit(%v) = %v, want %v", c.uv, got, c.want)
		}
	}
}

func TestCoverFitDegenerate(t *testing.T) {
	viewport := mgl32.Vec2{1600, 900}
	for _, tex := range []mgl32.Vec2{{0, 0}, {0.5, 600}, {800, 0.25}} {
		uv := mgl32.Vec2{0.3, 0.7}
		if got := CoverFit(uv, viewport, tex); got != uv {
			t.Errorf("CoverFit with degenerate texture %v = %v, want input %v", tex, got, uv)
		}
	}
}

func TestEdgeFadeEndpoints(t *testing.T) {
	const pad = 0.1
	tests := []struct {
		x, want float32
	}{
		{0, 0},
		{1, 0},
		{0.5, 1},
		{pad, 1},
		{1 - pad, 1},
	}
	for _, tt := range tests {
		if got := EdgeFade(tt.x, pad); !approx(got, tt.want) {
			t.Errorf("EdgeFade(%v, %v) = %v, want %v", tt.x, pad, got, tt.want)
		}
	}
	if got := EdgeFade(0, 0); got != 1 {
		t.Errorf("EdgeFade with zero padding = %v, want 1", got)
	}
}

func TestEdgeFadeMonotone(t *testing.T) {
	const pad = 0.12
	const steps = 50

	prev := EdgeFade(0, pad)
	for i := 1; i <= steps; i++ {
		x := pad * float32(i) / steps
		cur := EdgeFade(x, pad)
		if cur < prev-tolerance {
			t.Fatalf("fade not increasing on left taper: f(%v)=%v < f(prev)=%v", x, cur, prev)
		}
		prev = cur
	}
	prev = EdgeFade(1-pad, pad)
	for i := 1; i <= steps; i++ {
		x := 1 - pad + pad*float32(i)/steps
		cur := EdgeFade(x, pad)
		if cur > prev+tolerance {
			t.Fatalf("fade not decreasing on right taper: f(%v)=%v > f(prev)=%v", x, cur, prev)
		}
		prev = cur
	}
}

// Tunables with an exactly-representable period so the periodicity
// assertions do not land on a sawtooth discontinuity.
func glassTestTunables() Tunables {
	return Tunables{
		GlassStrength:    4,
		StripesFrequency: 8,
		GlassSmoothness:  0.001,
		FlowSpeed:        0.25,
	}
}

func TestFractalGlassPeriodic(t *testing.T) {
	tun := glassTestTunables()
	period := 1 / tun.StripesFrequency
	const time = 0.5

	for _, x := range []float32{0.03, 0.21, 0.66} {
		a := FractalGlass(x, time, tun)
		b := FractalGlass(x+period, time, tun)
		if !approx(a, b) {
			t.Errorf("FractalGlass(%v) = %v, FractalGlass(x+period) = %v, want equal", x, a, b)
		}
	}
}

func TestFractalGlassPhaseShift(t *testing.T) {
	tun := glassTestTunables()
	const (
		time  = 0.5
		delta = 0.2
	)

	for _, x := range []float32{0.03, 0.21, 0.66} {
		later := FractalGlass(x, time+delta, tun)
		shifted := FractalGlass(x+delta*tun.FlowSpeed, time, tun)
		if !approx(later, shifted) {
			t.Errorf("advancing time by %v: got %v, shifting x by delta*flow: got %v, want equal", delta, later, shifted)
		}
	}
}

func TestParallaxZeroAtMidpoint(t *testing.T) {
	for _, strength := range []float32{0.05, 0.2, 1.5} {
		tun := DefaultTunables()
		tun.ParallaxStrength = strength
		s := NewState(tun, 0.01)
		s.Resolution = mgl32.Vec2{1600, 900}
		s.TexSize = mgl32.Vec2{800, 600}
		s.Mouse = mgl32.Vec2{800, 450}
		s.Time = 2.5

		flat := *s
		flat.ParallaxStrength = 0

		for _, uv := range []mgl32.Vec2{{0.1, 0.5}, {0.5, 0.2}, {0.93, 0.8}} {
			got := s.WarpUV(uv)
			want := flat.WarpUV(uv)
			if !approx(got.X(), want.X()) || !approx(got.Y(), want.Y()) {
				t.Errorf("strength %v: WarpUV(%v) = %v with centered pointer, want %v", strength, uv, got, want)
			}
		}
	}
}

func TestAdvanceFixedStep(t *testing.T) {
	s := NewState(DefaultTunables(), 0.01)
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	if !approx(s.Time, 0.03) {
		t.Errorf("time after 3 frames = %v, want 0.03", s.Time)
	}

	s = NewState(DefaultTunables(), 0.25)
	s.Advance()
	if s.Time != 0.25 {
		t.Errorf("time after 1 frame with step 0.25 = %v, want 0.25", s.Time)
	}
}

func TestEffectiveModulation(t *testing.T) {
	s := NewState(DefaultTunables(), 0.01)
	if s.Effective() != s.Tunables {
		t.Fatalf("identity modulation changed tunables: %+v", s.Effective())
	}

	s.StrengthScale = 2
	s.FlowScale = 0.5
	eff := s.Effective()
	if !approx(eff.GlassStrength, s.GlassStrength*2) {
		t.Errorf("modulated glass strength = %v, want %v", eff.GlassStrength, s.GlassStrength*2)
	}
	if !approx(eff.FlowSpeed, s.FlowSpeed*0.5) {
		t.Errorf("modulated flow speed = %v, want %v", eff.FlowSpeed, s.FlowSpeed*0.5)
	}
	if eff.ParallaxStrength != s.ParallaxStrength || eff.EdgePadding != s.EdgePadding {
		t.Errorf("modulation touched unrelated tunables: %+v", eff)
	}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState(DefaultTunables(), 0.01)
	if s.TexSize != (mgl32.Vec2{1, 1}) {
		t.Errorf("initial texture size = %v, want (1,1) placeholder", s.TexSize)
	}
	if s.StrengthScale != 1 || s.FlowScale != 1 {
		t.Errorf("initial modulation = (%v, %v), want identity", s.StrengthScale, s.FlowScale)
	}
	if s.Time != 0 {
		t.Errorf("initial time = %v, want 0", s.Time)
	}
}

func TestTunablesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Tunables)
		wantErr bool
	}{
		{"defaults", func(*Tunables) {}, false},
		{"zero frequency", func(tn *Tunables) { tn.StripesFrequency = 0 }, true},
		{"negative frequency", func(tn *Tunables) { tn.StripesFrequency = -3 }, true},
		{"padding at half", func(tn *Tunables) { tn.EdgePadding = 0.5 }, true},
		{"negative padding", func(tn *Tunables) { tn.EdgePadding = -0.1 }, true},
		{"negative smoothness", func(tn *Tunables) { tn.GlassSmoothness = -1 }, true},
		{"zero padding ok", func(tn *Tunables) { tn.EdgePadding = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tun := DefaultTunables()
			tt.mutate(&tun)
			err := tun.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGlslMod(t *testing.T) {
	tests := []struct {
		x, y, want float32
	}{
		{0.35, 0.1, 0.05},
		{-0.03, 0.1, 0.07},
		{0.2, 0.125, 0.075},
		{-1.3, 0.5, 0.2},
	}
	for _, tt := range tests {
		if got := glslMod(tt.x, tt.y); !approx(got, tt.want) {
			t.Errorf("glslMod(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

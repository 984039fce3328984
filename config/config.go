// Package config provides configuration loading and access for the viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glasshero/glasshero/effect"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all viewer configuration parameters.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Image     ImageConfig     `yaml:"image"`
	Effect    EffectConfig    `yaml:"effect"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Record    RecordConfig    `yaml:"record"`
	Audio     AudioConfig     `yaml:"audio"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// ImageConfig holds the background image source.
type ImageConfig struct {
	Source          string `yaml:"source"`            // File path or http(s) URL; empty uses the built-in gradient
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"` // Timeout for URL sources
}

// EffectConfig holds the seven effect tunables plus the frame time step.
type EffectConfig struct {
	ParallaxStrength float64 `yaml:"parallax_strength"`
	DistortionMult   float64 `yaml:"distortion_multiplier"`
	GlassStrength    float64 `yaml:"glass_strength"`
	StripesFrequency float64 `yaml:"stripes_frequency"`
	GlassSmoothness  float64 `yaml:"glass_smoothness"`
	EdgePadding      float64 `yaml:"edge_padding"`
	FlowSpeed        float64 `yaml:"flow_speed"`
	TimeStep         float64 `yaml:"time_step"` // Added to the time uniform once per frame, never wall-clock scaled
}

// OverlayConfig holds the static text drawn over the effect.
type OverlayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Heading    string `yaml:"heading"`
	Subheading string `yaml:"subheading"`
	MarginPx   int    `yaml:"margin_px"`
}

// RecordConfig holds offline video capture settings.
type RecordConfig struct {
	FPS         int     `yaml:"fps"`
	DurationSec float64 `yaml:"duration_sec"`
	Codec       string  `yaml:"codec"` // e.g. libx264, libx265
	CRF         int     `yaml:"crf"`
}

// AudioConfig holds microphone modulation settings.
type AudioConfig struct {
	Enabled      bool    `yaml:"enabled"`
	StrengthGain float64 `yaml:"strength_gain"` // Bass level scaled into glass strength
	FlowGain     float64 `yaml:"flow_gain"`     // Mid level scaled into flow speed
	Smoothing    float64 `yaml:"smoothing"`     // Temporal smoothing factor in [0,1)
}

// TelemetryConfig holds frame statistics settings.
type TelemetryConfig struct {
	Enabled      bool `yaml:"enabled"`
	WindowFrames int  `yaml:"window_frames"` // Frames per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Tunables effect.Tunables // Effect section as float32 shader values
	TimeStep float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present
		// in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write saves the effective configuration to a YAML file.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.Tunables = effect.Tunables{
		ParallaxStrength: float32(c.Effect.ParallaxStrength),
		DistortionMult:   float32(c.Effect.DistortionMult),
		GlassStrength:    float32(c.Effect.GlassStrength),
		StripesFrequency: float32(c.Effect.StripesFrequency),
		GlassSmoothness:  float32(c.Effect.GlassSmoothness),
		EdgePadding:      float32(c.Effect.EdgePadding),
		FlowSpeed:        float32(c.Effect.FlowSpeed),
	}
	c.Derived.TimeStep = float32(c.Effect.TimeStep)
}

func (c *Config) validate() error {
	if err := c.Derived.Tunables.Validate(); err != nil {
		return fmt.Errorf("effect config: %w", err)
	}
	if c.Effect.TimeStep <= 0 {
		return fmt.Errorf("effect config: time step must be positive, got %g", c.Effect.TimeStep)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window config: size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Record.FPS <= 0 {
		return fmt.Errorf("record config: fps must be positive, got %d", c.Record.FPS)
	}
	if c.Record.DurationSec <= 0 {
		return fmt.Errorf("record config: duration must be positive, got %g", c.Record.DurationSec)
	}
	if c.Image.FetchTimeoutSec <= 0 {
		return fmt.Errorf("image config: fetch timeout must be positive, got %d", c.Image.FetchTimeoutSec)
	}
	if c.Audio.Smoothing < 0 || c.Audio.Smoothing >= 1 {
		return fmt.Errorf("audio config: smoothing must be in [0,1), got %g", c.Audio.Smoothing)
	}
	if c.Telemetry.WindowFrames <= 0 {
		return fmt.Errorf("telemetry config: window frames must be positive, got %d", c.Telemetry.WindowFrames)
	}
	return nil
}

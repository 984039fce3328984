package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/glasshero/glasshero/audio"
	"github.com/glasshero/glasshero/camera"
	"github.com/glasshero/glasshero/config"
	"github.com/glasshero/glasshero/effect"
	"github.com/glasshero/glasshero/glfwcontext"
	"github.com/glasshero/glasshero/graphics"
	"github.com/glasshero/glasshero/hero"
	"github.com/glasshero/glasshero/inputs"
	"github.com/glasshero/glasshero/loop"
	"github.com/glasshero/glasshero/options"
	"github.com/glasshero/glasshero/renderer"
	"github.com/glasshero/glasshero/telemetry"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := options.Parse()
	if *opts.Help {
		fmt.Println("glasshero renders a photo through a flowing glass distortion")
		flag.PrintDefaults()
		return
	}

	if err := config.Init(*opts.ConfigPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Cfg()
	applyOverrides(cfg, opts)

	if *opts.WriteConfig != "" {
		if err := cfg.Write(*opts.WriteConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Wrote effective config to %s", *opts.WriteConfig)
		return
	}

	if cfg.Telemetry.Enabled {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize graphics: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	var err error
	switch *opts.Mode {
	case "view":
		err = runView(cfg, opts)
	case "record":
		err = runRecord(cfg, opts)
	case "screenshot":
		err = runScreenshot(cfg, opts)
	default:
		log.Fatalf("Unknown mode %q (want view, record, or screenshot)", *opts.Mode)
	}
	if err != nil {
		log.Fatalf("%s mode failed: %v", *opts.Mode, err)
	}
}

// applyOverrides copies explicit command line flags over the loaded
// config.
func applyOverrides(cfg *config.Config, opts *options.HeroOptions) {
	if *opts.Image != "" {
		cfg.Image.Source = *opts.Image
	}
	if *opts.Width > 0 {
		cfg.Window.Width = *opts.Width
	}
	if *opts.Height > 0 {
		cfg.Window.Height = *opts.Height
	}
	if *opts.Fullscreen {
		cfg.Window.Fullscreen = true
	}
	if *opts.Duration > 0 {
		cfg.Record.DurationSec = *opts.Duration
	}
	if *opts.FPS > 0 {
		cfg.Record.FPS = *opts.FPS
	}
	if *opts.Audio {
		cfg.Audio.Enabled = true
	}
	if *opts.LogStats {
		cfg.Telemetry.Enabled = true
	}
}

func runView(cfg *config.Config, opts *options.HeroOptions) error {
	ctx, err := glfwcontext.New(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, cfg.Window.Fullscreen)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer ctx.Shutdown()

	backend, err := renderer.NewBackend(ctx)
	if err != nil {
		return err
	}
	ctx.EnableVSync()

	display := loop.NewDisplayLoop(ctx)

	heroCfg := hero.Config{
		Backend:      backend,
		Surface:      ctx,
		Events:       ctx,
		Scheduler:    display,
		Tunables:     cfg.Derived.Tunables,
		TimeStep:     cfg.Derived.TimeStep,
		ImageSource:  cfg.Image.Source,
		FetchTimeout: time.Duration(cfg.Image.FetchTimeoutSec) * time.Second,
	}
	heroCfg.Width, heroCfg.Height = ctx.GetFramebufferSize()

	if cfg.Audio.Enabled {
		meter, merr := newLevelMeter(cfg)
		if merr != nil {
			log.Printf("Audio modulation unavailable: %v", merr)
		} else {
			defer meter.Stop()
			heroCfg.Levels = meter
			heroCfg.StrengthGain = float32(cfg.Audio.StrengthGain)
			heroCfg.FlowGain = float32(cfg.Audio.FlowGain)
		}
	}

	if cfg.Overlay.Enabled {
		overlay, oerr := renderer.NewOverlay(cfg.Overlay.Heading, cfg.Overlay.Subheading, cfg.Overlay.MarginPx)
		if oerr != nil {
			return fmt.Errorf("creating overlay: %w", oerr)
		}
		defer overlay.Release()
		heroCfg.PostDraw = func(st *effect.State) {
			overlay.Draw(int(st.Resolution.X()), int(st.Resolution.Y()))
		}
	}

	component := hero.New(heroCfg)
	if err := component.Mount(); err != nil {
		return err
	}
	defer component.Unmount()

	logStats := cfg.Telemetry.Enabled
	if logStats || *opts.PerfCSV != "" {
		collector := telemetry.NewFrameCollector(cfg.Telemetry.WindowFrames)
		csv, cerr := telemetry.NewOutput(*opts.PerfCSV)
		if cerr != nil {
			return cerr
		}
		defer csv.Close()

		var frameIndex int64
		display.OnFrame = func(d time.Duration) {
			frameIndex++
			collector.Record(d)
			if !collector.Full() {
				return
			}
			stats := collector.Stats()
			if logStats {
				slog.Info("frames", "stats", stats)
			}
			if werr := csv.WritePerf(stats, frameIndex); werr != nil {
				log.Printf("perf csv write failed: %v", werr)
			}
			collector.Reset()
		}
	}

	log.Println("Starting interactive render loop...")
	display.Run()
	return nil
}

// newLevelMeter opens the default microphone and wraps it in a band
// level meter.
func newLevelMeter(cfg *config.Config) (*audio.LevelMeter, error) {
	mic, err := audio.NewMicrophone(44100)
	if err != nil {
		return nil, err
	}
	return audio.NewLevelMeter(mic, cfg.Audio.Smoothing)
}

// offlineScene is the shared setup for record and screenshot modes: a
// hidden window, the effect plane, and an offscreen capture target.
type offlineScene struct {
	ctx    *glfwcontext.Context
	plane  graphics.Plane
	state  *effect.State
	cam    *camera.Camera
	target *renderer.OffscreenTarget
}

func newOfflineScene(cfg *config.Config) (*offlineScene, error) {
	width, height := cfg.Window.Width, cfg.Window.Height

	ctx, err := glfwcontext.New(width, height, cfg.Window.Title, false)
	if err != nil {
		return nil, fmt.Errorf("creating offscreen context: %w", err)
	}

	backend, err := renderer.NewBackend(ctx)
	if err != nil {
		ctx.Shutdown()
		return nil, err
	}

	plane, err := backend.CreatePlane()
	if err != nil {
		ctx.Shutdown()
		return nil, err
	}

	st := effect.NewState(cfg.Derived.Tunables, cfg.Derived.TimeStep)
	st.Resolution = mgl32.Vec2{float32(width), float32(height)}
	st.Mouse = mgl32.Vec2{float32(width) / 2, float32(height) / 2}
	cam := camera.New(float32(width) / float32(height))

	// Offline modes load the background synchronously; output starting
	// before the load lands would not match the viewer.
	img, err := inputs.Load(cfg.Image.Source, time.Duration(cfg.Image.FetchTimeoutSec)*time.Second)
	if err != nil {
		log.Printf("Background image unavailable: %v", err)
	} else {
		plane.SetImage(img)
		b := img.Bounds()
		st.TexSize = mgl32.Vec2{float32(b.Dx()), float32(b.Dy())}
	}

	target, err := renderer.NewOffscreenTarget(width, height)
	if err != nil {
		plane.Release()
		ctx.Shutdown()
		return nil, err
	}

	return &offlineScene{ctx: ctx, plane: plane, state: st, cam: cam, target: target}, nil
}

func (s *offlineScene) Close() {
	s.target.Destroy()
	s.plane.Release()
	s.ctx.Shutdown()
}

func runRecord(cfg *config.Config, opts *options.HeroOptions) error {
	outFile := *opts.OutputFile
	if outFile == "" {
		outFile = "output.mp4"
	}

	scene, err := newOfflineScene(cfg)
	if err != nil {
		return err
	}
	defer scene.Close()

	totalFrames := int(cfg.Record.DurationSec * float64(cfg.Record.FPS))
	rec := renderer.NewRecorder(scene.target.Width(), scene.target.Height(), cfg.Record.FPS,
		cfg.Record.Codec, cfg.Record.CRF, outFile, *opts.FFMPEGPath)

	log.Printf("Recording %d frames at %dx%d to %s", totalFrames, scene.target.Width(), scene.target.Height(), outFile)
	if err := renderer.RecordVideo(scene.plane, scene.state, scene.cam, scene.target, rec, totalFrames); err != nil {
		return err
	}
	log.Printf("Successfully rendered to %s", outFile)
	return nil
}

func runScreenshot(cfg *config.Config, opts *options.HeroOptions) error {
	outFile := *opts.OutputFile
	if outFile == "" {
		outFile = "screenshot.png"
	}

	scene, err := newOfflineScene(cfg)
	if err != nil {
		return err
	}
	defer scene.Close()

	if err := renderer.Screenshot(scene.plane, scene.state, scene.cam, scene.target, outFile); err != nil {
		return err
	}
	log.Printf("Wrote screenshot to %s", outFile)
	return nil
}

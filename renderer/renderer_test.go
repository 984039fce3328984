package renderer

import (
	"image/color"
	"path/filepath"
	"testing"
	"time"
)

func TestRenderTextMetrics(t *testing.T) {
	img := renderText("GLASS", color.RGBA{255, 255, 255, 255})
	b := img.Bounds()
	if b.Dx() != 7*5 {
		t.Errorf("width = %d, want %d", b.Dx(), 7*5)
	}
	if b.Dy() != 13 {
		t.Errorf("height = %d, want 13", b.Dy())
	}

	opaque := false
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			opaque = true
			break
		}
	}
	if !opaque {
		t.Error("no glyph pixels rendered")
	}
}

func TestFlipToImage(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
	}
	img := flipToImage(pixels, 1, 2)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("top pixel = %v, want green", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel = %v, want red", got)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	in, out := buildFFmpegArgs(1280, 720, 60, "libx264", 18)
	if in["f"] != "rawvideo" || in["pix_fmt"] != "rgba" {
		t.Errorf("unexpected input args: %v", in)
	}
	if in["s"] != "1280x720" {
		t.Errorf("size arg = %v, want 1280x720", in["s"])
	}
	if in["framerate"] != 60 {
		t.Errorf("framerate arg = %v, want 60", in["framerate"])
	}
	if out["c:v"] != "libx264" || out["crf"] != 18 {
		t.Errorf("unexpected codec args: %v", out)
	}
	if out["vf"] != "vflip" || out["pix_fmt"] != "yuv420p" {
		t.Errorf("unexpected format args: %v", out)
	}
}

func TestRecorderReportsEncoderLaunchFailure(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(64, 48, 30, "libx264", 18,
		filepath.Join(dir, "out.mp4"), filepath.Join(dir, "missing-ffmpeg"))
	rec.Start()

	// More frames than the channel holds, so Submit must survive the
	// pipe backing up behind a dead encoder.
	frame := &Frame{Pixels: make([]byte, 64*48*4)}
	done := make(chan error, 1)
	go func() {
		for i := 0; i < numPBOs+2; i++ {
			rec.Submit(frame)
		}
		done <- rec.Finish()
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Finish returned nil after the encoder failed to launch")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit or Finish still blocked after the encoder failed to launch")
	}
}

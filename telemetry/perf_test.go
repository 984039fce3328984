package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStatsEmpty(t *testing.T) {
	c := NewFrameCollector(10)
	if s := c.Stats(); s.Frames != 0 || s.FPS != 0 {
		t.Errorf("empty collector stats = %+v, want zeros", s)
	}
	if c.Full() {
		t.Error("empty collector reports full")
	}
}

func TestStatsAggregation(t *testing.T) {
	c := NewFrameCollector(10)
	for _, d := range []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
	} {
		c.Record(d)
	}

	s := c.Stats()
	if s.Frames != 4 {
		t.Fatalf("frames = %d, want 4", s.Frames)
	}
	if math.Abs(s.AvgMs-2.5) > 1e-9 {
		t.Errorf("avg = %v, want 2.5", s.AvgMs)
	}
	if s.MinMs != 1 || s.MaxMs != 4 {
		t.Errorf("min/max = %v/%v, want 1/4", s.MinMs, s.MaxMs)
	}
	if s.P50Ms != 2 {
		t.Errorf("p50 = %v, want 2", s.P50Ms)
	}
	if s.P95Ms != 4 {
		t.Errorf("p95 = %v, want 4", s.P95Ms)
	}
	if math.Abs(s.FPS-400) > 1e-9 {
		t.Errorf("fps = %v, want 400", s.FPS)
	}
}

func TestWindowWrapAndReset(t *testing.T) {
	c := NewFrameCollector(3)
	for i := 0; i < 7; i++ {
		c.Record(time.Millisecond)
	}
	if !c.Full() {
		t.Error("collector should be full after wrapping")
	}
	if s := c.Stats(); s.Frames != 3 {
		t.Errorf("frames = %d, want window size 3", s.Frames)
	}

	c.Reset()
	if c.Full() {
		t.Error("collector still full after reset")
	}
	if s := c.Stats(); s.Frames != 0 {
		t.Errorf("frames after reset = %d, want 0", s.Frames)
	}
}

func TestOutputWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.csv")
	out, err := NewOutput(path)
	if err != nil {
		t.Fatalf("NewOutput: %v", err)
	}

	stats := FrameStats{Frames: 2, AvgMs: 1.5, FPS: 666.7}
	if err := out.WritePerf(stats, 120); err != nil {
		t.Fatalf("first WritePerf: %v", err)
	}
	if err := out.WritePerf(stats, 240); err != nil {
		t.Fatalf("second WritePerf: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 records", len(lines))
	}
	if !strings.Contains(lines[0], "avg_ms") {
		t.Errorf("header line %q missing avg_ms column", lines[0])
	}
	if !strings.HasPrefix(lines[1], "120,") || !strings.HasPrefix(lines[2], "240,") {
		t.Errorf("records %q, %q missing window markers", lines[1], lines[2])
	}
}

func TestNilOutputIsSilent(t *testing.T) {
	out, err := NewOutput("")
	if err != nil {
		t.Fatalf("NewOutput(\"\"): %v", err)
	}
	if out != nil {
		t.Fatal("empty path should yield nil output")
	}
	if err := out.WritePerf(FrameStats{}, 0); err != nil {
		t.Errorf("nil WritePerf returned %v", err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}
}

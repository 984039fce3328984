// Package telemetry aggregates frame timing over rolling windows for
// structured logging and CSV export.
package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameCollector tracks frame durations over a rolling window.
type FrameCollector struct {
	windowSize  int
	samples     []time.Duration
	writeIndex  int
	sampleCount int
}

// NewFrameCollector creates a collector over windowSize frames.
func NewFrameCollector(windowSize int) *FrameCollector {
	if windowSize < 1 {
		windowSize = 120
	}
	return &FrameCollector{
		windowSize: windowSize,
		samples:    make([]time.Duration, windowSize),
	}
}

// Record adds one frame duration to the window.
func (c *FrameCollector) Record(d time.Duration) {
	c.samples[c.writeIndex] = d
	c.writeIndex = (c.writeIndex + 1) % c.windowSize
	if c.sampleCount < c.windowSize {
		c.sampleCount++
	}
}

// Full reports whether a whole window of samples has accumulated.
func (c *FrameCollector) Full() bool {
	return c.sampleCount == c.windowSize
}

// Reset clears the window, starting the next aggregation period.
func (c *FrameCollector) Reset() {
	c.writeIndex = 0
	c.sampleCount = 0
}

// FrameStats holds aggregated frame statistics for one window.
type FrameStats struct {
	Frames int
	AvgMs  float64
	MinMs  float64
	MaxMs  float64
	P50Ms  float64
	P95Ms  float64
	FPS    float64
}

// Stats computes statistics over the samples recorded so far.
func (c *FrameCollector) Stats() FrameStats {
	if c.sampleCount == 0 {
		return FrameStats{}
	}

	ms := make([]float64, c.sampleCount)
	for i := 0; i < c.sampleCount; i++ {
		ms[i] = float64(c.samples[i].Microseconds()) / 1000.0
	}
	sort.Float64s(ms)

	avg := stat.Mean(ms, nil)
	s := FrameStats{
		Frames: c.sampleCount,
		AvgMs:  avg,
		MinMs:  ms[0],
		MaxMs:  ms[len(ms)-1],
		P50Ms:  stat.Quantile(0.50, stat.Empirical, ms, nil),
		P95Ms:  stat.Quantile(0.95, stat.Empirical, ms, nil),
	}
	if avg > 0 {
		s.FPS = 1000.0 / avg
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frames", s.Frames),
		slog.Float64("avg_ms", s.AvgMs),
		slog.Float64("min_ms", s.MinMs),
		slog.Float64("max_ms", s.MaxMs),
		slog.Float64("p50_ms", s.P50Ms),
		slog.Float64("p95_ms", s.P95Ms),
		slog.Float64("fps", s.FPS),
	)
}

// FrameStatsCSV is a flat record for CSV export.
type FrameStatsCSV struct {
	WindowEnd int64   `csv:"window_end"`
	Frames    int     `csv:"frames"`
	AvgMs     float64 `csv:"avg_ms"`
	MinMs     float64 `csv:"min_ms"`
	MaxMs     float64 `csv:"max_ms"`
	P50Ms     float64 `csv:"p50_ms"`
	P95Ms     float64 `csv:"p95_ms"`
	FPS       float64 `csv:"fps"`
}

// ToCSV converts FrameStats to a flat CSV-friendly record tagged with the
// frame index ending the window.
func (s FrameStats) ToCSV(windowEnd int64) FrameStatsCSV {
	return FrameStatsCSV{
		WindowEnd: windowEnd,
		Frames:    s.Frames,
		AvgMs:     s.AvgMs,
		MinMs:     s.MinMs,
		MaxMs:     s.MaxMs,
		P50Ms:     s.P50Ms,
		P95Ms:     s.P95Ms,
		FPS:       s.FPS,
	}
}

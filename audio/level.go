package audio

import (
	"fmt"
	"math"
	"sync"

	fft "github.com/mjibson/go-dsp/fft"
)

const (
	// A 2048-point FFT gives 1024 usable frequency bins.
	fftInputSize      = 2048
	historyBufferSize = fftInputSize * 4

	minDecibels = -100.0
	maxDecibels = -30.0
)

// Band edges in Hz.
var bandEdges = [3][2]float64{
	{20, 250},
	{250, 2000},
	{2000, 8000},
}

// Levels are normalized band energies in [0, 1].
type Levels struct {
	Bass   float32
	Mid    float32
	Treble float32
}

// LevelMeter consumes an audio stream into a ring of recent samples and
// reduces it to smoothed band levels on demand. Levels must be called
// from a single goroutine; ingestion runs concurrently.
type LevelMeter struct {
	device        AudioDevice
	historyBuffer []float32
	bufferPos     int
	mutex         sync.Mutex

	window    []float64
	smoothed  [3]float64
	smoothing float64
}

// NewLevelMeter starts the device and begins buffering its stream.
// Smoothing in [0, 1) is the weight of the previous level per update.
func NewLevelMeter(device AudioDevice, smoothing float64) (*LevelMeter, error) {
	m := &LevelMeter{
		device:        device,
		historyBuffer: make([]float32, historyBufferSize),
		window:        blackmanWindow(fftInputSize),
		smoothing:     smoothing,
	}
	for i := range m.smoothed {
		m.smoothed[i] = minDecibels
	}

	audioChan, err := device.Start()
	if err != nil {
		return nil, fmt.Errorf("could not start audio device: %w", err)
	}
	go m.listen(audioChan)
	return m, nil
}

// Stop terminates the underlying device, which ends the listener.
func (m *LevelMeter) Stop() error {
	return m.device.Stop()
}

// listen consumes chunks until the device closes its channel. A nil
// channel blocks forever, which is the silence of NullDevice.
func (m *LevelMeter) listen(audioChan <-chan []float32) {
	for samples := range audioChan {
		m.ingest(samples)
	}
}

func (m *LevelMeter) ingest(samples []float32) {
	m.mutex.Lock()
	for _, sample := range samples {
		m.historyBuffer[m.bufferPos] = sample
		m.bufferPos = (m.bufferPos + 1) % historyBufferSize
	}
	m.mutex.Unlock()
}

func (m *LevelMeter) recentSamples(numSamples int) []float32 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		index := (m.bufferPos - numSamples + i + historyBufferSize) % historyBufferSize
		out[i] = m.historyBuffer[index]
	}
	return out
}

// Levels windows the most recent samples, transforms them, and folds the
// spectrum into smoothed bass, mid, and treble levels.
func (m *LevelMeter) Levels() Levels {
	samples := m.recentSamples(fftInputSize)
	samples64 := make([]float64, fftInputSize)
	for i, s := range samples {
		samples64[i] = float64(s) * m.window[i]
	}
	spectrum := fft.FFTReal(samples64)

	rate := m.device.SampleRate()
	var out [3]float64
	for b, edges := range bandEdges {
		lo, hi := binRange(edges[0], edges[1], rate)
		db := bandDecibels(spectrum, lo, hi)
		m.smoothed[b] = m.smoothing*m.smoothed[b] + (1.0-m.smoothing)*db
		out[b] = scaleDecibels(m.smoothed[b])
	}
	return Levels{Bass: float32(out[0]), Mid: float32(out[1]), Treble: float32(out[2])}
}

// binRange maps a frequency band to FFT bin indexes, skipping the DC bin
// and clamping at Nyquist.
func binRange(loHz, hiHz float64, sampleRate int) (int, int) {
	if sampleRate <= 0 {
		return 0, 0
	}
	binWidth := float64(sampleRate) / fftInputSize
	lo := int(loHz / binWidth)
	hi := int(hiHz / binWidth)
	if lo < 1 {
		lo = 1
	}
	if hi > fftInputSize/2 {
		hi = fftInputSize / 2
	}
	return lo, hi
}

// bandDecibels averages normalized bin magnitudes over [lo, hi) and
// converts to decibels.
func bandDecibels(spectrum []complex128, lo, hi int) float64 {
	if hi <= lo {
		return minDecibels
	}
	var sum float64
	for i := lo; i < hi; i++ {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		sum += math.Sqrt(re*re+im*im) * (2.0 / float64(fftInputSize))
	}
	mean := sum / float64(hi-lo)
	return 20 * math.Log10(mean+1e-9)
}

// scaleDecibels maps the analyzer range onto [0, 1].
func scaleDecibels(db float64) float64 {
	if db < minDecibels {
		return 0.0
	}
	if db > maxDecibels {
		return 1.0
	}
	return (db - minDecibels) / (maxDecibels - minDecibels)
}

// blackmanWindow generates a Blackman window of the given size.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0 := 0.42
	a1 := 0.5
	a2 := 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - (a1 * math.Cos(2*math.Pi*t)) + (a2 * math.Cos(4*math.Pi*t))
	}
	return window
}

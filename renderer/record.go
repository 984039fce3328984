package renderer

import (
	"fmt"
	"image/png"
	"io"
	"log"
	"os"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/glasshero/glasshero/camera"
	"github.com/glasshero/glasshero/effect"
	"github.com/glasshero/glasshero/graphics"
)

// Recorder encodes captured frames to a video file by piping raw RGBA
// into an ffmpeg subprocess. The producer side runs on the GL thread;
// the encoder consumer runs on its own goroutine.
type Recorder struct {
	width      int
	height     int
	fps        int
	codec      string
	crf        int
	outFile    string
	ffmpegPath string

	frameChan chan *Frame
	doneChan  chan error
}

func NewRecorder(width, height, fps int, codec string, crf int, outFile, ffmpegPath string) *Recorder {
	return &Recorder{
		width:      width,
		height:     height,
		fps:        fps,
		codec:      codec,
		crf:        crf,
		outFile:    outFile,
		ffmpegPath: ffmpegPath,
		frameChan:  make(chan *Frame, numPBOs),
		doneChan:   make(chan error, 1),
	}
}

func buildFFmpegArgs(width, height, fps int, codec string, crf int) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": fps,
	}
	// Frames arrive in GL row order, so the flip happens in the filter
	// graph instead of on the CPU.
	outputArgs = ffmpeg.KwArgs{
		"c:v":     codec,
		"crf":     crf,
		"pix_fmt": "yuv420p",
		"vf":      "vflip",
	}
	return
}

// Start launches the encoder consumer.
func (r *Recorder) Start() {
	go r.runEncoder()
}

// Submit hands a captured frame to the encoder. Blocks when the encoder
// falls more than the channel depth behind.
func (r *Recorder) Submit(frame *Frame) {
	r.frameChan <- frame
}

// Finish signals end of stream and waits for the encoder to exit,
// returning the first error the pipeline hit.
func (r *Recorder) Finish() error {
	close(r.frameChan)
	return <-r.doneChan
}

// runEncoder is the consumer. It feeds the ffmpeg pipe until the frame
// channel closes, draining remaining frames after a write error so
// Submit never deadlocks.
func (r *Recorder) runEncoder() {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := buildFFmpegArgs(r.width, r.height, r.fps, r.codec, r.crf)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(r.outFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if r.ffmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(r.ffmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// Fail the read end so a Write blocked on the pipe returns once
		// ffmpeg exits early, letting the drain loop below engage.
		pipeReader.CloseWithError(err)
		errc <- err
	}()

	var writeErr error
	for frame := range r.frameChan {
		if writeErr != nil {
			continue
		}
		if _, err := pipeWriter.Write(frame.Pixels); err != nil {
			log.Printf("error writing frame %d to ffmpeg: %v", frame.PTS, err)
			writeErr = err
		}
	}
	pipeWriter.Close()

	runErr := <-errc
	if writeErr != nil {
		r.doneChan <- writeErr
		return
	}
	r.doneChan <- runErr
}

// RecordVideo renders totalFrames frames of the effect into target and
// encodes them through rec. The effect clock advances by its fixed step
// once per frame, so encoder stalls never alter the animation.
func RecordVideo(plane graphics.Plane, st *effect.State, cam *camera.Camera, target *OffscreenTarget, rec *Recorder, totalFrames int) error {
	rec.Start()

	for i := 0; i < totalFrames; i++ {
		st.Advance()
		target.Bind()
		plane.Draw(st, cam)
		frame := target.ReadAsync(int64(i))
		target.Unbind()
		if frame != nil {
			rec.Submit(frame)
		}
	}
	for _, frame := range target.Flush() {
		rec.Submit(frame)
	}

	return rec.Finish()
}

// Screenshot renders a single frame into target and writes it out as a
// PNG.
func Screenshot(plane graphics.Plane, st *effect.State, cam *camera.Camera, target *OffscreenTarget, outFile string) error {
	st.Advance()
	target.Bind()
	plane.Draw(st, cam)
	pixels := target.ReadSync()
	target.Unbind()

	img := flipToImage(pixels, target.Width(), target.Height())
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return nil
}

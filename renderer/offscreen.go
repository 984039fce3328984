package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// numPBOs is the depth of the pixel buffer ring. Readback of a frame is
// deferred until the ring has wrapped, so the GPU never stalls on a
// same-frame map.
const numPBOs = 3

// Frame is one captured frame of RGBA pixels in GL row order (bottom row
// first), tagged with its presentation index.
type Frame struct {
	Pixels []byte
	PTS    int64
}

type pboSlot struct {
	index int
	pts   int64
}

// OffscreenTarget is a color-only framebuffer with an asynchronous
// readback ring. Used by record and screenshot modes; all methods must
// run on the GL thread.
type OffscreenTarget struct {
	fbo       uint32
	textureID uint32
	width     int
	height    int

	pbos    [numPBOs]uint32
	next    int
	pending []pboSlot
}

func NewOffscreenTarget(width, height int) (*OffscreenTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	t := &OffscreenTarget{width: width, height: height}

	gl.GenTextures(1, &t.textureID)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.textureID, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		t.Destroy()
		return nil, fmt.Errorf("offscreen framebuffer incomplete: 0x%x", status)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	bufSize := width * height * 4
	gl.GenBuffers(numPBOs, &t.pbos[0])
	for i := 0; i < numPBOs; i++ {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbos[i])
		gl.BufferData(gl.PIXEL_PACK_BUFFER, bufSize, nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)

	return t, nil
}

func (t *OffscreenTarget) Width() int  { return t.width }
func (t *OffscreenTarget) Height() int { return t.height }

// Bind makes the offscreen framebuffer the render target.
func (t *OffscreenTarget) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
}

// Unbind restores the default framebuffer.
func (t *OffscreenTarget) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadAsync queues a readback of the bound framebuffer into the next ring
// slot. While the ring is still filling it returns nil; once full, each
// call returns the oldest queued frame, numPBOs frames behind the one just
// issued. Call Flush after the last frame to drain the rest.
func (t *OffscreenTarget) ReadAsync(pts int64) *Frame {
	slot := t.pbos[t.next]
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, slot)
	gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)

	t.pending = append(t.pending, pboSlot{index: t.next, pts: pts})
	t.next = (t.next + 1) % numPBOs

	if len(t.pending) < numPBOs {
		return nil
	}
	return t.mapOldest()
}

// Flush drains the ring, returning the frames still in flight in
// presentation order.
func (t *OffscreenTarget) Flush() []*Frame {
	var frames []*Frame
	for len(t.pending) > 0 {
		frames = append(frames, t.mapOldest())
	}
	return frames
}

func (t *OffscreenTarget) mapOldest() *Frame {
	slot := t.pending[0]
	t.pending = t.pending[1:]

	bufSize := t.width * t.height * 4
	frame := &Frame{Pixels: make([]byte, bufSize), PTS: slot.pts}

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbos[slot.index])
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr != nil {
		data := (*[1 << 30]byte)(ptr)[:bufSize:bufSize]
		copy(frame.Pixels, data)
		gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)

	return frame
}

// ReadSync reads the bound framebuffer immediately, stalling the
// pipeline. Fine for a single screenshot, wrong for video.
func (t *OffscreenTarget) ReadSync() []byte {
	pixels := make([]byte, t.width*t.height*4)
	gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Destroy frees the framebuffer, texture, and readback buffers.
func (t *OffscreenTarget) Destroy() {
	if t.pbos[0] != 0 {
		gl.DeleteBuffers(numPBOs, &t.pbos[0])
		t.pbos = [numPBOs]uint32{}
	}
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.textureID != 0 {
		gl.DeleteTextures(1, &t.textureID)
		t.textureID = 0
	}
	t.pending = nil
}

// flipToImage converts a GL-ordered pixel buffer into a top-down image
// for the stdlib encoders.
func flipToImage(pixels []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowLen := width * 4
	for y := 0; y < height; y++ {
		src := pixels[(height-1-y)*rowLen : (height-y)*rowLen]
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], src)
	}
	return img
}

package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/glasshero/glasshero/shader"
)

// Overlay draws heading text above the effect plane. Labels are rasterized
// once with the builtin bitmap face and drawn as alpha-blended quads in
// pixel space.
type Overlay struct {
	program     uint32
	vao         uint32
	vbo         uint32
	viewportLoc int32
	textLoc     int32

	labels []overlayLabel
	margin int
}

type overlayLabel struct {
	texture uint32
	w       int
	h       int
	scale   int
}

func NewOverlay(heading, subheading string, marginPx int) (*Overlay, error) {
	o := &Overlay{margin: marginPx}

	var err error
	o.program, err = newProgram(shader.OverlayVertexShader(), shader.OverlayFragmentShader())
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay program: %w", err)
	}
	o.viewportLoc = gl.GetUniformLocation(o.program, gl.Str("uViewport\x00"))
	o.textLoc = gl.GetUniformLocation(o.program, gl.Str("uText\x00"))

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	if heading != "" {
		o.labels = append(o.labels, o.makeLabel(heading, 4, color.RGBA{255, 255, 255, 255}))
	}
	if subheading != "" {
		o.labels = append(o.labels, o.makeLabel(subheading, 2, color.RGBA{200, 205, 214, 255}))
	}
	return o, nil
}

func (o *Overlay) makeLabel(text string, scale int, col color.RGBA) overlayLabel {
	img := renderText(text, col)
	b := img.Bounds()

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	// Integer upscale of a bitmap face, so nearest filtering keeps the
	// glyph edges crisp.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return overlayLabel{texture: tex, w: b.Dx(), h: b.Dy(), scale: scale}
}

// renderText rasterizes text into a tight RGBA image with the 7x13
// bitmap face.
func renderText(text string, col color.RGBA) *image.RGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width < 1 {
		width = 1
	}
	height := face.Ascent + face.Descent
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)
	return img
}

// Draw renders the labels stacked from the top-left margin. Runs after
// the effect plane with blending over it.
func (o *Overlay) Draw(viewportW, viewportH int) {
	if len(o.labels) == 0 || viewportW <= 0 || viewportH <= 0 {
		return
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(o.program)
	if o.viewportLoc != -1 {
		gl.Uniform2f(o.viewportLoc, float32(viewportW), float32(viewportH))
	}
	if o.textLoc != -1 {
		gl.Uniform1i(o.textLoc, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)

	y := o.margin
	for _, l := range o.labels {
		x0 := float32(o.margin)
		y0 := float32(y)
		x1 := x0 + float32(l.w*l.scale)
		y1 := y0 + float32(l.h*l.scale)
		verts := []float32{
			x0, y0, 0, 0,
			x0, y1, 0, 1,
			x1, y1, 1, 1,
			x0, y0, 0, 0,
			x1, y1, 1, 1,
			x1, y0, 1, 0,
		}
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts))
		gl.BindTexture(gl.TEXTURE_2D, l.texture)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		y += l.h*l.scale + 8
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

// Release frees the overlay's GPU resources.
func (o *Overlay) Release() {
	for _, l := range o.labels {
		gl.DeleteTextures(1, &l.texture)
	}
	o.labels = nil
	gl.DeleteProgram(o.program)
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteVertexArrays(1, &o.vao)
}

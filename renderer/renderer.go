// Package renderer is the OpenGL implementation of the hero scene: the
// effect plane, the offscreen capture targets, the video recorder, and the
// text overlay.
package renderer

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/glasshero/glasshero/camera"
	"github.com/glasshero/glasshero/effect"
	"github.com/glasshero/glasshero/graphics"
	"github.com/glasshero/glasshero/shader"
	"github.com/glasshero/glasshero/translator"
)

// Ensures gl.Init() is called only once across backends.
var glInitOnce sync.Once

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// Backend creates GL scene resources on the context made current at
// construction. Implements graphics.Backend.
type Backend struct {
	context graphics.Context
}

func NewBackend(ctx graphics.Context) (*Backend, error) {
	ctx.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	return &Backend{context: ctx}, nil
}

func (b *Backend) CreatePlane() (graphics.Plane, error) {
	return NewScenePlane()
}

// ScenePlane is the textured quad the effect renders on. All methods must
// run on the thread owning the GL context.
type ScenePlane struct {
	program uint32
	vao     uint32
	vbo     uint32
	texture uint32

	// Fragment uniform locations, resolved through the translator's
	// mapped names.
	textureLoc    int32
	texSizeLoc    int32
	resolutionLoc int32
	mouseLoc      int32
	timeLoc       int32
	parallaxLoc   int32
	distortionLoc int32
	strengthLoc   int32
	stripesLoc    int32
	smoothLoc     int32
	paddingLoc    int32
	flowLoc       int32

	// Vertex uniform locations, literal names.
	viewProjLoc  int32
	planeSizeLoc int32
}

// NewScenePlane translates and links the effect program, builds the quad
// geometry, and allocates the 1x1 placeholder texture.
func NewScenePlane() (*ScenePlane, error) {
	fragSource, names, err := translator.FragmentToGL410(shader.EffectFragmentShader())
	if err != nil {
		return nil, err
	}

	p := &ScenePlane{}
	p.program, err = newProgram(shader.PlaneVertexShader(), fragSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create effect program: %w", err)
	}

	gl.GenVertexArrays(1, &p.vao)
	gl.GenBuffers(1, &p.vbo)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &p.texture)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	placeholder := []uint8{30, 34, 40, 255}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(placeholder))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.UseProgram(p.program)
	p.textureLoc = lookupUniform(p.program, names, shader.UniformTexture)
	p.texSizeLoc = lookupUniform(p.program, names, shader.UniformTexSize)
	p.resolutionLoc = lookupUniform(p.program, names, shader.UniformResolution)
	p.mouseLoc = lookupUniform(p.program, names, shader.UniformMouse)
	p.timeLoc = lookupUniform(p.program, names, shader.UniformTime)
	p.parallaxLoc = lookupUniform(p.program, names, shader.UniformParallaxStrength)
	p.distortionLoc = lookupUniform(p.program, names, shader.UniformDistortionMult)
	p.strengthLoc = lookupUniform(p.program, names, shader.UniformGlassStrength)
	p.stripesLoc = lookupUniform(p.program, names, shader.UniformStripesFreq)
	p.smoothLoc = lookupUniform(p.program, names, shader.UniformGlassSmooth)
	p.paddingLoc = lookupUniform(p.program, names, shader.UniformEdgePadding)
	p.flowLoc = lookupUniform(p.program, names, shader.UniformFlowSpeed)

	// The vertex shader is not translated, so its names are literal.
	p.viewProjLoc = gl.GetUniformLocation(p.program, gl.Str("uViewProj\x00"))
	p.planeSizeLoc = gl.GetUniformLocation(p.program, gl.Str("uPlaneSize\x00"))

	return p, nil
}

// lookupUniform resolves a uniform authored as name through the
// translator's name mapping. Uniforms optimized out of the translated
// source resolve to -1 and are skipped at upload time.
func lookupUniform(program uint32, names map[string]string, name string) int32 {
	mapped, ok := names[name]
	if !ok {
		return -1
	}
	return gl.GetUniformLocation(program, gl.Str(mapped+"\x00"))
}

// SetImage uploads the decoded background image over the placeholder
// texture. Rows must already be in GL orientation.
func (p *ScenePlane) SetImage(img *image.RGBA) {
	if img == nil {
		return
	}
	b := img.Bounds()
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	log.Printf("background texture uploaded: %dx%d", b.Dx(), b.Dy())
}

// Draw renders one frame of the effect into the currently bound
// framebuffer.
func (p *ScenePlane) Draw(st *effect.State, cam *camera.Camera) {
	gl.Viewport(0, 0, int32(st.Resolution.X()), int32(st.Resolution.Y()))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(p.program)
	p.updateUniforms(st, cam)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (p *ScenePlane) updateUniforms(st *effect.State, cam *camera.Camera) {
	tun := st.Effective()

	if p.resolutionLoc != -1 {
		gl.Uniform2f(p.resolutionLoc, st.Resolution.X(), st.Resolution.Y())
	}
	if p.texSizeLoc != -1 {
		gl.Uniform2f(p.texSizeLoc, st.TexSize.X(), st.TexSize.Y())
	}
	if p.mouseLoc != -1 {
		gl.Uniform2f(p.mouseLoc, st.Mouse.X(), st.Mouse.Y())
	}
	if p.timeLoc != -1 {
		gl.Uniform1f(p.timeLoc, st.Time)
	}
	if p.textureLoc != -1 {
		gl.Uniform1i(p.textureLoc, 0)
	}
	if p.parallaxLoc != -1 {
		gl.Uniform1f(p.parallaxLoc, tun.ParallaxStrength)
	}
	if p.distortionLoc != -1 {
		gl.Uniform1f(p.distortionLoc, tun.DistortionMult)
	}
	if p.strengthLoc != -1 {
		gl.Uniform1f(p.strengthLoc, tun.GlassStrength)
	}
	if p.stripesLoc != -1 {
		gl.Uniform1f(p.stripesLoc, tun.StripesFrequency)
	}
	if p.smoothLoc != -1 {
		gl.Uniform1f(p.smoothLoc, tun.GlassSmoothness)
	}
	if p.paddingLoc != -1 {
		gl.Uniform1f(p.paddingLoc, tun.EdgePadding)
	}
	if p.flowLoc != -1 {
		gl.Uniform1f(p.flowLoc, tun.FlowSpeed)
	}

	viewProj := cam.ViewProjection()
	if p.viewProjLoc != -1 {
		gl.UniformMatrix4fv(p.viewProjLoc, 1, false, &viewProj[0])
	}
	planeSize := cam.PlaneSize()
	if p.planeSizeLoc != -1 {
		gl.Uniform2f(p.planeSizeLoc, planeSize.X(), planeSize.Y())
	}
}

// Release frees the plane's GPU resources: program first, then texture,
// then geometry.
func (p *ScenePlane) Release() {
	gl.DeleteProgram(p.program)
	gl.DeleteTextures(1, &p.texture)
	gl.DeleteBuffers(1, &p.vbo)
	gl.DeleteVertexArrays(1, &p.vao)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		return 0, fmt.Errorf("failed to link program: %v", logText)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(logText))
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return sh, nil
}

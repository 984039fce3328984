package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	graphics "github.com/glasshero/glasshero/graphics"
)

// Context owns the GLFW window and fans its input callbacks out to
// subscribers. It implements graphics.Context, graphics.Surface, and
// graphics.EventSource. Callbacks fire during EndFrame's event poll on
// the thread that owns the window, so the subscriber maps need no lock.
type Context struct {
	window *glfw.Window

	nextSubID   int
	pointerSubs map[int]func(graphics.PointerEvent)
	resizeSubs  map[int]func(graphics.ResizeEvent)
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
}

// New creates a GLFW window and returns a Context object. The window
// starts hidden; Attach shows it once the scene is ready.
func New(width, height int, title string, fullscreen bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)

	var monitor *glfw.Monitor
	if fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if mode := monitor.GetVideoMode(); mode != nil {
			width, height = mode.Width, mode.Height
		}
	}

	win, err := glfw.CreateWindow(width, height, title, monitor, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		pointerSubs:  make(map[int]func(graphics.PointerEvent)),
		resizeSubs:   make(map[int]func(graphics.ResizeEvent)),
		keyCallbacks: make(map[glfw.Key]func()),
	}

	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetCursorPosCallback(c.glfwCursorPosCallback)
	win.SetFramebufferSizeCallback(c.glfwFramebufferSizeCallback)

	return c, nil
}

// RegisterKeyCallback allows the main application to register a function
// to be called when a specific key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

// glfwKeyCallback dispatches key presses to registered callbacks. Escape
// always requests close.
func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}

	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

// glfwCursorPosCallback converts the cursor position from window
// coordinates into framebuffer pixels with the origin at the bottom left,
// then notifies subscribers.
func (c *Context) glfwCursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	fbWidth, fbHeight := w.GetFramebufferSize()
	winWidth, winHeight := w.GetSize()
	var scaleX, scaleY float64 = 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}

	ev := graphics.PointerEvent{
		X: float32(xpos * scaleX),
		Y: float32(fbHeight) - float32(ypos*scaleY),
	}
	for _, fn := range c.pointerSubs {
		fn(ev)
	}
}

func (c *Context) glfwFramebufferSizeCallback(w *glfw.Window, width, height int) {
	ev := graphics.ResizeEvent{Width: width, Height: height}
	for _, fn := range c.resizeSubs {
		fn(ev)
	}
}

// OnPointerMove subscribes to cursor movement. The returned function
// removes the subscription and may be called more than once.
func (c *Context) OnPointerMove(fn func(graphics.PointerEvent)) func() {
	id := c.nextSubID
	c.nextSubID++
	c.pointerSubs[id] = fn
	return func() { delete(c.pointerSubs, id) }
}

// OnResize subscribes to framebuffer size changes.
func (c *Context) OnResize(fn func(graphics.ResizeEvent)) func() {
	id := c.nextSubID
	c.nextSubID++
	c.resizeSubs[id] = fn
	return func() { delete(c.resizeSubs, id) }
}

// Attach shows the window.
func (c *Context) Attach() {
	c.window.Show()
}

// Detach hides the window without destroying the context, so GPU
// resources can still be released afterwards.
func (c *Context) Detach() {
	c.window.Hide()
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// EnableVSync synchronizes buffer swaps with the display. Call after
// MakeCurrent.
func (c *Context) EnableVSync() {
	glfw.SwapInterval(1)
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be
// called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called
// from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}

// Package window wraps the SDL2 window the samples present to.
package window

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/tutorials/internal/frame"
)

// waitTimeoutMS bounds WaitEvents so a caller blocked on a minimized window
// still gets to check for cancellation.
const waitTimeoutMS = 100

// Handler receives input that the window does not act on itself. Positions
// are in window coordinates with the origin top-left.
type Handler interface {
	Resized(width, height int)
	KeyDown(key sdl.Keycode)
	MouseButton(button uint8, pressed bool, x, y int)
	MouseMotion(x, y int)
	Scroll(steps int)
}

// NopHandler ignores everything. Embed it to implement only part of Handler.
type NopHandler struct{}

func (NopHandler) Resized(int, int)                  {}
func (NopHandler) KeyDown(sdl.Keycode)               {}
func (NopHandler) MouseButton(uint8, bool, int, int) {}
func (NopHandler) MouseMotion(int, int)              {}
func (NopHandler) Scroll(int)                        {}

type Window struct {
	window  *sdl.Window
	resize  *frame.ResizeSignal
	handler Handler
	logger  *slog.Logger
	closing bool
}

// Open initializes SDL's video subsystem and creates a resizable Vulkan
// window. Size changes are reported through resize.
func Open(title string, width, height int, resize *frame.ResizeSignal, logger *slog.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return newWindow(window, resize, logger), nil
}

func newWindow(window *sdl.Window, resize *frame.ResizeSignal, logger *slog.Logger) *Window {
	if resize == nil {
		resize = &frame.ResizeSignal{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Window{
		window:  window,
		resize:  resize,
		handler: NopHandler{},
		logger:  logger,
	}
}

func (w *Window) SetHandler(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	w.handler = h
}

// SDL exposes the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// InstanceExtensions lists the Vulkan instance extensions SDL needs to
// create a surface for this window.
func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// FramebufferSize is the drawable size in pixels, or (0, 0) while the
// window is minimized.
func (w *Window) FramebufferSize() (int, int) {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// WaitEvents blocks until at least one event arrives or a short timeout
// passes, then dispatches everything pending.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEventTimeout(waitTimeoutMS); event != nil {
		w.dispatch(event)
	}
	w.PollEvents()
}

// PollEvents dispatches every pending event and reports whether the window
// should stay open.
func (w *Window) PollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.dispatch(event)
	}
	return !w.closing
}

// Close asks the run loop to stop at its next PollEvents.
func (w *Window) Close() {
	w.closing = true
}

func (w *Window) Closing() bool {
	return w.closing
}

func (w *Window) Destroy() {
	if w.window != nil {
		if err := w.window.Destroy(); err != nil {
			w.logger.Warn("destroy window", "err", err)
		}
		w.window = nil
	}
	sdl.Quit()
}

func (w *Window) dispatch(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closing = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			w.resize.Request()
			w.handler.Resized(int(e.Data1), int(e.Data2))
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
			w.logger.Debug("window visibility changed", "event", e.Event)
			w.resize.Request()
		}
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			w.handler.KeyDown(e.Keysym.Sym)
		}
	case *sdl.MouseButtonEvent:
		w.handler.MouseButton(e.Button, e.State == sdl.PRESSED, int(e.X), int(e.Y))
	case *sdl.MouseMotionEvent:
		w.handler.MouseMotion(int(e.X), int(e.Y))
	case *sdl.MouseWheelEvent:
		steps := int(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			steps = -steps
		}
		w.handler.Scroll(steps)
	}
}

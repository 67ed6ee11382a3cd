package window

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/tutorials/internal/frame"
)

type recordingHandler struct {
	resized [][2]int
	keys    []sdl.Keycode
	buttons []bool
	moves   [][2]int
	scroll  int
}

func (h *recordingHandler) Resized(w, ht int)       { h.resized = append(h.resized, [2]int{w, ht}) }
func (h *recordingHandler) KeyDown(key sdl.Keycode) { h.keys = append(h.keys, key) }
func (h *recordingHandler) MouseButton(_ uint8, pressed bool, _, _ int) {
	h.buttons = append(h.buttons, pressed)
}
func (h *recordingHandler) MouseMotion(x, y int) { h.moves = append(h.moves, [2]int{x, y}) }
func (h *recordingHandler) Scroll(steps int)     { h.scroll += steps }

func newTestWindow() (*Window, *frame.ResizeSignal, *recordingHandler) {
	resize := &frame.ResizeSignal{}
	handler := &recordingHandler{}
	w := newWindow(nil, resize, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.SetHandler(handler)
	return w, resize, handler
}

func TestDispatch_ResizeRequestsRebuild(t *testing.T) {
	w, resize, handler := newTestWindow()

	w.dispatch(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 1024, Data2: 768})
	assert.True(t, resize.Consume())
	assert.Equal(t, [][2]int{{1024, 768}}, handler.resized)

	w.dispatch(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED})
	assert.True(t, resize.Consume())
	assert.False(t, resize.Consume())

	w.dispatch(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED})
	assert.False(t, resize.Consume())
}

func TestDispatch_Input(t *testing.T) {
	w, _, handler := newTestWindow()

	w.dispatch(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_r}})
	w.dispatch(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Sym: sdl.K_r}})
	w.dispatch(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_r}})
	assert.Equal(t, []sdl.Keycode{sdl.K_r}, handler.keys)

	w.dispatch(&sdl.MouseButtonEvent{Button: sdl.BUTTON_LEFT, State: sdl.PRESSED, X: 3, Y: 4})
	w.dispatch(&sdl.MouseMotionEvent{X: 5, Y: 6})
	w.dispatch(&sdl.MouseButtonEvent{Button: sdl.BUTTON_LEFT, State: sdl.RELEASED})
	assert.Equal(t, []bool{true, false}, handler.buttons)
	assert.Equal(t, [][2]int{{5, 6}}, handler.moves)

	w.dispatch(&sdl.MouseWheelEvent{Y: 2})
	w.dispatch(&sdl.MouseWheelEvent{Y: 1, Direction: sdl.MOUSEWHEEL_FLIPPED})
	assert.Equal(t, 1, handler.scroll)
}

func TestDispatch_QuitAndClose(t *testing.T) {
	w, _, _ := newTestWindow()
	assert.False(t, w.Closing())

	w.dispatch(&sdl.QuitEvent{})
	assert.True(t, w.Closing())

	w, _, _ = newTestWindow()
	w.Close()
	assert.True(t, w.Closing())
}

func TestSetHandler_NilFallsBackToNop(t *testing.T) {
	w, _, _ := newTestWindow()
	w.SetHandler(nil)
	assert.NotPanics(t, func() {
		w.dispatch(&sdl.MouseWheelEvent{Y: 1})
	})
}

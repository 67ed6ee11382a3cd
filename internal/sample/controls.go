package sample

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/tutorials/internal/camera"
	"github.com/vkngwrapper/tutorials/internal/window"
)

// Closer is the part of the window a key binding can act on.
type Closer interface {
	Close()
}

// Controls is the input handling every sample shares: Escape closes the
// window.
type Controls struct {
	window.NopHandler
	Window Closer
}

func (c *Controls) KeyDown(key sdl.Keycode) {
	if key == sdl.K_ESCAPE {
		c.Window.Close()
	}
}

// OrbitControls drives an Orbit camera: R toggles the spin, the wheel zooms
// and dragging with the left button turns the trackball.
type OrbitControls struct {
	Controls
	Orbit *camera.Orbit
}

func (c *OrbitControls) KeyDown(key sdl.Keycode) {
	switch key {
	case sdl.K_r:
		c.Orbit.ToggleRotation()
	default:
		c.Controls.KeyDown(key)
	}
}

func (c *OrbitControls) Resized(width, height int) {
	c.Orbit.Trackball.SetWindowSize(width, height)
}

func (c *OrbitControls) MouseButton(button uint8, pressed bool, x, y int) {
	if button != sdl.BUTTON_LEFT {
		return
	}
	if pressed {
		c.Orbit.Trackball.StartDrag(x, y)
	} else {
		c.Orbit.Trackball.EndDrag()
	}
}

func (c *OrbitControls) MouseMotion(x, y int) {
	c.Orbit.Trackball.Drag(x, y)
}

func (c *OrbitControls) Scroll(steps int) {
	c.Orbit.Zoom(steps)
}

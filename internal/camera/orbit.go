package camera

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinZoom = -5
	MaxZoom = 5

	tau = 2 * math.Pi
)

// Orbit is the textured cube's camera: the model turns about Y while rotation
// is enabled, the view sits at (0,0,3) under a trackball rotation and zoom
// widens or narrows the field of view.
type Orbit struct {
	Trackball *Trackball

	clock    Clock
	last     time.Duration
	angle    float64
	rotating bool
	zoom     int
}

func NewOrbit(clock Clock, width, height int) *Orbit {
	if clock == nil {
		clock = defaultClock
	}
	return &Orbit{
		Trackball: NewTrackball(width, height),
		clock:     clock,
		last:      clock(),
		rotating:  true,
	}
}

// ToggleRotation pauses or resumes the model's spin. A paused model holds
// the angle it had when paused instead of snapping back to its rest pose,
// and resumes from there.
func (o *Orbit) ToggleRotation() {
	o.advance()
	o.rotating = !o.rotating
}

func (o *Orbit) Rotating() bool {
	return o.rotating
}

// Zoom adds steps to the zoom level, clamped to [MinZoom, MaxZoom].
func (o *Orbit) Zoom(steps int) {
	o.zoom = min(max(o.zoom+steps, MinZoom), MaxZoom)
}

func (o *Orbit) ZoomLevel() int {
	return o.zoom
}

// FieldOfView is the vertical field of view for the current zoom level, in
// radians.
func (o *Orbit) FieldOfView() float32 {
	return float32(tau/8 + float64(o.zoom)*tau/50)
}

func (o *Orbit) advance() {
	now := o.clock()
	if o.rotating {
		o.angle = math.Mod(o.angle+(now-o.last).Seconds()*math.Pi/2, tau)
	}
	o.last = now
}

func (o *Orbit) Uniforms(aspect float32) UniformBufferObject {
	o.advance()

	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 3},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	).Mul4(o.Trackball.Rotation())

	return UniformBufferObject{
		Model: mgl32.HomogRotate3DY(float32(o.angle)),
		View:  view,
		Proj:  vulkanPerspective(o.FieldOfView(), aspect, 1, 5),
	}
}

package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Trackball turns mouse drags into rotations by projecting window
// coordinates onto a virtual unit sphere that fills the window.
type Trackball struct {
	width, height int

	committed mgl32.Quat
	drag      mgl32.Quat
	dragging  bool
	from      mgl32.Vec3
}

func NewTrackball(width, height int) *Trackball {
	return &Trackball{
		width:     max(width, 1),
		height:    max(height, 1),
		committed: mgl32.QuatIdent(),
		drag:      mgl32.QuatIdent(),
	}
}

// SetWindowSize keeps the sphere fitted to the window after a resize. Zero
// sizes from a minimized window are ignored.
func (t *Trackball) SetWindowSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	t.width, t.height = width, height
}

// project maps a window position (origin top-left, Y down) onto the sphere.
// Points outside it land on the silhouette.
func (t *Trackball) project(x, y int) mgl32.Vec3 {
	px := (2*float32(x) - float32(t.width)) / float32(t.width)
	py := (float32(t.height) - 2*float32(y)) / float32(t.height)

	d := px*px + py*py
	if d > 1 {
		l := float32(math.Sqrt(float64(d)))
		return mgl32.Vec3{px / l, py / l, 0}
	}
	return mgl32.Vec3{px, py, float32(math.Sqrt(float64(1 - d)))}
}

func (t *Trackball) StartDrag(x, y int) {
	t.dragging = true
	t.from = t.project(x, y)
	t.drag = mgl32.QuatIdent()
}

func (t *Trackball) Drag(x, y int) {
	if !t.dragging {
		return
	}

	to := t.project(x, y)
	axis := t.from.Cross(to)
	if axis.Len() < 1e-6 {
		t.drag = mgl32.QuatIdent()
		return
	}

	cos := min(max(t.from.Dot(to), -1), 1)
	angle := float32(math.Acos(float64(cos)))
	t.drag = mgl32.QuatRotate(angle, axis.Normalize())
}

// EndDrag folds the current drag into the accumulated rotation.
func (t *Trackball) EndDrag() {
	if !t.dragging {
		return
	}
	t.committed = t.drag.Mul(t.committed).Normalize()
	t.drag = mgl32.QuatIdent()
	t.dragging = false
}

func (t *Trackball) Dragging() bool {
	return t.dragging
}

// Rotation is the accumulated rotation including any drag in progress.
func (t *Trackball) Rotation() mgl32.Mat4 {
	return t.drag.Mul(t.committed).Mat4()
}

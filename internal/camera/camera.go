// Package camera produces the per-frame uniform data the samples upload.
package camera

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
)

// UniformBufferObject matches the std140 block at binding 0 of every vertex
// shader that takes uniforms.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// Camera is anything that can fill a UniformBufferObject for the current
// frame. aspect is the swapchain width over height.
type Camera interface {
	Uniforms(aspect float32) UniformBufferObject
}

// Clock returns a monotonic timestamp.
type Clock func() time.Duration

var defaultClock Clock = hrtime.Now

// vulkanPerspective is mgl32.Perspective with Y flipped, since Vulkan clip
// space points Y down.
func vulkanPerspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	proj := mgl32.Perspective(fovy, aspect, near, far)
	proj.Set(1, 1, -proj.At(1, 1))
	return proj
}

// Spin rotates the model a quarter turn per second about Z, viewed from
// (2,2,2).
type Spin struct {
	clock Clock
	start time.Duration
}

func NewSpin(clock Clock) *Spin {
	if clock == nil {
		clock = defaultClock
	}
	return &Spin{clock: clock, start: clock()}
}

func (s *Spin) Uniforms(aspect float32) UniformBufferObject {
	// Wrap every four seconds so float32 keeps its precision on long runs.
	elapsed := math.Mod((s.clock() - s.start).Seconds(), 4.0)

	return UniformBufferObject{
		Model: mgl32.HomogRotate3DZ(float32(elapsed * math.Pi / 2)),
		View: mgl32.LookAtV(
			mgl32.Vec3{2, 2, 2},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 0, 1},
		),
		Proj: vulkanPerspective(mgl32.DegToRad(45), aspect, 0.1, 10),
	}
}

// Package frame runs the acquire/submit/present cycle shared by every sample.
//
// A Driver owns a fixed ring of MaxFramesInFlight slots. Each slot stands for
// one image-available semaphore, one render-finished semaphore and one
// in-flight fence held by the Backend. The driver never touches GPU handles
// itself: it only decides when the backend waits, resets, acquires, submits,
// presents and rebuilds, which keeps the protocol testable without a device.
package frame

import "fmt"

// MaxFramesInFlight is the number of frames the CPU may queue ahead of the GPU.
const MaxFramesInFlight = 2

// Status is the tri-state result the presentation engine reports for acquire
// and present requests.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal means the swapchain still works but no longer matches
	// the surface exactly.
	StatusSuboptimal
	// StatusOutOfDate means the swapchain can no longer be presented to.
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out-of-date"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Backend is the device side of the frame cycle. Slot arguments are ring
// indices in [0, MaxFramesInFlight); image arguments are swapchain image
// indices in [0, ImageCount()).
//
// Staleness is reported through Status, never through the error: any non-nil
// error is fatal to the run loop.
type Backend interface {
	// WaitForFence blocks until the slot's in-flight fence is signaled.
	WaitForFence(slot int) error
	// ResetFence returns the slot's in-flight fence to the unsignaled state.
	ResetFence(slot int) error
	// AcquireNextImage requests the next presentable image, signaling the
	// slot's image-available semaphore once it is ready.
	AcquireNextImage(slot int) (int, Status, error)
	// PrepareImage updates per-image host data (uniforms) before submission.
	PrepareImage(image int) error
	// Submit queues the image's command buffer, waiting on the slot's
	// image-available semaphore and signaling its render-finished semaphore
	// and in-flight fence.
	Submit(slot, image int) error
	// Present queues the image for presentation once the slot's
	// render-finished semaphore is signaled.
	Present(slot, image int) (Status, error)
	// ImageCount is the number of images in the current swapchain.
	ImageCount() int
	// Rebuild waits for the device to go idle and recreates every
	// surface-dependent object.
	Rebuild() error
	// WaitIdle blocks until the device has retired all submitted work.
	WaitIdle() error
}

// Surface reports the drawable size of the window being presented to.
type Surface interface {
	FramebufferSize() (width, height int)
	// WaitEvents blocks until the window system has something to report,
	// then dispatches it.
	WaitEvents()
}

package frame

import "sync/atomic"

// ResizeSignal carries "the framebuffer changed size" from the window system
// to the Driver. Any number of requests between two frames collapse into one
// rebuild.
type ResizeSignal struct {
	pending atomic.Bool
}

func (s *ResizeSignal) Request() {
	s.pending.Store(true)
}

// Consume reports whether a resize was requested since the last call and
// clears the request.
func (s *ResizeSignal) Consume() bool {
	return s.pending.Swap(false)
}

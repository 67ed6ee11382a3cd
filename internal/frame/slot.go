package frame

// SlotState tracks where a slot's in-flight fence is in its cycle.
type SlotState int

const (
	// SlotIdle: fence reset, nothing submitted through the slot yet.
	SlotIdle SlotState = iota
	// SlotSubmitted: work submitted, fence not yet observed as signaled.
	SlotSubmitted
	// SlotSignaled: the CPU has observed the fence signaled.
	SlotSignaled
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotSubmitted:
		return "submitted"
	case SlotSignaled:
		return "signaled"
	}
	return "unknown"
}

// Slot is one entry of the frames-in-flight ring.
type Slot struct {
	Index int

	state       SlotState
	submissions uint64
}

func (s *Slot) State() SlotState { return s.state }

// Submissions counts how many frames went through this slot.
func (s *Slot) Submissions() uint64 { return s.submissions }

func (s *Slot) signaled() {
	s.state = SlotSignaled
}

// reset follows a fence reset. Only a fence observed as signaled goes back
// to idle.
func (s *Slot) reset() {
	if s.state == SlotSignaled {
		s.state = SlotIdle
	}
}

func (s *Slot) submitted() {
	s.state = SlotSubmitted
	s.submissions++
}

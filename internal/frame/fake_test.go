package frame

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
)

// job is one command buffer submission the fake GPU has not retired yet.
type job struct {
	slot  int
	image int
	done  bool
}

// fakeGPU models fences, semaphore-ordered submissions and image ownership
// well enough to check the protocol invariants from the CPU side.
type fakeGPU struct {
	t *testing.T

	images        int
	imagesAfter   int
	fenceSignaled [MaxFramesInFlight]bool
	jobs          []*job
	lastJob       map[int]*job
	nextImage     int

	acquireScript []Status
	presentScript []Status
	acquireErr    error
	onReset       func(slot int)

	calls      []string
	acquires   int
	submits    int
	presents   int
	rebuilds   int
	idleWaits  int
	prepared   []int
	maxPending int
}

func newFakeGPU(t *testing.T, images int) *fakeGPU {
	g := &fakeGPU{t: t, images: images, lastJob: map[int]*job{}}
	for i := range g.fenceSignaled {
		g.fenceSignaled[i] = true
	}
	return g
}

func (g *fakeGPU) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGPU) pending() int {
	n := 0
	for _, j := range g.jobs {
		if !j.done {
			n++
		}
	}
	return n
}

func (g *fakeGPU) retire(slot int) {
	for _, j := range g.jobs {
		if j.slot == slot {
			j.done = true
		}
	}
	g.fenceSignaled[slot] = true
}

func (g *fakeGPU) WaitForFence(slot int) error {
	g.record("wait %d", slot)
	g.retire(slot)
	return nil
}

func (g *fakeGPU) ResetFence(slot int) error {
	g.record("reset %d", slot)
	if !g.fenceSignaled[slot] {
		g.t.Errorf("reset of fence %d while its work is still pending", slot)
	}
	g.fenceSignaled[slot] = false
	if g.onReset != nil {
		g.onReset(slot)
	}
	return nil
}

func (g *fakeGPU) AcquireNextImage(slot int) (int, Status, error) {
	g.acquires++
	g.record("acquire %d", slot)
	if g.acquireErr != nil {
		return 0, StatusSuccess, g.acquireErr
	}

	status := StatusSuccess
	if len(g.acquireScript) > 0 {
		status = g.acquireScript[0]
		g.acquireScript = g.acquireScript[1:]
	}
	if status == StatusOutOfDate {
		return 0, status, nil
	}

	image := g.nextImage % g.images
	g.nextImage++
	return image, status, nil
}

func (g *fakeGPU) PrepareImage(image int) error {
	g.prepared = append(g.prepared, image)
	if prev, ok := g.lastJob[image]; ok && !prev.done {
		g.t.Errorf("host data of image %d written while its previous frame is pending", image)
	}
	return nil
}

func (g *fakeGPU) Submit(slot, image int) error {
	g.submits++
	g.record("submit %d %d", slot, image)

	if g.fenceSignaled[slot] {
		g.t.Errorf("submit through slot %d without resetting its fence", slot)
	}
	if prev, ok := g.lastJob[image]; ok && !prev.done {
		g.t.Errorf("image %d reused before the fence of slot %d signaled", image, prev.slot)
	}

	j := &job{slot: slot, image: image}
	g.jobs = append(g.jobs, j)
	g.lastJob[image] = j

	if p := g.pending(); p > g.maxPending {
		g.maxPending = p
	}
	return nil
}

func (g *fakeGPU) Present(slot, image int) (Status, error) {
	g.presents++
	g.record("present %d %d", slot, image)
	if len(g.presentScript) > 0 {
		status := g.presentScript[0]
		g.presentScript = g.presentScript[1:]
		return status, nil
	}
	return StatusSuccess, nil
}

func (g *fakeGPU) ImageCount() int { return g.images }

func (g *fakeGPU) Rebuild() error {
	g.rebuilds++
	g.record("rebuild")
	for slot := range g.fenceSignaled {
		g.retire(slot)
	}
	g.lastJob = map[int]*job{}
	g.nextImage = 0
	if g.imagesAfter > 0 {
		g.images = g.imagesAfter
	}
	return nil
}

func (g *fakeGPU) WaitIdle() error {
	g.idleWaits++
	g.record("idle")
	for slot := range g.fenceSignaled {
		g.retire(slot)
	}
	return nil
}

// fakeSurface replays a list of framebuffer sizes, moving to the next one on
// every WaitEvents call and sticking on the last.
type fakeSurface struct {
	sizes  [][2]int
	pos    int
	waits  int
	onWait func()
}

func newFakeSurface(sizes ...[2]int) *fakeSurface {
	if len(sizes) == 0 {
		sizes = [][2]int{{800, 600}}
	}
	return &fakeSurface{sizes: sizes}
}

func (s *fakeSurface) FramebufferSize() (int, int) {
	size := s.sizes[s.pos]
	return size[0], size[1]
}

func (s *fakeSurface) WaitEvents() {
	s.waits++
	if s.onWait != nil {
		s.onWait()
	}
	if s.pos < len(s.sizes)-1 {
		s.pos++
	}
}

var errDeviceLost = errors.New("device lost")

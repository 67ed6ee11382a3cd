package frame

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// Driver steps a Backend through the frame cycle. It is not safe for
// concurrent use; it belongs to the thread that owns the window.
type Driver struct {
	backend Backend
	surface Surface
	resize  *ResizeSignal
	logger  *slog.Logger

	slots   [MaxFramesInFlight]Slot
	current int

	// imagesInFlight[i] is the slot whose fence last guarded swapchain image i.
	imagesInFlight []*Slot
	generation     int
}

// NewDriver builds a driver for a backend whose swapchain already exists.
// A nil resize signal or logger is replaced with a private one.
func NewDriver(backend Backend, surface Surface, resize *ResizeSignal, logger *slog.Logger) *Driver {
	if resize == nil {
		resize = &ResizeSignal{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		backend: backend,
		surface: surface,
		resize:  resize,
		logger:  logger,
	}
	for i := range d.slots {
		// Fences are created signaled so the first wait on each slot returns at once.
		d.slots[i] = Slot{Index: i, state: SlotSignaled}
	}
	d.resetImages()

	return d
}

// Generation counts completed swapchain rebuilds.
func (d *Driver) Generation() int { return d.generation }

// CurrentSlot is the slot the next frame will use.
func (d *Driver) CurrentSlot() *Slot { return &d.slots[d.current] }

// ImageOwner returns the slot whose fence last guarded the image, or nil.
func (d *Driver) ImageOwner(image int) *Slot {
	if image < 0 || image >= len(d.imagesInFlight) {
		return nil
	}
	return d.imagesInFlight[image]
}

func (d *Driver) resetImages() {
	d.imagesInFlight = make([]*Slot, d.backend.ImageCount())
}

// DrawFrame renders and presents one frame, rebuilding the swapchain when
// the presentation engine or the window asks for it.
func (d *Driver) DrawFrame(ctx context.Context) error {
	if w, h := d.surface.FramebufferSize(); w == 0 || h == 0 {
		return d.rebuild(ctx, "minimized")
	}

	slot := &d.slots[d.current]
	if err := d.backend.WaitForFence(slot.Index); err != nil {
		return errors.Wrapf(err, "wait for in-flight fence %d", slot.Index)
	}
	slot.signaled()

	image, status, err := d.backend.AcquireNextImage(slot.Index)
	if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}
	if status == StatusOutOfDate {
		return d.rebuild(ctx, "acquire out-of-date")
	}
	stale := status == StatusSuboptimal

	if image < 0 || image >= len(d.imagesInFlight) {
		return errors.AssertionFailedf("acquired image %d outside swapchain of %d images", image, len(d.imagesInFlight))
	}

	if owner := d.imagesInFlight[image]; owner != nil {
		if err := d.backend.WaitForFence(owner.Index); err != nil {
			return errors.Wrapf(err, "wait for fence %d guarding image %d", owner.Index, image)
		}
		owner.signaled()
	}
	d.imagesInFlight[image] = slot

	if err := d.backend.ResetFence(slot.Index); err != nil {
		return errors.Wrapf(err, "reset in-flight fence %d", slot.Index)
	}
	slot.reset()

	if err := d.backend.PrepareImage(image); err != nil {
		return errors.Wrapf(err, "prepare image %d", image)
	}

	if slot.state != SlotIdle {
		return errors.AssertionFailedf("submit through slot %d in state %s", slot.Index, slot.state)
	}

	if err := d.backend.Submit(slot.Index, image); err != nil {
		return errors.Wrapf(err, "submit image %d", image)
	}
	slot.submitted()

	status, err = d.backend.Present(slot.Index, image)
	if err != nil {
		return errors.Wrapf(err, "present image %d", image)
	}
	d.current = (d.current + 1) % MaxFramesInFlight

	resized := d.resize.Consume()
	switch {
	case status != StatusSuccess:
		return d.rebuild(ctx, "present "+status.String())
	case stale:
		return d.rebuild(ctx, "acquire suboptimal")
	case resized:
		return d.rebuild(ctx, "resized")
	}
	return nil
}

// rebuild waits for a drawable surface, then has the backend recreate the
// swapchain resource set. Nothing submitted before the rebuild survives it.
func (d *Driver) rebuild(ctx context.Context, reason string) error {
	if err := d.awaitSurface(ctx); err != nil {
		return err
	}

	if err := d.backend.Rebuild(); err != nil {
		return errors.Wrapf(err, "rebuild swapchain (%s)", reason)
	}
	// The new swapchain already matches the current size.
	d.resize.Consume()

	// Rebuild idles the device, so every outstanding fence has signaled.
	for i := range d.slots {
		if d.slots[i].state == SlotSubmitted {
			d.slots[i].signaled()
		}
	}
	d.resetImages()
	d.generation++

	d.logger.Debug("swapchain rebuilt",
		slog.String("reason", reason),
		slog.Int("generation", d.generation),
		slog.Int("images", len(d.imagesInFlight)))
	return nil
}

func (d *Driver) awaitSurface(ctx context.Context) error {
	for {
		if w, h := d.surface.FramebufferSize(); w > 0 && h > 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		d.surface.WaitEvents()
	}
}

// Run alternates pump and DrawFrame until pump reports the window closed or
// ctx is cancelled. The device is always idle when Run returns.
func (d *Driver) Run(ctx context.Context, pump func() bool) error {
	var err error
	for ctx.Err() == nil && pump() {
		if err = d.DrawFrame(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				err = nil
			}
			break
		}
	}

	if idleErr := d.backend.WaitIdle(); idleErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(idleErr, "wait for device idle"))
	}
	return err
}

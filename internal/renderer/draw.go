package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/tutorials/internal/frame"
)

func (r *Renderer) createSyncObjects() error {
	for i := range frame.MaxFramesInFlight {
		var err error
		r.imageAvailableSemaphores[i], _, err = r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		r.renderFinishedSemaphores[i], _, err = r.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		r.inFlightFences[i], _, err = r.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// statusFor folds a presentation engine result into a frame status. Only
// out-of-date and suboptimal are staleness; every other failure stays an
// error.
func statusFor(res common.VkResult, err error) (frame.Status, error) {
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return frame.StatusOutOfDate, nil
	case khr_swapchain.VKSuboptimal:
		return frame.StatusSuboptimal, nil
	}
	if err != nil {
		return frame.StatusSuccess, err
	}
	return frame.StatusSuccess, nil
}

func (r *Renderer) WaitForFence(slot int) error {
	_, err := r.deviceDriver.WaitForFences(true, common.NoTimeout, r.inFlightFences[slot])
	return errors.Wrapf(err, "wait for fence %d", slot)
}

func (r *Renderer) ResetFence(slot int) error {
	_, err := r.deviceDriver.ResetFences(r.inFlightFences[slot])
	return errors.Wrapf(err, "reset fence %d", slot)
}

func (r *Renderer) AcquireNextImage(slot int) (int, frame.Status, error) {
	imageIndex, res, err := r.swapchainExtension.AcquireNextImage(r.swapchain, common.NoTimeout, &r.imageAvailableSemaphores[slot], nil)
	status, err := statusFor(res, err)
	if err != nil {
		return 0, status, errors.Wrap(err, "acquire next image")
	}
	return imageIndex, status, nil
}

// PrepareImage writes this frame's transforms into the image's uniform
// buffer. Samples without a camera have nothing to prepare.
func (r *Renderer) PrepareImage(image int) error {
	if r.opts.Camera == nil {
		return nil
	}

	aspect := float32(r.swapchainExtent.Width) / float32(r.swapchainExtent.Height)
	ubo := r.opts.Camera.Uniforms(aspect)

	return errors.Wrapf(writeData(r.deviceDriver, r.uniformBuffersMemory[image], 0, ubo), "update uniforms for image %d", image)
}

func (r *Renderer) Submit(slot, image int) error {
	_, err := r.deviceDriver.QueueSubmit(r.graphicsQueue, &r.inFlightFences[slot],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{r.imageAvailableSemaphores[slot]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{r.commandBuffers[image]},
			SignalSemaphores: []core1_0.Semaphore{r.renderFinishedSemaphores[slot]},
		},
	)
	return errors.Wrapf(err, "submit image %d", image)
}

func (r *Renderer) Present(slot, image int) (frame.Status, error) {
	res, err := r.swapchainExtension.QueuePresent(r.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{r.renderFinishedSemaphores[slot]},
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{image},
	})
	status, err := statusFor(res, err)
	return status, errors.Wrapf(err, "present image %d", image)
}

func (r *Renderer) ImageCount() int {
	return len(r.swapchainImages)
}

func (r *Renderer) WaitIdle() error {
	_, err := r.deviceDriver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

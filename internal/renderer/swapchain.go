package renderer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/tutorials/internal/camera"
	"github.com/vkngwrapper/tutorials/internal/present"
)

const uniformBinding = 0

// createSwapchainResources builds every object whose lifetime is tied to
// the swapchain, in dependency order.
func (r *Renderer) createSwapchainResources() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"create swapchain", r.createSwapchain},
		{"create image views", r.createImageViews},
		{"create render pass", r.createRenderPass},
		{"create graphics pipeline", r.createGraphicsPipeline},
		{"create color resources", r.createColorResources},
		{"create depth resources", r.createDepthResources},
		{"create framebuffers", r.createFramebuffers},
		{"create uniform buffers", r.createUniformBuffers},
		{"create descriptor pool", r.createDescriptorPool},
		{"create descriptor sets", r.createDescriptorSets},
		{"create command buffers", r.createCommandBuffers},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrap(err, step.name)
		}
	}
	return nil
}

// Rebuild recreates the whole swapchain resource set for the surface's
// current size. The frame driver only calls it with a non-zero framebuffer.
func (r *Renderer) Rebuild() error {
	_, err := r.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	r.cleanupSwapChain()
	return r.createSwapchainResources()
}

func (r *Renderer) cleanupSwapChain() {
	if r.deviceDriver == nil {
		return
	}

	r.destroyAttachment(&r.color)
	r.destroyAttachment(&r.depth)

	for _, framebuffer := range r.swapchainFramebuffers {
		r.deviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	r.swapchainFramebuffers = nil

	if len(r.commandBuffers) > 0 {
		r.deviceDriver.FreeCommandBuffers(r.commandBuffers...)
		r.commandBuffers = nil
	}

	if r.graphicsPipeline.Initialized() {
		r.deviceDriver.DestroyPipeline(r.graphicsPipeline, nil)
		r.graphicsPipeline = core1_0.Pipeline{}
	}

	if r.pipelineLayout.Initialized() {
		r.deviceDriver.DestroyPipelineLayout(r.pipelineLayout, nil)
		r.pipelineLayout = core1_0.PipelineLayout{}
	}

	if r.renderPass.Initialized() {
		r.deviceDriver.DestroyRenderPass(r.renderPass, nil)
		r.renderPass = core1_0.RenderPass{}
	}

	for _, imageView := range r.swapchainImageViews {
		r.deviceDriver.DestroyImageView(imageView, nil)
	}
	r.swapchainImageViews = nil

	if r.swapchain.Initialized() {
		r.swapchainExtension.DestroySwapchain(r.swapchain, nil)
		r.swapchain = khr_swapchain.Swapchain{}
	}
	r.swapchainImages = nil

	for _, buffer := range r.uniformBuffers {
		r.deviceDriver.DestroyBuffer(buffer, nil)
	}
	r.uniformBuffers = nil

	for _, memory := range r.uniformBuffersMemory {
		r.deviceDriver.FreeMemory(memory, nil)
	}
	r.uniformBuffersMemory = nil

	if r.descriptorPool.Initialized() {
		r.deviceDriver.DestroyDescriptorPool(r.descriptorPool, nil)
		r.descriptorPool = core1_0.DescriptorPool{}
	}
	r.descriptorSets = nil
}

func (r *Renderer) createSwapchain() error {
	if r.swapchainExtension == nil {
		r.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(r.deviceDriver)
	}

	swapchainSupport, err := r.querySwapChainSupport(r.physicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat, err := present.ChooseSurfaceFormat(swapchainSupport.Formats)
	if err != nil {
		return err
	}
	presentMode := present.ChoosePresentMode(swapchainSupport.PresentModes)

	fbWidth, fbHeight := r.window.FramebufferSize()
	extent := present.ChooseExtent(swapchainSupport.Capabilities, fbWidth, fbHeight)
	imageCount := present.ImageCount(swapchainSupport.Capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	indices := r.queueFamilies
	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *indices.GraphicsFamily, *indices.PresentFamily)
	}

	swapchain, _, err := r.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}
	r.swapchainExtent = extent
	r.swapchain = swapchain
	r.swapchainImageFormat = surfaceFormat.Format

	r.logger.Info("created swapchain",
		"format", surfaceFormat.Format,
		"present_mode", presentMode,
		"width", extent.Width,
		"height", extent.Height,
		"min_images", imageCount)

	return nil
}

func (r *Renderer) createImageViews() error {
	images, _, err := r.swapchainExtension.GetSwapchainImages(r.swapchain)
	if err != nil {
		return err
	}
	r.swapchainImages = images

	var imageViews []core1_0.ImageView
	for _, image := range images {
		view, err := r.createImageView(image, r.swapchainImageFormat, core1_0.ImageAspectColor, 1)
		if err != nil {
			return err
		}

		imageViews = append(imageViews, view)
	}
	r.swapchainImageViews = imageViews

	return nil
}

func (r *Renderer) multisampled() bool {
	return r.msaaSamples != core1_0.Samples1
}

func (r *Renderer) createColorResources() error {
	if !r.multisampled() {
		return nil
	}

	var err error
	r.color.image, r.color.memory, err = r.createImage(
		r.swapchainExtent.Width,
		r.swapchainExtent.Height,
		1,
		r.msaaSamples,
		r.swapchainImageFormat,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageTransientAttachment|core1_0.ImageUsageColorAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	r.color.view, err = r.createImageView(
		r.color.image,
		r.swapchainImageFormat,
		core1_0.ImageAspectColor,
		1)
	return err
}

func (r *Renderer) createDepthResources() error {
	if !r.opts.Depth {
		return nil
	}

	var err error
	r.depthFormat, err = r.findDepthFormat()
	if err != nil {
		return err
	}

	r.depth.image, r.depth.memory, err = r.createImage(r.swapchainExtent.Width,
		r.swapchainExtent.Height,
		1,
		r.msaaSamples,
		r.depthFormat,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}
	r.depth.view, err = r.createImageView(r.depth.image, r.depthFormat, core1_0.ImageAspectDepth, 1)
	return err
}

// framebufferAttachments lists the views of one framebuffer in render pass
// attachment order: color, then depth, then the resolve target.
func (r *Renderer) framebufferAttachments(swapchainView core1_0.ImageView) []core1_0.ImageView {
	var views []core1_0.ImageView
	if r.multisampled() {
		views = append(views, r.color.view)
	} else {
		views = append(views, swapchainView)
	}
	if r.opts.Depth {
		views = append(views, r.depth.view)
	}
	if r.multisampled() {
		views = append(views, swapchainView)
	}
	return views
}

func (r *Renderer) createFramebuffers() error {
	for _, imageView := range r.swapchainImageViews {
		framebuffer, _, err := r.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  r.renderPass,
			Layers:      1,
			Attachments: r.framebufferAttachments(imageView),
			Width:       r.swapchainExtent.Width,
			Height:      r.swapchainExtent.Height,
		})
		if err != nil {
			return err
		}

		r.swapchainFramebuffers = append(r.swapchainFramebuffers, framebuffer)
	}

	return nil
}

func (r *Renderer) createUniformBuffers() error {
	if r.opts.Camera == nil {
		return nil
	}

	bufferSize := int(unsafe.Sizeof(camera.UniformBufferObject{}))

	for range r.swapchainImages {
		buffer, memory, err := r.createBuffer(bufferSize, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			return err
		}

		r.uniformBuffers = append(r.uniformBuffers, buffer)
		r.uniformBuffersMemory = append(r.uniformBuffersMemory, memory)
	}

	return nil
}

func (r *Renderer) hasDescriptors() bool {
	return r.opts.Camera != nil || len(r.opts.Textures) > 0
}

func (r *Renderer) createDescriptorPool() error {
	if !r.hasDescriptors() {
		return nil
	}

	images := len(r.swapchainImages)
	var poolSizes []core1_0.DescriptorPoolSize
	if r.opts.Camera != nil {
		poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
			Type:            core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: images,
		})
	}
	if len(r.textures) > 0 {
		poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
			Type:            core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: images * len(r.textures),
		})
	}

	var err error
	r.descriptorPool, _, err = r.deviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   images,
		PoolSizes: poolSizes,
	})
	return err
}

func (r *Renderer) createDescriptorSets() error {
	if !r.hasDescriptors() {
		return nil
	}

	var allocLayouts []core1_0.DescriptorSetLayout
	for range r.swapchainImages {
		allocLayouts = append(allocLayouts, r.descriptorSetLayout)
	}

	var err error
	r.descriptorSets, _, err = r.deviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: r.descriptorPool,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		return err
	}

	for i := range r.swapchainImages {
		var writes []core1_0.WriteDescriptorSet

		if r.opts.Camera != nil {
			writes = append(writes, core1_0.WriteDescriptorSet{
				DstSet:          r.descriptorSets[i],
				DstBinding:      uniformBinding,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeUniformBuffer,

				BufferInfo: []core1_0.DescriptorBufferInfo{
					{
						Buffer: r.uniformBuffers[i],
						Offset: 0,
						Range:  int(unsafe.Sizeof(camera.UniformBufferObject{})),
					},
				},
			})
		}

		for _, tex := range r.textures {
			writes = append(writes, core1_0.WriteDescriptorSet{
				DstSet:          r.descriptorSets[i],
				DstBinding:      tex.binding,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,

				ImageInfo: []core1_0.DescriptorImageInfo{
					{
						ImageView:   tex.view,
						Sampler:     tex.sampler,
						ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
					},
				},
			})
		}

		err = r.deviceDriver.UpdateDescriptorSets(writes, nil)
		if err != nil {
			return err
		}
	}

	return nil
}

package renderer

import (
	"os"
	"path/filepath"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/tutorials/internal/mesh"
	"github.com/vkngwrapper/tutorials/internal/pipecache"
)

func getVertexBindingDescription() []core1_0.VertexInputBindingDescription {
	v := mesh.Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func getVertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := mesh.Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
		{
			Binding:  0,
			Location: 3,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
	}
}

func (r *Renderer) createRenderPass() error {
	colorFinalLayout := khr_swapchain.ImageLayoutPresentSrc
	if r.multisampled() {
		colorFinalLayout = core1_0.ImageLayoutColorAttachmentOptimal
	}

	attachments := []core1_0.AttachmentDescription{
		{
			Format:         r.swapchainImageFormat,
			Samples:        r.msaaSamples,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    colorFinalLayout,
		},
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
	}

	stages := core1_0.PipelineStageColorAttachmentOutput
	access := core1_0.AccessColorAttachmentWrite

	if r.opts.Depth {
		depthFormat, err := r.findDepthFormat()
		if err != nil {
			return err
		}

		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: len(attachments),
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         depthFormat,
			Samples:        r.msaaSamples,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})

		stages |= core1_0.PipelineStageEarlyFragmentTests
		access |= core1_0.AccessDepthStencilAttachmentWrite
	}

	if r.multisampled() {
		subpass.ResolveAttachments = []core1_0.AttachmentReference{
			{
				Attachment: len(attachments),
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		}
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         r.swapchainImageFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpDontCare,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		})
	}

	renderPass, _, err := r.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses:   []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  stages,
				SrcAccessMask: 0,

				DstStageMask:  stages,
				DstAccessMask: access,
			},
		},
	})
	if err != nil {
		return err
	}

	r.renderPass = renderPass
	return nil
}

func (r *Renderer) createDescriptorSetLayout() error {
	if !r.hasDescriptors() {
		return nil
	}

	var bindings []core1_0.DescriptorSetLayoutBinding
	if r.opts.Camera != nil {
		bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         uniformBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,

			StageFlags: core1_0.StageVertex,
		})
	}
	for _, tex := range r.opts.Textures {
		bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         tex.Binding,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,

			StageFlags: core1_0.StageFragment,
		})
	}

	var err error
	r.descriptorSetLayout, _, err = r.deviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	return err
}

// bytesToBytecode reinterprets little-endian SPIR-V as 32-bit words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v size %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}

	return byteCode, nil
}

func (r *Renderer) shaderPath(stage string) string {
	return filepath.Join(r.opts.AssetsDir, "shaders", r.opts.Program, stage+".spv")
}

func (r *Renderer) loadShader(stage string) (core1_0.ShaderModule, error) {
	path := r.shaderPath(stage)
	shaderBytes, err := os.ReadFile(path)
	if err != nil {
		return core1_0.ShaderModule{}, errors.Wrapf(err, "read shader (run go generate ./assets to compile it)")
	}

	code, err := bytesToBytecode(shaderBytes)
	if err != nil {
		return core1_0.ShaderModule{}, errors.Wrap(err, path)
	}

	module, _, err := r.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return core1_0.ShaderModule{}, errors.Wrapf(err, "create shader module %s", path)
	}
	return module, nil
}

func (r *Renderer) createGraphicsPipeline() error {
	vertShader, err := r.loadShader("vert")
	if err != nil {
		return err
	}
	defer r.deviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, err := r.loadShader("frag")
	if err != nil {
		return err
	}
	defer r.deviceDriver.DestroyShaderModule(fragShader, nil)

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}
	if r.opts.Mesh != nil {
		vertexInput.VertexBindingDescriptions = getVertexBindingDescription()
		vertexInput.VertexAttributeDescriptions = getVertexAttributeDescriptions()
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(r.swapchainExtent.Width),
				Height:   float32(r.swapchainExtent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchainExtent,
			},
		},
	}

	// Without a camera there is no Y-flipped projection, so geometry is
	// wound clockwise in clip space.
	frontFace := core1_0.FrontFaceCounterClockwise
	if r.opts.Camera == nil {
		frontFace = core1_0.FrontFaceClockwise
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   frontFace,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: r.msaaSamples,
		MinSampleShading:     1.0,
	}

	var depthStencil *core1_0.PipelineDepthStencilStateCreateInfo
	if r.opts.Depth {
		depthStencil = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		}
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	var setLayouts []core1_0.DescriptorSetLayout
	if r.descriptorSetLayout.Initialized() {
		setLayouts = append(setLayouts, r.descriptorSetLayout)
	}

	r.pipelineLayout, _, err = r.deviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: setLayouts,
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	var cache *core1_0.PipelineCache
	if r.pipelineCache.Initialized() {
		cache = &r.pipelineCache
	}

	start := hrtime.Now()
	pipelines, _, err := r.deviceDriver.CreateGraphicsPipelines(cache, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			Layout:             r.pipelineLayout,
			RenderPass:         r.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return err
	}
	r.graphicsPipeline = pipelines[0]
	r.logger.Debug("created graphics pipeline", "program", r.opts.Program, "elapsed", hrtime.Since(start), "cached", cache != nil)

	return nil
}

func (r *Renderer) cacheIdentity() (pipecache.Identity, error) {
	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return pipecache.Identity{}, err
	}

	return pipecache.Identity{
		VendorID:  uint32(properties.VendorID),
		DeviceID:  uint32(properties.DeviceID),
		CacheUUID: uuid.UUID(properties.PipelineCacheUUID),
	}, nil
}

func (r *Renderer) createPipelineCache() error {
	if r.opts.PipelineCache == "" {
		return nil
	}

	identity, err := r.cacheIdentity()
	if err != nil {
		return err
	}

	initialData, err := pipecache.Load(r.opts.PipelineCache, identity, r.logger)
	if err != nil {
		return err
	}

	r.pipelineCache, _, err = r.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initialData,
	})
	return err
}

// savePipelineCache stores what the driver accumulated in the cache.
// Failures are only logged.
func (r *Renderer) savePipelineCache() {
	if !r.pipelineCache.Initialized() || r.deviceDriver == nil {
		return
	}

	data, _, err := r.deviceDriver.GetPipelineCacheData(r.pipelineCache)
	if err != nil {
		r.logger.Warn("read pipeline cache data", "err", err)
		return
	}

	if err := pipecache.Save(r.opts.PipelineCache, data); err != nil {
		r.logger.Warn("save pipeline cache", "err", err)
		return
	}
	r.logger.Info("saved pipeline cache", "path", r.opts.PipelineCache, "bytes", len(data))
}

// Package renderer is the Vulkan side of every sample: instance and device
// setup, the swapchain resource set, and the per-frame calls the frame
// driver sequences. Which optional pieces exist (vertex buffers, uniforms,
// textures, depth, mipmaps, multisampling) is decided by Options.
package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/tutorials/internal/camera"
	"github.com/vkngwrapper/tutorials/internal/frame"
	"github.com/vkngwrapper/tutorials/internal/mesh"
	"github.com/vkngwrapper/tutorials/internal/texture"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// Window is what the renderer needs from the window it presents to.
type Window interface {
	SDL() *sdl.Window
	InstanceExtensions() []string
	FramebufferSize() (width, height int)
}

// Texture is a decoded image sampled by the fragment shader at Binding.
type Texture struct {
	Binding int
	Image   texture.Image
}

type Options struct {
	AppName string
	// Program names the shader directory under <AssetsDir>/shaders holding
	// vert.spv and frag.spv.
	Program   string
	AssetsDir string

	Validation bool
	// PipelineCache is the pipeline cache file. Empty disables it.
	PipelineCache string

	// Mesh is drawn indexed. When nil the vertex shader generates a single
	// triangle on its own.
	Mesh *mesh.Mesh
	// Camera fills the uniform buffer at binding 0. When nil the pipeline
	// takes no uniforms.
	Camera   camera.Camera
	Textures []Texture

	Depth       bool
	Mipmaps     bool
	Multisample bool
}

func (o Options) validate() error {
	if o.Program == "" {
		return errors.New("no shader program")
	}
	if o.Mesh != nil && o.Mesh.Empty() {
		return errors.New("mesh has no indices")
	}

	bindings := map[int]bool{}
	if o.Camera != nil {
		bindings[uniformBinding] = true
	}
	for _, tex := range o.Textures {
		if bindings[tex.Binding] {
			return errors.Newf("binding %d used twice", tex.Binding)
		}
		if tex.Image.Width <= 0 || tex.Image.Height <= 0 {
			return errors.Newf("texture at binding %d is empty", tex.Binding)
		}
		bindings[tex.Binding] = true
	}
	return nil
}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// attachment is an image the renderer owns together with its memory and
// view.
type attachment struct {
	image  core1_0.Image
	memory core1_0.DeviceMemory
	view   core1_0.ImageView
}

type textureResources struct {
	binding   int
	mipLevels int
	attachment
	sampler core1_0.Sampler
}

type Renderer struct {
	opts   Options
	window Window
	logger *slog.Logger

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	queueFamilies  QueueFamilyIndices

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension    khr_swapchain.ExtensionDriver
	swapchain             khr_swapchain.Swapchain
	swapchainImages       []core1_0.Image
	swapchainImageFormat  core1_0.Format
	swapchainExtent       core1_0.Extent2D
	swapchainImageViews   []core1_0.ImageView
	swapchainFramebuffers []core1_0.Framebuffer

	renderPass          core1_0.RenderPass
	descriptorPool      core1_0.DescriptorPool
	descriptorSets      []core1_0.DescriptorSet
	descriptorSetLayout core1_0.DescriptorSetLayout
	pipelineLayout      core1_0.PipelineLayout
	graphicsPipeline    core1_0.Pipeline
	pipelineCache       core1_0.PipelineCache

	commandPool    core1_0.CommandPool
	commandBuffers []core1_0.CommandBuffer

	imageAvailableSemaphores [frame.MaxFramesInFlight]core1_0.Semaphore
	renderFinishedSemaphores [frame.MaxFramesInFlight]core1_0.Semaphore
	inFlightFences           [frame.MaxFramesInFlight]core1_0.Fence

	vertexBuffer       core1_0.Buffer
	vertexBufferMemory core1_0.DeviceMemory
	indexBuffer        core1_0.Buffer
	indexBufferMemory  core1_0.DeviceMemory

	uniformBuffers       []core1_0.Buffer
	uniformBuffersMemory []core1_0.DeviceMemory

	textures []textureResources

	msaaSamples core1_0.SampleCountFlags
	color       attachment
	depth       attachment
	depthFormat core1_0.Format
}

var _ frame.Backend = (*Renderer)(nil)

// New brings up everything a sample needs to draw its first frame. On
// failure whatever was created is released again.
func New(window Window, opts Options, logger *slog.Logger) (*Renderer, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Wrap(err, "renderer options")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		opts:        opts,
		window:      window,
		logger:      logger,
		msaaSamples: core1_0.Samples1,
	}

	var err error
	r.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	if err := r.initVulkan(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) initVulkan() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"create instance", r.createInstance},
		{"setup debug messenger", r.setupDebugMessenger},
		{"create surface", r.createSurface},
		{"pick physical device", r.pickPhysicalDevice},
		{"create logical device", r.createLogicalDevice},
		{"create pipeline cache", r.createPipelineCache},
		{"create command pool", r.createCommandPool},
		{"create descriptor set layout", r.createDescriptorSetLayout},
		{"create textures", r.createTextures},
		{"create vertex buffer", r.createVertexBuffer},
		{"create index buffer", r.createIndexBuffer},
		{"create sync objects", r.createSyncObjects},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrap(err, step.name)
		}
	}

	return r.createSwapchainResources()
}

// Destroy waits for the device to finish, saves the pipeline cache and
// releases every object in reverse creation order. It is safe to call on a
// partially initialized renderer.
func (r *Renderer) Destroy() {
	if r.deviceDriver != nil {
		if _, err := r.deviceDriver.DeviceWaitIdle(); err != nil {
			r.logger.Error("wait for device idle", "err", err)
		}
	}

	r.cleanupSwapChain()
	r.savePipelineCache()

	if r.deviceDriver != nil {
		for _, tex := range r.textures {
			if tex.sampler.Initialized() {
				r.deviceDriver.DestroySampler(tex.sampler, nil)
			}
			r.destroyAttachment(&tex.attachment)
		}
		r.textures = nil

		if r.descriptorSetLayout.Initialized() {
			r.deviceDriver.DestroyDescriptorSetLayout(r.descriptorSetLayout, nil)
		}

		if r.indexBuffer.Initialized() {
			r.deviceDriver.DestroyBuffer(r.indexBuffer, nil)
		}
		if r.indexBufferMemory.Initialized() {
			r.deviceDriver.FreeMemory(r.indexBufferMemory, nil)
		}
		if r.vertexBuffer.Initialized() {
			r.deviceDriver.DestroyBuffer(r.vertexBuffer, nil)
		}
		if r.vertexBufferMemory.Initialized() {
			r.deviceDriver.FreeMemory(r.vertexBufferMemory, nil)
		}

		for i := range frame.MaxFramesInFlight {
			if r.inFlightFences[i].Initialized() {
				r.deviceDriver.DestroyFence(r.inFlightFences[i], nil)
			}
			if r.renderFinishedSemaphores[i].Initialized() {
				r.deviceDriver.DestroySemaphore(r.renderFinishedSemaphores[i], nil)
			}
			if r.imageAvailableSemaphores[i].Initialized() {
				r.deviceDriver.DestroySemaphore(r.imageAvailableSemaphores[i], nil)
			}
		}

		if r.commandPool.Initialized() {
			r.deviceDriver.DestroyCommandPool(r.commandPool, nil)
		}
		if r.pipelineCache.Initialized() {
			r.deviceDriver.DestroyPipelineCache(r.pipelineCache, nil)
		}

		r.deviceDriver.DestroyDevice(nil)
		r.deviceDriver = nil
	}

	if r.debugMessenger.Initialized() {
		r.debugDriver.DestroyDebugUtilsMessenger(r.debugMessenger, nil)
		r.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if r.surface.Initialized() {
		r.surfaceExtension.DestroySurface(r.surface, nil)
		r.surface = khr_surface.Surface{}
	}

	if r.instanceDriver != nil {
		r.instanceDriver.DestroyInstance(nil)
		r.instanceDriver = nil
	}
}

// Extent is the size of the current swapchain images.
func (r *Renderer) Extent() core1_0.Extent2D {
	return r.swapchainExtent
}

// SampleCount is the rasterization sample count in use.
func (r *Renderer) SampleCount() core1_0.SampleCountFlags {
	return r.msaaSamples
}

package renderer

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/tutorials/internal/present"
)

func (r *Renderer) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    r.opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	// Add extensions
	extensions, _, err := r.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range r.window.InstanceExtensions() {
		if _, hasExt := extensions[ext]; !hasExt {
			return errors.Newf("cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if r.opts.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	if _, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]; enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	// Add layers
	if r.opts.Validation {
		layers, _, err := r.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range validationLayers {
			if _, hasValidation := layers[layer]; !hasValidation {
				return errors.Newf("validation layer %s not available, install the LunarG Vulkan SDK or pass --validation=false", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Cover instance creation and destruction as well.
		instanceOptions.Next = r.debugMessengerOptions()
	}

	r.instanceDriver, _, err = r.globalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (r *Renderer) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityInfo | ext_debug_utils.SeverityVerbose,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    r.logDebug,
	}
}

func (r *Renderer) setupDebugMessenger() error {
	if !r.opts.Validation {
		return nil
	}

	var err error
	r.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(r.instanceDriver)
	r.debugMessenger, _, err = r.debugDriver.CreateDebugUtilsMessenger(nil, r.debugMessengerOptions())
	return err
}

// severityLevel maps a debug messenger severity onto a log level. The most
// severe bit wins.
func severityLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return slog.LevelError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return slog.LevelWarn
	case severity&ext_debug_utils.SeverityInfo != 0:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func (r *Renderer) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	r.logger.Log(context.Background(), severityLevel(severity), data.Message, "type", msgType, "id", data.MessageIDName)
	return false
}

func (r *Renderer) createSurface() error {
	r.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(r.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(r.instanceDriver.Instance(), r.surfaceExtension, r.window.SDL())
	if err != nil {
		return err
	}

	r.surface = surface
	return nil
}

func (r *Renderer) pickPhysicalDevice() error {
	physicalDevices, _, err := r.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	for _, device := range physicalDevices {
		if r.isDeviceSuitable(device) {
			r.physicalDevice = device
			break
		}
	}

	if !r.physicalDevice.Initialized() {
		return errors.New("failed to find a suitable GPU")
	}

	r.queueFamilies, err = r.findQueueFamilies(r.physicalDevice)
	if err != nil {
		return err
	}

	if r.opts.Multisample {
		r.msaaSamples, err = r.getMaxUsableSampleCount()
		if err != nil {
			return err
		}
	}

	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return err
	}
	r.logger.Info("selected physical device",
		"name", properties.DeviceName,
		"graphics_family", *r.queueFamilies.GraphicsFamily,
		"present_family", *r.queueFamilies.PresentFamily,
		"msaa_samples", r.msaaSamples)

	return nil
}

func (r *Renderer) needsAnisotropy() bool {
	return len(r.opts.Textures) > 0
}

func (r *Renderer) createLogicalDevice() error {
	indices := r.queueFamilies

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Makes the samples work on portability implementations such as MoltenVK
	extensions, _, err := r.instanceDriver.EnumerateDeviceExtensionProperties(r.physicalDevice)
	if err != nil {
		return err
	}

	if _, supported := extensions[khr_portability_subset.ExtensionName]; supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	r.deviceDriver, _, err = r.instanceDriver.CreateDevice(r.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: r.needsAnisotropy(),
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	r.graphicsQueue = r.deviceDriver.GetQueue(*indices.GraphicsFamily, 0)
	r.presentQueue = r.deviceDriver.GetQueue(*indices.PresentFamily, 0)
	return nil
}

func (r *Renderer) querySwapChainSupport(device core1_0.PhysicalDevice) (present.SupportDetails, error) {
	var details present.SupportDetails
	var err error

	details.Capabilities, _, err = r.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(r.surface, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = r.surfaceExtension.GetPhysicalDeviceSurfaceFormats(r.surface, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = r.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(r.surface, device)
	return details, err
}

func (r *Renderer) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := r.findQueueFamilies(device)
	if err != nil {
		r.logger.Debug("query queue families", "err", err)
		return false
	}

	extensionsSupported := r.checkDeviceExtensionSupport(device)

	var swapChainAdequate bool
	if extensionsSupported {
		swapChainSupport, err := r.querySwapChainSupport(device)
		if err != nil {
			r.logger.Debug("query swapchain support", "err", err)
			return false
		}

		swapChainAdequate = swapChainSupport.Adequate()
	}

	features := r.instanceDriver.GetPhysicalDeviceFeatures(device)
	anisotropyOK := !r.needsAnisotropy() || features.SamplerAnisotropy
	return indices.IsComplete() && extensionsSupported && swapChainAdequate && anisotropyOK
}

func (r *Renderer) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := r.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		if _, hasExtension := extensions[extension]; !hasExtension {
			return false
		}
	}

	return true
}

func (r *Renderer) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := r.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := r.surfaceExtension.GetPhysicalDeviceSurfaceSupport(r.surface, device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (r *Renderer) getMaxUsableSampleCount() (core1_0.SampleCountFlags, error) {
	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return 0, err
	}

	return maxSampleCount(properties.Limits.FramebufferColorSampleCounts & properties.Limits.FramebufferDepthSampleCounts), nil
}

// maxSampleCount returns the highest single sample count set in counts.
func maxSampleCount(counts core1_0.SampleCountFlags) core1_0.SampleCountFlags {
	for _, samples := range []core1_0.SampleCountFlags{
		core1_0.Samples64,
		core1_0.Samples32,
		core1_0.Samples16,
		core1_0.Samples8,
		core1_0.Samples4,
		core1_0.Samples2,
	} {
		if counts&samples != 0 {
			return samples
		}
	}
	return core1_0.Samples1
}

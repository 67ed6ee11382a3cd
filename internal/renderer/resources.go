package renderer

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) createCommandPool() error {
	pool, _, err := r.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *r.queueFamilies.GraphicsFamily,
	})
	if err != nil {
		return err
	}

	r.commandPool = pool
	return nil
}

func (r *Renderer) destroyAttachment(a *attachment) {
	if a.view.Initialized() {
		r.deviceDriver.DestroyImageView(a.view, nil)
	}
	if a.image.Initialized() {
		r.deviceDriver.DestroyImage(a.image, nil)
	}
	if a.memory.Initialized() {
		r.deviceDriver.FreeMemory(a.memory, nil)
	}
	*a = attachment{}
}

func (r *Renderer) findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := r.instanceDriver.GetPhysicalDeviceFormatProperties(r.physicalDevice, format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

func (r *Renderer) findDepthFormat() (core1_0.Format, error) {
	return r.findSupportedFormat([]core1_0.Format{core1_0.FormatD32SignedFloat, core1_0.FormatD32SignedFloatS8UnsignedInt, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
}

func (r *Renderer) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags, mipLevels int) (core1_0.ImageView, error) {
	imageView, _, err := r.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

func (r *Renderer) createImage(width, height int, mipLevels int, numSamples core1_0.SampleCountFlags, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := r.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       numSamples,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	memReqs := r.deviceDriver.GetImageMemoryRequirements(image)
	memoryIndex, err := r.findMemoryType(memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		r.deviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := r.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		r.deviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	_, err = r.deviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		r.deviceDriver.FreeMemory(imageMemory, nil)
		r.deviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	return image, imageMemory, nil
}

func (r *Renderer) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, _, err := r.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := r.deviceDriver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := r.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		r.deviceDriver.DestroyBuffer(buffer, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memory, _, err := r.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		r.deviceDriver.DestroyBuffer(buffer, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	_, err = r.deviceDriver.BindBufferMemory(buffer, memory, 0)
	if err != nil {
		r.deviceDriver.FreeMemory(memory, nil)
		r.deviceDriver.DestroyBuffer(buffer, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}
	return buffer, memory, nil
}

func (r *Renderer) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := r.instanceDriver.GetPhysicalDeviceMemoryProperties(r.physicalDevice)
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches filter 0x%x with properties %s", typeFilter, properties)
}

func (r *Renderer) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := r.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, err
	}

	buffer := buffers[0]
	_, err = r.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		r.deviceDriver.FreeCommandBuffers(buffer)
		return core1_0.CommandBuffer{}, err
	}
	return buffer, nil
}

func (r *Renderer) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer r.deviceDriver.FreeCommandBuffers(buffer)

	_, err := r.deviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	_, err = r.deviceDriver.QueueSubmit(r.graphicsQueue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return err
	}

	_, err = r.deviceDriver.QueueWaitIdle(r.graphicsQueue)
	return err
}

func (r *Renderer) copyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdCopyBuffer(buffer, srcBuffer, dstBuffer,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
	if err != nil {
		r.deviceDriver.FreeCommandBuffers(buffer)
		return err
	}

	return r.endSingleTimeCommands(buffer)
}

// writeData encodes data with the driver's byte order straight into mapped
// host-visible memory.
func writeData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)
	if bufferSize < 0 {
		return errors.Newf("cannot encode %T", data)
	}

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return err
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := bytes.NewBuffer(make([]byte, 0, bufferSize))
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return err
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}

// uploadDeviceLocal copies data through a staging buffer into a new
// device-local buffer with the given usage.
func (r *Renderer) uploadDeviceLocal(data any, usage core1_0.BufferUsageFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	bufferSize := binary.Size(data)

	stagingBuffer, stagingBufferMemory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "create staging buffer")
	}
	defer r.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	defer r.deviceDriver.FreeMemory(stagingBufferMemory, nil)

	err = writeData(r.deviceDriver, stagingBufferMemory, 0, data)
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "fill staging buffer")
	}

	buffer, memory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	err = r.copyBuffer(stagingBuffer, buffer, bufferSize)
	if err != nil {
		r.deviceDriver.DestroyBuffer(buffer, nil)
		r.deviceDriver.FreeMemory(memory, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}
	return buffer, memory, nil
}

func (r *Renderer) createVertexBuffer() error {
	if r.opts.Mesh == nil {
		return nil
	}

	var err error
	r.vertexBuffer, r.vertexBufferMemory, err = r.uploadDeviceLocal(r.opts.Mesh.Vertices, core1_0.BufferUsageVertexBuffer)
	return err
}

func (r *Renderer) createIndexBuffer() error {
	if r.opts.Mesh == nil {
		return nil
	}

	var err error
	r.indexBuffer, r.indexBufferMemory, err = r.uploadDeviceLocal(r.opts.Mesh.Indices, core1_0.BufferUsageIndexBuffer)
	return err
}

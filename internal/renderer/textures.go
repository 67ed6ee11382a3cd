package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const textureFormat = core1_0.FormatR8G8B8A8SRGB

func (r *Renderer) createTextures() error {
	for _, tex := range r.opts.Textures {
		res, err := r.createTexture(tex)
		if err != nil {
			return errors.Wrapf(err, "texture at binding %d", tex.Binding)
		}
		r.textures = append(r.textures, res)
	}
	return nil
}

func (r *Renderer) createTexture(tex Texture) (textureResources, error) {
	res := textureResources{
		binding:   tex.Binding,
		mipLevels: 1,
	}
	if r.opts.Mipmaps {
		res.mipLevels = int(tex.Image.MipLevels())
	}

	img := tex.Image
	stagingBuffer, stagingMemory, err := r.createBuffer(img.Size(), core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return res, errors.Wrap(err, "create staging buffer")
	}
	defer r.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	defer r.deviceDriver.FreeMemory(stagingMemory, nil)

	err = writeData(r.deviceDriver, stagingMemory, 0, img.Pixels)
	if err != nil {
		return res, errors.Wrap(err, "fill staging buffer")
	}

	usage := core1_0.ImageUsageTransferDst | core1_0.ImageUsageSampled
	if res.mipLevels > 1 {
		usage |= core1_0.ImageUsageTransferSrc
	}

	res.image, res.memory, err = r.createImage(img.Width, img.Height, res.mipLevels, core1_0.Samples1, textureFormat, core1_0.ImageTilingOptimal, usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return res, errors.Wrap(err, "create image")
	}

	if err := r.uploadTexture(stagingBuffer, img.Width, img.Height, res.image, res.mipLevels); err != nil {
		r.destroyAttachment(&res.attachment)
		return res, err
	}

	res.view, err = r.createImageView(res.image, textureFormat, core1_0.ImageAspectColor, res.mipLevels)
	if err != nil {
		r.destroyAttachment(&res.attachment)
		return res, errors.Wrap(err, "create image view")
	}

	res.sampler, err = r.createTextureSampler(res.mipLevels)
	if err != nil {
		r.destroyAttachment(&res.attachment)
		return res, errors.Wrap(err, "create sampler")
	}

	r.logger.Debug("texture uploaded",
		"binding", tex.Binding,
		"width", img.Width,
		"height", img.Height,
		"mipLevels", res.mipLevels)
	return res, nil
}

func (r *Renderer) uploadTexture(staging core1_0.Buffer, width, height int, image core1_0.Image, mipLevels int) error {
	err := r.transitionImageLayout(image, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal, mipLevels)
	if err != nil {
		return errors.Wrap(err, "transition to transfer destination")
	}

	err = r.copyBufferToImage(staging, image, width, height)
	if err != nil {
		return errors.Wrap(err, "copy pixels")
	}

	if mipLevels == 1 {
		err = r.transitionImageLayout(image, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal, mipLevels)
		return errors.Wrap(err, "transition to shader read")
	}

	return errors.Wrap(r.generateMipmaps(image, textureFormat, width, height, mipLevels), "generate mipmaps")
}

func (r *Renderer) createTextureSampler(mipLevels int) (core1_0.Sampler, error) {
	properties, err := r.instanceDriver.GetPhysicalDeviceProperties(r.physicalDevice)
	if err != nil {
		return core1_0.Sampler{}, err
	}

	sampler, _, err := r.deviceDriver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    properties.Limits.MaxSamplerAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     float32(mipLevels),
	})
	return sampler, err
}

func (r *Renderer) transitionImageLayout(image core1_0.Image, oldLayout core1_0.ImageLayout, newLayout core1_0.ImageLayout, mipLevels int) error {
	var sourceStage, destStage core1_0.PipelineStageFlags
	var sourceAccess, destAccess core1_0.AccessFlags

	if oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal {
		sourceAccess = 0
		destAccess = core1_0.AccessTransferWrite
		sourceStage = core1_0.PipelineStageTopOfPipe
		destStage = core1_0.PipelineStageTransfer
	} else if oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal {
		sourceAccess = core1_0.AccessTransferWrite
		destAccess = core1_0.AccessShaderRead
		sourceStage = core1_0.PipelineStageTransfer
		destStage = core1_0.PipelineStageFragmentShader
	} else {
		return errors.Newf("unexpected layout transition: %s -> %s", oldLayout, newLayout)
	}

	buffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdPipelineBarrier(buffer, sourceStage, destStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     mipLevels,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: sourceAccess,
			DstAccessMask: destAccess,
		},
	})
	if err != nil {
		r.deviceDriver.FreeCommandBuffers(buffer)
		return err
	}

	return r.endSingleTimeCommands(buffer)
}

func (r *Renderer) copyBufferToImage(buffer core1_0.Buffer, image core1_0.Image, width, height int) error {
	cmdBuffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdCopyBufferToImage(cmdBuffer, buffer, image, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.BufferImageCopy{
			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
		},
	)
	if err != nil {
		r.deviceDriver.FreeCommandBuffers(cmdBuffer)
		return err
	}

	return r.endSingleTimeCommands(cmdBuffer)
}

// halveExtent is the size of the next mip level down, never below one texel.
func halveExtent(width, height int) (int, int) {
	if width > 1 {
		width /= 2
	}
	if height > 1 {
		height /= 2
	}
	return width, height
}

// generateMipmaps fills levels 1..mipLevels-1 by repeatedly blitting each
// level into the next, leaving every level in shader-read layout.
func (r *Renderer) generateMipmaps(image core1_0.Image, imageFormat core1_0.Format, width, height int, mipLevels int) error {
	properties := r.instanceDriver.GetPhysicalDeviceFormatProperties(r.physicalDevice, imageFormat)
	if (properties.OptimalTilingFeatures & core1_0.FormatFeatureSampledImageFilterLinear) == 0 {
		return errors.Newf("texture image format %s does not support linear blitting", imageFormat)
	}

	commandBuffer, err := r.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	if err := r.recordMipmaps(commandBuffer, image, width, height, mipLevels); err != nil {
		r.deviceDriver.FreeCommandBuffers(commandBuffer)
		return err
	}

	return r.endSingleTimeCommands(commandBuffer)
}

func (r *Renderer) recordMipmaps(commandBuffer core1_0.CommandBuffer, image core1_0.Image, width, height int, mipLevels int) error {
	barrier := core1_0.ImageMemoryBarrier{
		Image:               image,
		SrcQueueFamilyIndex: -1,
		DstQueueFamilyIndex: -1,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseArrayLayer: 0,
			LayerCount:     1,
			LevelCount:     1,
		},
	}

	mipWidth, mipHeight := width, height
	for i := 1; i < mipLevels; i++ {
		barrier.SubresourceRange.BaseMipLevel = i - 1
		barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
		barrier.NewLayout = core1_0.ImageLayoutTransferSrcOptimal
		barrier.SrcAccessMask = core1_0.AccessTransferWrite
		barrier.DstAccessMask = core1_0.AccessTransferRead

		err := r.deviceDriver.CmdPipelineBarrier(commandBuffer, core1_0.PipelineStageTransfer, core1_0.PipelineStageTransfer, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
		if err != nil {
			return err
		}

		nextMipWidth, nextMipHeight := halveExtent(mipWidth, mipHeight)
		err = r.deviceDriver.CmdBlitImage(commandBuffer, image, core1_0.ImageLayoutTransferSrcOptimal, image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.ImageBlit{
			{
				SrcSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       i - 1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcOffsets: [2]core1_0.Offset3D{
					{X: 0, Y: 0, Z: 0},
					{X: mipWidth, Y: mipHeight, Z: 1},
				},
				DstSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       i,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				DstOffsets: [2]core1_0.Offset3D{
					{X: 0, Y: 0, Z: 0},
					{X: nextMipWidth, Y: nextMipHeight, Z: 1},
				},
			},
		}, core1_0.FilterLinear)
		if err != nil {
			return err
		}

		barrier.OldLayout = core1_0.ImageLayoutTransferSrcOptimal
		barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = core1_0.AccessTransferRead
		barrier.DstAccessMask = core1_0.AccessShaderRead
		err = r.deviceDriver.CmdPipelineBarrier(commandBuffer, core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
		if err != nil {
			return err
		}

		mipWidth, mipHeight = nextMipWidth, nextMipHeight
	}

	barrier.SubresourceRange.BaseMipLevel = mipLevels - 1
	barrier.OldLayout = core1_0.ImageLayoutTransferDstOptimal
	barrier.NewLayout = core1_0.ImageLayoutShaderReadOnlyOptimal
	barrier.SrcAccessMask = core1_0.AccessTransferWrite
	barrier.DstAccessMask = core1_0.AccessShaderRead

	return r.deviceDriver.CmdPipelineBarrier(commandBuffer,
		core1_0.PipelineStageTransfer,
		core1_0.PipelineStageFragmentShader,
		0, nil, nil,
		[]core1_0.ImageMemoryBarrier{barrier})
}

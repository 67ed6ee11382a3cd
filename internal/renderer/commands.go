package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// clearValues matches the attachment order of the render pass. The resolve
// attachment is never cleared, so it needs no entry.
func (r *Renderer) clearValues() []core1_0.ClearValue {
	values := []core1_0.ClearValue{
		core1_0.ClearValueFloat{0, 0, 0, 1},
	}
	if r.opts.Depth {
		values = append(values, core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0})
	}
	return values
}

func (r *Renderer) createCommandBuffers() error {
	buffers, _, err := r.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(r.swapchainImages),
	})
	if err != nil {
		return err
	}
	r.commandBuffers = buffers

	for bufferIdx, buffer := range buffers {
		if err := r.recordCommandBuffer(buffer, bufferIdx); err != nil {
			return errors.Wrapf(err, "record command buffer %d", bufferIdx)
		}
	}

	return nil
}

func (r *Renderer) recordCommandBuffer(buffer core1_0.CommandBuffer, imageIndex int) error {
	_, err := r.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return err
	}

	err = r.deviceDriver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.renderPass,
			Framebuffer: r.swapchainFramebuffers[imageIndex],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchainExtent,
			},
			ClearValues: r.clearValues(),
		})
	if err != nil {
		return err
	}

	r.deviceDriver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, r.graphicsPipeline)

	if len(r.descriptorSets) > 0 {
		r.deviceDriver.CmdBindDescriptorSets(buffer, core1_0.PipelineBindPointGraphics, r.pipelineLayout, 0, []core1_0.DescriptorSet{
			r.descriptorSets[imageIndex],
		}, nil)
	}

	if r.opts.Mesh != nil {
		r.deviceDriver.CmdBindVertexBuffers(buffer, 0, []core1_0.Buffer{r.vertexBuffer}, []int{0})
		r.deviceDriver.CmdBindIndexBuffer(buffer, r.indexBuffer, 0, core1_0.IndexTypeUInt32)
		r.deviceDriver.CmdDrawIndexed(buffer, len(r.opts.Mesh.Indices), 1, 0, 0, 0)
	} else {
		r.deviceDriver.CmdDraw(buffer, 3, 1, 0, 0)
	}

	r.deviceDriver.CmdEndRenderPass(buffer)

	_, err = r.deviceDriver.EndCommandBuffer(buffer)
	return err
}

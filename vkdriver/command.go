package vkdriver

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/pyrite-engine/pyrite/render"
)

// commandBuffer implements render.CommandBuffer on a primary command
// buffer from the driver's resettable pool.
type commandBuffer struct {
	d   *Driver
	hnd core1_0.CommandBuffer
}

func (c *commandBuffer) Begin() error {
	_, err := c.d.deviceDriver.BeginCommandBuffer(c.hnd, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	return nil
}

func (c *commandBuffer) End() error {
	_, err := c.d.deviceDriver.EndCommandBuffer(c.hnd)
	if err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

func (c *commandBuffer) BeginRenderPass(pass render.RenderPass, fb render.Framebuffer, extent render.Extent2D, clearColor [4]float32, clearDepth float32) {
	err := c.d.deviceDriver.CmdBeginRenderPass(c.hnd, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass.(*renderPass).hnd,
			Framebuffer: fb.(*framebuffer).hnd,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: core1_0.Extent2D{Width: extent.Width, Height: extent.Height},
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(clearColor),
				core1_0.ClearValueDepthStencil{Depth: clearDepth, Stencil: 0},
			},
		})
	if err != nil {
		panic(err)
	}
}

func (c *commandBuffer) EndRenderPass() {
	c.d.deviceDriver.CmdEndRenderPass(c.hnd)
}

func (c *commandBuffer) SetViewport(extent render.Extent2D) {
	c.d.deviceDriver.CmdSetViewport(c.hnd, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	c.d.deviceDriver.CmdSetScissor(c.hnd, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: core1_0.Extent2D{Width: extent.Width, Height: extent.Height},
	})
}

func (c *commandBuffer) BindPipeline(p render.Pipeline) {
	c.d.deviceDriver.CmdBindPipeline(c.hnd, core1_0.PipelineBindPointGraphics, p.(*pipeline).hnd)
}

func (c *commandBuffer) BindDescriptorSet(layout render.PipelineLayout, set render.DescriptorSet) {
	c.d.deviceDriver.CmdBindDescriptorSets(c.hnd, core1_0.PipelineBindPointGraphics,
		layout.(*pipelineLayout).hnd, 0,
		[]core1_0.DescriptorSet{set.(core1_0.DescriptorSet)}, nil)
}

func (c *commandBuffer) PushConstants(layout render.PipelineLayout, stages render.StageFlags, data []byte) {
	c.d.deviceDriver.CmdPushConstants(c.hnd, layout.(*pipelineLayout).hnd, stageFlags(stages), 0, data)
}

func (c *commandBuffer) BindVertexBuffer(buf render.Buffer) {
	c.d.deviceDriver.CmdBindVertexBuffers(c.hnd, 0, []core1_0.Buffer{buf.(*buffer).hnd}, []int{0})
}

func (c *commandBuffer) BindIndexBuffer(buf render.Buffer) {
	c.d.deviceDriver.CmdBindIndexBuffer(c.hnd, buf.(*buffer).hnd, 0, core1_0.IndexTypeUInt32)
}

func (c *commandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.d.deviceDriver.CmdDraw(c.hnd, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *commandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.d.deviceDriver.CmdDrawIndexed(c.hnd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/pyrite-engine/pyrite/render"
)

type semaphore struct {
	d   *Driver
	hnd core1_0.Semaphore
}

func (s *semaphore) Destroy() { s.d.deviceDriver.DestroySemaphore(s.hnd, nil) }

type fence struct {
	d   *Driver
	hnd core1_0.Fence
}

func (f *fence) Destroy() { f.d.deviceDriver.DestroyFence(f.hnd, nil) }

// image wraps a core image. Swapchain images are not owned: the
// presentation engine creates and destroys them with the chain.
type image struct {
	d      *Driver
	hnd    core1_0.Image
	memory core1_0.DeviceMemory
	owned  bool
}

func (i *image) Destroy() {
	if !i.owned {
		return
	}
	i.d.deviceDriver.DestroyImage(i.hnd, nil)
	if i.memory.Initialized() {
		i.d.deviceDriver.FreeMemory(i.memory, nil)
	}
}

type imageView struct {
	d   *Driver
	hnd core1_0.ImageView
}

func (v *imageView) Destroy() { v.d.deviceDriver.DestroyImageView(v.hnd, nil) }

type framebuffer struct {
	d   *Driver
	hnd core1_0.Framebuffer
}

func (f *framebuffer) Destroy() { f.d.deviceDriver.DestroyFramebuffer(f.hnd, nil) }

type renderPass struct {
	d   *Driver
	hnd core1_0.RenderPass
}

func (r *renderPass) Destroy() { r.d.deviceDriver.DestroyRenderPass(r.hnd, nil) }

// buffer is a core buffer plus its backing memory. Host-visible buffers
// stay persistently mapped for Write.
type buffer struct {
	d      *Driver
	hnd    core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
	mapped unsafe.Pointer
}

func (b *buffer) Size() int { return b.size }

func (b *buffer) Write(p []byte, offset int) error {
	if b.mapped == nil {
		return errors.New("vkdriver: write to a buffer that is not host visible")
	}
	if offset+len(p) > b.size {
		return errors.Errorf("vkdriver: write of %d bytes at offset %d exceeds buffer size %d", len(p), offset, b.size)
	}
	dst := unsafe.Slice((*byte)(b.mapped), b.size)
	copy(dst[offset:], p)
	return nil
}

func (b *buffer) Destroy() {
	if b.mapped != nil {
		b.d.deviceDriver.UnmapMemory(b.memory)
		b.mapped = nil
	}
	b.d.deviceDriver.DestroyBuffer(b.hnd, nil)
	b.d.deviceDriver.FreeMemory(b.memory, nil)
}

func bufferUsageFlags(usage render.BufferUsage) core1_0.BufferUsageFlags {
	switch usage {
	case render.BufferUsageVertex:
		return core1_0.BufferUsageVertexBuffer
	case render.BufferUsageIndex:
		return core1_0.BufferUsageIndexBuffer
	default:
		return core1_0.BufferUsageUniformBuffer
	}
}

func (d *Driver) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	hnd, _, err := d.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "create buffer")
	}

	memReqs := d.deviceDriver.GetBufferMemoryRequirements(hnd)
	memoryIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, properties)
	if err != nil {
		d.deviceDriver.DestroyBuffer(hnd, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memory, _, err := d.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		d.deviceDriver.DestroyBuffer(hnd, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "allocate buffer memory")
	}

	_, err = d.deviceDriver.BindBufferMemory(hnd, memory, 0)
	if err != nil {
		d.deviceDriver.DestroyBuffer(hnd, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, errors.Wrap(err, "bind buffer memory")
	}
	return hnd, memory, nil
}

func (d *Driver) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.instanceDriver.GetPhysicalDeviceMemoryProperties(d.physicalDevice)
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)
		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}
	return 0, errors.New("vkdriver: no suitable memory type")
}

// CreateHostBuffer implements render.Device.
func (d *Driver) CreateHostBuffer(size int, usage render.BufferUsage) (render.Buffer, error) {
	hnd, memory, err := d.createBuffer(size, bufferUsageFlags(usage),
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}

	mapped, _, err := d.deviceDriver.MapMemory(memory, 0, size, 0)
	if err != nil {
		d.deviceDriver.DestroyBuffer(hnd, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "map buffer memory")
	}
	return &buffer{d: d, hnd: hnd, memory: memory, size: size, mapped: mapped}, nil
}

// CreateLocalBuffer implements render.Device: data is uploaded through a
// staging buffer and a one-shot transfer submission.
func (d *Driver) CreateLocalBuffer(data []byte, usage render.BufferUsage) (render.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("vkdriver: local buffer needs data")
	}

	stagingBuffer, stagingMemory, err := d.createBuffer(len(data), core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer d.deviceDriver.DestroyBuffer(stagingBuffer, nil)
	defer d.deviceDriver.FreeMemory(stagingMemory, nil)

	mapped, _, err := d.deviceDriver.MapMemory(stagingMemory, 0, len(data), 0)
	if err != nil {
		return nil, errors.Wrap(err, "map staging memory")
	}
	copy(unsafe.Slice((*byte)(mapped), len(data)), data)
	d.deviceDriver.UnmapMemory(stagingMemory)

	hnd, memory, err := d.createBuffer(len(data),
		core1_0.BufferUsageTransferDst|bufferUsageFlags(usage),
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	if err := d.copyBuffer(stagingBuffer, hnd, len(data)); err != nil {
		d.deviceDriver.DestroyBuffer(hnd, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return nil, err
	}
	return &buffer{d: d, hnd: hnd, memory: memory, size: len(data)}, nil
}

func (d *Driver) copyBuffer(src, dst core1_0.Buffer, size int) error {
	cmd, err := d.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = d.deviceDriver.CmdCopyBuffer(cmd, src, dst, core1_0.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	})
	if err != nil {
		return errors.Wrap(err, "record buffer copy")
	}
	return d.endSingleTimeCommands(cmd)
}

func (d *Driver) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := d.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "allocate transfer command buffer")
	}

	cmd := buffers[0]
	_, err = d.deviceDriver.BeginCommandBuffer(cmd, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "begin transfer command buffer")
	}
	return cmd, nil
}

func (d *Driver) endSingleTimeCommands(cmd core1_0.CommandBuffer) error {
	_, err := d.deviceDriver.EndCommandBuffer(cmd)
	if err != nil {
		return errors.Wrap(err, "end transfer command buffer")
	}

	_, err = d.deviceDriver.QueueSubmit(d.graphicsQueue, nil, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{cmd},
	})
	if err != nil {
		return errors.Wrap(err, "submit transfer")
	}

	_, err = d.deviceDriver.QueueWaitIdle(d.graphicsQueue)
	if err != nil {
		return errors.Wrap(err, "wait for transfer")
	}

	d.deviceDriver.FreeCommandBuffers(cmd)
	return nil
}

// CreateImage implements render.Device.
func (d *Driver) CreateImage(extent render.Extent2D, format render.Format, usage render.ImageUsage) (render.Image, error) {
	usageFlags := core1_0.ImageUsageColorAttachment
	if usage == render.ImageUsageDepthAttachment {
		usageFlags = core1_0.ImageUsageDepthStencilAttachment
	}

	hnd, _, err := d.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        core1_0.Format(format),
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usageFlags,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}

	memReqs := d.deviceDriver.GetImageMemoryRequirements(hnd)
	memoryIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		d.deviceDriver.DestroyImage(hnd, nil)
		return nil, err
	}

	memory, _, err := d.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		d.deviceDriver.DestroyImage(hnd, nil)
		return nil, errors.Wrap(err, "allocate image memory")
	}

	_, err = d.deviceDriver.BindImageMemory(hnd, memory, 0)
	if err != nil {
		d.deviceDriver.DestroyImage(hnd, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "bind image memory")
	}
	return &image{d: d, hnd: hnd, memory: memory, owned: true}, nil
}

// CreateImageView implements render.Device.
func (d *Driver) CreateImageView(img render.Image, format render.Format, aspect render.ImageAspect) (render.ImageView, error) {
	aspectMask := core1_0.ImageAspectColor
	if aspect == render.AspectDepth {
		aspectMask = core1_0.ImageAspectDepth
	}

	hnd, _, err := d.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    img.(*image).hnd,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspectMask,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return &imageView{d: d, hnd: hnd}, nil
}

// DepthFormat implements render.Device, preferring D32 and falling back
// to packed depth-stencil formats.
func (d *Driver) DepthFormat() (render.Format, error) {
	candidates := []core1_0.Format{
		core1_0.FormatD32SignedFloat,
		core1_0.FormatD32SignedFloatS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
	}
	for _, format := range candidates {
		props := d.instanceDriver.GetPhysicalDeviceFormatProperties(d.physicalDevice, format)
		if (props.OptimalTilingFeatures & core1_0.FormatFeatureDepthStencilAttachment) != 0 {
			return render.Format(format), nil
		}
	}
	return render.FormatUndefined, errors.New("vkdriver: no supported depth format")
}

// CreateRenderPass implements render.Device: one color attachment that
// transitions to the present layout and one depth attachment.
func (d *Driver) CreateRenderPass(colorFormat, depthFormat render.Format) (render.RenderPass, error) {
	hnd, _, err := d.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         core1_0.Format(colorFormat),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         core1_0.Format(depthFormat),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &renderPass{d: d, hnd: hnd}, nil
}

// CreateFramebuffer implements render.Device.
func (d *Driver) CreateFramebuffer(pass render.RenderPass, attachments []render.ImageView, extent render.Extent2D) (render.Framebuffer, error) {
	var views []core1_0.ImageView
	for _, a := range attachments {
		views = append(views, a.(*imageView).hnd)
	}

	hnd, _, err := d.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass.(*renderPass).hnd,
		Layers:      1,
		Attachments: views,
		Width:       extent.Width,
		Height:      extent.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &framebuffer{d: d, hnd: hnd}, nil
}

// CreateSemaphore implements render.Device.
func (d *Driver) CreateSemaphore() (render.Semaphore, error) {
	hnd, _, err := d.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &semaphore{d: d, hnd: hnd}, nil
}

// CreateFence implements render.Device.
func (d *Driver) CreateFence(signaled bool) (render.Fence, error) {
	info := core1_0.FenceCreateInfo{}
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	hnd, _, err := d.deviceDriver.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &fence{d: d, hnd: hnd}, nil
}

// WaitForFences implements render.Device.
func (d *Driver) WaitForFences(fences ...render.Fence) error {
	hnds := make([]core1_0.Fence, len(fences))
	for i, f := range fences {
		hnds[i] = f.(*fence).hnd
	}
	_, err := d.deviceDriver.WaitForFences(true, common.NoTimeout, hnds...)
	if err != nil {
		return errors.Wrap(err, "wait for fences")
	}
	return nil
}

// ResetFences implements render.Device.
func (d *Driver) ResetFences(fences ...render.Fence) error {
	hnds := make([]core1_0.Fence, len(fences))
	for i, f := range fences {
		hnds[i] = f.(*fence).hnd
	}
	_, err := d.deviceDriver.ResetFences(hnds...)
	if err != nil {
		return errors.Wrap(err, "reset fences")
	}
	return nil
}

// Submit implements render.Device. Waits gate the color output stage so
// depth work can start before the acquired image is ready.
func (d *Driver) Submit(buffers []render.CommandBuffer, waits, signals []render.Semaphore, f render.Fence) error {
	info := core1_0.SubmitInfo{}
	for _, cb := range buffers {
		info.CommandBuffers = append(info.CommandBuffers, cb.(*commandBuffer).hnd)
	}
	for _, wait := range waits {
		info.WaitSemaphores = append(info.WaitSemaphores, wait.(*semaphore).hnd)
		info.WaitDstStageMask = append(info.WaitDstStageMask, core1_0.PipelineStageColorAttachmentOutput)
	}
	for _, signal := range signals {
		info.SignalSemaphores = append(info.SignalSemaphores, signal.(*semaphore).hnd)
	}

	_, err := d.deviceDriver.QueueSubmit(d.graphicsQueue, &f.(*fence).hnd, info)
	if err != nil {
		return errors.Wrap(err, "queue submit")
	}
	return nil
}

// AllocateCommandBuffers implements render.Device.
func (d *Driver) AllocateCommandBuffers(count int) ([]render.CommandBuffer, error) {
	raw, _, err := d.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	buffers := make([]render.CommandBuffer, len(raw))
	for i, hnd := range raw {
		buffers[i] = &commandBuffer{d: d, hnd: hnd}
	}
	return buffers, nil
}

// FreeCommandBuffers implements render.Device.
func (d *Driver) FreeCommandBuffers(buffers []render.CommandBuffer) {
	raw := make([]core1_0.CommandBuffer, len(buffers))
	for i, cb := range buffers {
		raw[i] = cb.(*commandBuffer).hnd
	}
	d.deviceDriver.FreeCommandBuffers(raw...)
}

type descriptorSetLayout struct {
	d   *Driver
	hnd core1_0.DescriptorSetLayout
}

func (l *descriptorSetLayout) Destroy() { l.d.deviceDriver.DestroyDescriptorSetLayout(l.hnd, nil) }

type descriptorPool struct {
	d   *Driver
	hnd core1_0.DescriptorPool
}

func (p *descriptorPool) Destroy() { p.d.deviceDriver.DestroyDescriptorPool(p.hnd, nil) }

func (p *descriptorPool) Allocate(layout render.DescriptorSetLayout) (render.DescriptorSet, error) {
	sets, _, err := p.d.deviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.hnd,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout.(*descriptorSetLayout).hnd},
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor set")
	}
	return sets[0], nil
}

func (p *descriptorPool) Free(sets ...render.DescriptorSet) error {
	raw := make([]core1_0.DescriptorSet, len(sets))
	for i, set := range sets {
		raw[i] = set.(core1_0.DescriptorSet)
	}
	_, err := p.d.deviceDriver.FreeDescriptorSets(raw...)
	if err != nil {
		return errors.Wrap(err, "free descriptor sets")
	}
	return nil
}

func (p *descriptorPool) Reset() error {
	_, err := p.d.deviceDriver.ResetDescriptorPool(p.hnd, 0)
	if err != nil {
		return errors.Wrap(err, "reset descriptor pool")
	}
	return nil
}

func descriptorType(t render.DescriptorType) core1_0.DescriptorType {
	if t == render.DescriptorCombinedImageSampler {
		return core1_0.DescriptorTypeCombinedImageSampler
	}
	return core1_0.DescriptorTypeUniformBuffer
}

func stageFlags(stages render.StageFlags) core1_0.ShaderStageFlags {
	var flags core1_0.ShaderStageFlags
	if stages&render.StageVertex != 0 {
		flags |= core1_0.StageVertex
	}
	if stages&render.StageFragment != 0 {
		flags |= core1_0.StageFragment
	}
	return flags
}

// CreateDescriptorSetLayout implements render.Device.
func (d *Driver) CreateDescriptorSetLayout(bindings []render.DescriptorBinding) (render.DescriptorSetLayout, error) {
	var raw []core1_0.DescriptorSetLayoutBinding
	for _, b := range bindings {
		count := b.Count
		if count == 0 {
			count = 1
		}
		raw = append(raw, core1_0.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  descriptorType(b.Type),
			DescriptorCount: count,
			StageFlags:      stageFlags(b.Stages),
		})
	}

	hnd, _, err := d.deviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: raw,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}
	return &descriptorSetLayout{d: d, hnd: hnd}, nil
}

// CreateDescriptorPool implements render.Device.
func (d *Driver) CreateDescriptorPool(maxSets int, sizes []render.DescriptorPoolSize) (render.DescriptorPool, error) {
	var raw []core1_0.DescriptorPoolSize
	for _, s := range sizes {
		raw = append(raw, core1_0.DescriptorPoolSize{
			Type:            descriptorType(s.Type),
			DescriptorCount: s.Count,
		})
	}

	hnd, _, err := d.deviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   maxSets,
		PoolSizes: raw,
		Flags:     core1_0.DescriptorPoolCreateFreeDescriptorSet,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	return &descriptorPool{d: d, hnd: hnd}, nil
}

// UpdateDescriptorSets implements render.Device.
func (d *Driver) UpdateDescriptorSets(writes []render.DescriptorWrite) error {
	var raw []core1_0.WriteDescriptorSet
	for _, w := range writes {
		buf := w.Buffer.(*buffer)
		rng := w.Range
		if rng == 0 {
			rng = buf.size - w.Offset
		}
		raw = append(raw, core1_0.WriteDescriptorSet{
			DstSet:          w.Set.(core1_0.DescriptorSet),
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorType:  descriptorType(w.Type),
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: buf.hnd,
					Offset: w.Offset,
					Range:  rng,
				},
			},
		})
	}

	err := d.deviceDriver.UpdateDescriptorSets(raw, nil)
	if err != nil {
		return errors.Wrap(err, "update descriptor sets")
	}
	return nil
}

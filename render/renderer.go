package render

import "github.com/cockroachdb/errors"

// RendererConfig sizes the per-frame resource bundles.
type RendererConfig struct {
	// UniformBufferSize is the byte size of each frame slot's uniform
	// buffer (the global UBO).
	UniformBufferSize int
}

// Renderer is the frame scheduler: it sequences begin/end of a frame,
// owns the frame-slot counter and the per-slot resource bundles, and
// drives swapchain recreation on resize or presentation staleness.
//
// Calling BeginFrame while a frame is in progress, or EndFrame without
// one, is a caller bug and panics; runtime presentation conditions never
// do.
type Renderer struct {
	device  Device
	surface Surface

	swapChain *SwapChain
	frames    []*FrameResources

	globalLayout   DescriptorSetLayout
	globalPool     DescriptorPool
	globalUniforms *InstanceBuffer

	currentImageIndex int
	currentFrameIndex int
	frameStarted      bool
	frameCount        uint64
}

// NewRenderer builds the swapchain for the surface's current extent and
// allocates MaxFramesInFlight resource bundles.
func NewRenderer(device Device, surface Surface, cfg RendererConfig) (*Renderer, error) {
	if cfg.UniformBufferSize <= 0 {
		return nil, errors.Errorf("renderer: uniform buffer size must be positive, got %d", cfg.UniformBufferSize)
	}

	r := &Renderer{device: device, surface: surface}
	if err := r.recreateSwapChain(); err != nil {
		return nil, err
	}
	if err := r.createFrameResources(cfg.UniformBufferSize); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createFrameResources(uniformSize int) error {
	layout, err := NewDescriptorSetLayoutBuilder(r.device).
		AddBinding(0, DescriptorUniformBuffer, StageVertex|StageFragment).
		Build()
	if err != nil {
		return err
	}
	r.globalLayout = layout

	pool, err := NewDescriptorPoolBuilder(r.device).
		SetMaxSets(MaxFramesInFlight).
		AddPoolSize(DescriptorUniformBuffer, MaxFramesInFlight).
		Build()
	if err != nil {
		return err
	}
	r.globalPool = pool

	// One buffer holds every slot's uniform block at aligned offsets;
	// each slot's descriptor set binds its own region.
	uniforms, err := NewInstanceBuffer(r.device, uniformSize, MaxFramesInFlight, BufferUsageUniform)
	if err != nil {
		return errors.Wrap(err, "create global uniform buffer")
	}
	r.globalUniforms = uniforms

	cmds, err := r.device.AllocateCommandBuffers(MaxFramesInFlight)
	if err != nil {
		return errors.Wrap(err, "allocate frame command buffers")
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		set, err := NewDescriptorWriter(r.device, r.globalLayout, r.globalPool).
			WriteBufferRange(0, uniforms.Buffer(), uniforms.OffsetOf(i), uniforms.InstanceSize()).
			Build()
		if err != nil {
			return errors.Wrap(err, "build frame descriptor set")
		}

		r.frames = append(r.frames, &FrameResources{
			Cmd:        cmds[i],
			Descriptor: set,
			uniforms:   uniforms,
			slot:       i,
		})
	}
	return nil
}

func (r *Renderer) recreateSwapChain() error {
	extent := r.surface.Extent()
	for extent.IsZero() {
		// Window minimized: no valid extent to build against, so block on
		// the event queue until one appears.
		r.surface.WaitEvents()
		extent = r.surface.Extent()
	}

	if err := r.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle before swapchain recreation")
	}

	if r.swapChain == nil {
		sc, err := NewSwapChain(r.device, extent)
		if err != nil {
			return err
		}
		r.swapChain = sc
		return nil
	}

	old := r.swapChain
	sc, err := NewSwapChainFrom(r.device, extent, old)
	if err != nil {
		return err
	}
	formatsMatch := old.CompareFormats(sc)
	old.Destroy()
	r.swapChain = sc
	if !formatsMatch {
		return ErrFormatChanged
	}
	return nil
}

// BeginFrame acquires the next presentable image and opens the current
// slot's command buffer for recording. A (nil, nil) return means no frame
// could be produced this tick (the swapchain was out of date and has been
// recreated); the caller skips rendering and tries again next tick.
func (r *Renderer) BeginFrame() (CommandBuffer, error) {
	if r.frameStarted {
		panic("render: BeginFrame called while a frame is already in progress")
	}

	idx, status, err := r.swapChain.AcquireNextImage()
	if err != nil {
		return nil, err
	}
	if status == PresentOutOfDate {
		if err := r.recreateSwapChain(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	r.currentImageIndex = idx
	r.frameStarted = true

	cmd := r.frames[r.currentFrameIndex].Cmd
	if err := cmd.Begin(); err != nil {
		r.frameStarted = false
		return nil, errors.Wrap(err, "begin frame command buffer")
	}
	return cmd, nil
}

// EndFrame closes recording, submits, presents, and rotates the frame
// slot. The slot advances exactly once whether or not recreation was
// triggered, so rotation stays correct across resize events.
func (r *Renderer) EndFrame() error {
	if !r.frameStarted {
		panic("render: EndFrame called while no frame is in progress")
	}

	cmd := r.frames[r.currentFrameIndex].Cmd
	if err := cmd.End(); err != nil {
		return errors.Wrap(err, "end frame command buffer")
	}

	status, err := r.swapChain.SubmitCommandBuffers(cmd, r.currentImageIndex)

	r.frameStarted = false
	r.currentFrameIndex = (r.currentFrameIndex + 1) % MaxFramesInFlight
	r.frameCount++

	if err != nil {
		return err
	}
	if status == PresentOutOfDate || status == PresentSuboptimal || r.surface.WasResized() {
		r.surface.ResetResizedFlag()
		return r.recreateSwapChain()
	}
	return nil
}

// BeginSwapChainRenderPass starts the swapchain render pass on the frame's
// command buffer and sets viewport and scissor to the swapchain extent.
func (r *Renderer) BeginSwapChainRenderPass(cmd CommandBuffer) {
	if !r.frameStarted {
		panic("render: BeginSwapChainRenderPass called while no frame is in progress")
	}
	if cmd != r.frames[r.currentFrameIndex].Cmd {
		panic("render: render pass begun on a command buffer from a different frame")
	}

	cmd.BeginRenderPass(
		r.swapChain.RenderPass(),
		r.swapChain.Framebuffer(r.currentImageIndex),
		r.swapChain.Extent(),
		[4]float32{0.01, 0.01, 0.01, 1},
		1.0,
	)
	cmd.SetViewport(r.swapChain.Extent())
}

func (r *Renderer) EndSwapChainRenderPass(cmd CommandBuffer) {
	if !r.frameStarted {
		panic("render: EndSwapChainRenderPass called while no frame is in progress")
	}
	if cmd != r.frames[r.currentFrameIndex].Cmd {
		panic("render: render pass ended on a command buffer from a different frame")
	}
	cmd.EndRenderPass()
}

// FrameIndex is the active frame slot, valid only while a frame is in
// progress.
func (r *Renderer) FrameIndex() int {
	if !r.frameStarted {
		panic("render: FrameIndex queried while no frame is in progress")
	}
	return r.currentFrameIndex
}

// CurrentFrame is the active slot's resource bundle, valid only while a
// frame is in progress.
func (r *Renderer) CurrentFrame() *FrameResources {
	if !r.frameStarted {
		panic("render: CurrentFrame queried while no frame is in progress")
	}
	return r.frames[r.currentFrameIndex]
}

func (r *Renderer) FrameInProgress() bool { return r.frameStarted }

// FrameCount is the number of frames submitted so far. The mesh arena
// uses it to defer destruction past any frame that could still reference
// a resource.
func (r *Renderer) FrameCount() uint64 { return r.frameCount }

// GlobalSetLayout is the descriptor set layout of the per-frame global
// UBO; render systems build their pipeline layouts against it.
func (r *Renderer) GlobalSetLayout() DescriptorSetLayout { return r.globalLayout }

func (r *Renderer) RenderPass() RenderPass { return r.swapChain.RenderPass() }
func (r *Renderer) AspectRatio() float32   { return r.swapChain.AspectRatio() }

// Destroy releases the renderer's bundles and swapchain. The device must
// be idle.
func (r *Renderer) Destroy() {
	var cmds []CommandBuffer
	for _, f := range r.frames {
		cmds = append(cmds, f.Cmd)
	}
	if len(cmds) > 0 {
		r.device.FreeCommandBuffers(cmds)
	}
	r.frames = nil
	if r.globalUniforms != nil {
		r.globalUniforms.Destroy()
		r.globalUniforms = nil
	}
	if r.globalPool != nil {
		r.globalPool.Destroy()
		r.globalPool = nil
	}
	if r.globalLayout != nil {
		r.globalLayout.Destroy()
		r.globalLayout = nil
	}
	if r.swapChain != nil {
		r.swapChain.Destroy()
		r.swapChain = nil
	}
}

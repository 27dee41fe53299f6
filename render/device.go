package render

// Extent2D is a surface or image size in pixels.
type Extent2D struct {
	Width  int
	Height int
}

func (e Extent2D) AspectRatio() float32 {
	return float32(e.Width) / float32(e.Height)
}

func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Format identifies a pixel or depth format. Values are driver-defined;
// the core only compares them for equality.
type Format int

const FormatUndefined Format = 0

type BufferUsage int

const (
	BufferUsageUniform BufferUsage = iota
	BufferUsageVertex
	BufferUsageIndex
)

type ImageUsage int

const (
	ImageUsageColorAttachment ImageUsage = iota
	ImageUsageDepthAttachment
)

type ImageAspect int

const (
	AspectColor ImageAspect = iota
	AspectDepth
)

type DescriptorType int

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorCombinedImageSampler
)

type StageFlags int

const (
	StageVertex StageFlags = 1 << iota
	StageFragment
)

// Destroyer releases a device resource. Destroying a resource still
// referenced by pending GPU work is undefined; callers order destruction
// behind fence waits or a device idle wait.
type Destroyer interface {
	Destroy()
}

type (
	Semaphore   interface{ Destroyer }
	Fence       interface{ Destroyer }
	Image       interface{ Destroyer }
	ImageView   interface{ Destroyer }
	Framebuffer interface{ Destroyer }
	RenderPass  interface{ Destroyer }
	Pipeline    interface{ Destroyer }

	PipelineLayout      interface{ Destroyer }
	DescriptorSetLayout interface{ Destroyer }
)

// DescriptorSet is an opaque handle allocated from a DescriptorPool.
type DescriptorSet interface{}

// Buffer is a GPU buffer. Write is only valid for host-visible buffers
// (the driver maps those persistently and keeps them coherent).
type Buffer interface {
	Destroyer
	Write(p []byte, offset int) error
	Size() int
}

// CommandBuffer records work for one frame. Begin implicitly resets any
// previously recorded contents; the recording operations are only valid
// between Begin and End, and submission is only valid after End. Misuse is
// a programming error, not a runtime condition.
type CommandBuffer interface {
	Begin() error
	End() error

	BeginRenderPass(pass RenderPass, fb Framebuffer, extent Extent2D, clearColor [4]float32, clearDepth float32)
	EndRenderPass()
	// SetViewport sets both the dynamic viewport and scissor to cover extent.
	SetViewport(extent Extent2D)
	BindPipeline(p Pipeline)
	BindDescriptorSet(layout PipelineLayout, set DescriptorSet)
	PushConstants(layout PipelineLayout, stages StageFlags, data []byte)
	BindVertexBuffer(buf Buffer)
	BindIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)
	DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)
}

// PresentChain is the driver-side swapchain handle: the rotating set of
// presentable images plus the acquire/present protocol. Acquire and
// Present report the OutOfDate/Suboptimal taxonomy through their status
// result with a nil error; a non-nil error is always fatal.
type PresentChain interface {
	Images() []Image
	ImageCount() int
	Format() Format
	Extent() Extent2D

	// Acquire blocks until an image is available, then returns its index.
	// The semaphore is signaled when the presentation engine is done
	// reading the image.
	Acquire(imageAvailable Semaphore) (imageIndex int, status PresentStatus, err error)
	// Present queues the image for display once wait is signaled.
	Present(imageIndex int, wait Semaphore) (PresentStatus, error)
	Destroy()
}

type DescriptorBinding struct {
	Binding int
	Type    DescriptorType
	Stages  StageFlags
	Count   int
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count int
}

type DescriptorPool interface {
	Destroyer
	Allocate(layout DescriptorSetLayout) (DescriptorSet, error)
	Free(sets ...DescriptorSet) error
	Reset() error
}

// DescriptorWrite binds a buffer range to one binding of a set.
type DescriptorWrite struct {
	Set     DescriptorSet
	Binding int
	Type    DescriptorType
	Buffer  Buffer
	Offset  int
	Range   int // 0 means the whole buffer
}

type AttribFormat int

const (
	AttribFloat2 AttribFormat = iota
	AttribFloat3
	AttribFloat4
)

type VertexAttribute struct {
	Location int
	Format   AttribFormat
	Offset   int
}

// VertexLayout describes one interleaved vertex binding.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// PipelineConfig is the device-independent subset of graphics pipeline
// state the engine varies. Viewport and scissor are always dynamic.
type PipelineConfig struct {
	VertShader []byte // SPIR-V
	FragShader []byte // SPIR-V

	RenderPass RenderPass
	Layout     PipelineLayout

	// VertexInput of nil means the pipeline consumes no vertex buffers
	// (vertices are generated in the shader).
	VertexInput *VertexLayout

	DepthTest  bool
	AlphaBlend bool
}

// Device is the logical GPU as the frame lifecycle sees it: resource
// creation, queue submission and synchronization. One implementation wraps
// Vulkan (package vkdriver); tests substitute an instrumented fake.
type Device interface {
	// CreateHostBuffer allocates a host-visible, coherent, persistently
	// mapped buffer (uniforms, per-frame data).
	CreateHostBuffer(size int, usage BufferUsage) (Buffer, error)
	// CreateLocalBuffer allocates a device-local buffer and uploads data
	// through a staging copy (vertex and index data).
	CreateLocalBuffer(data []byte, usage BufferUsage) (Buffer, error)

	CreateImage(extent Extent2D, format Format, usage ImageUsage) (Image, error)
	CreateImageView(img Image, format Format, aspect ImageAspect) (ImageView, error)
	CreateRenderPass(colorFormat, depthFormat Format) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, attachments []ImageView, extent Extent2D) (Framebuffer, error)
	DepthFormat() (Format, error)

	// CreatePresentChain builds a swapchain for the device's surface. A
	// non-nil old chain is handed to the presentation engine for resource
	// reuse; the caller destroys it once the new chain exists.
	CreatePresentChain(extent Extent2D, old PresentChain) (PresentChain, error)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	// WaitForFences blocks until every fence is signaled. The wait is
	// effectively unbounded; an expiry is reported as a fatal error.
	WaitForFences(fences ...Fence) error
	ResetFences(fences ...Fence) error

	// Submit hands command buffers to the graphics queue. Execution waits
	// for waits, signals signals when rendering completes, and signals
	// fence when the whole submission retires.
	Submit(buffers []CommandBuffer, waits, signals []Semaphore, fence Fence) error
	// WaitIdle drains all in-flight GPU work.
	WaitIdle() error

	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	CreateDescriptorPool(maxSets int, sizes []DescriptorPoolSize) (DescriptorPool, error)
	UpdateDescriptorSets(writes []DescriptorWrite) error

	CreatePipelineLayout(layouts []DescriptorSetLayout, pushConstantSize int) (PipelineLayout, error)
	CreateGraphicsPipeline(config PipelineConfig) (Pipeline, error)

	// MinUniformAlignment is the device's minimum uniform buffer offset
	// alignment, for multi-instance uniform buffers.
	MinUniformAlignment() int
}

// Surface is the presentation target's window-facing side: its current
// size and the resize notification flag.
type Surface interface {
	Extent() Extent2D
	WasResized() bool
	ResetResizedFlag()
	// WaitEvents blocks until window events arrive. Used to stall while
	// the surface has zero area (window minimized).
	WaitEvents()
}

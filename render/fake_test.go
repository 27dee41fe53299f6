package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// fakeDevice is an instrumented Device for frame lifecycle tests. It
// records every synchronization-relevant call in an ordered event log and
// models GPU completion two ways: with manualComplete unset, submissions
// retire the moment they are submitted; with it set, a submission's fence
// only signals when some caller waits on it, which makes the CPU-blocks-
// until-GPU-done ordering visible in the log.
type fakeDevice struct {
	log []string

	colorFormat Format
	depthFormat Format
	imageCount  int

	manualComplete bool

	pending map[*fakeFence]bool

	acquireScript []PresentStatus
	presentScript []PresentStatus
	acquireErr    error

	lastChain *fakeChain

	descriptorWrites []DescriptorWrite

	nextFenceID int
	nextCBID    int
	chainsBuilt int
	idleWaits   int
}

func newFakeDevice(imageCount int) *fakeDevice {
	return &fakeDevice{
		colorFormat: Format(7),
		depthFormat: Format(42),
		imageCount:  imageCount,
		pending:     make(map[*fakeFence]bool),
	}
}

func (d *fakeDevice) logf(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

// eventIndex returns the index of the nth (0-based) occurrence of event at
// or after from, or -1.
func (d *fakeDevice) eventIndex(event string, from int) int {
	for i := from; i < len(d.log); i++ {
		if d.log[i] == event {
			return i
		}
	}
	return -1
}

type fakeFence struct {
	d        *fakeDevice
	id       int
	signaled bool
}

func (f *fakeFence) Destroy() {}

type fakeSemaphore struct{}

func (*fakeSemaphore) Destroy() {}

type fakeImage struct{}

func (*fakeImage) Destroy() {}

type fakeImageView struct{}

func (*fakeImageView) Destroy() {}

type fakeFramebuffer struct{}

func (*fakeFramebuffer) Destroy() {}

type fakeRenderPass struct{}

func (*fakeRenderPass) Destroy() {}

type fakePipeline struct{}

func (*fakePipeline) Destroy() {}

type fakePipelineLayout struct{}

func (*fakePipelineLayout) Destroy() {}

type fakeSetLayout struct{}

func (*fakeSetLayout) Destroy() {}

type fakeDescriptorSet struct{}

type fakeBuffer struct {
	data []byte
}

func (b *fakeBuffer) Destroy() {}
func (b *fakeBuffer) Size() int { return len(b.data) }

func (b *fakeBuffer) Write(p []byte, offset int) error {
	if offset+len(p) > len(b.data) {
		return errors.Errorf("fake buffer: write of %d bytes at %d exceeds size %d", len(p), offset, len(b.data))
	}
	copy(b.data[offset:], p)
	return nil
}

type fakeCommandBuffer struct {
	d         *fakeDevice
	id        int
	recording bool
}

func (c *fakeCommandBuffer) Begin() error {
	c.recording = true
	c.d.logf("begin cb=%d", c.id)
	return nil
}

func (c *fakeCommandBuffer) End() error {
	if !c.recording {
		return errors.New("fake command buffer: End outside recording")
	}
	c.recording = false
	c.d.logf("end cb=%d", c.id)
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(RenderPass, Framebuffer, Extent2D, [4]float32, float32) {
	c.d.logf("beginpass cb=%d", c.id)
}
func (c *fakeCommandBuffer) EndRenderPass()            { c.d.logf("endpass cb=%d", c.id) }
func (c *fakeCommandBuffer) SetViewport(Extent2D)      {}
func (c *fakeCommandBuffer) BindPipeline(Pipeline)     {}
func (c *fakeCommandBuffer) BindDescriptorSet(PipelineLayout, DescriptorSet) {
}
func (c *fakeCommandBuffer) PushConstants(PipelineLayout, StageFlags, []byte) {}
func (c *fakeCommandBuffer) BindVertexBuffer(Buffer)                          {}
func (c *fakeCommandBuffer) BindIndexBuffer(Buffer)                           {}
func (c *fakeCommandBuffer) Draw(int, int, int, int)                          {}
func (c *fakeCommandBuffer) DrawIndexed(int, int, int, int, int)              {}

type fakeChain struct {
	d      *fakeDevice
	extent Extent2D
	format Format
	images []Image
	next   int
}

func (c *fakeChain) Images() []Image   { return c.images }
func (c *fakeChain) ImageCount() int   { return len(c.images) }
func (c *fakeChain) Format() Format    { return c.format }
func (c *fakeChain) Extent() Extent2D  { return c.extent }
func (c *fakeChain) Destroy()          { c.d.logf("destroychain") }

func (c *fakeChain) Acquire(Semaphore) (int, PresentStatus, error) {
	if c.d.acquireErr != nil {
		err := c.d.acquireErr
		c.d.acquireErr = nil
		return 0, PresentSuccess, err
	}
	if len(c.d.acquireScript) > 0 {
		status := c.d.acquireScript[0]
		c.d.acquireScript = c.d.acquireScript[1:]
		if status == PresentOutOfDate {
			c.d.logf("acquire out-of-date")
			return 0, status, nil
		}
		idx := c.next
		c.next = (c.next + 1) % len(c.images)
		c.d.logf("acquire image=%d", idx)
		return idx, status, nil
	}
	idx := c.next
	c.next = (c.next + 1) % len(c.images)
	c.d.logf("acquire image=%d", idx)
	return idx, PresentSuccess, nil
}

func (c *fakeChain) Present(imageIndex int, _ Semaphore) (PresentStatus, error) {
	c.d.logf("present image=%d", imageIndex)
	if len(c.d.presentScript) > 0 {
		status := c.d.presentScript[0]
		c.d.presentScript = c.d.presentScript[1:]
		return status, nil
	}
	return PresentSuccess, nil
}

type fakeDescriptorPool struct{}

func (*fakeDescriptorPool) Destroy() {}
func (*fakeDescriptorPool) Allocate(DescriptorSetLayout) (DescriptorSet, error) {
	return &fakeDescriptorSet{}, nil
}
func (*fakeDescriptorPool) Free(...DescriptorSet) error { return nil }
func (*fakeDescriptorPool) Reset() error                { return nil }

func (d *fakeDevice) CreateHostBuffer(size int, _ BufferUsage) (Buffer, error) {
	return &fakeBuffer{data: make([]byte, size)}, nil
}

func (d *fakeDevice) CreateLocalBuffer(data []byte, _ BufferUsage) (Buffer, error) {
	buf := &fakeBuffer{data: make([]byte, len(data))}
	copy(buf.data, data)
	return buf, nil
}

func (d *fakeDevice) CreateImage(Extent2D, Format, ImageUsage) (Image, error) {
	return &fakeImage{}, nil
}

func (d *fakeDevice) CreateImageView(Image, Format, ImageAspect) (ImageView, error) {
	return &fakeImageView{}, nil
}

func (d *fakeDevice) CreateRenderPass(Format, Format) (RenderPass, error) {
	return &fakeRenderPass{}, nil
}

func (d *fakeDevice) CreateFramebuffer(RenderPass, []ImageView, Extent2D) (Framebuffer, error) {
	return &fakeFramebuffer{}, nil
}

func (d *fakeDevice) DepthFormat() (Format, error) { return d.depthFormat, nil }

func (d *fakeDevice) CreatePresentChain(extent Extent2D, old PresentChain) (PresentChain, error) {
	d.chainsBuilt++
	d.logf("createchain extent=%dx%d old=%v", extent.Width, extent.Height, old != nil)
	c := &fakeChain{d: d, extent: extent, format: d.colorFormat}
	for i := 0; i < d.imageCount; i++ {
		c.images = append(c.images, &fakeImage{})
	}
	d.lastChain = c
	return c, nil
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]CommandBuffer, error) {
	var cbs []CommandBuffer
	for i := 0; i < count; i++ {
		cbs = append(cbs, &fakeCommandBuffer{d: d, id: d.nextCBID})
		d.nextCBID++
	}
	return cbs, nil
}

func (d *fakeDevice) FreeCommandBuffers([]CommandBuffer) {}

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) { return &fakeSemaphore{}, nil }

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	f := &fakeFence{d: d, id: d.nextFenceID, signaled: signaled}
	d.nextFenceID++
	return f, nil
}

func (d *fakeDevice) WaitForFences(fences ...Fence) error {
	for _, f := range fences {
		fence := f.(*fakeFence)
		if !fence.signaled {
			if !d.pending[fence] {
				return errors.Errorf("fake device: wait on fence %d that will never signal", fence.id)
			}
			// The CPU blocks here until the GPU retires the submission.
			delete(d.pending, fence)
			fence.signaled = true
			d.logf("retire fence=%d", fence.id)
		}
		d.logf("wait fence=%d", fence.id)
	}
	return nil
}

func (d *fakeDevice) ResetFences(fences ...Fence) error {
	for _, f := range fences {
		fence := f.(*fakeFence)
		fence.signaled = false
		d.logf("reset fence=%d", fence.id)
	}
	return nil
}

func (d *fakeDevice) Submit(buffers []CommandBuffer, _, _ []Semaphore, fence Fence) error {
	f := fence.(*fakeFence)
	for _, cb := range buffers {
		d.logf("submit cb=%d fence=%d", cb.(*fakeCommandBuffer).id, f.id)
	}
	if d.manualComplete {
		d.pending[f] = true
	} else {
		f.signaled = true
		d.logf("retire fence=%d", f.id)
	}
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	for f := range d.pending {
		f.signaled = true
		d.logf("retire fence=%d", f.id)
		delete(d.pending, f)
	}
	d.idleWaits++
	d.logf("waitidle")
	return nil
}

func (d *fakeDevice) CreateDescriptorSetLayout([]DescriptorBinding) (DescriptorSetLayout, error) {
	return &fakeSetLayout{}, nil
}

func (d *fakeDevice) CreateDescriptorPool(int, []DescriptorPoolSize) (DescriptorPool, error) {
	return &fakeDescriptorPool{}, nil
}

func (d *fakeDevice) UpdateDescriptorSets(writes []DescriptorWrite) error {
	d.descriptorWrites = append(d.descriptorWrites, writes...)
	return nil
}

func (d *fakeDevice) CreatePipelineLayout([]DescriptorSetLayout, int) (PipelineLayout, error) {
	return &fakePipelineLayout{}, nil
}

func (d *fakeDevice) CreateGraphicsPipeline(PipelineConfig) (Pipeline, error) {
	return &fakePipeline{}, nil
}

func (d *fakeDevice) MinUniformAlignment() int { return 64 }

// fakeSurface serves extents from a queue (the last entry repeats) and
// counts WaitEvents calls for the zero-extent stall tests.
type fakeSurface struct {
	extents    []Extent2D
	resized    bool
	waitEvents int
}

func (s *fakeSurface) Extent() Extent2D {
	if len(s.extents) == 0 {
		return Extent2D{}
	}
	e := s.extents[0]
	if len(s.extents) > 1 {
		s.extents = s.extents[1:]
	}
	return e
}

func (s *fakeSurface) WasResized() bool    { return s.resized }
func (s *fakeSurface) ResetResizedFlag()   { s.resized = false }
func (s *fakeSurface) WaitEvents()         { s.waitEvents++ }

package render

import "github.com/cockroachdb/errors"

// MaxFramesInFlight bounds how many frames may have unfinished GPU work
// while the CPU prepares the next one.
const MaxFramesInFlight = 2

// SwapChain owns the presentable image chain and everything whose lifetime
// is tied to it: image views, per-image depth attachments, framebuffers,
// the render pass, and the synchronization objects that pace frames. It
// hides the acquire/present protocol behind the PresentStatus taxonomy.
type SwapChain struct {
	device Device

	chain       PresentChain
	imageFormat Format
	depthFormat Format
	extent      Extent2D

	imageViews   []ImageView
	depthImages  []Image
	depthViews   []ImageView
	framebuffers []Framebuffer
	renderPass   RenderPass

	// Per frame slot [0, MaxFramesInFlight).
	imageAvailable []Semaphore
	renderFinished []Semaphore
	inFlight       []Fence
	// Per swapchain image: the slot fence of the last submission that
	// rendered to it, or nil if the image was never used.
	imagesInFlight []Fence

	currentFrame int
}

// NewSwapChain builds a chain for a fresh surface of the given extent.
func NewSwapChain(device Device, extent Extent2D) (*SwapChain, error) {
	return newSwapChain(device, extent, nil)
}

// NewSwapChainFrom builds a replacement chain, handing old's presentation
// handle to the new chain's construction so the presentation engine can
// reuse its internal resources. The caller remains responsible for
// destroying old (after comparing formats).
func NewSwapChainFrom(device Device, extent Extent2D, old *SwapChain) (*SwapChain, error) {
	var oldChain PresentChain
	if old != nil {
		oldChain = old.chain
	}
	return newSwapChain(device, extent, oldChain)
}

func newSwapChain(device Device, extent Extent2D, old PresentChain) (*SwapChain, error) {
	s := &SwapChain{device: device}

	chain, err := device.CreatePresentChain(extent, old)
	if err != nil {
		return nil, errors.Wrap(err, "create present chain")
	}
	s.chain = chain
	s.imageFormat = chain.Format()
	s.extent = chain.Extent()

	s.depthFormat, err = device.DepthFormat()
	if err != nil {
		s.Destroy()
		return nil, errors.Wrap(err, "find depth format")
	}

	for _, step := range []func() error{
		s.createImageViews,
		s.createRenderPass,
		s.createDepthResources,
		s.createFramebuffers,
		s.createSyncObjects,
	} {
		if err := step(); err != nil {
			s.Destroy()
			return nil, err
		}
	}
	return s, nil
}

func (s *SwapChain) createImageViews() error {
	for _, img := range s.chain.Images() {
		view, err := s.device.CreateImageView(img, s.imageFormat, AspectColor)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		s.imageViews = append(s.imageViews, view)
	}
	return nil
}

func (s *SwapChain) createRenderPass() error {
	pass, err := s.device.CreateRenderPass(s.imageFormat, s.depthFormat)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	s.renderPass = pass
	return nil
}

func (s *SwapChain) createDepthResources() error {
	for i := 0; i < s.chain.ImageCount(); i++ {
		img, err := s.device.CreateImage(s.extent, s.depthFormat, ImageUsageDepthAttachment)
		if err != nil {
			return errors.Wrap(err, "create depth image")
		}
		s.depthImages = append(s.depthImages, img)

		view, err := s.device.CreateImageView(img, s.depthFormat, AspectDepth)
		if err != nil {
			return errors.Wrap(err, "create depth image view")
		}
		s.depthViews = append(s.depthViews, view)
	}
	return nil
}

func (s *SwapChain) createFramebuffers() error {
	for i, view := range s.imageViews {
		fb, err := s.device.CreateFramebuffer(s.renderPass, []ImageView{view, s.depthViews[i]}, s.extent)
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}
		s.framebuffers = append(s.framebuffers, fb)
	}
	return nil
}

func (s *SwapChain) createSyncObjects() error {
	for i := 0; i < MaxFramesInFlight; i++ {
		avail, err := s.device.CreateSemaphore()
		if err != nil {
			return errors.Wrap(err, "create image-available semaphore")
		}
		s.imageAvailable = append(s.imageAvailable, avail)

		finished, err := s.device.CreateSemaphore()
		if err != nil {
			return errors.Wrap(err, "create render-finished semaphore")
		}
		s.renderFinished = append(s.renderFinished, finished)

		// Created signaled so the first wait on each slot passes.
		fence, err := s.device.CreateFence(true)
		if err != nil {
			return errors.Wrap(err, "create in-flight fence")
		}
		s.inFlight = append(s.inFlight, fence)
	}
	s.imagesInFlight = make([]Fence, s.chain.ImageCount())
	return nil
}

// AcquireNextImage blocks until the current frame slot's previous
// submission has retired, then acquires the next presentable image. On
// PresentOutOfDate the returned index must not be used and the chain must
// be recreated; PresentSuboptimal images are still usable this frame.
func (s *SwapChain) AcquireNextImage() (int, PresentStatus, error) {
	if err := s.device.WaitForFences(s.inFlight[s.currentFrame]); err != nil {
		return 0, PresentSuccess, errors.Wrap(err, "wait for in-flight fence")
	}

	idx, status, err := s.chain.Acquire(s.imageAvailable[s.currentFrame])
	if err != nil {
		return 0, PresentSuccess, errors.Wrap(err, "acquire swapchain image")
	}
	return idx, status, nil
}

// SubmitCommandBuffers submits the recorded buffer for imageIndex and
// immediately queues the present request. The frame slot advances exactly
// once per call.
func (s *SwapChain) SubmitCommandBuffers(cb CommandBuffer, imageIndex int) (PresentStatus, error) {
	// If an earlier frame is still rendering to this image, wait for it.
	// This bounds in-flight work by swapchain depth as well as slot depth.
	if prev := s.imagesInFlight[imageIndex]; prev != nil {
		if err := s.device.WaitForFences(prev); err != nil {
			return PresentSuccess, errors.Wrap(err, "wait for image fence")
		}
	}
	s.imagesInFlight[imageIndex] = s.inFlight[s.currentFrame]

	if err := s.device.ResetFences(s.inFlight[s.currentFrame]); err != nil {
		return PresentSuccess, errors.Wrap(err, "reset in-flight fence")
	}

	err := s.device.Submit(
		[]CommandBuffer{cb},
		[]Semaphore{s.imageAvailable[s.currentFrame]},
		[]Semaphore{s.renderFinished[s.currentFrame]},
		s.inFlight[s.currentFrame],
	)
	if err != nil {
		return PresentSuccess, errors.Wrap(err, "submit draw command buffer")
	}

	status, err := s.chain.Present(imageIndex, s.renderFinished[s.currentFrame])
	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight
	if err != nil {
		return status, errors.Wrap(err, "present swapchain image")
	}
	return status, nil
}

// CompareFormats reports whether other renders to the same color and depth
// formats. A mismatch after recreation invalidates pipelines built against
// the old render pass.
func (s *SwapChain) CompareFormats(other *SwapChain) bool {
	return s.imageFormat == other.imageFormat && s.depthFormat == other.depthFormat
}

func (s *SwapChain) RenderPass() RenderPass       { return s.renderPass }
func (s *SwapChain) Framebuffer(i int) Framebuffer { return s.framebuffers[i] }
func (s *SwapChain) Extent() Extent2D             { return s.extent }
func (s *SwapChain) AspectRatio() float32         { return s.extent.AspectRatio() }
func (s *SwapChain) ImageCount() int              { return s.chain.ImageCount() }
func (s *SwapChain) ImageFormat() Format          { return s.imageFormat }
func (s *SwapChain) DepthFormat() Format          { return s.depthFormat }

// Destroy releases every owned resource including the presentation
// handle. The caller must ensure no submission still references them
// (device idle, or all slot fences observed signaled).
func (s *SwapChain) Destroy() {
	for _, f := range s.framebuffers {
		f.Destroy()
	}
	s.framebuffers = nil
	for _, v := range s.depthViews {
		v.Destroy()
	}
	s.depthViews = nil
	for _, img := range s.depthImages {
		img.Destroy()
	}
	s.depthImages = nil
	if s.renderPass != nil {
		s.renderPass.Destroy()
		s.renderPass = nil
	}
	for _, v := range s.imageViews {
		v.Destroy()
	}
	s.imageViews = nil
	for _, sem := range s.imageAvailable {
		sem.Destroy()
	}
	s.imageAvailable = nil
	for _, sem := range s.renderFinished {
		sem.Destroy()
	}
	s.renderFinished = nil
	for _, f := range s.inFlight {
		f.Destroy()
	}
	s.inFlight = nil
	if s.chain != nil {
		s.chain.Destroy()
		s.chain = nil
	}
}

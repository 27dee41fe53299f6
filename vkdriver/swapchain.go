package vkdriver

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/pyrite-engine/pyrite/render"
)

// presentChain implements render.PresentChain over khr_swapchain.
type presentChain struct {
	d *Driver

	chain  khr_swapchain.Swapchain
	images []render.Image
	format render.Format
	extent render.Extent2D
}

// CreatePresentChain implements render.Device. The presentation engine
// prefers B8G8R8A8 sRGB and mailbox presentation, falling back to the
// first advertised format and FIFO.
func (d *Driver) CreatePresentChain(extent render.Extent2D, old render.PresentChain) (render.PresentChain, error) {
	capabilities, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, d.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface capabilities")
	}
	formats, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, d.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface formats")
	}
	presentModes, _, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, d.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface present modes")
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(presentModes)
	chainExtent := chooseExtent(capabilities, extent)

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	indices, err := d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return nil, err
	}
	sharingMode := core1_0.SharingModeExclusive
	var queueFamilies []int
	if *indices.graphicsFamily != *indices.presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilies = append(queueFamilies, *indices.graphicsFamily, *indices.presentFamily)
	}

	var oldChain khr_swapchain.Swapchain
	if old != nil {
		oldChain = old.(*presentChain).chain
	}

	chain, _, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      chainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilies,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,

		OldSwapchain: oldChain,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}

	rawImages, _, err := d.swapchainExtension.GetSwapchainImages(chain)
	if err != nil {
		d.swapchainExtension.DestroySwapchain(chain, nil)
		return nil, errors.Wrap(err, "get swapchain images")
	}

	pc := &presentChain{
		d:      d,
		chain:  chain,
		format: render.Format(surfaceFormat.Format),
		extent: render.Extent2D{Width: chainExtent.Width, Height: chainExtent.Height},
	}
	for _, raw := range rawImages {
		// Presentation engine owns these; Destroy on them is a no-op.
		pc.images = append(pc.images, &image{d: d, hnd: raw})
	}
	return pc, nil
}

func chooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return formats[0]
}

func choosePresentMode(modes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, requested render.Extent2D) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	extent := core1_0.Extent2D{Width: requested.Width, Height: requested.Height}
	if extent.Width < capabilities.MinImageExtent.Width {
		extent.Width = capabilities.MinImageExtent.Width
	}
	if extent.Width > capabilities.MaxImageExtent.Width {
		extent.Width = capabilities.MaxImageExtent.Width
	}
	if extent.Height < capabilities.MinImageExtent.Height {
		extent.Height = capabilities.MinImageExtent.Height
	}
	if extent.Height > capabilities.MaxImageExtent.Height {
		extent.Height = capabilities.MaxImageExtent.Height
	}
	return extent
}

func (c *presentChain) Images() []render.Image   { return c.images }
func (c *presentChain) ImageCount() int          { return len(c.images) }
func (c *presentChain) Format() render.Format    { return c.format }
func (c *presentChain) Extent() render.Extent2D  { return c.extent }

func (c *presentChain) Acquire(imageAvailable render.Semaphore) (int, render.PresentStatus, error) {
	sem := imageAvailable.(*semaphore)
	imageIndex, res, err := c.d.swapchainExtension.AcquireNextImage(c.chain, common.NoTimeout, &sem.hnd, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, render.PresentOutOfDate, nil
	}
	if err != nil {
		return 0, render.PresentSuccess, errors.Wrap(err, "acquire next image")
	}
	if res == khr_swapchain.VKSuboptimal {
		return imageIndex, render.PresentSuboptimal, nil
	}
	return imageIndex, render.PresentSuccess, nil
}

func (c *presentChain) Present(imageIndex int, wait render.Semaphore) (render.PresentStatus, error) {
	res, err := c.d.swapchainExtension.QueuePresent(c.d.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*semaphore).hnd},
		Swapchains:     []khr_swapchain.Swapchain{c.chain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return render.PresentOutOfDate, nil
	}
	if res == khr_swapchain.VKSuboptimal {
		return render.PresentSuboptimal, nil
	}
	if err != nil {
		return render.PresentSuccess, errors.Wrap(err, "queue present")
	}
	return render.PresentSuccess, nil
}

func (c *presentChain) Destroy() {
	if c.chain.Initialized() {
		c.d.swapchainExtension.DestroySwapchain(c.chain, nil)
		c.chain = khr_swapchain.Swapchain{}
	}
}

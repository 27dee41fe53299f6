// Package vkdriver implements the render.Device contract on Vulkan via
// vkngwrapper, with SDL2 providing the surface.
package vkdriver

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/pyrite-engine/pyrite/render"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// Options configures driver bring-up.
type Options struct {
	AppName    string
	Validation bool
	// PipelineCachePath, when non-empty, names a file the pipeline cache
	// is loaded from at startup and written back to on Destroy.
	PipelineCachePath string
}

type queueFamilyIndices struct {
	graphicsFamily *int
	presentFamily  *int
}

func (i *queueFamilyIndices) isComplete() bool {
	return i.graphicsFamily != nil && i.presentFamily != nil
}

// Driver owns the Vulkan instance, logical device and queues, and
// implements render.Device on top of them.
type Driver struct {
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension khr_swapchain.ExtensionDriver

	commandPool core1_0.CommandPool

	minUniformAlignment int
	pipelineCacheUUID   uuid.UUID
	vendorID            uint32
	deviceID            uint32
	deviceName          string

	pipelineCache     core1_0.PipelineCache
	pipelineCachePath string

	validation bool
}

var _ render.Device = (*Driver)(nil)

// New brings up Vulkan against the given SDL window, which must have been
// created with the sdl.WINDOW_VULKAN flag.
func New(window *sdl.Window, opts Options) (*Driver, error) {
	d := &Driver{
		window:            window,
		validation:        opts.Validation,
		pipelineCachePath: opts.PipelineCachePath,
	}

	var err error
	d.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan entry points")
	}

	for _, step := range []func(opts Options) error{
		d.createInstance,
		d.setupDebugMessenger,
		d.createSurface,
		d.pickPhysicalDevice,
		d.createLogicalDevice,
		d.createCommandPool,
		d.loadPipelineCache,
	} {
		if err := step(opts); err != nil {
			d.Destroy()
			return nil, err
		}
	}
	return d, nil
}

func (d *Driver) createInstance(opts Options) error {
	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "pyrite",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := d.window.VulkanGetInstanceExtensions()
	available, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		if _, ok := available[ext]; !ok {
			return errors.Errorf("vkdriver: required surface extension %s is not available", ext)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}

	if _, ok := available[khr_portability_enumeration.ExtensionName]; ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if d.validation {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)

		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}
		for _, layer := range validationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Errorf("vkdriver: validation layer %s is not available, install the LunarG Vulkan SDK", layer)
			}
			info.EnabledLayerNames = append(info.EnabledLayerNames, layer)
		}
		info.Next = d.debugMessengerOptions()
	}

	d.instanceDriver, _, err = d.globalDriver.CreateInstance(nil, info)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	return nil
}

func (d *Driver) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logValidation,
	}
}

func logValidation(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] %s", severity, msgType, data.Message)
	return false
}

func (d *Driver) setupDebugMessenger(Options) error {
	if !d.validation {
		return nil
	}

	var err error
	d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	d.debugMessenger, _, err = d.debugDriver.CreateDebugUtilsMessenger(nil, d.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}
	return nil
}

func (d *Driver) createSurface(Options) error {
	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, d.window)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}
	d.surface = surface
	return nil
}

func (d *Driver) pickPhysicalDevice(Options) error {
	devices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range devices {
		if d.isDeviceSuitable(device) {
			d.physicalDevice = device
			break
		}
	}
	if !d.physicalDevice.Initialized() {
		return errors.New("vkdriver: no suitable GPU found")
	}

	properties, err := d.instanceDriver.GetPhysicalDeviceProperties(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query device properties")
	}
	d.minUniformAlignment = properties.Limits.MinUniformBufferOffsetAlignment
	d.pipelineCacheUUID = properties.PipelineCacheUUID
	d.vendorID = properties.VendorID
	d.deviceID = properties.DeviceID
	d.deviceName = properties.DeviceName
	log.Printf("vkdriver: using device %s", d.deviceName)
	return nil
}

func (d *Driver) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := d.findQueueFamilies(device)
	if err != nil || !indices.isComplete() {
		return false
	}
	if !d.checkDeviceExtensionSupport(device) {
		return false
	}

	formats, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, device)
	if err != nil || len(formats) == 0 {
		return false
	}
	presentModes, _, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, device)
	return err == nil && len(presentModes) > 0
}

func (d *Driver) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	available, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}
	for _, ext := range deviceExtensions {
		if _, ok := available[ext]; !ok {
			return false
		}
	}
	return true
}

func (d *Driver) findQueueFamilies(device core1_0.PhysicalDevice) (queueFamilyIndices, error) {
	var indices queueFamilyIndices
	families := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for familyIdx, family := range families {
		if (family.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.graphicsFamily = new(int)
			*indices.graphicsFamily = familyIdx
		}

		supported, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.surface, device, familyIdx)
		if err != nil {
			return indices, errors.Wrap(err, "query surface support")
		}
		if supported {
			indices.presentFamily = new(int)
			*indices.presentFamily = familyIdx
		}

		if indices.isComplete() {
			break
		}
	}
	return indices, nil
}

func (d *Driver) createLogicalDevice(Options) error {
	indices, err := d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}

	uniqueFamilies := []int{*indices.graphicsFamily}
	if uniqueFamilies[0] != *indices.presentFamily {
		uniqueFamilies = append(uniqueFamilies, *indices.presentFamily)
	}

	var queueInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range uniqueFamilies {
		queueInfos = append(queueInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string{}, deviceExtensions...)

	// Required on drivers that expose the portability subset (MoltenVK).
	available, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}
	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.deviceDriver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueInfos,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	d.graphicsQueue = d.deviceDriver.GetQueue(*indices.graphicsFamily, 0)
	d.presentQueue = d.deviceDriver.GetQueue(*indices.presentFamily, 0)
	d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.deviceDriver)
	return nil
}

func (d *Driver) createCommandPool(Options) error {
	indices, err := d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}

	// Frame command buffers are re-recorded every frame.
	pool, _, err := d.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *indices.graphicsFamily,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	d.commandPool = pool
	return nil
}

// WaitIdle drains the device queue. Implements render.Device.
func (d *Driver) WaitIdle() error {
	_, err := d.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	return nil
}

// MinUniformAlignment implements render.Device.
func (d *Driver) MinUniformAlignment() int { return d.minUniformAlignment }

// DeviceName is the name the driver reports for the selected GPU.
func (d *Driver) DeviceName() string { return d.deviceName }

// Destroy tears the driver down. The device must be idle and all
// resources created through it already destroyed.
func (d *Driver) Destroy() {
	if d.pipelineCache.Initialized() {
		d.savePipelineCache()
		d.deviceDriver.DestroyPipelineCache(d.pipelineCache, nil)
		d.pipelineCache = core1_0.PipelineCache{}
	}

	if d.commandPool.Initialized() {
		d.deviceDriver.DestroyCommandPool(d.commandPool, nil)
		d.commandPool = core1_0.CommandPool{}
	}

	if d.deviceDriver != nil {
		d.deviceDriver.DestroyDevice(nil)
		d.deviceDriver = nil
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.surface.Initialized() {
		d.surfaceExtension.DestroySurface(d.surface, nil)
		d.surface = khr_surface.Surface{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
}

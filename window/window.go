// Package window wraps an SDL2 window as the engine's presentation
// surface and event source.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/pyrite-engine/pyrite/render"
)

// Window is a resizable SDL2 window with a Vulkan-capable surface. It
// implements render.Surface.
type Window struct {
	win *sdl.Window

	shouldClose bool
	resized     bool
}

var _ render.Surface = (*Window)(nil)

// New initializes SDL video and opens the window.
func New(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "initialize sdl")
	}

	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{win: win}, nil
}

// PollEvents drains the event queue, updating the close and resize flags.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
}

// WaitEvents blocks until at least one event arrives, then drains the
// rest of the queue. Implements render.Surface.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handleEvent(event)
	}
	w.PollEvents()
}

func (w *Window) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.shouldClose = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			w.resized = true
		}
	}
}

// Extent is the drawable size in pixels, which can differ from the
// window size on high-DPI displays. Implements render.Surface.
func (w *Window) Extent() render.Extent2D {
	width, height := w.win.VulkanGetDrawableSize()
	return render.Extent2D{Width: int(width), Height: int(height)}
}

// ShouldClose reports whether a quit event has been received.
func (w *Window) ShouldClose() bool { return w.shouldClose }

// WasResized implements render.Surface.
func (w *Window) WasResized() bool { return w.resized }

// ResetResizedFlag implements render.Surface.
func (w *Window) ResetResizedFlag() { w.resized = false }

// SDLWindow exposes the underlying handle for surface creation.
func (w *Window) SDLWindow() *sdl.Window { return w.win }

// Destroy closes the window and shuts SDL down.
func (w *Window) Destroy() {
	if w.win != nil {
		_ = w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
}

package render

import "github.com/cockroachdb/errors"

// PresentStatus is the acquire/present result taxonomy. Success and
// Suboptimal frames are usable; OutOfDate frames must be abandoned and the
// swapchain recreated. Anything the presentation engine reports beyond
// these arrives as an ordinary (fatal) error instead.
type PresentStatus int

const (
	PresentSuccess PresentStatus = iota
	// PresentSuboptimal means the current frame is still usable but the
	// swapchain no longer matches the surface exactly; recreation should
	// happen after this frame presents.
	PresentSuboptimal
	// PresentOutOfDate means the swapchain is unusable and must be
	// recreated before any further rendering.
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentSuccess:
		return "success"
	case PresentSuboptimal:
		return "suboptimal"
	case PresentOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// ErrFormatChanged is returned when a recreated swapchain came back with a
// different color or depth format than its predecessor. Pipelines built
// against the old render pass are no longer compatible, so this is fatal.
var ErrFormatChanged = errors.New("render: swapchain image or depth format has changed")

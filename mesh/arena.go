package mesh

import (
	"github.com/cockroachdb/errors"

	"github.com/pyrite-engine/pyrite/render"
)

// Handle identifies a model stored in an Arena. Handles are generational:
// a handle to a released slot stays invalid even after the slot is reused.
type Handle struct {
	index      int
	generation uint32
}

type arenaSlot struct {
	model      *Model
	generation uint32
	live       bool
}

type retired struct {
	model *Model
	// frame count at release time; the model is destroyed once this many
	// frames plus the in-flight window have completed.
	releasedAt uint64
}

// Arena owns models and defers their GPU-side destruction until no frame
// that could reference them is still in flight.
type Arena struct {
	slots   []arenaSlot
	free    []int
	pending []retired
}

func NewArena() *Arena {
	return &Arena{}
}

// Add takes ownership of model and returns a handle for it.
func (a *Arena) Add(model *Model) Handle {
	if model == nil {
		panic("mesh: cannot add nil model to arena")
	}

	var index int
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = len(a.slots)
		a.slots = append(a.slots, arenaSlot{})
	}

	slot := &a.slots[index]
	slot.model = model
	slot.live = true
	return Handle{index: index, generation: slot.generation}
}

// Get returns the model for h, or an error if h was never issued or has
// been released.
func (a *Arena) Get(h Handle) (*Model, error) {
	if h.index < 0 || h.index >= len(a.slots) {
		return nil, errors.Newf("mesh: handle index %d out of range", h.index)
	}
	slot := &a.slots[h.index]
	if !slot.live || slot.generation != h.generation {
		return nil, errors.Newf("mesh: stale handle for slot %d", h.index)
	}
	return slot.model, nil
}

// Release invalidates h. The model's buffers are not freed until Collect
// observes that every frame recorded before the release has completed.
func (a *Arena) Release(h Handle, afterFrame uint64) error {
	if h.index < 0 || h.index >= len(a.slots) {
		return errors.Newf("mesh: handle index %d out of range", h.index)
	}
	slot := &a.slots[h.index]
	if !slot.live || slot.generation != h.generation {
		return errors.Newf("mesh: stale handle for slot %d", h.index)
	}

	a.pending = append(a.pending, retired{model: slot.model, releasedAt: afterFrame})
	slot.model = nil
	slot.live = false
	slot.generation++
	a.free = append(a.free, h.index)
	return nil
}

// Collect destroys retired models whose release frame is at least the
// in-flight window behind completedFrames. Call once per frame with the
// renderer's completed frame count.
func (a *Arena) Collect(completedFrames uint64) {
	kept := a.pending[:0]
	for _, r := range a.pending {
		if completedFrames >= r.releasedAt+uint64(render.MaxFramesInFlight) {
			r.model.Destroy()
		} else {
			kept = append(kept, r)
		}
	}
	a.pending = kept
}

// Len reports the number of live models.
func (a *Arena) Len() int {
	return len(a.slots) - len(a.free)
}

// Destroy releases every model immediately. The device must be idle.
func (a *Arena) Destroy() {
	for i := range a.slots {
		if a.slots[i].live {
			a.slots[i].model.Destroy()
			a.slots[i].model = nil
			a.slots[i].live = false
			a.slots[i].generation++
		}
	}
	for _, r := range a.pending {
		r.model.Destroy()
	}
	a.pending = nil
	a.free = nil
}

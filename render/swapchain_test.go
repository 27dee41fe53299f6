package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func driveCycle(t *testing.T, sc *SwapChain) (int, PresentStatus) {
	t.Helper()

	idx, status, err := sc.AcquireNextImage()
	require.NoError(t, err)
	if status == PresentOutOfDate {
		return idx, status
	}

	cb := &fakeCommandBuffer{d: sc.device.(*fakeDevice), id: 99}
	status, err = sc.SubmitCommandBuffers(cb, idx)
	require.NoError(t, err)
	return idx, status
}

func TestSwapChainBuildsPerImageResources(t *testing.T) {
	d := newFakeDevice(3)
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	require.Equal(t, 3, sc.ImageCount())
	require.Len(t, sc.imageViews, 3)
	require.Len(t, sc.depthImages, 3)
	require.Len(t, sc.depthViews, 3)
	require.Len(t, sc.framebuffers, 3)
	require.Len(t, sc.imagesInFlight, 3)
	require.Len(t, sc.imageAvailable, MaxFramesInFlight)
	require.Len(t, sc.renderFinished, MaxFramesInFlight)
	require.Len(t, sc.inFlight, MaxFramesInFlight)
	require.Equal(t, Extent2D{Width: 800, Height: 600}, sc.Extent())
	require.NotNil(t, sc.RenderPass())
}

// A slot's fence is waited before the slot is reused, so at most
// MaxFramesInFlight submissions are ever outstanding.
func TestSwapChainSlotFencePacing(t *testing.T) {
	d := newFakeDevice(3)
	d.manualComplete = true
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		driveCycle(t, sc)
	}

	// Images hand out round-robin across the chain.
	images := []string{
		"acquire image=0", "acquire image=1", "acquire image=2",
		"acquire image=0", "acquire image=1",
	}
	from := 0
	for _, e := range images {
		i := d.eventIndex(e, from)
		require.GreaterOrEqual(t, i, 0, "missing %q after index %d", e, from)
		from = i + 1
	}

	// Cycle 2 reuses slot 0. Its submission from cycle 0 must retire
	// before cycle 2's image is acquired, and the fake only retires a
	// pending submission inside a blocking wait.
	submit0 := d.eventIndex("submit cb=99 fence=0", 0)
	retire0 := d.eventIndex("retire fence=0", 0)
	acquire2 := d.eventIndex("acquire image=2", 0)
	require.GreaterOrEqual(t, submit0, 0)
	require.Greater(t, retire0, submit0)
	require.Greater(t, acquire2, retire0)

	// Never more than MaxFramesInFlight submissions pending.
	require.LessOrEqual(t, len(d.pending), MaxFramesInFlight)
}

// Fence resets trace the slot rotation: 0, 1, 0, 1, 0.
func TestSwapChainSlotRotation(t *testing.T) {
	d := newFakeDevice(3)
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		driveCycle(t, sc)
	}

	var resets []string
	for _, e := range d.log {
		if len(e) > 5 && e[:5] == "reset" {
			resets = append(resets, e)
		}
	}
	require.Equal(t, []string{
		"reset fence=0", "reset fence=1",
		"reset fence=0", "reset fence=1",
		"reset fence=0",
	}, resets)
}

// An image handed out again while its previous submission is still in
// flight forces a wait on that submission's fence before the new one goes
// out.
func TestSwapChainWaitsImageFence(t *testing.T) {
	d := newFakeDevice(3)
	d.manualComplete = true
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	driveCycle(t, sc) // image 0, fence 0
	driveCycle(t, sc) // image 1, fence 1

	// Force the presentation engine to hand image 1 out again while
	// fence 1 is still pending.
	d.lastChain.next = 1
	idx, _, err := sc.AcquireNextImage()
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	cb := &fakeCommandBuffer{d: d, id: 99}
	before := len(d.log)
	_, err = sc.SubmitCommandBuffers(cb, idx)
	require.NoError(t, err)

	retire := d.eventIndex("retire fence=1", before)
	submit := d.eventIndex(fmt.Sprintf("submit cb=99 fence=%d", 0), before)
	require.GreaterOrEqual(t, retire, before, "image fence not waited before resubmission")
	require.Greater(t, submit, retire)
}

func TestSwapChainSuboptimalFrameIsUsable(t *testing.T) {
	d := newFakeDevice(3)
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	d.acquireScript = []PresentStatus{PresentSuboptimal}
	idx, status, err := sc.AcquireNextImage()
	require.NoError(t, err)
	require.Equal(t, PresentSuboptimal, status)
	require.Equal(t, 0, idx)

	cb := &fakeCommandBuffer{d: d, id: 99}
	status, err = sc.SubmitCommandBuffers(cb, idx)
	require.NoError(t, err)
	require.Equal(t, PresentSuccess, status)
}

func TestSwapChainOutOfDateAcquire(t *testing.T) {
	d := newFakeDevice(3)
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	d.acquireScript = []PresentStatus{PresentOutOfDate}
	_, status, err := sc.AcquireNextImage()
	require.NoError(t, err)
	require.Equal(t, PresentOutOfDate, status)
}

func TestSwapChainRecreationHandsOffOldChain(t *testing.T) {
	d := newFakeDevice(3)
	old, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	replacement, err := NewSwapChainFrom(d, Extent2D{Width: 1024, Height: 768}, old)
	require.NoError(t, err)

	require.GreaterOrEqual(t, d.eventIndex("createchain extent=1024x768 old=true", 0), 0)
	require.True(t, old.CompareFormats(replacement))
	require.Equal(t, Extent2D{Width: 1024, Height: 768}, replacement.Extent())
}

func TestSwapChainCompareFormats(t *testing.T) {
	d := newFakeDevice(3)
	a, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	d.depthFormat = Format(43)
	b, err := NewSwapChainFrom(d, Extent2D{Width: 800, Height: 600}, a)
	require.NoError(t, err)
	require.False(t, a.CompareFormats(b))
}

func TestSwapChainDestroyReleasesChain(t *testing.T) {
	d := newFakeDevice(3)
	sc, err := NewSwapChain(d, Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)

	sc.Destroy()
	require.GreaterOrEqual(t, d.eventIndex("destroychain", 0), 0)
	require.Nil(t, sc.chain)
	require.Empty(t, sc.framebuffers)
	require.Empty(t, sc.inFlight)
}

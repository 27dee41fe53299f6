package render

import "github.com/cockroachdb/errors"

// FrameResources is one frame slot's bundle: the command buffer recorded
// into, the slot's aligned region of the shared uniform buffer, and the
// descriptor set pointing at that region. Bundles are indexed by frame
// slot, not image index: the slot fence guarantees the GPU is no longer
// reading a bundle before the CPU touches it again, with no further
// locking.
type FrameResources struct {
	Cmd        CommandBuffer
	Descriptor DescriptorSet

	uniforms *InstanceBuffer
	slot     int
}

// WriteUniform copies data into the slot's region of the uniform buffer.
// Only call for the slot returned by Renderer for the frame in progress.
func (f *FrameResources) WriteUniform(data []byte) error {
	if err := f.uniforms.WriteToIndex(data, f.slot); err != nil {
		return errors.Wrap(err, "write frame uniform buffer")
	}
	return nil
}

package render

import "github.com/cockroachdb/errors"

// AlignSize rounds instanceSize up to the smallest multiple of
// minAlignment. A minAlignment of zero or one leaves the size unchanged.
// minAlignment must be a power of two (uniform offset alignments are).
func AlignSize(instanceSize, minAlignment int) int {
	if minAlignment > 1 {
		return (instanceSize + minAlignment - 1) &^ (minAlignment - 1)
	}
	return instanceSize
}

// InstanceBuffer is a host-visible buffer holding several equally sized
// instances at aligned offsets, so individual instances can be bound as
// dynamic-offset uniform ranges or written independently.
type InstanceBuffer struct {
	buf           Buffer
	instanceSize  int
	alignmentSize int
	instanceCount int
}

// NewInstanceBuffer allocates room for count instances of instanceSize
// bytes, each padded to the device's minimum uniform alignment.
func NewInstanceBuffer(device Device, instanceSize, count int, usage BufferUsage) (*InstanceBuffer, error) {
	if instanceSize <= 0 || count <= 0 {
		return nil, errors.Errorf("instance buffer: invalid dimensions %dx%d", instanceSize, count)
	}
	alignment := AlignSize(instanceSize, device.MinUniformAlignment())
	buf, err := device.CreateHostBuffer(alignment*count, usage)
	if err != nil {
		return nil, errors.Wrap(err, "create instance buffer")
	}
	return &InstanceBuffer{
		buf:           buf,
		instanceSize:  instanceSize,
		alignmentSize: alignment,
		instanceCount: count,
	}, nil
}

// WriteToIndex copies one instance's data to its aligned slot.
func (b *InstanceBuffer) WriteToIndex(data []byte, index int) error {
	if index < 0 || index >= b.instanceCount {
		return errors.Errorf("instance buffer: index %d out of range [0, %d)", index, b.instanceCount)
	}
	if len(data) > b.instanceSize {
		return errors.Errorf("instance buffer: write of %d bytes exceeds instance size %d", len(data), b.instanceSize)
	}
	return b.buf.Write(data, index*b.alignmentSize)
}

// OffsetOf is the byte offset of an instance, for dynamic descriptor
// offsets.
func (b *InstanceBuffer) OffsetOf(index int) int { return index * b.alignmentSize }

func (b *InstanceBuffer) Buffer() Buffer      { return b.buf }
func (b *InstanceBuffer) InstanceSize() int   { return b.instanceSize }
func (b *InstanceBuffer) AlignmentSize() int  { return b.alignmentSize }
func (b *InstanceBuffer) InstanceCount() int  { return b.instanceCount }

func (b *InstanceBuffer) Destroy() { b.buf.Destroy() }

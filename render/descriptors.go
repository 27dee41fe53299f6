package render

import "github.com/cockroachdb/errors"

// DescriptorSetLayoutBuilder accumulates bindings for a set layout.
type DescriptorSetLayoutBuilder struct {
	device   Device
	bindings []DescriptorBinding
	used     map[int]bool
}

func NewDescriptorSetLayoutBuilder(device Device) *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{device: device, used: make(map[int]bool)}
}

// AddBinding registers one binding. Reusing a binding slot is a caller
// bug.
func (b *DescriptorSetLayoutBuilder) AddBinding(binding int, t DescriptorType, stages StageFlags) *DescriptorSetLayoutBuilder {
	if b.used[binding] {
		panic("render: descriptor binding already in use")
	}
	b.used[binding] = true
	b.bindings = append(b.bindings, DescriptorBinding{
		Binding: binding,
		Type:    t,
		Stages:  stages,
		Count:   1,
	})
	return b
}

func (b *DescriptorSetLayoutBuilder) Build() (DescriptorSetLayout, error) {
	layout, err := b.device.CreateDescriptorSetLayout(b.bindings)
	if err != nil {
		return nil, errors.Wrap(err, "build descriptor set layout")
	}
	return layout, nil
}

// DescriptorPoolBuilder accumulates pool sizes.
type DescriptorPoolBuilder struct {
	device  Device
	sizes   []DescriptorPoolSize
	maxSets int
}

func NewDescriptorPoolBuilder(device Device) *DescriptorPoolBuilder {
	return &DescriptorPoolBuilder{device: device, maxSets: 1000}
}

func (b *DescriptorPoolBuilder) AddPoolSize(t DescriptorType, count int) *DescriptorPoolBuilder {
	b.sizes = append(b.sizes, DescriptorPoolSize{Type: t, Count: count})
	return b
}

func (b *DescriptorPoolBuilder) SetMaxSets(count int) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

func (b *DescriptorPoolBuilder) Build() (DescriptorPool, error) {
	pool, err := b.device.CreateDescriptorPool(b.maxSets, b.sizes)
	if err != nil {
		return nil, errors.Wrap(err, "build descriptor pool")
	}
	return pool, nil
}

// DescriptorWriter allocates a set from a pool and batches buffer writes
// into it.
type DescriptorWriter struct {
	device Device
	layout DescriptorSetLayout
	pool   DescriptorPool
	writes []DescriptorWrite
}

func NewDescriptorWriter(device Device, layout DescriptorSetLayout, pool DescriptorPool) *DescriptorWriter {
	return &DescriptorWriter{device: device, layout: layout, pool: pool}
}

func (w *DescriptorWriter) WriteBuffer(binding int, buf Buffer) *DescriptorWriter {
	w.writes = append(w.writes, DescriptorWrite{
		Binding: binding,
		Type:    DescriptorUniformBuffer,
		Buffer:  buf,
	})
	return w
}

// WriteBufferRange binds a sub-range of buf to binding, for buffers that
// pack several instances at aligned offsets.
func (w *DescriptorWriter) WriteBufferRange(binding int, buf Buffer, offset, length int) *DescriptorWriter {
	w.writes = append(w.writes, DescriptorWrite{
		Binding: binding,
		Type:    DescriptorUniformBuffer,
		Buffer:  buf,
		Offset:  offset,
		Range:   length,
	})
	return w
}

// Build allocates the set and applies the accumulated writes.
func (w *DescriptorWriter) Build() (DescriptorSet, error) {
	set, err := w.pool.Allocate(w.layout)
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor set")
	}
	if err := w.Overwrite(set); err != nil {
		return nil, err
	}
	return set, nil
}

// Overwrite applies the accumulated writes to an existing set.
func (w *DescriptorWriter) Overwrite(set DescriptorSet) error {
	writes := make([]DescriptorWrite, len(w.writes))
	copy(writes, w.writes)
	for i := range writes {
		writes[i].Set = set
	}
	if err := w.device.UpdateDescriptorSets(writes); err != nil {
		return errors.Wrap(err, "update descriptor sets")
	}
	return nil
}

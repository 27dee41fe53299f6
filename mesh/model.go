package mesh

import (
	"github.com/cockroachdb/errors"

	"github.com/pyrite-engine/pyrite/render"
)

// Model is mesh geometry uploaded to device-local buffers.
type Model struct {
	vertexBuffer render.Buffer
	indexBuffer  render.Buffer
	vertexCount  int
	indexCount   int
}

// NewModel uploads data through the device's staging path.
func NewModel(device render.Device, data *Data) (*Model, error) {
	if len(data.Vertices) < 3 {
		return nil, errors.Errorf("mesh: model needs at least 3 vertices, got %d", len(data.Vertices))
	}

	vertexBytes, err := encode(data.Vertices)
	if err != nil {
		return nil, err
	}
	vertexBuffer, err := device.CreateLocalBuffer(vertexBytes, render.BufferUsageVertex)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertex buffer")
	}

	m := &Model{
		vertexBuffer: vertexBuffer,
		vertexCount:  len(data.Vertices),
	}

	if len(data.Indices) > 0 {
		indexBytes, err := encode(data.Indices)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		indexBuffer, err := device.CreateLocalBuffer(indexBytes, render.BufferUsageIndex)
		if err != nil {
			m.Destroy()
			return nil, errors.Wrap(err, "upload index buffer")
		}
		m.indexBuffer = indexBuffer
		m.indexCount = len(data.Indices)
	}
	return m, nil
}

// Bind attaches the model's buffers to the command buffer.
func (m *Model) Bind(cmd render.CommandBuffer) {
	cmd.BindVertexBuffer(m.vertexBuffer)
	if m.indexBuffer != nil {
		cmd.BindIndexBuffer(m.indexBuffer)
	}
}

// Draw issues the draw call. Bind must have been called on the same
// command buffer.
func (m *Model) Draw(cmd render.CommandBuffer) {
	if m.indexBuffer != nil {
		cmd.DrawIndexed(m.indexCount, 1, 0, 0, 0)
		return
	}
	cmd.Draw(m.vertexCount, 1, 0, 0)
}

func (m *Model) VertexCount() int { return m.vertexCount }
func (m *Model) IndexCount() int  { return m.indexCount }

func (m *Model) Destroy() {
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
}

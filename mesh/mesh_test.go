package mesh

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/render"
)

type memBuffer struct {
	data      []byte
	usage     render.BufferUsage
	destroyed bool
}

func (b *memBuffer) Write(p []byte, offset int) error {
	copy(b.data[offset:], p)
	return nil
}

func (b *memBuffer) Size() int { return len(b.data) }

func (b *memBuffer) Destroy() { b.destroyed = true }

// modelDevice implements just enough of render.Device for model uploads.
type modelDevice struct {
	render.Device
	buffers  []*memBuffer
	failNext bool
}

func (d *modelDevice) CreateLocalBuffer(data []byte, usage render.BufferUsage) (render.Buffer, error) {
	if d.failNext {
		d.failNext = false
		return nil, fmt.Errorf("device out of memory")
	}
	buf := &memBuffer{data: append([]byte(nil), data...), usage: usage}
	d.buffers = append(d.buffers, buf)
	return buf, nil
}

// failSecondDevice succeeds on the first allocation and fails afterwards.
type failSecondDevice struct {
	render.Device
	buffers []*memBuffer
}

func (d *failSecondDevice) CreateLocalBuffer(data []byte, usage render.BufferUsage) (render.Buffer, error) {
	if len(d.buffers) > 0 {
		return nil, fmt.Errorf("device out of memory")
	}
	buf := &memBuffer{data: append([]byte(nil), data...), usage: usage}
	d.buffers = append(d.buffers, buf)
	return buf, nil
}

type recordingCmd struct {
	render.CommandBuffer
	log []string
}

func (c *recordingCmd) BindVertexBuffer(buf render.Buffer) {
	c.log = append(c.log, "bind vertex")
}

func (c *recordingCmd) BindIndexBuffer(buf render.Buffer) {
	c.log = append(c.log, "bind index")
}

func (c *recordingCmd) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.log = append(c.log, fmt.Sprintf("draw %d", vertexCount))
}

func (c *recordingCmd) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.log = append(c.log, fmt.Sprintf("draw indexed %d", indexCount))
}

func triangleData() *Data {
	return &Data{
		Vertices: []Vertex{
			{Position: [3]float32{0, -0.5, 0}},
			{Position: [3]float32{0.5, 0.5, 0}},
			{Position: [3]float32{-0.5, 0.5, 0}},
		},
	}
}

func TestVertexLayout(t *testing.T) {
	layout := Layout()

	require.Equal(t, 44, layout.Stride)
	require.Len(t, layout.Attributes, 4)

	require.Equal(t, 0, layout.Attributes[0].Offset)
	require.Equal(t, render.AttribFloat3, layout.Attributes[0].Format)
	require.Equal(t, 12, layout.Attributes[1].Offset)
	require.Equal(t, 24, layout.Attributes[2].Offset)
	require.Equal(t, 36, layout.Attributes[3].Offset)
	require.Equal(t, render.AttribFloat2, layout.Attributes[3].Format)

	for i, attr := range layout.Attributes {
		require.Equal(t, i, attr.Location)
	}
}

const quadOBJ = `
o quad
v -1.0 -1.0 0.0
v 1.0 -1.0 0.0
v 1.0 1.0 0.0
v -1.0 1.0 0.0
vt 0.0 0.0
vt 1.0 0.0
vt 1.0 1.0
vt 0.0 1.0
vn 0.0 0.0 1.0
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestDecodeOBJTriangulatesAndDeduplicates(t *testing.T) {
	data, err := DecodeOBJ(strings.NewReader(quadOBJ), nil)
	require.NoError(t, err)

	// One quad becomes two triangles sharing corners 0 and 2.
	require.Len(t, data.Indices, 6)
	require.Len(t, data.Vertices, 4)
	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, data.Indices)

	first := data.Vertices[0]
	require.Equal(t, float32(-1), first.Position[0])
	require.Equal(t, float32(-1), first.Position[1])
	require.Equal(t, [3]float32{1, 1, 1}, [3]float32(first.Color))
	require.Equal(t, [3]float32{0, 0, 1}, [3]float32(first.Normal))
	// V coordinates are flipped for the renderer's UV origin.
	require.Equal(t, float32(1), first.UV[1])
	require.Equal(t, float32(0), data.Vertices[2].UV[1])
}

func TestDecodeOBJWithoutUVsOrNormals(t *testing.T) {
	src := `
o tri
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
f 1 2 3
`
	data, err := DecodeOBJ(strings.NewReader(src), nil)
	require.NoError(t, err)

	require.Len(t, data.Vertices, 3)
	require.Equal(t, []uint32{0, 1, 2}, data.Indices)
	require.Equal(t, [3]float32{0, 0, 0}, [3]float32(data.Vertices[0].Normal))
	require.Equal(t, [2]float32{0, 0}, [2]float32(data.Vertices[0].UV))
}

func TestLoadOBJWithoutMaterialFile(t *testing.T) {
	// Meshes commonly ship without an .mtl sibling; loading must not
	// require one.
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	data, err := LoadOBJ(path)
	require.NoError(t, err)
	require.Len(t, data.Vertices, 4)
	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, data.Indices)
}

func TestDecodeOBJRejectsEmpty(t *testing.T) {
	_, err := DecodeOBJ(strings.NewReader("o empty\nv 0 0 0\n"), nil)
	require.Error(t, err)
}

func TestNewModelUploadsBuffers(t *testing.T) {
	device := &modelDevice{}
	data := triangleData()
	data.Indices = []uint32{0, 1, 2}

	model, err := NewModel(device, data)
	require.NoError(t, err)

	require.Len(t, device.buffers, 2)
	require.Equal(t, render.BufferUsageVertex, device.buffers[0].usage)
	require.Equal(t, 3*44, device.buffers[0].Size())
	require.Equal(t, render.BufferUsageIndex, device.buffers[1].usage)
	require.Equal(t, 3*4, device.buffers[1].Size())
	require.Equal(t, 3, model.VertexCount())
	require.Equal(t, 3, model.IndexCount())

	model.Destroy()
	require.True(t, device.buffers[0].destroyed)
	require.True(t, device.buffers[1].destroyed)
}

func TestNewModelRejectsDegenerateData(t *testing.T) {
	device := &modelDevice{}

	_, err := NewModel(device, &Data{Vertices: []Vertex{{}, {}}})
	require.Error(t, err)
	require.Empty(t, device.buffers)
}

func TestNewModelCleansUpOnUploadFailure(t *testing.T) {
	device := &modelDevice{}
	data := triangleData()
	data.Indices = []uint32{0, 1, 2}

	// Fail the first allocation: nothing to clean up.
	device.failNext = true
	_, err := NewModel(device, data)
	require.Error(t, err)
	require.Empty(t, device.buffers)
}

func TestNewModelDestroysVertexBufferWhenIndexUploadFails(t *testing.T) {
	device := &failSecondDevice{}

	_, err := NewModel(device, &Data{
		Vertices: triangleData().Vertices,
		Indices:  []uint32{0, 1, 2},
	})
	require.Error(t, err)
	require.Len(t, device.buffers, 1)
	require.True(t, device.buffers[0].destroyed)
}

func TestModelBindAndDraw(t *testing.T) {
	device := &modelDevice{}

	indexed, err := NewModel(device, &Data{
		Vertices: triangleData().Vertices,
		Indices:  []uint32{0, 1, 2},
	})
	require.NoError(t, err)

	cmd := &recordingCmd{}
	indexed.Bind(cmd)
	indexed.Draw(cmd)
	require.Equal(t, []string{"bind vertex", "bind index", "draw indexed 3"}, cmd.log)

	plain, err := NewModel(device, triangleData())
	require.NoError(t, err)

	cmd = &recordingCmd{}
	plain.Bind(cmd)
	plain.Draw(cmd)
	require.Equal(t, []string{"bind vertex", "draw 3"}, cmd.log)
}

func newTestModel(t *testing.T, device *modelDevice) (*Model, *memBuffer) {
	t.Helper()
	model, err := NewModel(device, triangleData())
	require.NoError(t, err)
	return model, device.buffers[len(device.buffers)-1]
}

func TestArenaHandleLifecycle(t *testing.T) {
	device := &modelDevice{}
	arena := NewArena()

	model, _ := newTestModel(t, device)
	h := arena.Add(model)

	got, err := arena.Get(h)
	require.NoError(t, err)
	require.Same(t, model, got)
	require.Equal(t, 1, arena.Len())

	require.NoError(t, arena.Release(h, 10))
	_, err = arena.Get(h)
	require.Error(t, err)
	require.Equal(t, 0, arena.Len())

	// Releasing twice is an error.
	require.Error(t, arena.Release(h, 11))
}

func TestArenaStaleHandleAfterReuse(t *testing.T) {
	device := &modelDevice{}
	arena := NewArena()

	m1, _ := newTestModel(t, device)
	h1 := arena.Add(m1)
	require.NoError(t, arena.Release(h1, 0))

	m2, _ := newTestModel(t, device)
	h2 := arena.Add(m2)
	require.Equal(t, h1.index, h2.index)

	// The old handle points at the reused slot but stays invalid.
	_, err := arena.Get(h1)
	require.Error(t, err)
	got, err := arena.Get(h2)
	require.NoError(t, err)
	require.Same(t, m2, got)

	arena.Destroy()
}

func TestArenaDefersDestructionPastInFlightFrames(t *testing.T) {
	device := &modelDevice{}
	arena := NewArena()

	model, buf := newTestModel(t, device)
	h := arena.Add(model)
	require.NoError(t, arena.Release(h, 5))

	// Frames 5 and 6 may still reference the buffers.
	arena.Collect(5)
	require.False(t, buf.destroyed)
	arena.Collect(6)
	require.False(t, buf.destroyed)

	arena.Collect(5 + uint64(render.MaxFramesInFlight))
	require.True(t, buf.destroyed)
}

func TestArenaDestroyReleasesEverything(t *testing.T) {
	device := &modelDevice{}
	arena := NewArena()

	live, _ := newTestModel(t, device)
	liveBuf := device.buffers[len(device.buffers)-1]
	arena.Add(live)

	retiredModel, _ := newTestModel(t, device)
	retiredBuf := device.buffers[len(device.buffers)-1]
	h := arena.Add(retiredModel)
	require.NoError(t, arena.Release(h, 100))

	arena.Destroy()
	require.True(t, liveBuf.destroyed)
	require.True(t, retiredBuf.destroyed)
	require.Equal(t, 0, arena.Len())
}

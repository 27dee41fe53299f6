// Package mesh holds geometry: vertex data, OBJ loading, GPU models and
// the arena that defers their destruction past in-flight frames.
package mesh

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pyrite-engine/pyrite/render"
)

// Vertex is the interleaved per-vertex layout shared by all mesh
// pipelines.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Data is mesh geometry on the CPU side. Indices may be empty for
// non-indexed meshes.
type Data struct {
	Vertices []Vertex
	Indices  []uint32
}

// Layout describes Vertex to the pipeline.
func Layout() *render.VertexLayout {
	v := Vertex{}
	return &render.VertexLayout{
		Stride: int(unsafe.Sizeof(v)),
		Attributes: []render.VertexAttribute{
			{Location: 0, Format: render.AttribFloat3, Offset: int(unsafe.Offsetof(v.Position))},
			{Location: 1, Format: render.AttribFloat3, Offset: int(unsafe.Offsetof(v.Color))},
			{Location: 2, Format: render.AttribFloat3, Offset: int(unsafe.Offsetof(v.Normal))},
			{Location: 3, Format: render.AttribFloat2, Offset: int(unsafe.Offsetof(v.UV))},
		},
	}
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return nil, errors.Wrap(err, "encode mesh data")
	}
	return buf.Bytes(), nil
}

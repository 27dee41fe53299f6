// Package rendersys contains the render systems: per-frame global uniform
// state plus the pipelines that draw meshes and point lights.
package rendersys

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pyrite-engine/pyrite/camera"
	"github.com/pyrite-engine/pyrite/render"
	"github.com/pyrite-engine/pyrite/scene"
)

// MaxLights bounds the point light array in the global uniform buffer.
// Must match the shader-side constant.
const MaxLights = 10

// PointLight is one light as the shaders see it. W of Color carries the
// intensity.
type PointLight struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GlobalUBO is the per-frame uniform block, laid out std140-compatible:
// every field sits on a 16-byte boundary and the light array has a fixed
// extent.
type GlobalUBO struct {
	Projection   mgl32.Mat4
	View         mgl32.Mat4
	InverseView  mgl32.Mat4
	AmbientColor mgl32.Vec4
	PointLights  [MaxLights]PointLight
	NumLights    int32
	_            [3]int32
}

// NewGlobalUBO returns a UBO with the default ambient term.
func NewGlobalUBO() *GlobalUBO {
	return &GlobalUBO{
		Projection:   mgl32.Ident4(),
		View:         mgl32.Ident4(),
		InverseView:  mgl32.Ident4(),
		AmbientColor: mgl32.Vec4{1, 1, 1, 0.02},
	}
}

// Size is the encoded byte length of the UBO.
func (u *GlobalUBO) Size() int {
	return int(unsafe.Sizeof(*u))
}

// SetCamera copies the camera's matrices into the block.
func (u *GlobalUBO) SetCamera(cam *camera.Camera) {
	u.Projection = cam.Projection()
	u.View = cam.View()
	u.InverseView = cam.InverseView()
}

// Encode serializes the block for upload to the frame's uniform buffer.
func (u *GlobalUBO) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, u); err != nil {
		return nil, errors.Wrap(err, "encode global ubo")
	}
	return buf.Bytes(), nil
}

// FrameInfo carries everything a render system needs for one frame.
type FrameInfo struct {
	FrameIndex       int
	DT               float32
	Cmd              render.CommandBuffer
	Camera           *camera.Camera
	GlobalDescriptor render.DescriptorSet
	Scene            *scene.Scene
}

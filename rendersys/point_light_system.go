package rendersys

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pyrite-engine/pyrite/render"
	"github.com/pyrite-engine/pyrite/scene"
)

type lightPushConstants struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
	_        [3]float32
}

// PointLightSystem draws point lights as camera-facing billboards and
// maintains the light array in the global uniform block.
type PointLightSystem struct {
	device render.Device

	layout   render.PipelineLayout
	pipeline render.Pipeline

	// RotationSpeed spins the lights about the world Y axis, radians per
	// second. Zero disables the orbit.
	RotationSpeed float32
}

// NewPointLightSystem builds the billboard pipeline. The pipeline reads
// no vertex buffers; quad corners come from the vertex shader.
func NewPointLightSystem(device render.Device, renderPass render.RenderPass, globalLayout render.DescriptorSetLayout, vertSPV, fragSPV []byte) (*PointLightSystem, error) {
	pushSize := binary.Size(lightPushConstants{})

	layout, err := device.CreatePipelineLayout([]render.DescriptorSetLayout{globalLayout}, pushSize)
	if err != nil {
		return nil, errors.Wrap(err, "create point light pipeline layout")
	}

	pipeline, err := device.CreateGraphicsPipeline(render.PipelineConfig{
		VertShader: vertSPV,
		FragShader: fragSPV,
		RenderPass: renderPass,
		Layout:     layout,
		DepthTest:  true,
		AlphaBlend: true,
	})
	if err != nil {
		layout.Destroy()
		return nil, errors.Wrap(err, "create point light pipeline")
	}

	return &PointLightSystem{
		device:        device,
		layout:        layout,
		pipeline:      pipeline,
		RotationSpeed: 1,
	}, nil
}

// Update orbits the lights and writes the light array into ubo. Returns
// an error when the scene holds more lights than the block can carry.
func (s *PointLightSystem) Update(info FrameInfo, ubo *GlobalUBO) error {
	rotate := mgl32.HomogRotate3D(s.RotationSpeed*info.DT, mgl32.Vec3{0, -1, 0})

	count := 0
	var updateErr error
	info.Scene.EachPointLight(func(obj *scene.Object, comp *scene.PointLightComponent) {
		if updateErr != nil {
			return
		}
		if count >= MaxLights {
			updateErr = errors.Newf("point light count exceeds %d", MaxLights)
			return
		}

		if s.RotationSpeed != 0 {
			p := rotate.Mul4x1(obj.Transform.Translation.Vec4(1))
			obj.Transform.Translation = mgl32.Vec3{p.X(), p.Y(), p.Z()}
		}

		ubo.PointLights[count] = PointLight{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(comp.Intensity),
		}
		count++
	})
	ubo.NumLights = int32(count)
	return updateErr
}

// Render records one billboard draw per light.
func (s *PointLightSystem) Render(info FrameInfo) error {
	info.Cmd.BindPipeline(s.pipeline)
	info.Cmd.BindDescriptorSet(s.layout, info.GlobalDescriptor)

	var renderErr error
	info.Scene.EachPointLight(func(obj *scene.Object, comp *scene.PointLightComponent) {
		if renderErr != nil {
			return
		}

		push := lightPushConstants{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(comp.Intensity),
			Radius:   comp.Radius,
		}
		buf := &bytes.Buffer{}
		if err := binary.Write(buf, binary.LittleEndian, push); err != nil {
			renderErr = errors.Wrap(err, "encode light push constants")
			return
		}
		info.Cmd.PushConstants(s.layout, render.StageVertex|render.StageFragment, buf.Bytes())

		// Six vertices, one quad, generated in the vertex shader.
		info.Cmd.Draw(6, 1, 0, 0)
	})
	return renderErr
}

func (s *PointLightSystem) Destroy() {
	if s.pipeline != nil {
		s.pipeline.Destroy()
		s.pipeline = nil
	}
	if s.layout != nil {
		s.layout.Destroy()
		s.layout = nil
	}
}

package rendersys

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pyrite-engine/pyrite/mesh"
	"github.com/pyrite-engine/pyrite/render"
	"github.com/pyrite-engine/pyrite/scene"
)

type meshPushConstants struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat4
}

// MeshSystem draws every scene object carrying a mesh component.
type MeshSystem struct {
	device render.Device
	models *mesh.Arena

	layout   render.PipelineLayout
	pipeline render.Pipeline
}

// NewMeshSystem builds the pipeline for vertex-lit meshes. vertSPV and
// fragSPV are compiled SPIR-V.
func NewMeshSystem(device render.Device, renderPass render.RenderPass, globalLayout render.DescriptorSetLayout, models *mesh.Arena, vertSPV, fragSPV []byte) (*MeshSystem, error) {
	pushSize := binary.Size(meshPushConstants{})

	layout, err := device.CreatePipelineLayout([]render.DescriptorSetLayout{globalLayout}, pushSize)
	if err != nil {
		return nil, errors.Wrap(err, "create mesh pipeline layout")
	}

	pipeline, err := device.CreateGraphicsPipeline(render.PipelineConfig{
		VertShader:  vertSPV,
		FragShader:  fragSPV,
		RenderPass:  renderPass,
		Layout:      layout,
		VertexInput: mesh.Layout(),
		DepthTest:   true,
	})
	if err != nil {
		layout.Destroy()
		return nil, errors.Wrap(err, "create mesh pipeline")
	}

	return &MeshSystem{
		device:   device,
		models:   models,
		layout:   layout,
		pipeline: pipeline,
	}, nil
}

// Render records draw commands for every object with a mesh component.
func (s *MeshSystem) Render(info FrameInfo) error {
	info.Cmd.BindPipeline(s.pipeline)
	info.Cmd.BindDescriptorSet(s.layout, info.GlobalDescriptor)

	var renderErr error
	info.Scene.EachMesh(func(obj *scene.Object, comp *scene.MeshComponent) {
		if renderErr != nil {
			return
		}

		model, err := s.models.Get(comp.Model)
		if err != nil {
			renderErr = errors.Wrapf(err, "object %d", obj.ID)
			return
		}

		push := meshPushConstants{
			Model:  obj.Transform.Mat4(),
			Normal: obj.Transform.NormalMatrix(),
		}
		buf := &bytes.Buffer{}
		if err := binary.Write(buf, binary.LittleEndian, push); err != nil {
			renderErr = errors.Wrap(err, "encode mesh push constants")
			return
		}
		info.Cmd.PushConstants(s.layout, render.StageVertex|render.StageFragment, buf.Bytes())

		model.Bind(info.Cmd)
		model.Draw(info.Cmd)
	})
	return renderErr
}

func (s *MeshSystem) Destroy() {
	if s.pipeline != nil {
		s.pipeline.Destroy()
		s.pipeline = nil
	}
	if s.layout != nil {
		s.layout.Destroy()
		s.layout = nil
	}
}

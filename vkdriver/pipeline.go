package vkdriver

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/pyrite-engine/pyrite/render"
)

type pipelineLayout struct {
	d   *Driver
	hnd core1_0.PipelineLayout
}

func (l *pipelineLayout) Destroy() { l.d.deviceDriver.DestroyPipelineLayout(l.hnd, nil) }

type pipeline struct {
	d   *Driver
	hnd core1_0.Pipeline
}

func (p *pipeline) Destroy() { p.d.deviceDriver.DestroyPipeline(p.hnd, nil) }

// CreatePipelineLayout implements render.Device. A non-zero
// pushConstantSize declares one range visible to both vertex and fragment
// stages.
func (d *Driver) CreatePipelineLayout(layouts []render.DescriptorSetLayout, pushConstantSize int) (render.PipelineLayout, error) {
	info := core1_0.PipelineLayoutCreateInfo{}
	for _, layout := range layouts {
		info.SetLayouts = append(info.SetLayouts, layout.(*descriptorSetLayout).hnd)
	}
	if pushConstantSize > 0 {
		info.PushConstantRanges = []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageVertex | core1_0.StageFragment,
				Offset:     0,
				Size:       pushConstantSize,
			},
		}
	}

	hnd, _, err := d.deviceDriver.CreatePipelineLayout(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	return &pipelineLayout{d: d, hnd: hnd}, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	return byteCode
}

func attribFormat(format render.AttribFormat) core1_0.Format {
	switch format {
	case render.AttribFloat2:
		return core1_0.FormatR32G32SignedFloat
	case render.AttribFloat4:
		return core1_0.FormatR32G32B32A32SignedFloat
	default:
		return core1_0.FormatR32G32B32SignedFloat
	}
}

// CreateGraphicsPipeline implements render.Device. Viewport and scissor
// are dynamic so pipelines survive swapchain recreation at a new extent.
func (d *Driver) CreateGraphicsPipeline(config render.PipelineConfig) (render.Pipeline, error) {
	if config.RenderPass == nil || config.Layout == nil {
		return nil, errors.New("vkdriver: graphics pipeline needs a render pass and a layout")
	}

	vertShader, _, err := d.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(config.VertShader),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer d.deviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, _, err := d.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(config.FragShader),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer d.deviceDriver.DestroyShaderModule(fragShader, nil)

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}
	if config.VertexInput != nil {
		vertexInput.VertexBindingDescriptions = []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    config.VertexInput.Stride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		}
		for _, attr := range config.VertexInput.Attributes {
			vertexInput.VertexAttributeDescriptions = append(vertexInput.VertexAttributeDescriptions,
				core1_0.VertexInputAttributeDescription{
					Binding:  0,
					Location: attr.Location,
					Format:   attribFormat(attr.Format),
					Offset:   attr.Offset,
				})
		}
	}

	colorBlendAttachment := core1_0.PipelineColorBlendAttachmentState{
		BlendEnabled:   false,
		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
	if config.AlphaBlend {
		colorBlendAttachment.BlendEnabled = true
		colorBlendAttachment.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		colorBlendAttachment.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		colorBlendAttachment.ColorBlendOp = core1_0.BlendOpAdd
		colorBlendAttachment.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		colorBlendAttachment.DstAlphaBlendFactor = core1_0.BlendFactorZero
		colorBlendAttachment.AlphaBlendOp = core1_0.BlendOpAdd
	}

	pipelines, _, err := d.deviceDriver.CreateGraphicsPipelines(nil, &d.pipelineCache,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: vertexInput,
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopologyTriangleList,
				PrimitiveRestartEnable: false,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{{}},
				Scissors:  []core1_0.Rect2D{{}},
			},
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				DepthClampEnable:        false,
				RasterizerDiscardEnable: false,

				PolygonMode: core1_0.PolygonModeFill,
				CullMode:    core1_0.CullModeNone,
				FrontFace:   core1_0.FrontFaceCounterClockwise,

				DepthBiasEnable: false,

				LineWidth: 1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
				DepthTestEnable:  config.DepthTest,
				DepthWriteEnable: config.DepthTest,
				DepthCompareOp:   core1_0.CompareOpLess,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,

				BlendConstants: [4]float32{0, 0, 0, 0},
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					colorBlendAttachment,
				},
			},
			DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
				DynamicStates: []core1_0.DynamicState{
					core1_0.DynamicStateViewport,
					core1_0.DynamicStateScissor,
				},
			},
			Layout:            config.Layout.(*pipelineLayout).hnd,
			RenderPass:        config.RenderPass.(*renderPass).hnd,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return &pipeline{d: d, hnd: pipelines[0]}, nil
}

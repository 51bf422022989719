// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrIncompleteTarget is returned when the input texture or the energy
// render target cannot be allocated.
var ErrIncompleteTarget = errors.New("gpu: energy render target incomplete")

// renderUniformSize is texel_size (vec2<f32>) + size (vec2<f32>).
const renderUniformSize = 16

// quadVertexStride is one vec2<f32> position per vertex.
const quadVertexStride = 8

// energyTargetFormat holds one f32 energy per pixel in the red channel.
const energyTargetFormat = gputypes.TextureFormatRGBA32Float

// energyTexelBytes is the size of one RGBA32Float texel.
const energyTexelBytes = 16

// RenderEnergyPipeline computes Sobel energy by drawing a fullscreen quad
// whose fragment shader samples the input texture. The quad buffer and
// pipeline live until Destroy; the textures follow the image size.
type RenderEnergyPipeline struct {
	device hal.Device
	queue  hal.Queue
	src    ShaderSet

	vertexShader   hal.ShaderModule
	fragmentShader hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout
	pipeline       hal.RenderPipeline
	quad           hal.Buffer

	inputTex   hal.Texture
	inputView  hal.TextureView
	targetTex  hal.Texture
	targetView hal.TextureView

	width, height uint32
}

// NewRenderEnergyPipeline returns an uninitialized pipeline.
func NewRenderEnergyPipeline(device hal.Device, queue hal.Queue, src ShaderSet) *RenderEnergyPipeline {
	return &RenderEnergyPipeline{device: device, queue: queue, src: src}
}

// Init creates the shader modules, pipeline and quad buffer. On failure
// everything created so far is released.
func (p *RenderEnergyPipeline) Init() error {
	if p.pipeline != nil {
		return nil
	}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return err
	}
	quad, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "energy_quad",
		Size:  uint64(len(fullscreenQuad) * 4),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.Destroy()
		return fmt.Errorf("create quad buffer: %w", err)
	}
	p.queue.WriteBuffer(quad, 0, float32Bytes(fullscreenQuad))
	p.quad = quad
	return nil
}

// Ready reports whether Init has completed.
func (p *RenderEnergyPipeline) Ready() bool {
	return p.pipeline != nil && p.quad != nil
}

func (p *RenderEnergyPipeline) createPipeline() error { //nolint:dupl // mirrors ComputeEnergyPipeline.createPipeline with different stages
	vs, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "energy_vertex",
		Source: hal.ShaderSource{WGSL: p.src.Vertex},
	})
	if err != nil {
		return fmt.Errorf("%w: energy_vertex: %w", ErrShaderCompile, err)
	}
	p.vertexShader = vs

	fs, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "energy_fragment",
		Source: hal.ShaderSource{WGSL: p.src.Fragment},
	})
	if err != nil {
		return fmt.Errorf("%w: energy_fragment: %w", ErrShaderCompile, err)
	}
	p.fragmentShader = fs

	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "energy_render_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "energy_render_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "energy_render_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertexShader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: quadVertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragmentShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: energyTargetFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	slogger().Debug("gpu: energy render pipeline created")
	return nil
}

// ensureTextures (re)allocates the input texture and the energy target
// when the image size changes. Partial allocations are released.
func (p *RenderEnergyPipeline) ensureTextures(w, h uint32) error {
	if p.width == w && p.height == h && p.targetTex != nil {
		return nil
	}
	p.destroyTextures()

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	inputTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "energy_input",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: input texture: %w", ErrIncompleteTarget, err)
	}
	p.inputTex = inputTex

	inputView, err := p.device.CreateTextureView(inputTex, &hal.TextureViewDescriptor{
		Label:         "energy_input_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.destroyTextures()
		return fmt.Errorf("%w: input view: %w", ErrIncompleteTarget, err)
	}
	p.inputView = inputView

	targetTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "energy_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        energyTargetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		p.destroyTextures()
		return fmt.Errorf("%w: target texture: %w", ErrIncompleteTarget, err)
	}
	p.targetTex = targetTex

	targetView, err := p.device.CreateTextureView(targetTex, &hal.TextureViewDescriptor{
		Label:         "energy_target_view",
		Format:        energyTargetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.destroyTextures()
		return fmt.Errorf("%w: target view: %w", ErrIncompleteTarget, err)
	}
	p.targetView = targetView

	p.width = w
	p.height = h
	return nil
}

// Run uploads rgb (w*h*3 bytes), renders the energy pass and returns the
// row-major energies.
func (p *RenderEnergyPipeline) Run(rgb []uint8, w, h int) ([]float32, error) {
	if !p.Ready() {
		return nil, errors.New("gpu: render pipeline not initialized")
	}
	uw, uh := uint32(w), uint32(h) //nolint:gosec // dimensions validated by caller
	if err := p.ensureTextures(uw, uh); err != nil {
		return nil, err
	}

	p.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: p.inputTex, MipLevel: 0},
		rgbToRGBA(rgb, w*h),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uw * 4, RowsPerImage: uh},
		&hal.Extent3D{Width: uw, Height: uh, DepthOrArrayLayers: 1},
	)

	res := &frameResources{device: p.device}
	defer res.cleanup()

	uniform := float32Bytes([]float32{1 / float32(w), 1 / float32(h), float32(w), float32(h)})
	uniformBuf, err := res.buffer(p.queue, "energy_render_uniform", renderUniformSize, uniform,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "energy_render_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: renderUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: p.inputView.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bindGroup)

	rowPitch := alignedBytesPerRow(uw * energyTexelBytes)
	stagingSize := uint64(rowPitch) * uint64(uh)
	staging, err := res.buffer(p.queue, "energy_render_staging", stagingSize, nil,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	if err := p.encode(res, bindGroup, staging, rowPitch); err != nil {
		return nil, err
	}
	readback, err := submitAndRead(p.queue, res, staging, stagingSize)
	if err != nil {
		return nil, err
	}
	return decodeRedChannel(readback, w, h, rowPitch), nil
}

// encode records the quad draw and the copy of the target into staging.
func (p *RenderEnergyPipeline) encode(res *frameResources, bindGroup hal.BindGroup, staging hal.Buffer, rowPitch uint32) error {
	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "energy_render_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("energy_render"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "energy_render_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       p.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.SetVertexBuffer(0, p.quad, 0)
	rp.Draw(uint32(len(fullscreenQuad)/2), 1, 0, 0) //nolint:gosec // six vertices
	rp.End()

	// The target leaves the pass in attachment layout; the copy needs it
	// as a transfer source.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	encoder.CopyTextureToBuffer(p.targetTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: rowPitch, RowsPerImage: p.height},
		TextureBase:  hal.ImageCopyTexture{Texture: p.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: p.width, Height: p.height, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf
	return nil
}

// Size returns the current texture dimensions.
func (p *RenderEnergyPipeline) Size() (uint32, uint32) {
	return p.width, p.height
}

// Destroy releases all GPU resources in reverse creation order. Safe to
// call more than once.
func (p *RenderEnergyPipeline) Destroy() {
	p.destroyTextures()
	if p.device == nil {
		return
	}
	if p.quad != nil {
		p.device.DestroyBuffer(p.quad)
		p.quad = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.fragmentShader != nil {
		p.device.DestroyShaderModule(p.fragmentShader)
		p.fragmentShader = nil
	}
	if p.vertexShader != nil {
		p.device.DestroyShaderModule(p.vertexShader)
		p.vertexShader = nil
	}
}

func (p *RenderEnergyPipeline) destroyTextures() {
	if p.device == nil {
		return
	}
	if p.targetView != nil {
		p.device.DestroyTextureView(p.targetView)
		p.targetView = nil
	}
	if p.targetTex != nil {
		p.device.DestroyTexture(p.targetTex)
		p.targetTex = nil
	}
	if p.inputView != nil {
		p.device.DestroyTextureView(p.inputView)
		p.inputView = nil
	}
	if p.inputTex != nil {
		p.device.DestroyTexture(p.inputTex)
		p.inputTex = nil
	}
	p.width = 0
	p.height = 0
}

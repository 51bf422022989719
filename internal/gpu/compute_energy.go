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

// computeWorkgroupSize matches @workgroup_size(16, 16) in the shader.
const computeWorkgroupSize = 16

// computeUniformSize is width, height and two u32 of padding.
const computeUniformSize = 16

// ComputeEnergyPipeline computes Sobel energy with one compute invocation
// per pixel, reading packed pixels from a storage buffer and writing f32
// energies to another.
type ComputeEnergyPipeline struct {
	device hal.Device
	queue  hal.Queue
	src    string

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// NewComputeEnergyPipeline returns an uninitialized pipeline for the given
// WGSL source.
func NewComputeEnergyPipeline(device hal.Device, queue hal.Queue, src string) *ComputeEnergyPipeline {
	return &ComputeEnergyPipeline{device: device, queue: queue, src: src}
}

// Init creates the shader module and compute pipeline, releasing partial
// resources on failure.
func (p *ComputeEnergyPipeline) Init() error {
	if p.pipeline != nil {
		return nil
	}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return err
	}
	return nil
}

// Ready reports whether Init has completed.
func (p *ComputeEnergyPipeline) Ready() bool { return p.pipeline != nil }

func (p *ComputeEnergyPipeline) createPipeline() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "energy_compute",
		Source: hal.ShaderSource{WGSL: p.src},
	})
	if err != nil {
		return fmt.Errorf("%w: energy_compute: %w", ErrShaderCompile, err)
	}
	p.shader = shader

	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "energy_compute_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "energy_compute_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "energy_compute_pipeline",
		Layout: p.pipeLayout,
		Compute: hal.ComputeState{
			Module:     p.shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	p.pipeline = pipeline

	slogger().Debug("gpu: energy compute pipeline created")
	return nil
}

// workgroups returns the dispatch size covering n items.
func workgroups(n uint32) uint32 {
	return (n + computeWorkgroupSize - 1) / computeWorkgroupSize
}

// Run dispatches the energy kernel over rgb (w*h*3 bytes) and returns the
// row-major energies.
func (p *ComputeEnergyPipeline) Run(rgb []uint8, w, h int) ([]float32, error) {
	if !p.Ready() {
		return nil, errors.New("gpu: compute pipeline not initialized")
	}
	uw, uh := uint32(w), uint32(h) //nolint:gosec // dimensions validated by caller
	n := uint64(w) * uint64(h)

	res := &frameResources{device: p.device}
	defer res.cleanup()

	uniformBuf, err := res.buffer(p.queue, "energy_compute_uniform", computeUniformSize,
		uint32Bytes(uw, uh, 0, 0), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	pixelBuf, err := res.buffer(p.queue, "energy_compute_pixels", n*4,
		packRGB(rgb, w*h), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	energyBuf, err := res.buffer(p.queue, "energy_compute_output", n*4, nil,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	staging, err := res.buffer(p.queue, "energy_compute_staging", n*4, nil,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "energy_compute_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: computeUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: pixelBuf.NativeHandle(), Offset: 0, Size: n * 4}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: energyBuf.NativeHandle(), Offset: 0, Size: n * 4}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bindGroup)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "energy_compute_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("energy_compute"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "energy_compute_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(workgroups(uw), workgroups(uh), 1)
	pass.End()

	encoder.CopyBufferToBuffer(energyBuf, staging, []hal.BufferCopy{{
		SrcOffset: 0, DstOffset: 0, Size: n * 4,
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	slogger().Debug("gpu: energy compute dispatched",
		"width", w, "height", h,
		"workgroups_x", workgroups(uw), "workgroups_y", workgroups(uh))

	readback, err := submitAndRead(p.queue, res, staging, n*4)
	if err != nil {
		return nil, err
	}
	return decodeFloat32s(readback, w*h), nil
}

// Destroy releases GPU resources in reverse creation order. Safe to call
// more than once.
func (p *ComputeEnergyPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyComputePipeline(p.pipeline)
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
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

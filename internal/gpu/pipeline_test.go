// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func embeddedSet(t *testing.T) ShaderSet {
	t.Helper()
	set, err := LoadShaders(EmbeddedShaders())
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestRenderEnergyPipelineInit(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewRenderEnergyPipeline(device, queue, embeddedSet(t))
	if p.Ready() {
		t.Fatal("Ready before Init")
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !p.Ready() {
		t.Fatal("not Ready after Init")
	}
	if p.vertexShader == nil || p.fragmentShader == nil || p.quad == nil {
		t.Error("expected shaders and quad buffer after Init")
	}
	pipeline := p.pipeline
	if err := p.Init(); err != nil || p.pipeline != pipeline {
		t.Errorf("second Init recreated the pipeline (err=%v)", err)
	}

	p.Destroy()
	if p.Ready() || p.pipeline != nil || p.quad != nil || p.vertexShader != nil {
		t.Error("resources remain after Destroy")
	}
	p.Destroy()
}

func TestRenderEnergyPipelineTextures(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewRenderEnergyPipeline(device, queue, embeddedSet(t))
	defer p.Destroy()

	if err := p.ensureTextures(64, 48); err != nil {
		t.Fatalf("ensureTextures failed: %v", err)
	}
	if p.inputTex == nil || p.inputView == nil || p.targetTex == nil || p.targetView == nil {
		t.Fatal("expected input and target textures")
	}
	if w, h := p.Size(); w != 64 || h != 48 {
		t.Errorf("Size() = (%d, %d), want (64, 48)", w, h)
	}

	target := p.targetTex
	if err := p.ensureTextures(64, 48); err != nil {
		t.Fatal(err)
	}
	if p.targetTex != target {
		t.Error("same size reallocated the target")
	}

	// Seam carving narrows the image by one column per iteration.
	if err := p.ensureTextures(63, 48); err != nil {
		t.Fatal(err)
	}
	if w, _ := p.Size(); w != 63 {
		t.Errorf("width after resize = %d, want 63", w)
	}

	p.destroyTextures()
	if p.targetTex != nil || p.inputTex != nil {
		t.Error("textures remain after destroyTextures")
	}
	if w, h := p.Size(); w != 0 || h != 0 {
		t.Errorf("Size() after destroy = (%d, %d)", w, h)
	}
}

func TestRenderEnergyPipelineRunBeforeInit(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewRenderEnergyPipeline(device, queue, embeddedSet(t))
	if _, err := p.Run(make([]uint8, 12), 2, 2); err == nil {
		t.Error("Run before Init succeeded")
	}
}

func TestComputeEnergyPipelineInit(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewComputeEnergyPipeline(device, queue, embeddedSet(t).Compute)
	if err := p.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !p.Ready() || p.shader == nil || p.bindLayout == nil {
		t.Fatal("expected pipeline resources after Init")
	}
	p.Destroy()
	if p.Ready() || p.shader != nil {
		t.Error("resources remain after Destroy")
	}
	p.Destroy()

	if _, err := p.Run(make([]uint8, 12), 2, 2); err == nil {
		t.Error("Run after Destroy succeeded")
	}
}

func TestDestroyWithNilDevice(t *testing.T) {
	(&RenderEnergyPipeline{}).Destroy()
	(&ComputeEnergyPipeline{}).Destroy()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds how long an energy pass may run on the GPU.
const fenceTimeout = 5 * time.Second

// frameResources tracks per-call GPU objects destroyed after readback.
type frameResources struct {
	device     hal.Device
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-call resources.
func (r *frameResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
}

// buffer creates a tracked buffer, uploading data when it is non-nil.
func (r *frameResources) buffer(queue hal.Queue, label string, size uint64, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.buffers = append(r.buffers, buf)
	if data != nil {
		queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// submitAndRead submits the recorded command buffer, waits for the fence,
// and reads size bytes back from staging.
func submitAndRead(queue hal.Queue, res *frameResources, staging hal.Buffer, size uint64) ([]byte, error) {
	fence, err := res.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	res.fence = fence

	if err := queue.Submit([]hal.CommandBuffer{res.cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := res.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("wait for GPU: timeout after %v", fenceTimeout)
	}

	readback := make([]byte, size)
	if err := queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return readback, nil
}

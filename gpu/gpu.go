// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu computes seam-carving energy on the GPU.
//
// Importing the package registers two backends with seamcarve:
// "gpu-render" (render-to-texture) and "gpu-compute" (compute shader).
// Each opens its own Vulkan device on demand. If no device is available
// OpenBackend returns an error wrapping seamcarve.ErrFallbackToCPU and the
// caller can switch to "cpu".
//
// Usage:
//
//	import _ "github.com/gogpu/seamcarve/gpu" // enable GPU energy backends
//
// For direct control, or to share a device with a gogpu application, build
// a Context:
//
//	ctx, err := gpu.Open(gpu.WithStrategy(gpu.Compute), gpu.WithDeviceProvider(app))
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//	out, err := seamcarve.NewReducer(seamcarve.WithEnergy(ctx)).Reduce(src, 640, seamcarve.DynamicProgramming)
//
// GPU energy assigns 1000 to border pixels, where the CPU backend leaves 0.
// Interior values agree.
package gpu

import (
	"fmt"

	"github.com/gogpu/seamcarve"
)

func init() {
	for _, s := range []Strategy{RenderToTexture, Compute} {
		if err := seamcarve.RegisterBackend(s.BackendName(), factory(s)); err != nil {
			seamcarve.Logger().Warn("gpu backend not registered", "backend", s.BackendName(), "err", err)
		}
	}
}

func factory(s Strategy) seamcarve.BackendFactory {
	return func(cfg seamcarve.BackendConfig) (seamcarve.Backend, error) {
		opts := []Option{WithStrategy(s)}
		if cfg.ShaderDir != "" {
			opts = append(opts, WithShaderDir(cfg.ShaderDir))
		}
		ctx, err := Open(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", seamcarve.ErrFallbackToCPU, err)
		}
		return ctx, nil
	}
}

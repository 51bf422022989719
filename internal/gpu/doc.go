//go:build !nogpu

// Package gpu implements the Sobel energy pass on the GPU.
//
// It uses the gogpu/wgpu HAL directly (zero CGO) and offers two pipelines
// with identical output:
//
//   - RenderEnergyPipeline uploads the image as an RGBA8 texture and draws a
//     fullscreen quad into an RGBA32Float target. The fragment shader
//     writes the gradient magnitude to the red channel.
//   - ComputeEnergyPipeline packs pixels into a storage buffer and
//     dispatches 16x16 workgroups that write one f32 per pixel.
//
// Both read the result back through a staging buffer and a fence wait.
// Border pixels receive a fixed energy of 1000.
//
// # Devices
//
// OpenDevice creates a standalone Vulkan device. ExternalDevice and
// DeviceFromProvider borrow handles owned elsewhere; Device.Destroy leaves
// borrowed handles alive.
//
// # Shaders
//
// WGSL sources are embedded and can be replaced with LoadShaders. They are
// checked with naga before pipeline creation.
//
// This package is internal. The public API is github.com/gogpu/seamcarve/gpu.
package gpu

//go:build !nogpu

package main

// Registers the gpu-render and gpu-compute backends.
import _ "github.com/gogpu/seamcarve/gpu"

const gpuBuild = true

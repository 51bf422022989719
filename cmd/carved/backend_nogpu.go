//go:build nogpu

package main

const gpuBuild = false

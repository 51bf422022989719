// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
)

// copyRowAlignment is the row pitch alignment required for
// texture-to-buffer copies.
const copyRowAlignment = 256

// alignedBytesPerRow rounds a texture row up to copyRowAlignment.
func alignedBytesPerRow(bytesPerRow uint32) uint32 {
	return (bytesPerRow + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
}

// rgbToRGBA expands interleaved RGB into RGBA8 with opaque alpha.
func rgbToRGBA(rgb []uint8, pixels int) []byte {
	out := make([]byte, pixels*4)
	for i := range pixels {
		out[i*4+0] = rgb[i*3+0]
		out[i*4+1] = rgb[i*3+1]
		out[i*4+2] = rgb[i*3+2]
		out[i*4+3] = 0xFF
	}
	return out
}

// packRGB packs each RGB pixel into a little-endian u32, red in the low
// byte, matching the compute shader's unpacking.
func packRGB(rgb []uint8, pixels int) []byte {
	out := make([]byte, pixels*4)
	for i := range pixels {
		v := uint32(rgb[i*3]) | uint32(rgb[i*3+1])<<8 | uint32(rgb[i*3+2])<<16 | 0xFF<<24
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// decodeRedChannel extracts the red component of an RGBA32Float readback
// whose rows are padded to rowPitch bytes.
func decodeRedChannel(readback []byte, w, h int, rowPitch uint32) []float32 {
	out := make([]float32, w*h)
	for y := range h {
		row := readback[int(rowPitch)*y:]
		for x := range w {
			out[y*w+x] = math.Float32frombits(binary.LittleEndian.Uint32(row[x*16:]))
		}
	}
	return out
}

// decodeFloat32s converts a tightly packed little-endian f32 buffer.
func decodeFloat32s(data []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// fullscreenQuad is two triangles covering clip space, as vec2<f32>.
var fullscreenQuad = []float32{
	-1, 1, -1, -1, 1, -1,
	-1, 1, 1, -1, 1, 1,
}

// float32Bytes encodes values as little-endian bytes for upload.
func float32Bytes(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// uint32Bytes encodes values as little-endian bytes for upload.
func uint32Bytes(values ...uint32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gogpu/naga"
)

// Shader file names looked up in a shader filesystem.
const (
	VertexShaderFile   = "energy_vertex.wgsl"
	FragmentShaderFile = "energy_fragment.wgsl"
	ComputeShaderFile  = "energy_compute.wgsl"
)

// ErrShaderCompile reports a missing or invalid shader source.
var ErrShaderCompile = errors.New("gpu: shader compilation failed")

//go:embed shaders/*.wgsl
var embeddedShaders embed.FS

// EmbeddedShaders returns the shader sources compiled into the binary,
// rooted so the files sit at the top level.
func EmbeddedShaders() fs.FS {
	if sub, err := fs.Sub(embeddedShaders, "shaders"); err == nil {
		return sub
	}
	return embeddedShaders
}

// ShaderSet holds the WGSL sources of the energy pipelines.
type ShaderSet struct {
	Vertex   string
	Fragment string
	Compute  string
}

// LoadShaders reads the named shaders from fsys into a ShaderSet. With no
// names all three are read. Files that are not named stay empty in the
// result. A missing or empty file is reported as ErrShaderCompile.
func LoadShaders(fsys fs.FS, names ...string) (ShaderSet, error) {
	if len(names) == 0 {
		names = []string{VertexShaderFile, FragmentShaderFile, ComputeShaderFile}
	}
	var set ShaderSet
	for _, name := range names {
		dst := set.field(name)
		if dst == nil {
			return ShaderSet{}, fmt.Errorf("%w: unknown shader %s", ErrShaderCompile, name)
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return ShaderSet{}, fmt.Errorf("%w: read %s: %w", ErrShaderCompile, name, err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return ShaderSet{}, fmt.Errorf("%w: %s is empty", ErrShaderCompile, name)
		}
		*dst = string(data)
	}
	return set, nil
}

func (s *ShaderSet) field(name string) *string {
	switch name {
	case VertexShaderFile:
		return &s.Vertex
	case FragmentShaderFile:
		return &s.Fragment
	case ComputeShaderFile:
		return &s.Compute
	}
	return nil
}

// ValidateShader compiles src with naga. Errors about language features
// naga has not implemented yet are logged and ignored; the driver still
// gets the WGSL source and decides for itself.
func ValidateShader(name, src string) error {
	spirv, err := naga.Compile(src)
	if err != nil {
		if isNagaLimitation(err) {
			slogger().Debug("gpu: shader validation skipped", "shader", name, "reason", err)
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrShaderCompile, name, err)
	}
	if len(spirv) == 0 {
		return fmt.Errorf("%w: %s produced no SPIR-V", ErrShaderCompile, name)
	}
	slogger().Debug("gpu: shader validated", "shader", name, "spirv_bytes", len(spirv))
	return nil
}

func isNagaLimitation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported")
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/seamcarve"
	gpuimpl "github.com/gogpu/seamcarve/internal/gpu"
)

var (
	// ErrNotInitialized is returned by energy calls before Init or after Close.
	ErrNotInitialized = errors.New("gpu: context not initialized")

	// ErrShaderCompile reports a missing or invalid shader at Init.
	ErrShaderCompile = gpuimpl.ErrShaderCompile

	// ErrIncompleteTarget reports that the energy textures could not be
	// allocated for the current image size.
	ErrIncompleteTarget = gpuimpl.ErrIncompleteTarget
)

// Strategy selects how the Sobel pass runs on the GPU.
type Strategy int

const (
	// RenderToTexture draws a fullscreen quad into a float render target.
	RenderToTexture Strategy = iota

	// Compute dispatches a compute shader over storage buffers.
	Compute
)

// String returns "render" or "compute".
func (s Strategy) String() string {
	switch s {
	case RenderToTexture:
		return "render"
	case Compute:
		return "compute"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// BackendName returns the registry name for the strategy.
func (s Strategy) BackendName() string {
	return "gpu-" + s.String()
}

// Option configures a Context.
type Option func(*Context)

// WithStrategy selects the pipeline. The default is RenderToTexture.
func WithStrategy(s Strategy) Option {
	return func(c *Context) { c.strategy = s }
}

// WithDevice uses an existing HAL device and queue. Close leaves them open.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(c *Context) {
		c.halDevice = device
		c.halQueue = queue
	}
}

// WithDeviceProvider shares the device of a gogpu application. The
// provider must also expose HalDevice() and HalQueue().
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *Context) { c.provider = p }
}

// WithShaderFS loads shader sources from fsys instead of the embedded set.
func WithShaderFS(fsys fs.FS) Option {
	return func(c *Context) { c.shaders = fsys }
}

// WithShaderDir loads shader sources from a directory on disk.
func WithShaderDir(dir string) Option {
	return func(c *Context) { c.shaders = os.DirFS(dir) }
}

// Context owns a GPU device and one energy pipeline. It implements
// seamcarve.Backend. Calls are serialized, so a Context may be shared
// between goroutines but runs one pass at a time.
//
// A Context is unusable until Init succeeds. Close returns it to that
// state and Init may be called again.
type Context struct {
	mu sync.Mutex

	strategy  Strategy
	shaders   fs.FS
	halDevice hal.Device
	halQueue  hal.Queue
	provider  gpucontext.DeviceProvider

	device  *gpuimpl.Device
	render  *gpuimpl.RenderEnergyPipeline
	compute *gpuimpl.ComputeEnergyPipeline
	ready   bool
}

// NewContext returns an uninitialized context.
func NewContext(opts ...Option) *Context {
	c := &Context{strategy: RenderToTexture}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open creates a context and initializes it.
func Open(opts ...Option) (*Context, error) {
	c := NewContext(opts...)
	if err := c.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads and validates the shaders, acquires the device and builds
// the pipeline. It is a no-op on a ready context. On failure every
// partially created resource is released and the context stays
// uninitialized.
func (c *Context) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	if c.strategy != RenderToTexture && c.strategy != Compute {
		return fmt.Errorf("gpu: unknown strategy %d", int(c.strategy))
	}

	shaders := c.shaders
	if shaders == nil {
		shaders = gpuimpl.EmbeddedShaders()
	}
	set, err := gpuimpl.LoadShaders(shaders, c.strategy.shaderFiles()...)
	if err != nil {
		return err
	}
	if err := c.validate(set); err != nil {
		return err
	}

	device, err := c.acquireDevice()
	if err != nil {
		return fmt.Errorf("gpu: acquire device: %w", err)
	}
	halDevice, halQueue := device.HAL()

	switch c.strategy {
	case RenderToTexture:
		p := gpuimpl.NewRenderEnergyPipeline(halDevice, halQueue, set)
		if err := p.Init(); err != nil {
			device.Destroy()
			return fmt.Errorf("gpu: render pipeline: %w", err)
		}
		c.render = p
	case Compute:
		p := gpuimpl.NewComputeEnergyPipeline(halDevice, halQueue, set.Compute)
		if err := p.Init(); err != nil {
			device.Destroy()
			return fmt.Errorf("gpu: compute pipeline: %w", err)
		}
		c.compute = p
	}

	c.device = device
	c.ready = true
	seamcarve.Logger().Info("gpu: energy context ready",
		"strategy", c.strategy.String(),
		"device", device.Name())
	return nil
}

// shaderFiles lists the sources a strategy needs.
func (s Strategy) shaderFiles() []string {
	if s == Compute {
		return []string{gpuimpl.ComputeShaderFile}
	}
	return []string{gpuimpl.VertexShaderFile, gpuimpl.FragmentShaderFile}
}

func (c *Context) validate(set gpuimpl.ShaderSet) error {
	if c.strategy == Compute {
		return gpuimpl.ValidateShader(gpuimpl.ComputeShaderFile, set.Compute)
	}
	if err := gpuimpl.ValidateShader(gpuimpl.VertexShaderFile, set.Vertex); err != nil {
		return err
	}
	return gpuimpl.ValidateShader(gpuimpl.FragmentShaderFile, set.Fragment)
}

func (c *Context) acquireDevice() (*gpuimpl.Device, error) {
	switch {
	case c.halDevice != nil || c.halQueue != nil:
		return gpuimpl.ExternalDevice(c.halDevice, c.halQueue)
	case c.provider != nil:
		return gpuimpl.DeviceFromProvider(c.provider)
	default:
		return gpuimpl.OpenDevice()
	}
}

// Close releases the pipeline, textures and any device the context
// opened itself, in reverse creation order. It is safe to call more than
// once.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.render != nil {
		c.render.Destroy()
		c.render = nil
	}
	if c.compute != nil {
		c.compute.Destroy()
		c.compute = nil
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	c.ready = false
	return nil
}

// Ready reports whether Init has succeeded and Close has not been called.
func (c *Context) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Strategy returns the configured pipeline strategy.
func (c *Context) Strategy() Strategy { return c.strategy }

// Name returns the registry name, "gpu-render" or "gpu-compute".
func (c *Context) Name() string { return c.strategy.BackendName() }

// SetLogger routes GPU diagnostics to l. seamcarve.SetLogger calls it on
// every open backend.
func (c *Context) SetLogger(l *slog.Logger) {
	gpuimpl.SetLogger(l)
}

// ComputeRGB runs the energy pass over a raw interleaved buffer and
// returns height*width energies, row-major. Border pixels are 1000.
func (c *Context) ComputeRGB(data []uint8, width, height, channels int) ([]float32, error) {
	if channels != seamcarve.Channels {
		return nil, fmt.Errorf("%w: got %d", seamcarve.ErrUnsupportedChannels, channels)
	}
	if width <= 0 || height <= 0 || len(data) != width*height*channels {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", seamcarve.ErrInvalidDimensions, width, height, len(data))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	var (
		energy []float32
		err    error
	)
	if c.strategy == Compute {
		energy, err = c.compute.Run(data, width, height)
	} else {
		energy, err = c.render.Run(data, width, height)
	}
	if err != nil {
		return nil, fmt.Errorf("gpu: %s energy: %w", c.strategy, err)
	}
	seamcarve.Logger().Debug("gpu: energy pass",
		"strategy", c.strategy.String(),
		"width", width, "height", height,
		"elapsed", time.Since(start))
	return energy, nil
}

// Compute implements seamcarve.EnergyComputer.
func (c *Context) Compute(p *seamcarve.Pixels) (*seamcarve.EnergyMap, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pixels", seamcarve.ErrInvalidDimensions)
	}
	energy, err := c.ComputeRGB(p.Data(), p.Width(), p.Height(), seamcarve.Channels)
	if err != nil {
		return nil, err
	}
	return seamcarve.EnergyMapFromSlice(p.Width(), p.Height(), energy)
}

//go:build !nogpu

package gpu

import (
	"errors"
	"io/fs"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/seamcarve"
	gpuimpl "github.com/gogpu/seamcarve/internal/gpu"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
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
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct {
	halDevice hal.Device
	halQueue  hal.Queue
}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// halMockProvider also exposes HAL handles the way gogpu's providers do.
type halMockProvider struct{ mockProvider }

func (m *halMockProvider) HalDevice() any { return m.halDevice }
func (m *halMockProvider) HalQueue() any  { return m.halQueue }

func TestStrategyNames(t *testing.T) {
	tests := []struct {
		s             Strategy
		name, backend string
	}{
		{RenderToTexture, "render", "gpu-render"},
		{Compute, "compute", "gpu-compute"},
	}
	for _, tt := range tests {
		if tt.s.String() != tt.name || tt.s.BackendName() != tt.backend {
			t.Errorf("%d: String() = %q, BackendName() = %q", int(tt.s), tt.s.String(), tt.s.BackendName())
		}
	}
}

func TestBackendsRegistered(t *testing.T) {
	names := seamcarve.Backends()
	for _, want := range []string{"cpu", "gpu-render", "gpu-compute"} {
		if !slices.Contains(names, want) {
			t.Errorf("Backends() = %v, missing %s", names, want)
		}
	}
}

func TestContextLifecycle(t *testing.T) {
	for _, s := range []Strategy{RenderToTexture, Compute} {
		t.Run(s.String(), func(t *testing.T) {
			device, queue := createNoopDevice(t)
			c := NewContext(WithDevice(device, queue), WithStrategy(s))

			if c.Ready() {
				t.Fatal("Ready before Init")
			}
			if _, err := c.ComputeRGB(make([]uint8, 27), 3, 3, 3); !errors.Is(err, ErrNotInitialized) {
				t.Errorf("before Init: error = %v, want ErrNotInitialized", err)
			}

			if err := c.Init(); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if !c.Ready() || c.Name() != s.BackendName() {
				t.Fatalf("Ready() = %v, Name() = %q", c.Ready(), c.Name())
			}
			if err := c.Init(); err != nil {
				t.Errorf("second Init = %v, want nil", err)
			}

			if _, err := c.ComputeRGB(make([]uint8, 36), 3, 3, 4); !errors.Is(err, seamcarve.ErrUnsupportedChannels) {
				t.Errorf("4 channels: error = %v, want ErrUnsupportedChannels", err)
			}
			if _, err := c.ComputeRGB(make([]uint8, 5), 3, 3, 3); !errors.Is(err, seamcarve.ErrInvalidDimensions) {
				t.Errorf("short buffer: error = %v, want ErrInvalidDimensions", err)
			}

			if err := c.Close(); err != nil {
				t.Fatal(err)
			}
			if err := c.Close(); err != nil {
				t.Errorf("second Close = %v", err)
			}
			if c.Ready() || c.device != nil || c.render != nil || c.compute != nil {
				t.Error("resources remain after Close")
			}
			if _, err := c.Compute(solid(t, 3, 3)); !errors.Is(err, ErrNotInitialized) {
				t.Errorf("after Close: error = %v, want ErrNotInitialized", err)
			}

			// Close released only what Init created; the borrowed device
			// supports a fresh Init.
			if err := c.Init(); err != nil {
				t.Fatalf("re-Init failed: %v", err)
			}
			c.Close()
		})
	}
}

func TestContextInitMissingShader(t *testing.T) {
	device, queue := createNoopDevice(t)
	shaders := fstest.MapFS{
		"energy_vertex.wgsl": {Data: []byte("// only one file")},
	}
	c := NewContext(WithDevice(device, queue), WithShaderFS(shaders))
	if err := c.Init(); !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("error = %v, want ErrShaderCompile", err)
	}
	if c.Ready() || c.device != nil || c.render != nil {
		t.Error("failed Init left resources behind")
	}
}

// A shader directory only needs the files of the chosen strategy.
func TestContextLoadsStrategyShadersOnly(t *testing.T) {
	src, err := fs.ReadFile(gpuimpl.EmbeddedShaders(), gpuimpl.ComputeShaderFile)
	if err != nil {
		t.Fatal(err)
	}
	computeOnly := fstest.MapFS{gpuimpl.ComputeShaderFile: {Data: src}}

	device, queue := createNoopDevice(t)
	c := NewContext(WithDevice(device, queue), WithStrategy(Compute), WithShaderFS(computeOnly))
	if err := c.Init(); err != nil {
		t.Fatalf("compute with compute shader only: %v", err)
	}
	c.Close()

	c = NewContext(WithDevice(device, queue), WithStrategy(RenderToTexture), WithShaderFS(computeOnly))
	if err := c.Init(); !errors.Is(err, ErrShaderCompile) {
		c.Close()
		t.Errorf("render without render shaders: error = %v, want ErrShaderCompile", err)
	}
}

func TestContextDeviceProvider(t *testing.T) {
	c := NewContext(WithDeviceProvider(&mockProvider{}))
	if err := c.Init(); err == nil {
		c.Close()
		t.Fatal("provider without HAL access accepted")
	}
	if c.Ready() {
		t.Error("Ready after failed Init")
	}

	device, queue := createNoopDevice(t)
	p := &halMockProvider{mockProvider{halDevice: device, halQueue: queue}}
	c = NewContext(WithDeviceProvider(p), WithStrategy(Compute))
	if err := c.Init(); err != nil {
		t.Fatalf("Init with HAL provider: %v", err)
	}
	defer c.Close()
	if !c.device.External() {
		t.Error("provider device should be borrowed")
	}
}

func TestComputeNilPixels(t *testing.T) {
	if _, err := NewContext().Compute(nil); !errors.Is(err, seamcarve.ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
}

// TestBackendsAgreeOnInterior runs both GPU strategies on a physical
// adapter and compares them with the CPU backend. Interior energies agree;
// borders are 1000 on the GPU and 0 on the CPU.
func TestBackendsAgreeOnInterior(t *testing.T) {
	src := noise(t, 37, 21)
	want, err := seamcarve.NewCPUEnergy(0).Compute(src)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []Strategy{RenderToTexture, Compute} {
		t.Run(s.String(), func(t *testing.T) {
			c, err := Open(WithStrategy(s))
			if err != nil {
				t.Skipf("no GPU available: %v", err)
			}
			defer c.Close()

			got, err := c.Compute(src)
			if err != nil {
				t.Fatal(err)
			}
			for y := range src.Height() {
				for x := range src.Width() {
					border := x == 0 || y == 0 || x == src.Width()-1 || y == src.Height()-1
					g, w := got.At(x, y), want.At(x, y)
					switch {
					case border && (g != 1000 || w != 0):
						t.Fatalf("border (%d,%d): gpu=%v cpu=%v, want 1000 and 0", x, y, g, w)
					case !border && math.Abs(float64(g-w)) > 0.5:
						t.Fatalf("interior (%d,%d): gpu=%v cpu=%v", x, y, g, w)
					}
				}
			}
		})
	}
}

func solid(t *testing.T, w, h int) *seamcarve.Pixels {
	t.Helper()
	p, err := seamcarve.NewPixels(w, h)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func noise(t *testing.T, w, h int) *seamcarve.Pixels {
	t.Helper()
	r := rand.New(rand.NewPCG(7, 11))
	data := make([]uint8, w*h*3)
	for i := range data {
		data[i] = uint8(r.IntN(256))
	}
	p, err := seamcarve.FromRGB(data, w, h, 3)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

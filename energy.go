package seamcarve

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/seamcarve/internal/parallel"
)

// EnergyMap is a height x width matrix of per-pixel importance values,
// stored row-major.
type EnergyMap struct {
	width  int
	height int
	data   []float32
}

// NewEnergyMap allocates a zeroed map.
func NewEnergyMap(width, height int) *EnergyMap {
	return &EnergyMap{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// EnergyMapFromSlice wraps values in a map without copying. It is used by
// backends that produce their own row-major buffer.
func EnergyMapFromSlice(width, height int, values []float32) (*EnergyMap, error) {
	if width <= 0 || height <= 0 || len(values) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrEmptyEnergy, width, height, len(values))
	}
	return &EnergyMap{width: width, height: height, data: values}, nil
}

// Width returns the number of columns.
func (m *EnergyMap) Width() int { return m.width }

// Height returns the number of rows.
func (m *EnergyMap) Height() int { return m.height }

// At returns the energy at column x, row y.
func (m *EnergyMap) At(x, y int) float32 {
	return m.data[y*m.width+x]
}

// Set stores the energy at column x, row y.
func (m *EnergyMap) Set(x, y int, v float32) {
	m.data[y*m.width+x] = v
}

// Row returns row y as a slice aliasing the map.
func (m *EnergyMap) Row(y int) []float32 {
	return m.data[y*m.width : (y+1)*m.width]
}

// Values returns the row-major backing slice.
func (m *EnergyMap) Values() []float32 {
	return m.data
}

// Empty reports whether the map holds no values.
func (m *EnergyMap) Empty() bool {
	return m == nil || m.width == 0 || m.height == 0 || len(m.data) == 0
}

// EnergyComputer converts pixels into an energy map of identical dimensions.
// Implementations must not retain or mutate the input.
type EnergyComputer interface {
	Compute(p *Pixels) (*EnergyMap, error)
}

// EnergyFunc adapts a plain function to EnergyComputer.
type EnergyFunc func(p *Pixels) (*EnergyMap, error)

// Compute calls f(p).
func (f EnergyFunc) Compute(p *Pixels) (*EnergyMap, error) { return f(p) }

// parallelMinRows is the image height below which CPUEnergy stays serial.
const parallelMinRows = 64

// CPUEnergy computes Sobel gradient magnitude on luminance.
//
// Border rows and columns are left at zero. GPU backends assign them a high
// sentinel instead; callers that mix backends should expect seams near the
// edges to differ.
//
// The zero value computes serially. Workers > 1 splits interior rows into
// bands executed on a worker pool; the result is identical.
type CPUEnergy struct {
	Workers int

	once sync.Once
	pool *parallel.WorkerPool
}

// NewCPUEnergy returns a CPU backend using the given number of workers.
// Values below 2 select the serial path.
func NewCPUEnergy(workers int) *CPUEnergy {
	return &CPUEnergy{Workers: workers}
}

// Name returns "cpu".
func (e *CPUEnergy) Name() string { return "cpu" }

// Compute implements EnergyComputer.
func (e *CPUEnergy) Compute(p *Pixels) (*EnergyMap, error) {
	if p == nil || p.width <= 0 || p.height <= 0 {
		return nil, fmt.Errorf("%w: nil or empty pixels", ErrInvalidDimensions)
	}
	m := NewEnergyMap(p.width, p.height)
	gray := grayscale(p)

	if e.Workers < 2 || p.height < parallelMinRows {
		sobelRows(gray, m, 1, p.height-1)
		return m, nil
	}

	e.once.Do(func() { e.pool = parallel.NewWorkerPool(e.Workers) })
	bands := parallel.SplitRows(1, p.height-1, e.pool.Workers())
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { sobelRows(gray, m, b.Start, b.End) }
	}
	e.pool.ExecuteAll(work)
	return m, nil
}

// Close releases the worker pool, if one was started.
func (e *CPUEnergy) Close() error {
	if e.pool != nil {
		e.pool.Close()
	}
	return nil
}

// grayscale converts the whole buffer once so each output pixel reads nine
// luminance values instead of recomputing them.
func grayscale(p *Pixels) []float32 {
	gray := make([]float32, p.width*p.height)
	for i := range gray {
		j := i * Channels
		gray[i] = luminance(p.data[j], p.data[j+1], p.data[j+2])
	}
	return gray
}

// sobelRows fills rows [y0, y1) of m, skipping the first and last column.
func sobelRows(gray []float32, m *EnergyMap, y0, y1 int) {
	w := m.width
	for y := y0; y < y1; y++ {
		up := gray[(y-1)*w : y*w]
		mid := gray[y*w : (y+1)*w]
		down := gray[(y+1)*w : (y+2)*w]
		out := m.Row(y)
		for x := 1; x < w-1; x++ {
			// Differences first, so equal neighbours cancel exactly.
			gx := (up[x+1] - up[x-1]) + 2*(mid[x+1]-mid[x-1]) + (down[x+1] - down[x-1])
			gy := (down[x-1] - up[x-1]) + 2*(down[x]-up[x]) + (down[x+1] - up[x+1])
			out[x] = float32(math.Sqrt(float64(gx*gx + gy*gy)))
		}
	}
}

// CheckEnergy verifies a backend's result before it is used for seam
// search.
func CheckEnergy(m *EnergyMap, p *Pixels) error {
	if m.Empty() || m.width != p.width || m.height != p.height {
		return ErrEmptyEnergy
	}
	return nil
}

package seamcarve

import (
	"fmt"
	"strings"
)

// Seam holds one column index per row, row 0 first. Consecutive entries
// differ by at most one.
type Seam []int

// Validate checks that s fits an image of the given width and height and
// keeps single-step connectivity.
func (s Seam) Validate(width, height int) error {
	if len(s) != height {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidSeam, len(s), height)
	}
	for y, x := range s {
		if x < 0 || x >= width {
			return fmt.Errorf("%w: row %d column %d outside [0, %d)", ErrInvalidSeam, y, x, width)
		}
		if y > 0 {
			if d := x - s[y-1]; d < -1 || d > 1 {
				return fmt.Errorf("%w: rows %d and %d jump from %d to %d", ErrInvalidSeam, y-1, y, s[y-1], x)
			}
		}
	}
	return nil
}

// Cost sums the energy along the seam.
func (s Seam) Cost(m *EnergyMap) float64 {
	var total float64
	for y, x := range s {
		total += float64(m.At(x, y))
	}
	return total
}

// SeamFinder searches an energy map for a vertical seam.
type SeamFinder interface {
	Find(m *EnergyMap) (Seam, error)
}

// Algorithm selects a seam search strategy.
type Algorithm int

const (
	// Greedy follows the locally cheapest neighbour from the top row down.
	Greedy Algorithm = iota
	// DynamicProgramming finds the globally cheapest seam.
	DynamicProgramming
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case Greedy:
		return "greedy"
	case DynamicProgramming:
		return "dp"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Finder returns the strategy for a. Unknown values fall back to Greedy.
func (a Algorithm) Finder() SeamFinder {
	if a == DynamicProgramming {
		return DPFinder{}
	}
	return GreedyFinder{}
}

// ParseAlgorithm accepts "greedy", "dp" and "dynamic" (case-insensitive).
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greedy", "g":
		return Greedy, nil
	case "dp", "dynamic", "dynamic-programming", "dynamicprogramming":
		return DynamicProgramming, nil
	default:
		return Greedy, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// firstMin returns the index of the first minimum in row, scanning left to
// right with strict comparison.
func firstMin(row []float32) int {
	best := 0
	for x := 1; x < len(row); x++ {
		if row[x] < row[best] {
			best = x
		}
	}
	return best
}

// pickNeighbor chooses among x-1, x and x+1 of row using the shared tie
// rule: centre, then left if strictly lower, then right if strictly lower
// than the current choice.
func pickNeighbor(row []float32, x int) int {
	best := x
	if x > 0 && row[x-1] < row[best] {
		best = x - 1
	}
	if x < len(row)-1 && row[x+1] < row[best] {
		best = x + 1
	}
	return best
}

func checkMap(m *EnergyMap) error {
	if m.Empty() {
		return ErrEmptyEnergy
	}
	return nil
}

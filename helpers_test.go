package seamcarve

import (
	"math/rand/v2"
	"testing"
	"time"
)

// solidPixels returns a w x h image filled with one colour.
func solidPixels(t *testing.T, w, h int, r, g, b uint8) *Pixels {
	t.Helper()
	p, err := NewPixels(w, h)
	if err != nil {
		t.Fatalf("NewPixels(%d, %d): %v", w, h, err)
	}
	for i := 0; i < len(p.data); i += Channels {
		p.data[i], p.data[i+1], p.data[i+2] = r, g, b
	}
	return p
}

// edgePixels returns a black image whose columns >= k are white.
func edgePixels(t *testing.T, w, h, k int) *Pixels {
	t.Helper()
	p := solidPixels(t, w, h, 0, 0, 0)
	for y := range h {
		for x := k; x < w; x++ {
			i := (y*w + x) * Channels
			p.data[i], p.data[i+1], p.data[i+2] = 255, 255, 255
		}
	}
	return p
}

// noisePixels returns a deterministic pseudo-random image.
func noisePixels(t *testing.T, w, h int, seed uint64) *Pixels {
	t.Helper()
	p, err := NewPixels(w, h)
	if err != nil {
		t.Fatalf("NewPixels(%d, %d): %v", w, h, err)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range p.data {
		p.data[i] = uint8(rng.IntN(256))
	}
	return p
}

// randomMap returns a deterministic energy map with small integer values so
// ties are frequent.
func randomMap(w, h int, seed uint64) *EnergyMap {
	m := NewEnergyMap(w, h)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range m.data {
		m.data[i] = float32(rng.IntN(8))
	}
	return m
}

// mapFromRows builds an energy map from literal rows.
func mapFromRows(rows ...[]float32) *EnergyMap {
	m := NewEnergyMap(len(rows[0]), len(rows))
	for y, r := range rows {
		copy(m.Row(y), r)
	}
	return m
}

// withBorder returns a copy of m whose outer ring is set to v.
func withBorder(m *EnergyMap, v float32) *EnergyMap {
	out := NewEnergyMap(m.width, m.height)
	copy(out.data, m.data)
	for y := range m.height {
		for x := range m.width {
			if x == 0 || y == 0 || x == m.width-1 || y == m.height-1 {
				out.Set(x, y, v)
			}
		}
	}
	return out
}

// steppingClock returns a time source that advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * step)
	}
}

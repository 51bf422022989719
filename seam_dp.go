package seamcarve

// DPFinder accumulates the minimum cumulative energy row by row and
// backtracks from the cheapest bottom cell. The returned seam has the
// lowest total energy of any connected seam.
//
// Accumulation keeps two rolling rows; only the H x W predecessor table is
// retained for reconstruction.
type DPFinder struct{}

// Find implements SeamFinder.
func (DPFinder) Find(m *EnergyMap) (Seam, error) {
	if err := checkMap(m); err != nil {
		return nil, err
	}
	w, h := m.width, m.height

	prev := make([]float32, w)
	cur := make([]float32, w)
	copy(prev, m.Row(0))

	// back[y*w+x] is the column in row y-1 that leads to (x, y). Row 0 is unused.
	back := make([]int32, w*h)

	for y := 1; y < h; y++ {
		row := m.Row(y)
		links := back[y*w : (y+1)*w]
		for x := range w {
			p := pickNeighbor(prev, x)
			links[x] = int32(p) //nolint:gosec // column index fits int32
			cur[x] = row[x] + prev[p]
		}
		prev, cur = cur, prev
	}

	seam := make(Seam, h)
	seam[h-1] = firstMin(prev)
	for y := h - 1; y > 0; y-- {
		seam[y-1] = int(back[y*w+seam[y]])
	}
	return seam, nil
}

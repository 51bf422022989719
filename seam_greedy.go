package seamcarve

// GreedyFinder walks from the top row down, moving at each row to the
// cheapest of the three neighbours below. It runs in O(W*H) time and O(H)
// space but gives no global guarantee.
type GreedyFinder struct{}

// Find implements SeamFinder.
func (GreedyFinder) Find(m *EnergyMap) (Seam, error) {
	if err := checkMap(m); err != nil {
		return nil, err
	}
	seam := make(Seam, m.height)
	seam[0] = firstMin(m.Row(0))
	for y := 1; y < m.height; y++ {
		seam[y] = pickNeighbor(m.Row(y), seam[y-1])
	}
	return seam, nil
}

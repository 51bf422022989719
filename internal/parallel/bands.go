package parallel

// Band is a half-open row range [Start, End).
type Band struct {
	Start int
	End   int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.End - b.Start
}

// SplitRows divides the range [lo, hi) into at most parts contiguous bands
// of near-equal size. Earlier bands receive the remainder rows. Empty ranges
// produce no bands.
func SplitRows(lo, hi, parts int) []Band {
	n := hi - lo
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	parts = min(parts, n)

	bands := make([]Band, 0, parts)
	size, rem := n/parts, n%parts
	start := lo
	for i := range parts {
		end := start + size
		if i < rem {
			end++
		}
		bands = append(bands, Band{Start: start, End: end})
		start = end
	}
	return bands
}

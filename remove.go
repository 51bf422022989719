package seamcarve

import "fmt"

// RemoveSeam returns a new buffer one column narrower than p with the pixel
// at seam[y] deleted from every row. p is not modified.
func RemoveSeam(p *Pixels, seam Seam) (*Pixels, error) {
	if p.width < 2 {
		return nil, fmt.Errorf("%w: cannot remove a seam from width %d", ErrInvalidDimensions, p.width)
	}
	if err := seam.Validate(p.width, p.height); err != nil {
		return nil, err
	}

	out := &Pixels{
		width:  p.width - 1,
		height: p.height,
		data:   make([]uint8, (p.width-1)*p.height*Channels),
	}
	for y, cut := range seam {
		src := p.Row(y)
		dst := out.Row(y)
		split := cut * Channels
		copy(dst, src[:split])
		copy(dst[split:], src[split+Channels:])
	}
	return out, nil
}

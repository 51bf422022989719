package imageio

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/seamcarve"
)

// ScaleWidth resizes p to width columns with bilinear filtering, keeping
// the height. It produces the naive-resize baseline that seam carving is
// compared against.
func ScaleWidth(p *seamcarve.Pixels, width int) (*seamcarve.Pixels, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", seamcarve.ErrInvalidTargetWidth, width)
	}
	if width == p.Width() {
		return p.Clone(), nil
	}
	src := p.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, width, p.Height()))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return seamcarve.FromImage(dst)
}

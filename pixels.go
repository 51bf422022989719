package seamcarve

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Channels is the only supported interleaved channel count (8-bit RGB).
const Channels = 3

// Pixels is a row-major, interleaved 8-bit RGB buffer.
//
// A Pixels value is owned by whichever stage currently holds it. Stages never
// modify their input; they return a fresh buffer instead.
type Pixels struct {
	width  int
	height int
	data   []uint8 // RGB, 3 bytes per pixel
}

// NewPixels allocates a zeroed buffer of the given size.
func NewPixels(width, height int) (*Pixels, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Pixels{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*Channels),
	}, nil
}

// FromRGB wraps an existing interleaved buffer. The slice is copied, so the
// caller keeps ownership of data.
func FromRGB(data []uint8, width, height, channels int) (*Pixels, error) {
	if channels != Channels {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedChannels, channels)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(data) != width*height*channels {
		return nil, fmt.Errorf("%w: buffer has %d bytes, want %d",
			ErrInvalidDimensions, len(data), width*height*channels)
	}
	buf := make([]uint8, len(data))
	copy(buf, data)
	return &Pixels{width: width, height: height, data: buf}, nil
}

// FromImage converts any image.Image to RGB. Alpha is discarded after
// compositing over black.
func FromImage(img image.Image) (*Pixels, error) {
	b := img.Bounds()
	p, err := NewPixels(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	for y := 0; y < p.height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+p.width*4]
		dst := p.data[y*p.width*Channels : (y+1)*p.width*Channels]
		for x := 0; x < p.width; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return p, nil
}

// Width returns the width in pixels.
func (p *Pixels) Width() int {
	return p.width
}

// Height returns the height in pixels.
func (p *Pixels) Height() int {
	return p.height
}

// Data returns the raw RGB bytes. The slice is a read-only view; mutating it
// breaks the ownership contract between pipeline stages.
func (p *Pixels) Data() []uint8 {
	return p.data
}

// Row returns the bytes of row y.
func (p *Pixels) Row(y int) []uint8 {
	stride := p.width * Channels
	return p.data[y*stride : (y+1)*stride]
}

// RGB returns the colour at (x, y).
func (p *Pixels) RGB(x, y int) (r, g, b uint8) {
	i := (y*p.width + x) * Channels
	return p.data[i], p.data[i+1], p.data[i+2]
}

// Clone returns a deep copy.
func (p *Pixels) Clone() *Pixels {
	buf := make([]uint8, len(p.data))
	copy(buf, p.data)
	return &Pixels{width: p.width, height: p.height, data: buf}
}

// Equal reports whether both buffers have the same size and bytes.
func (p *Pixels) Equal(o *Pixels) bool {
	if p.width != o.width || p.height != o.height {
		return false
	}
	return bytes.Equal(p.data, o.data)
}

// ToImage converts the buffer to an opaque *image.RGBA.
func (p *Pixels) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			r, g, b := p.RGB(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// luminance converts one RGB triple to grey using Rec. 601 weights, on a
// 0..255 scale.
func luminance(r, g, b uint8) float32 {
	return 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)
}

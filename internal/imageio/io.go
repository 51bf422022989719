// Package imageio reads and writes images as seamcarve pixel buffers.
//
// Decoding recognises PNG, JPEG, GIF, BMP, TIFF and WebP by content.
// Encoding picks the format from the file extension.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/seamcarve"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the output extension has no encoder.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// DefaultJPEGQuality is used when encoding JPEG output.
const DefaultJPEGQuality = 92

// Load reads and decodes the image at path. The detected format name is
// returned alongside the pixels.
func Load(path string) (*seamcarve.Pixels, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*seamcarve.Pixels, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format. Alpha is
// discarded.
func Decode(r io.Reader) (*seamcarve.Pixels, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: decode: %w", err)
	}
	p, err := seamcarve.FromImage(img)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: convert %s: %w", format, err)
	}
	return p, format, nil
}

// FormatFromPath maps a file extension to an encoder name.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save encodes p to path using the format implied by its extension.
func Save(path string, p *seamcarve.Pixels) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}
	if err := Encode(f, p, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes p to w as png, jpeg, bmp or tiff.
func Encode(w io.Writer, p *seamcarve.Pixels, format string) error {
	img := p.ToImage()
	var err error
	switch format {
	case "png":
		err = png.Encode(w, img)
	case "jpeg", "jpg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: DefaultJPEGQuality})
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("imageio: encode %s: %w", format, err)
	}
	return nil
}

package seamcarve

import (
	"bytes"
	"errors"
	"testing"
)

func TestRemoveSeam(t *testing.T) {
	// 3x2 image, pixel value encodes (x, y).
	p, err := FromRGB([]uint8{
		0, 0, 0, 1, 1, 1, 2, 2, 2,
		10, 10, 10, 11, 11, 11, 12, 12, 12,
	}, 3, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	before := bytes.Clone(p.Data())

	out, err := RemoveSeam(p, Seam{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{
		0, 0, 0, 1, 1, 1,
		10, 10, 10, 12, 12, 12,
	}
	if out.Width() != 2 || out.Height() != 2 {
		t.Fatalf("size = %dx%d, want 2x2", out.Width(), out.Height())
	}
	if !bytes.Equal(out.Data(), want) {
		t.Errorf("data = %v, want %v", out.Data(), want)
	}
	if !bytes.Equal(p.Data(), before) {
		t.Error("RemoveSeam modified its input")
	}
}

// Every row equals the input row with exactly one pixel deleted.
func TestRemoveSeamPreservesOrder(t *testing.T) {
	p := noisePixels(t, 23, 17, 7)
	seam, err := DPFinder{}.Find(randomMap(23, 17, 9))
	if err != nil {
		t.Fatal(err)
	}
	out, err := RemoveSeam(p, seam)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(out.Data()), 22*17*Channels; got != want {
		t.Fatalf("len = %d, want %d", got, want)
	}
	for y := range p.Height() {
		src := p.Row(y)
		cut := seam[y] * Channels
		want := append(bytes.Clone(src[:cut]), src[cut+Channels:]...)
		if !bytes.Equal(out.Row(y), want) {
			t.Fatalf("row %d differs", y)
		}
	}
}

func TestRemoveSeamErrors(t *testing.T) {
	p := solidPixels(t, 3, 2, 1, 2, 3)
	if _, err := RemoveSeam(p, Seam{0}); !errors.Is(err, ErrInvalidSeam) {
		t.Errorf("short seam: error = %v, want ErrInvalidSeam", err)
	}
	if _, err := RemoveSeam(p, Seam{0, 2}); !errors.Is(err, ErrInvalidSeam) {
		t.Errorf("disconnected seam: error = %v, want ErrInvalidSeam", err)
	}

	narrow := solidPixels(t, 1, 2, 1, 2, 3)
	if _, err := RemoveSeam(narrow, Seam{0, 0}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("width 1: error = %v, want ErrInvalidDimensions", err)
	}
}

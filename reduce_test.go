package seamcarve

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestReduceNoOpReturnsCopy(t *testing.T) {
	src := noisePixels(t, 8, 5, 1)
	for _, target := range []int{8, 9, 100} {
		for _, alg := range []Algorithm{Greedy, DynamicProgramming} {
			out, err := NewReducer().Reduce(src, target, alg)
			if err != nil {
				t.Fatalf("target %d: %v", target, err)
			}
			if !out.Equal(src) {
				t.Errorf("target %d %s: output differs from input", target, alg)
			}
			if &out.Data()[0] == &src.Data()[0] {
				t.Errorf("target %d %s: output aliases input", target, alg)
			}
		}
	}
}

func TestReduceInvalidTarget(t *testing.T) {
	src := noisePixels(t, 8, 5, 1)
	var events []Event
	sink := SinkFunc(func(e Event) { events = append(events, e) })
	calls := 0
	energy := EnergyFunc(func(p *Pixels) (*EnergyMap, error) {
		calls++
		return (&CPUEnergy{}).Compute(p)
	})

	for _, target := range []int{0, -1, -50} {
		out, err := NewReducer(WithEnergy(energy), WithProgress(sink)).Reduce(src, target, Greedy)
		if !errors.Is(err, ErrInvalidTargetWidth) {
			t.Errorf("target %d: error = %v, want ErrInvalidTargetWidth", target, err)
		}
		if out != nil {
			t.Errorf("target %d: got pixels, want nil", target)
		}
	}
	if calls != 0 {
		t.Errorf("energy computed %d times for invalid requests", calls)
	}
	if len(events) != 3 || events[0].Kind != EventError {
		t.Errorf("events = %+v, want three error events", events)
	}
}

func TestReduceWidthRaw(t *testing.T) {
	src := noisePixels(t, 6, 4, 2)

	data, w, err := ReduceWidth(src.Data(), 6, 4, 3, 6, Greedy)
	if err != nil || w != 6 || !bytes.Equal(data, src.Data()) {
		t.Errorf("no-op: w=%d err=%v identical=%v", w, err, bytes.Equal(data, src.Data()))
	}

	data, w, err = ReduceWidth(src.Data(), 6, 4, 3, 0, Greedy)
	if !errors.Is(err, ErrInvalidTargetWidth) || w != 0 || data != nil {
		t.Errorf("target 0: data=%v w=%d err=%v", data, w, err)
	}

	data, w, err = ReduceWidth(src.Data(), 6, 4, 3, 4, DynamicProgramming)
	if err != nil || w != 4 || len(data) != 4*4*3 {
		t.Errorf("reduce to 4: len=%d w=%d err=%v", len(data), w, err)
	}

	if _, _, err := ReduceWidth(make([]uint8, 32), 2, 4, 4, 1, Greedy); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("rgba input: error = %v, want ErrUnsupportedChannels", err)
	}
}

// A uniform 5x5 image has zero energy everywhere, so every seam is column 0
// and four removals leave a single column of the original colour.
func TestReduceUniformImage(t *testing.T) {
	for _, alg := range []Algorithm{Greedy, DynamicProgramming} {
		src := solidPixels(t, 5, 5, 40, 80, 120)

		m, err := (&CPUEnergy{}).Compute(src)
		if err != nil {
			t.Fatal(err)
		}
		seam, err := alg.Finder().Find(m)
		if err != nil {
			t.Fatal(err)
		}
		if !equalSeams(seam, Seam{0, 0, 0, 0, 0}) {
			t.Errorf("%s: seam = %v, want all zeros", alg, seam)
		}

		out, err := NewReducer().Reduce(src, 1, alg)
		if err != nil {
			t.Fatal(err)
		}
		if out.Width() != 1 || out.Height() != 5 {
			t.Fatalf("%s: size = %dx%d, want 1x5", alg, out.Width(), out.Height())
		}
		for y := range 5 {
			if r, g, b := out.RGB(0, y); r != 40 || g != 80 || b != 120 {
				t.Errorf("%s: row %d = (%d, %d, %d)", alg, y, r, g, b)
			}
		}
	}
}

// Removing seams from the dark half never eats into the bright half.
func TestReducePreservesEdge(t *testing.T) {
	const w, h, k = 14, 8, 7
	for _, alg := range []Algorithm{Greedy, DynamicProgramming} {
		out, err := NewReducer().Reduce(edgePixels(t, w, h, k), w-4, alg)
		if err != nil {
			t.Fatal(err)
		}
		for y := range h {
			white := 0
			for x := range out.Width() {
				if r, _, _ := out.RGB(x, y); r == 255 {
					white++
				}
			}
			if white != w-k {
				t.Errorf("%s: row %d has %d white pixels, want %d", alg, y, white, w-k)
			}
		}
	}
}

// Energy is recomputed from the narrowed image on every iteration.
func TestReduceRecomputesEnergy(t *testing.T) {
	var widths []int
	energy := EnergyFunc(func(p *Pixels) (*EnergyMap, error) {
		widths = append(widths, p.Width())
		return (&CPUEnergy{}).Compute(p)
	})
	if _, err := NewReducer(WithEnergy(energy)).Reduce(noisePixels(t, 10, 6, 4), 6, DynamicProgramming); err != nil {
		t.Fatal(err)
	}
	want := []int{10, 9, 8, 7}
	if len(widths) != len(want) {
		t.Fatalf("energy widths = %v, want %v", widths, want)
	}
	for i := range want {
		if widths[i] != want[i] {
			t.Errorf("energy widths = %v, want %v", widths, want)
			break
		}
	}
}

func TestReduceAbortsOnEnergyFailure(t *testing.T) {
	boom := errors.New("device lost")
	calls := 0
	energy := EnergyFunc(func(p *Pixels) (*EnergyMap, error) {
		calls++
		if calls == 3 {
			return nil, boom
		}
		return (&CPUEnergy{}).Compute(p)
	})
	var last Event
	sink := SinkFunc(func(e Event) { last = e })

	out, err := NewReducer(WithEnergy(energy), WithProgress(sink)).Reduce(noisePixels(t, 10, 4, 8), 2, Greedy)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if out != nil {
		t.Error("expected nil pixels on failure")
	}
	if last.Kind != EventError || last.Removed != 2 || last.Width != 8 {
		t.Errorf("last event = %+v, want error after 2 removals at width 8", last)
	}
}

// A backend that returns an empty map must abort the run rather than
// feed the seam search.
func TestReduceRejectsEmptyEnergy(t *testing.T) {
	energy := EnergyFunc(func(p *Pixels) (*EnergyMap, error) {
		return NewEnergyMap(0, 0), nil
	})
	_, err := NewReducer(WithEnergy(energy)).Reduce(noisePixels(t, 5, 5, 1), 3, Greedy)
	if !errors.Is(err, ErrEmptyEnergy) {
		t.Errorf("error = %v, want ErrEmptyEnergy", err)
	}
}

func TestReduceEventsCarryMetadata(t *testing.T) {
	var events []Event
	sink := SinkFunc(func(e Event) { events = append(events, e) })
	r := NewReducer(
		WithProgress(sink),
		WithRunID("run-7"),
		withClock(steppingClock(time.Millisecond)),
	)
	if _, err := r.Reduce(noisePixels(t, 9, 4, 3), 6, DynamicProgramming); err != nil {
		t.Fatal(err)
	}
	if len(events) == 0 {
		t.Fatal("no events")
	}
	for _, e := range events {
		if e.RunID != "run-7" || e.Backend != "cpu" || e.Algorithm != DynamicProgramming || e.Total != 3 {
			t.Errorf("event %s = %+v", e.Kind, e)
		}
	}
	if first, last := events[0], events[len(events)-1]; first.Kind != EventStart || last.Kind != EventComplete || last.Width != 6 {
		t.Errorf("first = %s, last = %s width %d", first.Kind, last.Kind, last.Width)
	}
}

func TestReduceNil(t *testing.T) {
	if _, err := NewReducer().Reduce(nil, 3, Greedy); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
}

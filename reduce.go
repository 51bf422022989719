package seamcarve

import "fmt"

type namer interface {
	Name() string
}

// Reducer narrows images by repeatedly removing the cheapest seam.
//
// A Reducer holds configuration only. It is safe to use from several
// goroutines as long as its energy backend is.
type Reducer struct {
	opts reducerOptions
}

// NewReducer creates a reducer with the given options.
func NewReducer(opts ...Option) *Reducer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.energy == nil {
		o.energy = &CPUEnergy{}
	}
	if o.backend == "" {
		if n, ok := o.energy.(namer); ok {
			o.backend = n.Name()
		}
	}
	return &Reducer{opts: o}
}

// Reduce returns src narrowed to targetWidth.
//
//   - targetWidth >= src.Width(): an exact copy of src, nil error.
//   - targetWidth <= 0: nil and ErrInvalidTargetWidth; nothing is computed.
//   - otherwise: src.Width()-targetWidth iterations of energy, search and
//     removal. Energy is recomputed from the narrowed image every time.
//
// An energy or search failure aborts the run and is returned wrapped; the
// caller may retry with another backend.
func (r *Reducer) Reduce(src *Pixels, targetWidth int, alg Algorithm) (*Pixels, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil pixels", ErrInvalidDimensions)
	}
	o := &r.opts
	total := 0
	if targetWidth > 0 && targetWidth < src.width {
		total = src.width - targetWidth
	}
	base := Event{
		RunID:     o.runID,
		Algorithm: alg,
		Backend:   o.backend,
		Total:     total,
		Width:     src.width,
		Height:    src.height,
	}
	tracker := newProgressTracker(o.sink, base, o.slow, o.now)

	if targetWidth <= 0 {
		err := fmt.Errorf("%w: got %d", ErrInvalidTargetWidth, targetWidth)
		tracker.fail(0, src.width, err)
		return nil, err
	}
	if targetWidth >= src.width {
		return src.Clone(), nil
	}

	finder := alg.Finder()

	cur := src
	tracker.begin()
	for removed := 1; removed <= total; removed++ {
		iterStart := o.now()

		energy, err := o.energy.Compute(cur)
		if err == nil {
			err = CheckEnergy(energy, cur)
		}
		if err != nil {
			err = fmt.Errorf("energy at width %d: %w", cur.width, err)
			tracker.fail(removed-1, cur.width, err)
			return nil, err
		}

		seam, err := finder.Find(energy)
		if err != nil {
			err = fmt.Errorf("%s seam at width %d: %w", alg, cur.width, err)
			tracker.fail(removed-1, cur.width, err)
			return nil, err
		}

		next, err := RemoveSeam(cur, seam)
		if err != nil {
			err = fmt.Errorf("remove seam at width %d: %w", cur.width, err)
			tracker.fail(removed-1, cur.width, err)
			return nil, err
		}
		cur = next

		tracker.step(removed, cur.width, o.now().Sub(iterStart))
	}
	tracker.complete(cur.width)
	return cur, nil
}

// ReduceWidth is the raw-buffer form of Reducer.Reduce. It returns the
// narrowed buffer and its width. On failure it returns a nil buffer, width 0
// and the error.
func ReduceWidth(data []uint8, width, height, channels, targetWidth int, alg Algorithm, opts ...Option) ([]uint8, int, error) {
	if targetWidth <= 0 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidTargetWidth, targetWidth)
	}
	src, err := FromRGB(data, width, height, channels)
	if err != nil {
		return nil, 0, err
	}
	out, err := NewReducer(opts...).Reduce(src, targetWidth, alg)
	if err != nil {
		return nil, 0, err
	}
	return out.data, out.width, nil
}

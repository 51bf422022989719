package seamcarve

import "errors"

// Sentinel errors returned by the carving pipeline. They are wrapped with
// additional context, so compare with errors.Is.
var (
	// ErrInvalidTargetWidth is returned when the requested width is zero or negative.
	ErrInvalidTargetWidth = errors.New("seamcarve: target width must be positive")

	// ErrInvalidDimensions is returned for non-positive image dimensions or
	// when a buffer length does not match width*height*channels.
	ErrInvalidDimensions = errors.New("seamcarve: invalid image dimensions")

	// ErrUnsupportedChannels is returned for any channel count other than 3.
	ErrUnsupportedChannels = errors.New("seamcarve: only 3-channel RGB is supported")

	// ErrInvalidSeam is returned when a seam does not fit the image it is
	// applied to.
	ErrInvalidSeam = errors.New("seamcarve: invalid seam")

	// ErrEmptyEnergy is returned when an energy backend produces a map whose
	// size does not match its input. Reducers abort on it.
	ErrEmptyEnergy = errors.New("seamcarve: energy map is empty or mis-sized")

	// ErrUnknownAlgorithm is returned by ParseAlgorithm.
	ErrUnknownAlgorithm = errors.New("seamcarve: unknown seam algorithm")

	// ErrFallbackToCPU indicates a GPU backend cannot serve on this host or build.
	// Callers typically retry with the "cpu" backend.
	ErrFallbackToCPU = errors.New("seamcarve: falling back to CPU energy")

	// ErrUnknownBackend is returned by OpenBackend for unregistered names.
	ErrUnknownBackend = errors.New("seamcarve: unknown energy backend")
)

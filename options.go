package seamcarve

import "time"

// DefaultSlowIteration is the iteration duration above which an
// EventSlowIteration is emitted.
const DefaultSlowIteration = 50 * time.Millisecond

// Option configures a Reducer.
//
// Example:
//
//	// CPU energy, silent
//	r := seamcarve.NewReducer()
//
//	// GPU energy with progress logged through slog
//	r := seamcarve.NewReducer(
//	    seamcarve.WithEnergy(gpuEnergy),
//	    seamcarve.WithProgress(seamcarve.LogSink{}),
//	)
type Option func(*reducerOptions)

type reducerOptions struct {
	energy  EnergyComputer
	sink    ProgressSink
	runID   string
	backend string
	slow    time.Duration
	now     func() time.Time
}

func defaultOptions() reducerOptions {
	return reducerOptions{
		sink: NopSink{},
		slow: DefaultSlowIteration,
		now:  time.Now,
	}
}

// WithEnergy sets the energy backend. The default is a serial CPUEnergy.
func WithEnergy(e EnergyComputer) Option {
	return func(o *reducerOptions) {
		o.energy = e
	}
}

// WithProgress sets the event sink. Nil restores NopSink.
func WithProgress(s ProgressSink) Option {
	return func(o *reducerOptions) {
		if s == nil {
			s = NopSink{}
		}
		o.sink = s
	}
}

// WithRunID tags every event with id.
func WithRunID(id string) Option {
	return func(o *reducerOptions) {
		o.runID = id
	}
}

// WithBackendName overrides the backend name reported in events. By default
// the name comes from the energy backend's Name method, if it has one.
func WithBackendName(name string) Option {
	return func(o *reducerOptions) {
		o.backend = name
	}
}

// WithSlowIteration sets the slow-iteration threshold. Zero disables
// EventSlowIteration.
func WithSlowIteration(d time.Duration) Option {
	return func(o *reducerOptions) {
		o.slow = d
	}
}

// withClock replaces time.Now, for tests.
func withClock(now func() time.Time) Option {
	return func(o *reducerOptions) {
		o.now = now
	}
}

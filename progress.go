package seamcarve

import (
	"context"
	"log/slog"
	"time"
)

// EventKind identifies a progress event.
type EventKind int

const (
	// EventStart is emitted once before the first seam is removed.
	EventStart EventKind = iota
	// EventProgress is emitted roughly every tenth of the work and on the last seam.
	EventProgress
	// EventSlowIteration is emitted when one iteration exceeds the slow threshold.
	EventSlowIteration
	// EventComplete is emitted after the target width is reached.
	EventComplete
	// EventError is emitted when a reduction is rejected or aborted.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventSlowIteration:
		return "slow-iteration"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes the state of a reduction at one point in time.
type Event struct {
	Kind      EventKind
	RunID     string
	Algorithm Algorithm
	Backend   string

	Removed int // seams removed so far
	Total   int // seams to remove in this run
	Width   int // current width
	Height  int

	Elapsed    time.Duration
	AvgPerSeam time.Duration
	ETA        time.Duration
	Iteration  time.Duration // only set for EventSlowIteration

	Err error // only set for EventError
}

// Percent returns completion in the range [0, 100].
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 100
	}
	return 100 * float64(e.Removed) / float64(e.Total)
}

// ProgressSink receives reduction events. Sinks must not retain the pixel
// data of the run and must return quickly; they run on the reducer's
// goroutine.
type ProgressSink interface {
	Event(e Event)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(e Event)

// Event calls f(e).
func (f SinkFunc) Event(e Event) { f(e) }

// NopSink discards all events.
type NopSink struct{}

// Event implements ProgressSink.
func (NopSink) Event(Event) {}

// MultiSink fans events out to every sink in order.
type MultiSink []ProgressSink

// Event implements ProgressSink.
func (m MultiSink) Event(e Event) {
	for _, s := range m {
		s.Event(e)
	}
}

// LogSink writes events as structured log records. A nil Logger uses the
// package logger at the time of each event.
type LogSink struct {
	Logger *slog.Logger
}

// Event implements ProgressSink.
func (s LogSink) Event(e Event) {
	l := s.Logger
	if l == nil {
		l = Logger()
	}
	attrs := []slog.Attr{
		slog.String("algorithm", e.Algorithm.String()),
		slog.Int("removed", e.Removed),
		slog.Int("total", e.Total),
		slog.Int("width", e.Width),
	}
	if e.RunID != "" {
		attrs = append(attrs, slog.String("run", e.RunID))
	}
	if e.Backend != "" {
		attrs = append(attrs, slog.String("backend", e.Backend))
	}

	ctx := context.Background()
	switch e.Kind {
	case EventStart:
		l.LogAttrs(ctx, slog.LevelInfo, "seamcarve: reduction started", attrs...)
	case EventProgress:
		attrs = append(attrs,
			slog.Float64("percent", e.Percent()),
			slog.Duration("avg_per_seam", e.AvgPerSeam),
			slog.Duration("eta", e.ETA))
		l.LogAttrs(ctx, slog.LevelInfo, "seamcarve: progress", attrs...)
	case EventSlowIteration:
		attrs = append(attrs, slog.Duration("iteration", e.Iteration))
		l.LogAttrs(ctx, slog.LevelDebug, "seamcarve: slow iteration", attrs...)
	case EventComplete:
		attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
		l.LogAttrs(ctx, slog.LevelInfo, "seamcarve: reduction complete", attrs...)
	case EventError:
		attrs = append(attrs, slog.Any("err", e.Err))
		l.LogAttrs(ctx, slog.LevelError, "seamcarve: reduction failed", attrs...)
	}
}

// progressTracker turns loop counters into events. It owns all timing
// arithmetic so the reduction loop only reports what it did.
type progressTracker struct {
	sink     ProgressSink
	base     Event
	interval int
	slow     time.Duration
	start    time.Time
	now      func() time.Time
}

func newProgressTracker(sink ProgressSink, base Event, slow time.Duration, now func() time.Time) *progressTracker {
	return &progressTracker{
		sink:     sink,
		base:     base,
		interval: max(1, base.Total/10),
		slow:     slow,
		now:      now,
	}
}

func (t *progressTracker) begin() {
	t.start = t.now()
	e := t.base
	e.Kind = EventStart
	t.sink.Event(e)
}

// step records that removed seams are done and the image is now width wide.
// iter is the duration of the iteration that just finished.
func (t *progressTracker) step(removed, width int, iter time.Duration) {
	if t.slow > 0 && iter > t.slow {
		e := t.snapshot(EventSlowIteration, removed, width)
		e.Iteration = iter
		t.sink.Event(e)
	}
	if removed%t.interval == 0 || removed == t.base.Total {
		t.sink.Event(t.snapshot(EventProgress, removed, width))
	}
}

func (t *progressTracker) complete(width int) {
	t.sink.Event(t.snapshot(EventComplete, t.base.Total, width))
}

func (t *progressTracker) fail(removed, width int, err error) {
	e := t.snapshot(EventError, removed, width)
	e.Err = err
	t.sink.Event(e)
}

func (t *progressTracker) snapshot(kind EventKind, removed, width int) Event {
	e := t.base
	e.Kind = kind
	e.Removed = removed
	e.Width = width
	if !t.start.IsZero() {
		e.Elapsed = t.now().Sub(t.start)
	}
	if removed > 0 {
		e.AvgPerSeam = e.Elapsed / time.Duration(removed)
		e.ETA = e.AvgPerSeam * time.Duration(t.base.Total-removed)
	}
	return e
}

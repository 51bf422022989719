package main

import (
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/gogpu/seamcarve"
)

// consoleSink prints reduction progress for a terminal.
type consoleSink struct {
	w    io.Writer
	head *color.Color
	dim  *color.Color
	warn *color.Color
	ok   *color.Color
	fail *color.Color
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{
		w:    w,
		head: color.New(color.FgCyan, color.Bold),
		dim:  color.New(color.FgHiBlack),
		warn: color.New(color.FgYellow),
		ok:   color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
	}
}

// Event implements seamcarve.ProgressSink.
func (s *consoleSink) Event(e seamcarve.Event) {
	switch e.Kind {
	case seamcarve.EventStart:
		s.head.Fprintf(s.w, "carving %dx%d to width %d (%s, %s)\n",
			e.Width, e.Height, e.Width-e.Total, e.Algorithm, backendLabel(e.Backend))
	case seamcarve.EventProgress:
		s.dim.Fprintf(s.w, "  %5.1f%%  width %-5d avg %-10s eta %s\n",
			e.Percent(), e.Width, e.AvgPerSeam.Round(time.Microsecond), e.ETA.Round(time.Millisecond))
	case seamcarve.EventSlowIteration:
		s.warn.Fprintf(s.w, "  slow iteration at width %d: %s\n", e.Width, e.Iteration.Round(time.Microsecond))
	case seamcarve.EventComplete:
		s.ok.Fprintf(s.w, "done: %d seams in %s\n", e.Total, e.Elapsed.Round(time.Millisecond))
	case seamcarve.EventError:
		s.fail.Fprintf(s.w, "failed after %d seams: %v\n", e.Removed, e.Err)
	}
}

func backendLabel(name string) string {
	if name == "" {
		return "custom"
	}
	return name
}

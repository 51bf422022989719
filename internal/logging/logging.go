// Package logging builds the slog logger used by the binaries.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/seamcarve/internal/config"
)

// Default rotation values applied when the config leaves them at zero.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg. Records go to console unless cfg.File is
// set, in which case they go to a rotating file. The returned closer
// releases the file and must be called on shutdown.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := NewFileWriter(cfg)
		out, closer = rotator, rotator
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}

// NewFileWriter returns a size-rotated log file writer. Rotated files are
// gzip-compressed.
func NewFileWriter(cfg config.LogConfig) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	if w.MaxSize == 0 {
		w.MaxSize = DefaultMaxSizeMB
	}
	if w.MaxBackups == 0 {
		w.MaxBackups = DefaultMaxBackups
	}
	if w.MaxAge == 0 {
		w.MaxAge = DefaultMaxAgeDays
	}
	return w
}

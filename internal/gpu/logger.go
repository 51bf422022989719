// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var (
	discard = slog.New(slog.DiscardHandler)
	current atomic.Pointer[slog.Logger]
)

// slogger returns the logger for pipeline and device diagnostics. It is
// silent until SetLogger is called.
func slogger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return discard
}

// SetLogger replaces the package logger; nil silences it again. Callers
// normally reach it through gpu.Context.SetLogger, which seamcarve.SetLogger
// invokes for every open GPU backend.
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

// EngineOption configures an Engine at construction time. Grounded on the
// teacher's DynSszOption functional-options pattern (options.go).
type EngineOption func(*EngineOptions)

// EngineOptions holds the engine's tunables.
type EngineOptions struct {
	// Verbose enables LogCb calls for struct definition and schema load
	// events in addition to their own returned errors.
	Verbose bool
	// LogCb receives diagnostic messages; defaults to a no-op.
	LogCb func(format string, args ...any)
}

// WithVerbose turns on diagnostic logging via LogCb.
func WithVerbose() EngineOption {
	return func(opts *EngineOptions) {
		opts.Verbose = true
	}
}

// WithLogCb overrides the log callback, e.g. to route through an
// application's own logger.
func WithLogCb(logCb func(format string, args ...any)) EngineOption {
	return func(opts *EngineOptions) {
		opts.LogCb = logCb
	}
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

var globalEngine *Engine

// GetGlobalEngine returns the process-wide Engine, creating it with
// default options on first use. Most programs need only one Engine;
// GetGlobalEngine/SetGlobalEngine mirror the teacher's
// GetGlobalDynSsz/SetGlobalSpecs singleton (global.go).
func GetGlobalEngine() *Engine {
	if globalEngine == nil {
		globalEngine = NewEngine()
	}
	return globalEngine
}

// SetGlobalEngine replaces the process-wide Engine, e.g. to install one
// built with non-default EngineOptions before any package-level helper is
// used.
func SetGlobalEngine(e *Engine) {
	globalEngine = e
}

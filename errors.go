// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import "errors"

// Sentinel error kinds for the serialization engine. Call sites wrap these
// with fmt.Errorf("...: %w", ErrX) so callers can still errors.Is against
// the kind while getting a specific message.
var (
	// ErrUnsupportedType means no registered value-serializer supports a
	// referenced type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDuplicateSerializer means a registered value-serializer's
	// supported type domain overlaps an existing registration.
	ErrDuplicateSerializer = errors.New("duplicate serializer")

	// ErrAlreadySpecialized means a record type (or schema name) was
	// specialized/registered more than once.
	ErrAlreadySpecialized = errors.New("already specialized")

	// ErrNoDefaultConstructor means the mapper could not find a unique
	// parameterless constructor for default activation.
	ErrNoDefaultConstructor = errors.New("no default constructor")

	// ErrNoMatchingConstructor means no constructor's parameter-name
	// sequence matched the parametrized-activation hints.
	ErrNoMatchingConstructor = errors.New("no matching constructor")

	// ErrInvalidMapping covers write-only properties used for reads,
	// readonly fields used outside the activator, and constructor
	// parameter name mismatches.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrProgramMismatch means the serialize and deserialize op lists
	// disagree on their value-serializer type sequence.
	ErrProgramMismatch = errors.New("program mismatch")

	// ErrBufferTooSmall means a write would overflow the destination
	// buffer. A contract violation by the caller, not a wire-format error.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrMalformedBuffer means deserialize encountered a length prefix
	// or structure that would read past the buffer.
	ErrMalformedBuffer = errors.New("malformed buffer")

	// ErrUnregisteredType means Engine.Serialize/Deserialize/
	// GetSizeFromValue was called for a type with no compiled program.
	ErrUnregisteredType = errors.New("unregistered type")
)

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"fmt"
	"reflect"
	"sync"
)

// ValueSerializer knows how to encode, decode, and size a single value
// type (or a generic category such as nullable-of-T, array-of-T, or
// map-of-K,V once extended for a concrete T/K/V).
//
// Extendable is implemented by generic-category serializers (nullable,
// array, map, record) that specialize lazily: CanExtend reports whether a
// concrete reflect.Type belongs to the category, and Extend returns a new
// ValueSerializer bound to that concrete type.
type ValueSerializer interface {
	Supports(t reflect.Type) bool
	Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error)
	Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error)
	SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error)
	SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error)
}

// Extendable is implemented by generic-category serializers that must be
// specialized for a concrete type before they can serve lookups.
type Extendable interface {
	CanExtend(t reflect.Type) bool
	Extend(t reflect.Type) (ValueSerializer, error)
}

// registryEntry pairs a serializer with a human-readable name, used purely
// for duplicate-registration error messages.
type registryEntry struct {
	name       string
	serializer ValueSerializer
}

// overlapProbeTypes is the well-known set of concrete wire-primitive types
// Register uses to detect two direct (non-Extendable) entries whose
// Supports domains collide, per spec.md §4.1's "fails with
// DuplicateSerializer if the type set overlaps an existing entry". Supports
// is an arbitrary predicate over all of reflect.Type, so exhaustive overlap
// detection is undecidable in general; probing this fixed set of the
// primitive/generic concrete types this engine actually dispatches on
// catches the case the spec cares about — a second codec silently
// shadowing an existing one for a type callers will actually serialize —
// without requiring every ValueSerializer to declare its domain up front.
var overlapProbeTypes = []reflect.Type{
	reflect.TypeOf(false),
	reflect.TypeOf(int8(0)), reflect.TypeOf(uint8(0)),
	reflect.TypeOf(int16(0)), reflect.TypeOf(uint16(0)),
	reflect.TypeOf(int32(0)), reflect.TypeOf(uint32(0)),
	reflect.TypeOf(int64(0)), reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)), reflect.TypeOf(float64(0)),
	charType, reflect.TypeOf(""), durationType, timeType,
	reflect.TypeOf([]byte(nil)),
}

// Registry is the catalogue of primitive codecs and generic categories:
// runtime type -> value-serializer, plus a monotonic specialization-id
// table for record types. Append-only and read-mostly after schema load,
// matching the process-wide TypeCache this engine is grounded on.
type Registry struct {
	mu          sync.RWMutex
	entries     []registryEntry
	byType      map[reflect.Type]ValueSerializer
	typeIDs     map[reflect.Type]uint16
	idTypes     map[uint16]reflect.Type
	nextTypeID  uint16
}

// NewRegistry builds an empty registry (no primitives pre-registered;
// registerPrimitives adds them, as NewEngine does).
func NewRegistry() *Registry {
	return &Registry{
		byType:  make(map[reflect.Type]ValueSerializer),
		typeIDs: make(map[reflect.Type]uint16),
		idTypes: make(map[uint16]reflect.Type),
	}
}

// Register adds a serializer under a descriptive name, failing with
// ErrDuplicateSerializer if its name is already taken or if its Supports
// domain overlaps an existing direct (non-Extendable) entry for any type in
// overlapProbeTypes. Generic-category serializers (Extendable) are appended
// to the extend chain without a direct type-cache hit and are not probed
// for overlap, since CanExtend — not Supports — governs their domain.
func (r *Registry) Register(name string, s ValueSerializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("%w: %q already registered", ErrDuplicateSerializer, name)
		}
	}

	if _, ok := s.(Extendable); !ok {
		for _, t := range overlapProbeTypes {
			if !s.Supports(t) {
				continue
			}
			for _, e := range r.entries {
				if _, extendable := e.serializer.(Extendable); extendable {
					continue
				}
				if e.serializer.Supports(t) {
					return fmt.Errorf("%w: %q overlaps %q for type %s", ErrDuplicateSerializer, name, e.name, t)
				}
			}
		}
	}

	r.entries = append(r.entries, registryEntry{name: name, serializer: s})
	return nil
}

// GetForType returns the unique serializer whose Supports(t) is true,
// extending generic categories on demand. Fails with ErrUnsupportedType if
// none of the registered entries (direct or extendable) supports t.
func (r *Registry) GetForType(t reflect.Type) (ValueSerializer, error) {
	r.mu.RLock()
	if s, ok := r.byType[t]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byType[t]; ok {
		return s, nil
	}

	for _, e := range r.entries {
		if e.serializer.Supports(t) {
			r.byType[t] = e.serializer
			return e.serializer, nil
		}
	}

	for _, e := range r.entries {
		ext, ok := e.serializer.(Extendable)
		if !ok || !ext.CanExtend(t) {
			continue
		}
		specialized, err := ext.Extend(t)
		if err != nil {
			return nil, fmt.Errorf("extending %q for %s: %w", e.name, t, err)
		}
		r.byType[t] = specialized
		return specialized, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// IsExtendable reports whether a named entry can lazily specialize for new
// concrete types (nullable-of-T, array-of-T, map-of-K,V, record).
func (r *Registry) IsExtendable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.name == name {
			_, ok := e.serializer.(Extendable)
			return ok
		}
	}
	return false
}

// Specialize assigns the next monotonically increasing specialization-id
// for a record type. Ids never recycle; fails with ErrAlreadySpecialized
// if t already has one.
func (r *Registry) Specialize(t reflect.Type) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.typeIDs[t]; ok {
		return 0, fmt.Errorf("%w: %s", ErrAlreadySpecialized, t)
	}

	id := r.nextTypeID
	r.nextTypeID++
	r.typeIDs[t] = id
	r.idTypes[id] = t
	return id, nil
}

// TypeForID is the reverse lookup used by buffer-keyed dispatch; it is
// total on the set of specialized types.
func (r *Registry) TypeForID(id uint16) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.idTypes[id]
	return t, ok
}

// IDForType returns the specialization-id previously assigned by Specialize.
func (r *Registry) IDForType(t reflect.Type) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.typeIDs[t]
	return id, ok
}

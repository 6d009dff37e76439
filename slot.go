// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import "reflect"

// MemberKind distinguishes the two ways a Go struct exposes a record slot:
// a plain exported field, or a Get/Set accessor-method pair. Both map to the
// same wire representation. discoverSlots builds MemberField slots only;
// no mapping path creates MemberAccessor slots.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberAccessor
)

// slot describes one member of a record's serialization program: its
// field (or accessor pair), its resolved type, whether it participates in
// the null-mask, and its bit index within that mask if so.
type slot struct {
	name       string
	kind       MemberKind
	index      []int        // reflect.Value.FieldByIndex path, for MemberField
	getterName string       // for MemberAccessor
	setterName string       // for MemberAccessor
	typ        reflect.Type // dereferenced value type (pointer stripped)
	nullable   bool         // true if the source type is a pointer
	maskBit    int          // index into the record's BitField; -1 if not nullable
	ctorParam  string       // wireinit tag value, empty if none
}

// get reads the slot's current value off a struct value (already the
// struct itself, not a pointer to it), returning the nullable pointer
// form when the slot is nullable so callers can test for nil.
func (s *slot) get(structVal reflect.Value) reflect.Value {
	switch s.kind {
	case MemberAccessor:
		return structVal.Addr().MethodByName(s.getterName).Call(nil)[0]
	default:
		return structVal.FieldByIndex(s.index)
	}
}

// set writes v into the slot on a struct value (addressable).
func (s *slot) set(structVal reflect.Value, v reflect.Value) {
	switch s.kind {
	case MemberAccessor:
		structVal.Addr().MethodByName(s.setterName).Call([]reflect.Value{v})
	default:
		structVal.FieldByIndex(s.index).Set(v)
	}
}

// ActivatorKind enumerates the ways a record's zero value is produced
// before its slots are populated during deserialization.
type ActivatorKind uint8

const (
	// ActivatorStructZero reflect.New's the struct directly; used when the
	// mapping configures no constructor, default constructor or factory.
	ActivatorStructZero ActivatorKind = iota
	// ActivatorDefault calls a zero-argument constructor function, then
	// populates slots via their setters/fields as normal.
	ActivatorDefault
	// ActivatorParametrized calls a constructor function with arguments
	// assembled from the slots named by ParametrizedActivation (or, when
	// none are named, the slots whose wireinit tag names a parameter),
	// deserializing those slots first and passing their values in instead
	// of setting them afterward.
	ActivatorParametrized
	// ActivatorIndirect allocates via a factory function that returns the
	// record by pointer (e.g. a pool.Get()-style indirection) rather than
	// composite-literal construction.
	ActivatorIndirect
)

// ObjectActivator describes how to produce a new, populated instance of a
// record type. ctor is nil for ActivatorStructZero.
type ObjectActivator struct {
	Kind       ActivatorKind
	Ctor       reflect.Value
	ParamSlots []int // indices into compiledProgram.slots consumed as ctor args, in order
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

// Package wirecodec implements a binary object serialization engine: given
// a description of a user-defined record type, it compiles specialized
// Serialize, Deserialize, and GetSizeFromValue routines that convert
// between in-memory struct instances and a compact, self-describing byte
// layout. The request/response pipeline, notification center, router, and
// transport layer that would sit on top of this engine in a full
// networking/messaging library are out of scope here — this package
// exposes only the serializer's entry points for them to consume.
package wirecodec

import (
	"fmt"
	"reflect"
	"sync"
)

// Engine is the process-wide façade named "StructSerializer" in spec.md
// §4.6: it owns the value-serializer Registry, the compiled-program cache
// keyed by struct type, and the specialization-id table used to prefix
// top-level buffers. Grounded on the teacher's DynSsz struct (dynssz.go)
// and its type cache (typecache.go).
type Engine struct {
	registry *Registry
	options  *EngineOptions

	mu       sync.RWMutex
	programs map[reflect.Type]*compiledProgram
	schemas  map[string]bool
}

// NewEngine creates an Engine with the default primitive/generic registry
// pre-populated. Grounded on NewDynSsz (dynssz.go), including its
// functional-options pattern.
func NewEngine(options ...EngineOption) *Engine {
	opts := &EngineOptions{
		LogCb: func(format string, args ...any) {},
	}
	for _, o := range options {
		o(opts)
	}

	e := &Engine{
		registry: NewRegistry(),
		options:  opts,
		programs: make(map[reflect.Type]*compiledProgram),
		schemas:  make(map[string]bool),
	}

	registerPrimitives(e.registry)
	_ = e.registry.Register("nullable", nullableCategory{registry: e.registry})
	_ = e.registry.Register("array", arrayCategory{registry: e.registry})
	_ = e.registry.Register("binary", binarySerializer{})
	_ = e.registry.Register("map", mapCategory{registry: e.registry})
	_ = e.registry.Register("record", recordCategory{engine: e})

	return e
}

// Registry exposes the engine's value-serializer catalogue so callers can
// register additional primitive codecs before defining structs that need
// them.
func (e *Engine) Registry() *Registry { return e.registry }

// lookupCompiled is the hook recordCategory uses to resolve nested record
// serializers; it never triggers compilation itself.
func (e *Engine) lookupCompiled(t reflect.Type) (*compiledProgram, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.programs[t]
	return p, ok
}

// DefineStruct runs Analyzer, Compiler, and Interpreter over a mapping and
// installs the result into the struct registry, per spec.md §6's
// `define_struct`. Must be called for every nested record type before the
// outer record that embeds it, since recordCategory resolves nested
// programs eagerly at Extend time.
func (e *Engine) DefineStruct(m *ObjectSerializationMapping) error {
	if err := analyze(e.registry, m); err != nil {
		return err
	}
	ops, err := compileOps(m)
	if err != nil {
		return err
	}
	_ = ops // op-lists exist for the ProgramMismatch check; interpretProgram re-derives the same closures directly from the mapping.

	prog, err := interpretProgram(e.registry, e, m)
	if err != nil {
		return err
	}

	id, err := e.registry.Specialize(m.typ)
	if err != nil {
		return err
	}
	prog.typeID = id

	e.mu.Lock()
	e.programs[m.typ] = prog
	e.mu.Unlock()

	if e.options.Verbose {
		e.options.LogCb("wirecodec: defined struct %s (type id %d)\n", m.typ, id)
	}
	return nil
}

// SupportsType reports whether t has a compiled program installed.
func (e *Engine) SupportsType(t reflect.Type) bool {
	_, ok := e.lookupCompiled(t)
	return ok
}

func (e *Engine) programFor(v reflect.Value) (*compiledProgram, error) {
	t := v.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	prog, ok := e.lookupCompiled(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, t)
	}
	return prog, nil
}

// Serialize writes value's top-level wire representation — a 2-byte
// specialization-type-id prefix followed by the compiled program's own
// serialize output — appending to buf and returning the extended slice.
func (e *Engine) Serialize(value interface{}, buf []byte) ([]byte, error) {
	v := reflect.ValueOf(value)
	prog, err := e.programFor(v)
	if err != nil {
		return nil, err
	}
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var idPrefix [2]byte
	byteOrder.PutUint16(idPrefix[:], prog.typeID)
	buf = append(buf, idPrefix[:]...)
	return prog.serialize(v, buf)
}

// Deserialize reads a top-level record previously written by Serialize,
// dispatching on the 2-byte specialization-type-id at buf[offset].
func (e *Engine) Deserialize(buf []byte, offset int) (interface{}, int, error) {
	if offset+2 > len(buf) {
		return nil, 0, fmt.Errorf("%w: type-id prefix at offset %d", ErrMalformedBuffer, offset)
	}
	id := byteOrder.Uint16(buf[offset : offset+2])
	t, ok := e.registry.TypeForID(id)
	if !ok {
		return nil, 0, fmt.Errorf("%w: type id %d", ErrUnregisteredType, id)
	}
	prog, ok := e.lookupCompiled(t)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnregisteredType, t)
	}
	val, n, err := prog.deserializeNew(buf, offset+2)
	if err != nil {
		return nil, 0, err
	}
	return val.Interface(), n + 2, nil
}

// DeserializeInto reads a top-level record into a caller-supplied pointer,
// reusing its allocation instead of producing a new instance (spec.md
// §4.9's "deserialize-into" variant, serving pooled mutable message
// objects).
func (e *Engine) DeserializeInto(buf []byte, offset int, target interface{}) (int, error) {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr {
		return 0, fmt.Errorf("%w: DeserializeInto target must be a pointer", ErrInvalidMapping)
	}
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: type-id prefix at offset %d", ErrMalformedBuffer, offset)
	}
	id := byteOrder.Uint16(buf[offset : offset+2])
	t, ok := e.registry.TypeForID(id)
	if !ok {
		return 0, fmt.Errorf("%w: type id %d", ErrUnregisteredType, id)
	}
	if tv.Elem().Type() != t {
		return 0, fmt.Errorf("%w: target %s does not match wire type %s", ErrInvalidMapping, tv.Elem().Type(), t)
	}
	prog, ok := e.lookupCompiled(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnregisteredType, t)
	}
	n, err := prog.deserializeInto(buf, offset+2, tv)
	if err != nil {
		return 0, err
	}
	return n + 2, nil
}

// GetSizeFromValue returns the total byte length Serialize would produce
// for value, including the 2-byte type-id prefix.
func (e *Engine) GetSizeFromValue(value interface{}) (uint16, error) {
	v := reflect.ValueOf(value)
	prog, err := e.programFor(v)
	if err != nil {
		return 0, err
	}
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	sz, err := prog.sizeFromValue(v)
	if err != nil {
		return 0, err
	}
	return sz + 2, nil
}

// GetSizeFromBuffer returns the total byte length of the top-level record
// encoded at buf[offset:], including its 2-byte type-id prefix, without
// fully deserializing it.
func (e *Engine) GetSizeFromBuffer(buf []byte, offset int) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: type-id prefix at offset %d", ErrMalformedBuffer, offset)
	}
	id := byteOrder.Uint16(buf[offset : offset+2])
	t, ok := e.registry.TypeForID(id)
	if !ok {
		return 0, fmt.Errorf("%w: type id %d", ErrUnregisteredType, id)
	}
	prog, ok := e.lookupCompiled(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnregisteredType, t)
	}
	sz, err := prog.sizeFromBuffer(buf, offset+2)
	if err != nil {
		return 0, err
	}
	return sz + 2, nil
}

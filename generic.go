// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"fmt"
	"reflect"
)

// nullableSerializer is the generic category for pointer-to-value-type
// fields (Go's stand-in for Option<T>/Nullable<T>). Presence/absence is
// never encoded inline — spec.md's wire format conveys it purely through
// the enclosing record's null-mask — so this serializer only ever runs on
// an already-dereferenced, present value, encoding it identically to T.
// The inner serializer is resolved once, at Extend time, and never looked
// up again per call.
type nullableSerializer struct {
	elem  reflect.Type
	inner ValueSerializer
}

func (s *nullableSerializer) Supports(t reflect.Type) bool {
	return s.elem != nil && t == s.elem
}

func (s *nullableSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	return s.inner.Serialize(ctx, v, buf)
}

func (s *nullableSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	return s.inner.Deserialize(ctx, buf, offset, s.elem)
}

func (s *nullableSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return s.inner.SizeFromValue(ctx, v)
}

func (s *nullableSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return s.inner.SizeFromBuffer(ctx, buf, offset, s.elem)
}

// nullableCategory extends into a nullableSerializer for every pointer to
// a registered value type (excluding pointers to structs, which are
// handled by recordCategory instead so nested records keep their own
// null-mask prologue).
type nullableCategory struct{ registry *Registry }

func (nullableCategory) Supports(t reflect.Type) bool { return false }
func (nullableCategory) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: nullable category accessed directly", ErrUnsupportedType)
}
func (nullableCategory) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	return reflect.Value{}, 0, fmt.Errorf("%w: nullable category accessed directly", ErrUnsupportedType)
}
func (nullableCategory) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return 0, fmt.Errorf("%w: nullable category accessed directly", ErrUnsupportedType)
}
func (nullableCategory) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return 0, fmt.Errorf("%w: nullable category accessed directly", ErrUnsupportedType)
}

func (c nullableCategory) CanExtend(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && t.Elem().Kind() != reflect.Struct
}

func (c nullableCategory) Extend(t reflect.Type) (ValueSerializer, error) {
	inner, err := c.registry.GetForType(t.Elem())
	if err != nil {
		return nil, err
	}
	return &nullableSerializer{elem: t.Elem(), inner: inner}, nil
}

// arraySerializer is the generic category for Go slices ([]T), encoded as
// spec.md's "2-byte unsigned element count, then elements back-to-back".
type arraySerializer struct {
	typ   reflect.Type
	elem  reflect.Type
	inner ValueSerializer
}

func (s *arraySerializer) Supports(t reflect.Type) bool { return t == s.typ }

func (s *arraySerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	n := v.Len()
	if n > 0xFFFF {
		return nil, fmt.Errorf("%w: array of %d elements exceeds 65535", ErrBufferTooSmall, n)
	}
	var prefix [2]byte
	byteOrder.PutUint16(prefix[:], uint16(n))
	buf = append(buf, prefix[:]...)
	var err error
	for i := 0; i < n; i++ {
		buf, err = s.inner.Serialize(ctx, v.Index(i), buf)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return buf, nil
}

func (s *arraySerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+2 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: array count prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	pos := offset + 2
	out := reflect.MakeSlice(s.typ, n, n)
	for i := 0; i < n; i++ {
		elemVal, consumed, err := s.inner.Deserialize(ctx, buf, pos, s.elem)
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(elemVal)
		pos += consumed
	}
	return out, pos - offset, nil
}

func (s *arraySerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	total := uint16(2)
	for i := 0; i < v.Len(); i++ {
		sz, err := s.inner.SizeFromValue(ctx, v.Index(i))
		if err != nil {
			return 0, err
		}
		total += sz
	}
	return total, nil
}

func (s *arraySerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: array count prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	pos := offset + 2
	for i := 0; i < n; i++ {
		sz, err := s.inner.SizeFromBuffer(ctx, buf, pos, s.elem)
		if err != nil {
			return 0, err
		}
		pos += int(sz)
	}
	return uint16(pos - offset), nil
}

type arrayCategory struct{ registry *Registry }

func (arrayCategory) Supports(t reflect.Type) bool { return false }
func (arrayCategory) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: array category accessed directly", ErrUnsupportedType)
}
func (arrayCategory) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	return reflect.Value{}, 0, fmt.Errorf("%w: array category accessed directly", ErrUnsupportedType)
}
func (arrayCategory) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return 0, fmt.Errorf("%w: array category accessed directly", ErrUnsupportedType)
}
func (arrayCategory) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return 0, fmt.Errorf("%w: array category accessed directly", ErrUnsupportedType)
}

func (c arrayCategory) CanExtend(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem() != byteType
}

func (c arrayCategory) Extend(t reflect.Type) (ValueSerializer, error) {
	inner, err := c.registry.GetForType(t.Elem())
	if err != nil {
		return nil, err
	}
	return &arraySerializer{typ: t, elem: t.Elem(), inner: inner}, nil
}

// binarySerializer handles []byte directly as raw binary, avoiding a
// per-element registry round-trip for the overwhelmingly common
// byte-slice case.
type binarySerializer struct{}

func (binarySerializer) Supports(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem() == byteType
}

func (binarySerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	b := v.Bytes()
	if len(b) > 0xFFFF {
		return nil, fmt.Errorf("%w: binary of %d bytes exceeds 65535", ErrBufferTooSmall, len(b))
	}
	var prefix [2]byte
	byteOrder.PutUint16(prefix[:], uint16(len(b)))
	buf = append(buf, prefix[:]...)
	return append(buf, b...), nil
}

func (binarySerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+2 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: binary length prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	start := offset + 2
	if start+n > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: binary of %d bytes at offset %d exceeds buffer", ErrMalformedBuffer, n, start)
	}
	out := make([]byte, n)
	copy(out, buf[start:start+n])
	return reflect.ValueOf(out), 2 + n, nil
}

func (binarySerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return uint16(2 + v.Len()), nil
}

func (binarySerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: binary length prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	return uint16(2 + n), nil
}

// mapSerializer is the generic category for Go maps, encoded as spec.md's
// "2-byte unsigned entry count, then entries as <key><value> pairs".
type mapSerializer struct {
	typ    reflect.Type
	key    reflect.Type
	val    reflect.Type
	keySer ValueSerializer
	valSer ValueSerializer
}

func (s *mapSerializer) Supports(t reflect.Type) bool { return t == s.typ }

func (s *mapSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	n := v.Len()
	if n > 0xFFFF {
		return nil, fmt.Errorf("%w: map of %d entries exceeds 65535", ErrBufferTooSmall, n)
	}
	var prefix [2]byte
	byteOrder.PutUint16(prefix[:], uint16(n))
	buf = append(buf, prefix[:]...)
	var err error
	iter := v.MapRange()
	for iter.Next() {
		buf, err = s.keySer.Serialize(ctx, iter.Key(), buf)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		buf, err = s.valSer.Serialize(ctx, iter.Value(), buf)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
	}
	return buf, nil
}

func (s *mapSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+2 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: map count prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	pos := offset + 2
	out := reflect.MakeMapWithSize(s.typ, n)
	for i := 0; i < n; i++ {
		keyVal, consumed, err := s.keySer.Deserialize(ctx, buf, pos, s.key)
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("map key %d: %w", i, err)
		}
		pos += consumed
		valVal, consumed, err := s.valSer.Deserialize(ctx, buf, pos, s.val)
		if err != nil {
			return reflect.Value{}, 0, fmt.Errorf("map value %d: %w", i, err)
		}
		pos += consumed
		out.SetMapIndex(keyVal, valVal)
	}
	return out, pos - offset, nil
}

func (s *mapSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	total := uint16(2)
	iter := v.MapRange()
	for iter.Next() {
		ksz, err := s.keySer.SizeFromValue(ctx, iter.Key())
		if err != nil {
			return 0, err
		}
		vsz, err := s.valSer.SizeFromValue(ctx, iter.Value())
		if err != nil {
			return 0, err
		}
		total += ksz + vsz
	}
	return total, nil
}

func (s *mapSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: map count prefix at offset %d", ErrMalformedBuffer, offset)
	}
	n := int(byteOrder.Uint16(buf[offset : offset+2]))
	pos := offset + 2
	for i := 0; i < n; i++ {
		ksz, err := s.keySer.SizeFromBuffer(ctx, buf, pos, s.key)
		if err != nil {
			return 0, err
		}
		pos += int(ksz)
		vsz, err := s.valSer.SizeFromBuffer(ctx, buf, pos, s.val)
		if err != nil {
			return 0, err
		}
		pos += int(vsz)
	}
	return uint16(pos - offset), nil
}

type mapCategory struct{ registry *Registry }

func (mapCategory) Supports(t reflect.Type) bool { return false }
func (mapCategory) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: map category accessed directly", ErrUnsupportedType)
}
func (mapCategory) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	return reflect.Value{}, 0, fmt.Errorf("%w: map category accessed directly", ErrUnsupportedType)
}
func (mapCategory) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return 0, fmt.Errorf("%w: map category accessed directly", ErrUnsupportedType)
}
func (mapCategory) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return 0, fmt.Errorf("%w: map category accessed directly", ErrUnsupportedType)
}

func (c mapCategory) CanExtend(t reflect.Type) bool { return t.Kind() == reflect.Map }

func (c mapCategory) Extend(t reflect.Type) (ValueSerializer, error) {
	keySer, err := c.registry.GetForType(t.Key())
	if err != nil {
		return nil, err
	}
	valSer, err := c.registry.GetForType(t.Elem())
	if err != nil {
		return nil, err
	}
	return &mapSerializer{typ: t, key: t.Key(), val: t.Elem(), keySer: keySer, valSer: valSer}, nil
}

// recordSerializer dispatches to a previously compiled program for a
// nested record type, including nested records reached through a pointer
// (the pointer's own presence is conveyed by the parent's null-mask, same
// as nullableSerializer; recordSerializer only ever runs on a present,
// dereferenced value). The program pointer is resolved once, at Extend
// time — nested records must already be defined via Engine.DefineStruct
// before the outer record is, matching the pipeline's "leaves first" order.
type recordSerializer struct {
	typ     reflect.Type
	indirect bool
	prog    *compiledProgram
}

func (s *recordSerializer) Supports(t reflect.Type) bool { return t == s.typ }

func (s *recordSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	if s.indirect {
		v = v.Elem()
	}
	return s.prog.serialize(v, buf)
}

func (s *recordSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	val, n, err := s.prog.deserializeNew(buf, offset)
	if err != nil || !s.indirect {
		return val, n, err
	}
	ptr := reflect.New(s.prog.typ)
	ptr.Elem().Set(val)
	return ptr, n, nil
}

func (s *recordSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	if s.indirect {
		v = v.Elem()
	}
	return s.prog.sizeFromValue(v)
}

func (s *recordSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return s.prog.sizeFromBuffer(buf, offset)
}

// recordCategory extends for any struct (or pointer-to-struct) type
// already installed in the engine's struct registry, letting nested
// record slots resolve through the same Registry lookup path as every
// other slot.
type recordCategory struct{ engine *Engine }

func (recordCategory) Supports(t reflect.Type) bool { return false }
func (recordCategory) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: record category accessed directly", ErrUnsupportedType)
}
func (recordCategory) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	return reflect.Value{}, 0, fmt.Errorf("%w: record category accessed directly", ErrUnsupportedType)
}
func (recordCategory) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return 0, fmt.Errorf("%w: record category accessed directly", ErrUnsupportedType)
}
func (recordCategory) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	return 0, fmt.Errorf("%w: record category accessed directly", ErrUnsupportedType)
}

func (c recordCategory) recordType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func (c recordCategory) CanExtend(t reflect.Type) bool {
	rt := c.recordType(t)
	if rt.Kind() != reflect.Struct {
		return false
	}
	_, ok := c.engine.lookupCompiled(rt)
	return ok
}

func (c recordCategory) Extend(t reflect.Type) (ValueSerializer, error) {
	rt := c.recordType(t)
	prog, ok := c.engine.lookupCompiled(rt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, rt)
	}
	return &recordSerializer{typ: t, indirect: t.Kind() == reflect.Ptr, prog: prog}, nil
}

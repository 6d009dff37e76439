// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"
	"unicode/utf16"
)

// byteOrder is the fixed-width integer/float encoding used by every
// primitive codec. The wire format is host-order in the source C#
// implementation; this engine defaults to little-endian everywhere so the
// same bytes are portable across the machines this repo actually targets,
// leaving endianness as the single parameter DESIGN NOTES mentions adding
// if cross-platform interop is ever required.
var byteOrder = binary.LittleEndian

// primitiveSerializer handles a single fixed-width Go kind via
// encoding/binary, shared by the bool/intN/uintN/floatN registrations.
type primitiveSerializer struct {
	typ  reflect.Type
	size uint16
}

func (p primitiveSerializer) Supports(t reflect.Type) bool { return t == p.typ }

func (p primitiveSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	var tmp [8]byte
	switch p.typ.Kind() {
	case reflect.Bool:
		if v.Bool() {
			tmp[0] = 1
		}
	case reflect.Int8:
		tmp[0] = byte(v.Int())
	case reflect.Uint8:
		tmp[0] = byte(v.Uint())
	case reflect.Int16:
		byteOrder.PutUint16(tmp[:2], uint16(v.Int()))
	case reflect.Uint16:
		byteOrder.PutUint16(tmp[:2], uint16(v.Uint()))
	case reflect.Int32:
		byteOrder.PutUint32(tmp[:4], uint32(v.Int()))
	case reflect.Uint32:
		byteOrder.PutUint32(tmp[:4], uint32(v.Uint()))
	case reflect.Int64:
		byteOrder.PutUint64(tmp[:8], uint64(v.Int()))
	case reflect.Uint64:
		byteOrder.PutUint64(tmp[:8], uint64(v.Uint()))
	case reflect.Float32:
		byteOrder.PutUint32(tmp[:4], math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		byteOrder.PutUint64(tmp[:8], math.Float64bits(v.Float()))
	default:
		return nil, fmt.Errorf("%w: primitive kind %s", ErrUnsupportedType, p.typ.Kind())
	}
	return append(buf, tmp[:p.size]...), nil
}

func (p primitiveSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+int(p.size) > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedBuffer, p.size, offset, len(buf))
	}
	b := buf[offset : offset+int(p.size)]
	rv := reflect.New(p.typ).Elem()
	switch p.typ.Kind() {
	case reflect.Bool:
		rv.SetBool(b[0] != 0)
	case reflect.Int8:
		rv.SetInt(int64(int8(b[0])))
	case reflect.Uint8:
		rv.SetUint(uint64(b[0]))
	case reflect.Int16:
		rv.SetInt(int64(int16(byteOrder.Uint16(b))))
	case reflect.Uint16:
		rv.SetUint(uint64(byteOrder.Uint16(b)))
	case reflect.Int32:
		rv.SetInt(int64(int32(byteOrder.Uint32(b))))
	case reflect.Uint32:
		rv.SetUint(uint64(byteOrder.Uint32(b)))
	case reflect.Int64:
		rv.SetInt(int64(byteOrder.Uint64(b)))
	case reflect.Uint64:
		rv.SetUint(byteOrder.Uint64(b))
	case reflect.Float32:
		rv.SetFloat(float64(math.Float32frombits(byteOrder.Uint32(b))))
	case reflect.Float64:
		rv.SetFloat(math.Float64frombits(byteOrder.Uint64(b)))
	}
	return rv, int(p.size), nil
}

func (p primitiveSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return p.size, nil
}

func (p primitiveSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+int(p.size) > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedBuffer, p.size, offset, len(buf))
	}
	return p.size, nil
}

// charSerializer encodes a Char as a fixed 2-byte UTF-16 code unit.
type charSerializer struct{}

func (charSerializer) Supports(t reflect.Type) bool { return t == charType }

func (charSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	var tmp [2]byte
	byteOrder.PutUint16(tmp[:], uint16(v.Uint()))
	return append(buf, tmp[:]...), nil
}

func (charSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+2 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: char needs 2 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	rv := reflect.New(charType).Elem()
	rv.SetUint(uint64(byteOrder.Uint16(buf[offset : offset+2])))
	return rv, 2, nil
}

func (charSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) { return 2, nil }

func (charSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: char needs 2 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	return 2, nil
}

// stringSerializer encodes a Go string as a 2-byte length prefix followed
// by its UTF-16LE bytes, per spec.md's wire format.
type stringSerializer struct{}

func (stringSerializer) Supports(t reflect.Type) bool { return t.Kind() == reflect.String }

func utf16leEncode(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		byteOrder.PutUint16(out[i*2:i*2+2], u)
	}
	return out
}

func (stringSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	encoded := utf16leEncode(v.String())
	if len(encoded) > 0xFFFF {
		return nil, fmt.Errorf("%w: string too long (%d bytes)", ErrBufferTooSmall, len(encoded))
	}
	var prefix [2]byte
	byteOrder.PutUint16(prefix[:], uint16(len(encoded)))
	buf = append(buf, prefix[:]...)
	return append(buf, encoded...), nil
}

func (stringSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+2 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: string length prefix at offset %d", ErrMalformedBuffer, offset)
	}
	length := int(byteOrder.Uint16(buf[offset : offset+2]))
	start := offset + 2
	if start+length > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: string of %d bytes at offset %d exceeds buffer", ErrMalformedBuffer, length, start)
	}
	units := make([]uint16, length/2)
	for i := range units {
		units[i] = byteOrder.Uint16(buf[start+i*2 : start+i*2+2])
	}
	rv := reflect.New(t).Elem()
	rv.SetString(string(utf16.Decode(units)))
	return rv, 2 + length, nil
}

func (stringSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) {
	return uint16(2 + len(utf16leEncode(v.String()))), nil
}

func (stringSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: string length prefix at offset %d", ErrMalformedBuffer, offset)
	}
	length := int(byteOrder.Uint16(buf[offset : offset+2]))
	if offset+2+length > len(buf) {
		return 0, fmt.Errorf("%w: string of %d bytes at offset %d exceeds buffer", ErrMalformedBuffer, length, offset+2)
	}
	return uint16(2 + length), nil
}

// durationSerializer encodes a time.Duration as its tick count (ns) in a
// fixed 8-byte slot, mirroring how the source engine stores TimeSpan.Ticks.
type durationSerializer struct{}

func (durationSerializer) Supports(t reflect.Type) bool { return t == durationType }

func (durationSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	var tmp [8]byte
	byteOrder.PutUint64(tmp[:], uint64(v.Int()))
	return append(buf, tmp[:]...), nil
}

func (durationSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+8 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: duration needs 8 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	rv := reflect.New(durationType).Elem()
	rv.SetInt(int64(byteOrder.Uint64(buf[offset : offset+8])))
	return rv, 8, nil
}

func (durationSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) { return 8, nil }

func (durationSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+8 > len(buf) {
		return 0, fmt.Errorf("%w: duration needs 8 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	return 8, nil
}

// timeSerializer encodes a time.Time as UnixNano ticks in a fixed 8-byte slot.
type timeSerializer struct{}

func (timeSerializer) Supports(t reflect.Type) bool { return t == timeType }

func (timeSerializer) Serialize(ctx *Engine, v reflect.Value, buf []byte) ([]byte, error) {
	var tmp [8]byte
	tm := v.Interface().(time.Time)
	byteOrder.PutUint64(tmp[:], uint64(tm.UnixNano()))
	return append(buf, tmp[:]...), nil
}

func (timeSerializer) Deserialize(ctx *Engine, buf []byte, offset int, t reflect.Type) (reflect.Value, int, error) {
	if offset+8 > len(buf) {
		return reflect.Value{}, 0, fmt.Errorf("%w: datetime needs 8 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	ticks := int64(byteOrder.Uint64(buf[offset : offset+8]))
	rv := reflect.New(timeType).Elem()
	rv.Set(reflect.ValueOf(time.Unix(0, ticks).UTC()))
	return rv, 8, nil
}

func (timeSerializer) SizeFromValue(ctx *Engine, v reflect.Value) (uint16, error) { return 8, nil }

func (timeSerializer) SizeFromBuffer(ctx *Engine, buf []byte, offset int, t reflect.Type) (uint16, error) {
	if offset+8 > len(buf) {
		return 0, fmt.Errorf("%w: datetime needs 8 bytes at offset %d", ErrMalformedBuffer, offset)
	}
	return 8, nil
}

// registerPrimitives installs the built-in primitive codecs, grounded on
// the teacher's primitive-kind switch in typecache.go/sszsize.go but keyed
// through the Registry's Supports-based dispatch instead of a type switch.
func registerPrimitives(r *Registry) {
	prims := []struct {
		name string
		typ  reflect.Type
		size uint16
	}{
		{"bool", reflect.TypeOf(false), 1},
		{"int8", reflect.TypeOf(int8(0)), 1},
		{"uint8", reflect.TypeOf(uint8(0)), 1},
		{"int16", reflect.TypeOf(int16(0)), 2},
		{"uint16", reflect.TypeOf(uint16(0)), 2},
		{"int32", reflect.TypeOf(int32(0)), 4},
		{"uint32", reflect.TypeOf(uint32(0)), 4},
		{"int64", reflect.TypeOf(int64(0)), 8},
		{"uint64", reflect.TypeOf(uint64(0)), 8},
		{"float32", reflect.TypeOf(float32(0)), 4},
		{"float64", reflect.TypeOf(float64(0)), 8},
	}
	for _, p := range prims {
		_ = r.Register(p.name, primitiveSerializer{typ: p.typ, size: p.size})
	}
	_ = r.Register("char", charSerializer{})
	_ = r.Register("string", stringSerializer{})
	_ = r.Register("duration", durationSerializer{})
	_ = r.Register("time", timeSerializer{})
}

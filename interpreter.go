// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"fmt"
	"reflect"
)

// compiledSlot pairs a mapping slot with its resolved value-serializer,
// captured once at interpret time per DESIGN NOTES ("resolve once, run
// many") — never looked up again on the hot path.
type compiledSlot struct {
	s   *slot
	ser ValueSerializer
}

// compiledProgram is the Interpreter/Codegen component's output: the three
// specialized routines named in spec.md §4.5, realized as methods closing
// over compiledSlot's pre-resolved serializers instead of re-switching on
// reflect.Kind at every call.
type compiledProgram struct {
	typ                reflect.Type
	typeID             uint16
	engine             *Engine
	nullableCount      int
	activator          ObjectActivator
	activatorSlotCount int
	slots              []compiledSlot
}

// interpretProgram builds a compiledProgram from a mapping whose slot types
// have already been walked by analyze. Registry lookups here hit the
// registry's type cache (populated during analyze), so this never forces a
// fresh extend.
func interpretProgram(reg *Registry, engine *Engine, m *ObjectSerializationMapping) (*compiledProgram, error) {
	slots := make([]compiledSlot, len(m.slots))
	nullableCount := 0
	for i, s := range m.slots {
		ser, err := reg.GetForType(s.typ)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", s.name, err)
		}
		slots[i] = compiledSlot{s: s, ser: ser}
		if s.nullable {
			nullableCount++
		}
	}

	return &compiledProgram{
		typ:                m.typ,
		engine:             engine,
		nullableCount:      nullableCount,
		activator:          m.activator,
		activatorSlotCount: m.activatorSlots,
		slots:              slots,
	}, nil
}

// serialize implements spec.md §4.5.2. v must be a reflect.Value of the
// program's struct type (not a pointer).
func (p *compiledProgram) serialize(v reflect.Value, buf []byte) ([]byte, error) {
	var mask BitField
	maskOffset := -1
	if p.nullableCount > 0 {
		mask = NewBitField(p.nullableCount)
		maskOffset = len(buf)
		buf = append(buf, mask.Bytes()...)
	}

	for _, cs := range p.slots {
		fv := cs.s.get(v)
		if cs.s.nullable {
			if fv.IsNil() {
				mask.SetBit(cs.s.maskBit, true)
				continue
			}
			fv = fv.Elem()
		}
		var err error
		buf, err = cs.ser.Serialize(p.engine, fv, buf)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", cs.s.name, err)
		}
	}

	if maskOffset >= 0 {
		copy(buf[maskOffset:maskOffset+mask.ByteLen()], mask.Bytes())
	}
	return buf, nil
}

// sizeFromValue implements spec.md §4.5.4.
func (p *compiledProgram) sizeFromValue(v reflect.Value) (uint16, error) {
	var total uint16
	if p.nullableCount > 0 {
		total += uint16(bitFieldByteLen(p.nullableCount))
	}
	for _, cs := range p.slots {
		fv := cs.s.get(v)
		if cs.s.nullable {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		sz, err := cs.ser.SizeFromValue(p.engine, fv)
		if err != nil {
			return 0, fmt.Errorf("slot %q: %w", cs.s.name, err)
		}
		total += sz
	}
	return total, nil
}

// sizeFromBuffer implements the buffer-driven half of spec.md §4.5.4,
// walking the wire layout without allocating slot values.
func (p *compiledProgram) sizeFromBuffer(buf []byte, offset int) (uint16, error) {
	start := offset
	var mask BitField
	if p.nullableCount > 0 {
		n := bitFieldByteLen(p.nullableCount)
		if offset+n > len(buf) {
			return 0, fmt.Errorf("%w: null-mask at offset %d", ErrMalformedBuffer, offset)
		}
		mask = WrapBitField(buf[offset : offset+n])
		offset += n
	}
	for _, cs := range p.slots {
		if cs.s.nullable && mask.GetBit(cs.s.maskBit) {
			continue
		}
		sz, err := cs.ser.SizeFromBuffer(p.engine, buf, offset, cs.s.typ)
		if err != nil {
			return 0, fmt.Errorf("slot %q: %w", cs.s.name, err)
		}
		offset += int(sz)
	}
	return uint16(offset - start), nil
}

// readSlotValue reads one slot's value during deserialize, honoring the
// null-mask: a slot whose bit is set contributes zero bytes and yields a
// nil pointer (spec.md §4.5.3 step 3).
func (p *compiledProgram) readSlotValue(cs compiledSlot, mask BitField, buf []byte, offset int) (reflect.Value, int, error) {
	if cs.s.nullable && mask.GetBit(cs.s.maskBit) {
		return reflect.Zero(reflect.PtrTo(cs.s.typ)), 0, nil
	}
	val, n, err := cs.ser.Deserialize(p.engine, buf, offset, cs.s.typ)
	if err != nil {
		return reflect.Value{}, 0, fmt.Errorf("slot %q: %w", cs.s.name, err)
	}
	if cs.s.nullable {
		ptr := reflect.New(cs.s.typ)
		ptr.Elem().Set(val)
		return ptr, n, nil
	}
	return val, n, nil
}

// activate runs the program's ObjectActivator, returning an addressable
// pointer to a freshly produced instance (spec.md §3's four-arm tagged
// variant, dispatched once per deserialize call).
func (p *compiledProgram) activate(args []reflect.Value) (reflect.Value, error) {
	switch p.activator.Kind {
	case ActivatorStructZero:
		return reflect.New(p.typ), nil
	case ActivatorDefault, ActivatorIndirect:
		out := p.activator.Ctor.Call(nil)
		return addrOfResult(out[0], p.typ), nil
	case ActivatorParametrized:
		out := p.activator.Ctor.Call(args)
		return addrOfResult(out[0], p.typ), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: unknown activator kind %d", ErrInvalidMapping, p.activator.Kind)
	}
}

func addrOfResult(v reflect.Value, typ reflect.Type) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v
	}
	ptr := reflect.New(typ)
	ptr.Elem().Set(v)
	return ptr
}

// deserializeNew implements spec.md §4.5.3, allocating a new instance.
func (p *compiledProgram) deserializeNew(buf []byte, offset int) (reflect.Value, int, error) {
	start := offset
	var mask BitField
	if p.nullableCount > 0 {
		n := bitFieldByteLen(p.nullableCount)
		if offset+n > len(buf) {
			return reflect.Value{}, 0, fmt.Errorf("%w: null-mask at offset %d", ErrMalformedBuffer, offset)
		}
		mask = WrapBitField(buf[offset : offset+n])
		offset += n
	}

	args := make([]reflect.Value, p.activatorSlotCount)
	for i := 0; i < p.activatorSlotCount; i++ {
		v, consumed, err := p.readSlotValue(p.slots[i], mask, buf, offset)
		if err != nil {
			return reflect.Value{}, 0, err
		}
		args[i] = v
		offset += consumed
	}

	instancePtr, err := p.activate(args)
	if err != nil {
		return reflect.Value{}, 0, err
	}
	instance := instancePtr.Elem()

	for i := p.activatorSlotCount; i < len(p.slots); i++ {
		cs := p.slots[i]
		v, consumed, err := p.readSlotValue(cs, mask, buf, offset)
		if err != nil {
			return reflect.Value{}, 0, err
		}
		cs.s.set(instance, v)
		offset += consumed
	}

	return instance, offset - start, nil
}

// deserializeInto implements the pooled-object variant from SPEC_FULL.md
// §4.9: when the activator is Default or StructZero there is nothing the
// activator would produce that target doesn't already have, so activation
// is skipped and every slot is written straight into the caller's
// instance. Parametrized/Indirect activators still need to run (the
// constructor may do more than field assignment), so those fall back to
// deserializeNew followed by a single struct copy.
func (p *compiledProgram) deserializeInto(buf []byte, offset int, target reflect.Value) (int, error) {
	if p.activator.Kind != ActivatorDefault && p.activator.Kind != ActivatorStructZero {
		val, n, err := p.deserializeNew(buf, offset)
		if err != nil {
			return 0, err
		}
		target.Elem().Set(val)
		return n, nil
	}

	start := offset
	var mask BitField
	if p.nullableCount > 0 {
		n := bitFieldByteLen(p.nullableCount)
		if offset+n > len(buf) {
			return 0, fmt.Errorf("%w: null-mask at offset %d", ErrMalformedBuffer, offset)
		}
		mask = WrapBitField(buf[offset : offset+n])
		offset += n
	}

	instance := target.Elem()
	for _, cs := range p.slots {
		v, consumed, err := p.readSlotValue(cs, mask, buf, offset)
		if err != nil {
			return 0, err
		}
		cs.s.set(instance, v)
		offset += consumed
	}
	return offset - start, nil
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"fmt"
	"reflect"
)

// ObjectSerializationMapping is the output of the Mapper: a record type, its
// ordered slots, and the activator used to bring instances to life during
// deserialization. Slots already appear in final program order: any
// activator-consumed slots come first (in constructor-argument order),
// followed by the remaining post-construction slots — the same order the
// Compiler uses for both the serialize and deserialize op-lists, so
// null-mask bit indexing agrees between the two routines without further
// reordering downstream.
type ObjectSerializationMapping struct {
	typ            reflect.Type
	slots          []*slot
	activatorSlots int // number of leading slots consumed by the activator
	activator      ObjectActivator
}

// MappingBuilder is the fluent configuration surface named in spec.md §4.2.
// Build() runs the mapper algorithm: auto-discovery, activator resolution,
// slot reordering, and null-mask bit assignment.
type MappingBuilder struct {
	typ              reflect.Type
	values           []string
	publicFields     bool
	publicProperties bool
	ctorParams       []string
	ctor             reflect.Value
	defaultCtor      reflect.Value
	indirect         reflect.Value
	err              error
}

// Map begins a mapping for a concrete (non-interface, non-pointer) struct
// type, failing later at Build() if t is not concrete.
func Map(t reflect.Type) *MappingBuilder {
	return &MappingBuilder{typ: t}
}

// Values names exactly the slots to include (struct field names, honoring
// `wire` tag overrides), in the given order. Per spec.md §4.2's builder
// table, Values alone yields exactly that slot set; PublicFields/
// PublicProperties opts back into auto-discovering the remaining exported
// fields after them. Calling Values with no auto-discovery flag set is
// "include exactly these slots", not "these slots first, then everything
// else" — omitting any exported field here excludes it from the mapping
// unless a flag says otherwise.
func (b *MappingBuilder) Values(names ...string) *MappingBuilder {
	b.values = append(b.values, names...)
	return b
}

// PublicFields opts into auto-discovering every exported struct field not
// already named by Values, appended after them in declaration order. With
// no Values() call at all, this is also the implicit default — a bare
// Map(t).Build() auto-discovers every exported field, matching spec.md
// §4.2's "no explicit value list" case.
func (b *MappingBuilder) PublicFields() *MappingBuilder {
	b.publicFields = true
	return b
}

// PublicProperties opts into auto-discovering the exported struct fields
// not already named by Values. Go has no distinct "property" kind, so this
// auto-discovers the same exported-field set PublicFields does (no Get/Set
// accessor-method pairs are discovered);
// kept as its own method to mirror spec.md §4.2's builder table, which
// names public_fields() and public_properties() as separate flags.
func (b *MappingBuilder) PublicProperties() *MappingBuilder {
	b.publicProperties = true
	return b
}

// ParametrizedActivation names, in argument order, the slots passed to the
// constructor supplied via Ctor; those slots become the activator's inputs
// and are read before construction during deserialization. Build checks
// only that the constructor's argument count equals len(paramNames).
func (b *MappingBuilder) ParametrizedActivation(paramNames ...string) *MappingBuilder {
	b.ctorParams = append(b.ctorParams, paramNames...)
	return b
}

// Ctor supplies the constructor function consumed by ParametrizedActivation.
// Its signature must be func(argTypes...) T or func(argTypes...) *T, with
// one argument per name passed to ParametrizedActivation, in that order.
func (b *MappingBuilder) Ctor(fn interface{}) *MappingBuilder {
	b.ctor = reflect.ValueOf(fn)
	return b
}

// DefaultConstructor selects a zero-argument constructor function; all
// slots are written after it returns. Mutually exclusive with
// ParametrizedActivation/IndirectActivation.
func (b *MappingBuilder) DefaultConstructor(fn interface{}) *MappingBuilder {
	b.defaultCtor = reflect.ValueOf(fn)
	return b
}

// IndirectActivation uses a caller-supplied, zero-argument factory
// (e.g. a pool.Get()-style indirection); remaining slots are written after.
func (b *MappingBuilder) IndirectActivation(factory interface{}) *MappingBuilder {
	b.indirect = reflect.ValueOf(factory)
	return b
}

// Build runs the mapper algorithm described in spec.md §4.2.
func (b *MappingBuilder) Build() (*ObjectSerializationMapping, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.typ == nil || b.typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: mapping target must be a concrete struct type, got %v", ErrInvalidMapping, b.typ)
	}

	autoDiscover := b.publicFields || b.publicProperties || len(b.values) == 0
	candidates, err := discoverSlots(b.typ, b.values, autoDiscover)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*slot, len(candidates))
	for _, s := range candidates {
		byName[s.name] = s
		if s.ctorParam != "" {
			if _, exists := byName[s.ctorParam]; !exists {
				byName[s.ctorParam] = s
			}
		}
	}

	activator, activatorSlotNames, err := resolveActivator(b, candidates)
	if err != nil {
		return nil, err
	}

	ordered := make([]*slot, 0, len(candidates))
	consumed := make(map[*slot]bool, len(activatorSlotNames))
	for _, name := range activatorSlotNames {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: constructor parameter %q has no matching slot", ErrNoMatchingConstructor, name)
		}
		activator.ParamSlots = append(activator.ParamSlots, len(ordered))
		ordered = append(ordered, s)
		consumed[s] = true
	}
	for _, s := range candidates {
		if !consumed[s] {
			ordered = append(ordered, s)
		}
	}

	bit := 0
	for _, s := range ordered {
		if s.nullable {
			s.maskBit = bit
			bit++
		} else {
			s.maskBit = -1
		}
	}

	return &ObjectSerializationMapping{
		typ:            b.typ,
		slots:          ordered,
		activatorSlots: len(activatorSlotNames),
		activator:      activator,
	}, nil
}

// discoverSlots enumerates struct fields per spec.md §4.2's builder table:
// explicit `values` names first (in call order), then — only when
// autoDiscover is true (PublicFields/PublicProperties was called, or no
// explicit values were given at all) — the remaining exported fields in
// declaration order, skipping `wire:"-"` and anything already included
// explicitly. With values non-empty and autoDiscover false, the result is
// exactly that named set: the spec's "include exactly these slots"
// contract, not "these slots first, then everything else".
func discoverSlots(t reflect.Type, values []string, autoDiscover bool) ([]*slot, error) {
	allByName := make(map[string]*slot)
	var declOrder []*slot

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := parseFieldTag(f)
		if tag.skip {
			continue
		}
		s := &slot{
			name:      tag.name,
			kind:      MemberField,
			index:     f.Index,
			typ:       f.Type,
			nullable:  f.Type.Kind() == reflect.Ptr,
			ctorParam: tag.ctorParam,
		}
		if s.nullable {
			s.typ = f.Type.Elem()
		}
		allByName[s.name] = s
		declOrder = append(declOrder, s)
	}

	var ordered []*slot
	seen := make(map[string]bool, len(values))
	for _, name := range values {
		s, ok := allByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: explicit value %q is not a field of %s", ErrInvalidMapping, name, t)
		}
		ordered = append(ordered, s)
		seen[name] = true
	}
	if autoDiscover {
		for _, s := range declOrder {
			if !seen[s.name] {
				ordered = append(ordered, s)
			}
		}
	}

	return ordered, nil
}

// resolveActivator picks the ObjectActivator variant per spec.md §4.2 step 3.
// Go structs have no language-level parameterless-constructor concept, so
// the Go-idiomatic default (no explicit constructor/factory supplied) is
// StructZero — the struct's own zero value — rather than failing with
// NoDefaultConstructor, which the spec reserves for languages where a
// constructor is mandatory. This is a deliberate deviation recorded in
// DESIGN.md.
//
// When ParametrizedActivation wasn't called explicitly but Ctor was,
// SPEC_FULL.md §4.7's `wireinit` struct tag supplies the parameter list
// instead: every candidate slot tagged `wireinit:"..."` becomes a
// constructor argument, in the order its slot appears in candidates.
func resolveActivator(b *MappingBuilder, candidates []*slot) (ObjectActivator, []string, error) {
	ctorParams := b.ctorParams
	if len(ctorParams) == 0 && b.ctor.IsValid() {
		for _, s := range candidates {
			if s.ctorParam != "" {
				ctorParams = append(ctorParams, s.ctorParam)
			}
		}
	}

	switch {
	case len(ctorParams) > 0:
		if !b.ctor.IsValid() {
			return ObjectActivator{}, nil, fmt.Errorf("%w: ParametrizedActivation requires Ctor", ErrNoMatchingConstructor)
		}
		ctorType := b.ctor.Type()
		if ctorType.Kind() != reflect.Func || ctorType.NumIn() != len(ctorParams) {
			return ObjectActivator{}, nil, fmt.Errorf("%w: constructor arity %d does not match %d parameter hints", ErrNoMatchingConstructor, ctorType.NumIn(), len(ctorParams))
		}
		return ObjectActivator{Kind: ActivatorParametrized, Ctor: b.ctor}, ctorParams, nil

	case b.indirect.IsValid():
		if b.indirect.Type().Kind() != reflect.Func || b.indirect.Type().NumIn() != 0 {
			return ObjectActivator{}, nil, fmt.Errorf("%w: IndirectActivation factory must take no arguments", ErrInvalidMapping)
		}
		return ObjectActivator{Kind: ActivatorIndirect, Ctor: b.indirect}, nil, nil

	case b.defaultCtor.IsValid():
		if b.defaultCtor.Type().Kind() != reflect.Func || b.defaultCtor.Type().NumIn() != 0 {
			return ObjectActivator{}, nil, fmt.Errorf("%w: DefaultConstructor must take no arguments", ErrNoDefaultConstructor)
		}
		return ObjectActivator{Kind: ActivatorDefault, Ctor: b.defaultCtor}, nil, nil

	default:
		return ObjectActivator{Kind: ActivatorStructZero}, nil, nil
	}
}

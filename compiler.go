// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import "fmt"

// opKind tags the variants of compiler.go's small op set (spec.md §3's Op
// tagged variant, folded here into the minimum needed to drive the
// interpreter: activation happens once per program, value ops happen once
// per slot).
type opKind uint8

const (
	opDefaultActivation opKind = iota
	opParametrizedActivation
	opIndirectActivation
	opStructZeroActivation
	opSerializeValue
)

// op is one compiled instruction. Activation ops carry the activator
// itself; SerializeValue ops carry the slot they read or write.
type op struct {
	kind opKind
	act  ObjectActivator
	slot *slot
}

// compiledOps is the output of the Compiler: spec.md §4.3's two op-lists.
// compileOps checks that their value-op counts agree (ProgramMismatch).
type compiledOps struct {
	serializeOps   []op
	deserializeOps []op
}

// compileOps lowers a mapping to serialize/deserialize op-lists per
// spec.md §4.3. Mapper has already placed activator-consumed slots first
// in mapping.slots, so both op-lists share one slot ordering; activation
// itself only ever appears as the deserialize program's first op (there is
// nothing to "activate" on the serialize side — the value already exists).
func compileOps(m *ObjectSerializationMapping) (*compiledOps, error) {
	var actKind opKind
	switch m.activator.Kind {
	case ActivatorDefault:
		actKind = opDefaultActivation
	case ActivatorParametrized:
		actKind = opParametrizedActivation
	case ActivatorIndirect:
		actKind = opIndirectActivation
	case ActivatorStructZero:
		actKind = opStructZeroActivation
	default:
		return nil, fmt.Errorf("%w: unknown activator kind %d", ErrInvalidMapping, m.activator.Kind)
	}

	serializeOps := make([]op, 0, len(m.slots))
	for _, s := range m.slots {
		serializeOps = append(serializeOps, op{kind: opSerializeValue, slot: s})
	}

	deserializeOps := make([]op, 0, len(m.slots)+1)
	deserializeOps = append(deserializeOps, op{kind: actKind, act: m.activator})
	for _, s := range m.slots {
		deserializeOps = append(deserializeOps, op{kind: opSerializeValue, slot: s})
	}

	serTypeCount := len(serializeOps)
	deserValueOps := len(deserializeOps) - 1
	if serTypeCount != deserValueOps {
		return nil, fmt.Errorf("%w: %d serialize value-ops vs %d deserialize value-ops", ErrProgramMismatch, serTypeCount, deserValueOps)
	}

	return &compiledOps{serializeOps: serializeOps, deserializeOps: deserializeOps}, nil
}

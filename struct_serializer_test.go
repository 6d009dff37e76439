// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type scenarioPoint struct {
	X int32
	Y int32
}

type scenarioOpt struct {
	A *int32
	B int32
}

type scenarioString struct {
	Str string
}

type scenarioArray struct {
	Xs []int32
}

type scenarioNamed struct {
	Name string
	ID   int32
}

type scenarioNamedDefault struct {
	Name string
	ID   int32
}

func newScenarioNamed(name string, id int32) scenarioNamed {
	return scenarioNamed{Name: name, ID: id}
}

func mustDefine(t *testing.T, e *Engine, typ reflect.Type, configure func(*MappingBuilder) *MappingBuilder) *compiledProgram {
	t.Helper()
	b := Map(typ)
	if configure != nil {
		b = configure(b)
	}
	mapping, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(mapping))
	prog, ok := e.lookupCompiled(typ)
	require.True(t, ok)
	return prog
}

func TestScenarioPointNoNullables(t *testing.T) {
	e := NewEngine()
	prog := mustDefine(t, e, reflect.TypeOf(scenarioPoint{}), nil)

	buf, err := prog.serialize(reflect.ValueOf(scenarioPoint{X: 7, Y: -3}), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x07, 0x00, 0x00, 0x00, 0xFD, 0xFF, 0xFF, 0xFF}, buf)

	val, n, err := prog.deserializeNew(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, scenarioPoint{X: 7, Y: -3}, val.Interface())
}

func TestScenarioOptNullAbsent(t *testing.T) {
	e := NewEngine()
	prog := mustDefine(t, e, reflect.TypeOf(scenarioOpt{}), nil)

	buf, err := prog.serialize(reflect.ValueOf(scenarioOpt{A: nil, B: 1}), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x01, 0x00, 0x00, 0x00}, buf)

	val, n, err := prog.deserializeNew(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	got := val.Interface().(scenarioOpt)
	require.Nil(t, got.A)
	require.Equal(t, int32(1), got.B)
}

func TestScenarioOptNullPresent(t *testing.T) {
	e := NewEngine()
	prog := mustDefine(t, e, reflect.TypeOf(scenarioOpt{}), nil)

	forty2 := int32(42)
	buf, err := prog.serialize(reflect.ValueOf(scenarioOpt{A: &forty2, B: 1}), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x2A, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, buf)

	val, n, err := prog.deserializeNew(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	got := val.Interface().(scenarioOpt)
	require.NotNil(t, got.A)
	require.Equal(t, int32(42), *got.A)
	require.Equal(t, int32(1), got.B)
}

func TestScenarioStringHi(t *testing.T) {
	e := NewEngine()
	prog := mustDefine(t, e, reflect.TypeOf(scenarioString{}), nil)

	buf, err := prog.serialize(reflect.ValueOf(scenarioString{Str: "Hi"}), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0x00, 0x48, 0x00, 0x69, 0x00}, buf)

	sz, err := prog.sizeFromValue(reflect.ValueOf(scenarioString{Str: "Hi"}))
	require.NoError(t, err)
	require.Equal(t, uint16(6), sz)
}

func TestScenarioArrayOfThree(t *testing.T) {
	e := NewEngine()
	prog := mustDefine(t, e, reflect.TypeOf(scenarioArray{}), nil)

	buf, err := prog.serialize(reflect.ValueOf(scenarioArray{Xs: []int32{1, 2, 3}}), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x03, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}, buf)
	require.Len(t, buf, 14)
}

func TestScenarioParametrizedMatchesDefaultActivation(t *testing.T) {
	e := NewEngine()

	paramProg := mustDefine(t, e, reflect.TypeOf(scenarioNamed{}), func(b *MappingBuilder) *MappingBuilder {
		return b.ParametrizedActivation("Name", "ID").Ctor(newScenarioNamed)
	})
	defaultProg := mustDefine(t, e, reflect.TypeOf(scenarioNamedDefault{}), nil)

	instance := scenarioNamed{Name: "ab", ID: 5}
	paramBuf, err := paramProg.serialize(reflect.ValueOf(instance), nil)
	require.NoError(t, err)

	defaultInstance := scenarioNamedDefault{Name: "ab", ID: 5}
	defaultBuf, err := defaultProg.serialize(reflect.ValueOf(defaultInstance), nil)
	require.NoError(t, err)

	require.Equal(t, paramBuf, defaultBuf)

	val, n, err := paramProg.deserializeNew(paramBuf, 0)
	require.NoError(t, err)
	require.Equal(t, len(paramBuf), n)
	require.Equal(t, instance, val.Interface())
}

func TestEngineTopLevelRoundTripWithTypeIDPrefix(t *testing.T) {
	e := NewEngine()
	mapping, err := Map(reflect.TypeOf(scenarioPoint{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(mapping))

	buf, err := e.Serialize(scenarioPoint{X: 7, Y: -3}, nil)
	require.NoError(t, err)
	require.Len(t, buf, 10) // 2-byte type id + 8 bytes payload

	sz, err := e.GetSizeFromValue(scenarioPoint{X: 7, Y: -3})
	require.NoError(t, err)
	require.Equal(t, uint16(10), sz)

	bufSz, err := e.GetSizeFromBuffer(buf, 0)
	require.NoError(t, err)
	require.Equal(t, sz, bufSz)

	decoded, n, err := e.Deserialize(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, scenarioPoint{X: 7, Y: -3}, decoded)
}

func TestEngineDeserializeInto(t *testing.T) {
	e := NewEngine()
	mapping, err := Map(reflect.TypeOf(scenarioPoint{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(mapping))

	buf, err := e.Serialize(scenarioPoint{X: 1, Y: 2}, nil)
	require.NoError(t, err)

	target := &scenarioPoint{X: 99, Y: 99}
	n, err := e.DeserializeInto(buf, 0, target)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, scenarioPoint{X: 1, Y: 2}, *target)
}

func TestEngineUnregisteredTypeFails(t *testing.T) {
	e := NewEngine()
	_, err := e.Serialize(scenarioPoint{}, nil)
	require.ErrorIs(t, err, ErrUnregisteredType)
}

func TestNestedRecordSlot(t *testing.T) {
	type inner struct {
		V int32
	}
	type outer struct {
		Inner inner
		Tail  int32
	}

	e := NewEngine()
	innerMapping, err := Map(reflect.TypeOf(inner{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(innerMapping))

	outerMapping, err := Map(reflect.TypeOf(outer{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(outerMapping))

	buf, err := e.Serialize(outer{Inner: inner{V: 9}, Tail: 3}, nil)
	require.NoError(t, err)

	decoded, _, err := e.Deserialize(buf, 0)
	require.NoError(t, err)
	require.Equal(t, outer{Inner: inner{V: 9}, Tail: 3}, decoded)
}

func TestMapSlot(t *testing.T) {
	type withMap struct {
		M map[int32]int32
	}
	e := NewEngine()
	mapping, err := Map(reflect.TypeOf(withMap{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(mapping))

	buf, err := e.Serialize(withMap{M: map[int32]int32{1: 10, 2: 20}}, nil)
	require.NoError(t, err)

	decoded, _, err := e.Deserialize(buf, 0)
	require.NoError(t, err)
	require.Equal(t, map[int32]int32{1: 10, 2: 20}, decoded.(withMap).M)
}

func TestSizeAgreementProperty(t *testing.T) {
	e := NewEngine()
	mapping, err := Map(reflect.TypeOf(scenarioArray{})).Build()
	require.NoError(t, err)
	require.NoError(t, e.DefineStruct(mapping))

	v := scenarioArray{Xs: []int32{4, 5, 6, 7}}
	buf, err := e.Serialize(v, nil)
	require.NoError(t, err)

	sizeFromValue, err := e.GetSizeFromValue(v)
	require.NoError(t, err)
	sizeFromBuffer, err := e.GetSizeFromBuffer(buf, 0)
	require.NoError(t, err)

	require.Equal(t, sizeFromValue, sizeFromBuffer)
	require.Equal(t, int(sizeFromValue), len(buf))
}

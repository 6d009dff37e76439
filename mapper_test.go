// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapperPlain struct {
	A int32
	B int32
	C int32 `wire:"-"`
}

func TestMapRejectsNonStruct(t *testing.T) {
	_, err := Map(reflect.TypeOf(int32(0))).Build()
	require.ErrorIs(t, err, ErrInvalidMapping)
}

func TestMapAutoDiscoversDeclarationOrderAndSkipsDash(t *testing.T) {
	m, err := Map(reflect.TypeOf(mapperPlain{})).Build()
	require.NoError(t, err)
	require.Len(t, m.slots, 2)
	require.Equal(t, "A", m.slots[0].name)
	require.Equal(t, "B", m.slots[1].name)
	require.Equal(t, ActivatorStructZero, m.activator.Kind)
}

func TestMapValuesOverridesOrder(t *testing.T) {
	m, err := Map(reflect.TypeOf(mapperPlain{})).Values("B", "A").Build()
	require.NoError(t, err)
	require.Len(t, m.slots, 2)
	require.Equal(t, "B", m.slots[0].name)
	require.Equal(t, "A", m.slots[1].name)
}

func TestMapValuesRejectsUnknownField(t *testing.T) {
	_, err := Map(reflect.TypeOf(mapperPlain{})).Values("Missing").Build()
	require.ErrorIs(t, err, ErrInvalidMapping)
}

func TestMapValuesAloneIsExactSubset(t *testing.T) {
	m, err := Map(reflect.TypeOf(mapperPlain{})).Values("A").Build()
	require.NoError(t, err)
	require.Len(t, m.slots, 1)
	require.Equal(t, "A", m.slots[0].name)
}

func TestMapValuesWithPublicFieldsAppendsRemainder(t *testing.T) {
	m, err := Map(reflect.TypeOf(mapperPlain{})).Values("B").PublicFields().Build()
	require.NoError(t, err)
	require.Len(t, m.slots, 2)
	require.Equal(t, "B", m.slots[0].name)
	require.Equal(t, "A", m.slots[1].name)
}

type mapperTagOnlyCtor struct {
	PersonName string `wireinit:"name"`
	PersonID   int32  `wireinit:"id"`
}

func newMapperTagOnlyCtor(name string, id int32) mapperTagOnlyCtor {
	return mapperTagOnlyCtor{PersonName: name, PersonID: id}
}

func TestCtorWithoutExplicitParametrizedActivationUsesWireinitTags(t *testing.T) {
	m, err := Map(reflect.TypeOf(mapperTagOnlyCtor{})).Ctor(newMapperTagOnlyCtor).Build()
	require.NoError(t, err)
	require.Equal(t, ActivatorParametrized, m.activator.Kind)
	require.Equal(t, 2, m.activatorSlots)
	require.Equal(t, "PersonName", m.slots[0].name)
	require.Equal(t, "PersonID", m.slots[1].name)
}

func TestParametrizedActivationRequiresCtor(t *testing.T) {
	_, err := Map(reflect.TypeOf(scenarioNamed{})).ParametrizedActivation("Name", "ID").Build()
	require.ErrorIs(t, err, ErrNoMatchingConstructor)
}

func TestParametrizedActivationArityMismatch(t *testing.T) {
	ctor := func(name string) scenarioNamed { return scenarioNamed{Name: name} }
	_, err := Map(reflect.TypeOf(scenarioNamed{})).ParametrizedActivation("Name", "ID").Ctor(ctor).Build()
	require.ErrorIs(t, err, ErrNoMatchingConstructor)
}

func TestParametrizedActivationUnknownSlotName(t *testing.T) {
	_, err := Map(reflect.TypeOf(scenarioNamed{})).ParametrizedActivation("Name", "Nope").Ctor(newScenarioNamed).Build()
	require.ErrorIs(t, err, ErrNoMatchingConstructor)
}

func TestParametrizedActivationOrdersConsumedSlotsFirst(t *testing.T) {
	m, err := Map(reflect.TypeOf(scenarioNamed{})).ParametrizedActivation("ID", "Name").Ctor(func(id int32, name string) scenarioNamed {
		return scenarioNamed{Name: name, ID: id}
	}).Build()
	require.NoError(t, err)
	require.Equal(t, 2, m.activatorSlots)
	require.Equal(t, "ID", m.slots[0].name)
	require.Equal(t, "Name", m.slots[1].name)
}

func TestDefaultConstructorRejectsArguments(t *testing.T) {
	ctor := func(extra int32) scenarioPoint { return scenarioPoint{} }
	_, err := Map(reflect.TypeOf(scenarioPoint{})).DefaultConstructor(ctor).Build()
	require.ErrorIs(t, err, ErrNoDefaultConstructor)
}

func TestIndirectActivationRejectsArguments(t *testing.T) {
	factory := func(extra int32) *scenarioPoint { return &scenarioPoint{} }
	_, err := Map(reflect.TypeOf(scenarioPoint{})).IndirectActivation(factory).Build()
	require.ErrorIs(t, err, ErrInvalidMapping)
}

func TestMaskBitsAssignedOnlyToNullableSlotsInFinalOrder(t *testing.T) {
	m, err := Map(reflect.TypeOf(scenarioOpt{})).Build()
	require.NoError(t, err)
	require.Equal(t, 0, m.slots[0].maskBit)
	require.Equal(t, -1, m.slots[1].maskBit)
}

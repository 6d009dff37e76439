// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("int32", primitiveSerializer{typ: reflect.TypeOf(int32(0)), size: 4}))
	err := r.Register("int32", primitiveSerializer{typ: reflect.TypeOf(int32(0)), size: 4})
	require.ErrorIs(t, err, ErrDuplicateSerializer)
}

func TestRegistryRegisterDifferentlyNamedOverlapFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("int32", primitiveSerializer{typ: reflect.TypeOf(int32(0)), size: 4}))

	err := r.Register("int32-alt", primitiveSerializer{typ: reflect.TypeOf(int32(0)), size: 4})
	require.ErrorIs(t, err, ErrDuplicateSerializer)
}

func TestRegistryRegisterExtendableCategoriesNeverOverlap(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("array", arrayCategory{registry: r}))
	require.NoError(t, r.Register("map", mapCategory{registry: r}))
}

func TestRegistryGetForTypeUnsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetForType(reflect.TypeOf(int32(0)))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRegistryGetForTypeCachesResult(t *testing.T) {
	r := NewRegistry()
	registerPrimitives(r)

	s1, err := r.GetForType(reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	s2, err := r.GetForType(reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	require.Equal(t, s1, s2)
	require.Contains(t, r.byType, reflect.TypeOf(int32(0)))
}

func TestRegistryExtendLazily(t *testing.T) {
	r := NewRegistry()
	registerPrimitives(r)
	require.NoError(t, r.Register("array", arrayCategory{registry: r}))

	require.True(t, r.IsExtendable("array"))

	sliceType := reflect.TypeOf([]int32{})
	ser, err := r.GetForType(sliceType)
	require.NoError(t, err)
	require.True(t, ser.Supports(sliceType))

	// a second lookup must return the exact same specialized instance,
	// proving extension only happens once.
	ser2, err := r.GetForType(sliceType)
	require.NoError(t, err)
	require.Same(t, ser, ser2)
}

func TestRegistrySpecializeAssignsMonotonicIDs(t *testing.T) {
	r := NewRegistry()
	type A struct{}
	type B struct{}

	idA, err := r.Specialize(reflect.TypeOf(A{}))
	require.NoError(t, err)
	idB, err := r.Specialize(reflect.TypeOf(B{}))
	require.NoError(t, err)
	require.NotEqual(t, idA, idB)

	_, err = r.Specialize(reflect.TypeOf(A{}))
	require.ErrorIs(t, err, ErrAlreadySpecialized)

	gotA, ok := r.TypeForID(idA)
	require.True(t, ok)
	require.Equal(t, reflect.TypeOf(A{}), gotA)

	gotID, ok := r.IDForType(reflect.TypeOf(B{}))
	require.True(t, ok)
	require.Equal(t, idB, gotID)
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileOpsStructZero(t *testing.T) {
	m, err := Map(reflect.TypeOf(scenarioPoint{})).Build()
	require.NoError(t, err)

	ops, err := compileOps(m)
	require.NoError(t, err)
	require.Len(t, ops.serializeOps, 2)
	require.Len(t, ops.deserializeOps, 3) // 1 activation op + 2 value ops
	require.Equal(t, opStructZeroActivation, ops.deserializeOps[0].kind)
	require.Equal(t, opSerializeValue, ops.deserializeOps[1].kind)
	require.Equal(t, "X", ops.deserializeOps[1].slot.name)
}

func TestCompileOpsParametrized(t *testing.T) {
	m, err := Map(reflect.TypeOf(scenarioNamed{})).ParametrizedActivation("Name", "ID").Ctor(newScenarioNamed).Build()
	require.NoError(t, err)

	ops, err := compileOps(m)
	require.NoError(t, err)
	require.Equal(t, opParametrizedActivation, ops.deserializeOps[0].kind)
	require.Equal(t, ActivatorParametrized, ops.deserializeOps[0].act.Kind)
	require.Len(t, ops.serializeOps, len(ops.deserializeOps)-1)
}

func TestCompileOpsValueOpCountsAgree(t *testing.T) {
	m, err := Map(reflect.TypeOf(scenarioOpt{})).Build()
	require.NoError(t, err)

	ops, err := compileOps(m)
	require.NoError(t, err)
	require.Equal(t, len(ops.serializeOps), len(ops.deserializeOps)-1)
}

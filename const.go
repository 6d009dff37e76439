// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"time"
)

var (
	byteType     = reflect.TypeOf(byte(0))
	charType     = reflect.TypeOf(Char(0))
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// Char is a fixed 2-byte UTF-16 code unit, the wire equivalent of a .NET
// char. Declared as its own type so the registry can dispatch on it
// distinctly from uint16.
type Char uint16

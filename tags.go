// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import (
	"reflect"
	"strings"
)

// fieldTag is the parsed form of a struct field's `wire:"..."` and
// `wireinit:"..."` tags.
type fieldTag struct {
	name      string // overridden wire name, empty if not set
	skip      bool   // true for `wire:"-"`
	ctorParam string // `wireinit:"param"` value, empty if none
}

// parseFieldTag reads the wire/wireinit struct tags off a reflect.StructField.
// An absent `wire` tag defaults the name to the Go field name; `wire:"-"`
// excludes the field from serialization entirely.
func parseFieldTag(f reflect.StructField) fieldTag {
	tag := fieldTag{name: f.Name}

	if raw, ok := f.Tag.Lookup("wire"); ok {
		raw = strings.TrimSpace(raw)
		if raw == "-" {
			tag.skip = true
		} else if raw != "" {
			tag.name = strings.Split(raw, ",")[0]
		}
	}

	if raw, ok := f.Tag.Lookup("wireinit"); ok {
		tag.ctorParam = strings.TrimSpace(raw)
	}

	return tag
}

// getterName/setterName derive the accessor-method names for a slot that a
// record exposes through methods instead of an exported field (e.g. an
// unexported backing field with a Get/Set accessor pair). discoverSlots
// does not call them.
func getterName(field string) string { return "Get" + field }
func setterName(field string) string { return "Set" + field }

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the wirecodec library.

package wirecodec

import "fmt"

// analyze walks every slot type referenced by a mapping and forces the
// registry to extend any not-yet-specialized generic category (nullable,
// array, map, record) before codegen, per spec.md §4.4. Registry.GetForType
// caches by concrete type, so calling analyze twice for the same mapping
// touches no new state — satisfying the idempotence property in spec.md §8.
func analyze(reg *Registry, m *ObjectSerializationMapping) error {
	for _, s := range m.slots {
		if _, err := reg.GetForType(s.typ); err != nil {
			return fmt.Errorf("analyzing slot %q of %s: %w", s.name, m.typ, err)
		}
	}
	return nil
}

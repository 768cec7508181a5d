// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "fmt"

// entry is one flattened handler with its owning module identity.
type entry struct {
	moduleID   string
	moduleName string
	handler    Handler
}

// Registry is the immutable flattened handler sequence built once at
// client construction. Registration order is dispatch order: all of
// module A's handlers before all of module B's.
type Registry struct {
	entries []entry
	modules []Module
}

// NewRegistry validates and flattens the modules. Module IDs must be
// non-empty and unique; a violation fails construction rather than
// surfacing later as silent misrouting.
func NewRegistry(modules ...Module) (*Registry, error) {
	seen := make(map[string]bool, len(modules))
	r := &Registry{modules: append([]Module(nil), modules...)}

	for _, m := range modules {
		if m.ID == "" {
			return nil, fmt.Errorf("dispatch: module %q has an empty ID", m.Name)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("dispatch: duplicate module ID %q", m.ID)
		}
		seen[m.ID] = true

		for _, h := range m.Handlers {
			r.entries = append(r.entries, entry{
				moduleID:   m.ID,
				moduleName: m.Name,
				handler:    h,
			})
		}
	}
	return r, nil
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module {
	return append([]Module(nil), r.modules...)
}

// Len returns the number of flattened handlers.
func (r *Registry) Len() int {
	return len(r.entries)
}

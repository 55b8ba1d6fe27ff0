package model

import "fmt"

// Validate checks the structural invariants a sealed model must satisfy:
// edge endpoints reference model IDs or External, the inherits/implements
// subgraph is acyclic within the project, and every routine and attribute
// has exactly one owner. The builder calls this once after sealing; tests
// call it directly.
func (m *Model) Validate() error {
	for _, e := range m.Edges {
		if e.Source != External && !m.Has(e.Source) {
			return fmt.Errorf("edge %s: unknown source %s", e.Kind, e.Source)
		}
		if e.Target != External && !m.Has(e.Target) {
			return fmt.Errorf("edge %s: unknown target %s", e.Kind, e.Target)
		}
	}

	for _, t := range m.Traces {
		if _, ok := m.Routines[t.Entry]; !ok {
			return fmt.Errorf("trace: unknown entry routine %s", t.Entry)
		}
		for _, h := range t.Hops {
			if h.Caller != External && !m.Has(h.Caller) {
				return fmt.Errorf("trace %s: unknown caller %s", t.Entry, h.Caller)
			}
			if h.Callee != External && !m.Has(h.Callee) {
				return fmt.Errorf("trace %s: unknown callee %s", t.Entry, h.Callee)
			}
		}
	}

	if err := m.checkInheritanceAcyclic(); err != nil {
		return err
	}
	return m.checkOwnership()
}

// checkInheritanceAcyclic verifies the subgraph restricted to inherits and
// implements references is a DAG within the project boundary.
func (m *Model) checkInheritanceAcyclic() error {
	succ := make(map[ID][]ID)
	for _, t := range m.Types {
		for _, r := range append(append([]Ref{}, t.Bases...), t.Implements...) {
			if r.Resolved() {
				succ[t.ID] = append(succ[t.ID], r.Target)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ID]int)
	var visit func(id ID) error
	visit = func(id ID) error {
		color[id] = gray
		for _, next := range succ[id] {
			switch color[next] {
			case gray:
				return fmt.Errorf("inheritance cycle through %s", next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, id := range m.SortedTypeIDs() {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkOwnership verifies routines and attributes each appear in exactly
// one owner collection.
func (m *Model) checkOwnership() error {
	seen := make(map[ID]ID)
	claim := func(member, owner ID) error {
		if prev, ok := seen[member]; ok {
			return fmt.Errorf("%s owned by both %s and %s", member, prev, owner)
		}
		seen[member] = owner
		return nil
	}
	for _, id := range m.SortedModuleIDs() {
		mod := m.Modules[id]
		for _, rid := range mod.Functions {
			if err := claim(rid, mod.ID); err != nil {
				return err
			}
		}
		for _, aid := range mod.Constants {
			if err := claim(aid, mod.ID); err != nil {
				return err
			}
		}
	}
	for _, id := range m.SortedTypeIDs() {
		t := m.Types[id]
		for _, rid := range t.Methods {
			if err := claim(rid, t.ID); err != nil {
				return err
			}
		}
		for _, aid := range append(append([]ID{}, t.Attributes...), t.Constants...) {
			if err := claim(aid, t.ID); err != nil {
				return err
			}
		}
	}

	for _, id := range m.SortedRoutineIDs() {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("routine %s has no owner", id)
		}
	}
	for _, id := range m.SortedAttributeIDs() {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("attribute %s has no owner", id)
		}
	}
	return nil
}

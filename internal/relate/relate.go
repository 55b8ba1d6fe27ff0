// Package relate is the relationship detector. It walks the sealed
// semantic model and infers the non-inheritance edge kinds — module
// imports, composition, aggregation, association — from declared or
// syntactically evident types only. When types are unknown it does not
// speculate; the edge is simply absent.
package relate

import (
	"context"
	"log/slog"

	"github.com/jward/understory/internal/build"
	"github.com/jward/understory/internal/model"
)

// Kinds selects which edge kinds to compute.
type Kinds struct {
	Imports     bool
	Composition bool
	Aggregation bool
	Association bool
}

// AllKinds enables every detectable kind.
func AllKinds() Kinds {
	return Kinds{Imports: true, Composition: true, Aggregation: true, Association: true}
}

// Detector augments the model with relationship edges.
type Detector struct {
	kinds Kinds
	log   *slog.Logger
}

// New creates a Detector.
func New(kinds Kinds, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{kinds: kinds, log: log}
}

// Run infers edges over the whole model. Rules fire at most once per
// (source, target) pair; composition takes priority over aggregation,
// which takes priority over association, so the three passes run in that
// order project-wide. Cancellation is cooperative at entity boundaries.
func (d *Detector) Run(ctx context.Context, m *model.Model, ix *build.Index) {
	if d.kinds.Imports {
		d.importEdges(m)
	}

	claimed := make(map[[2]model.ID]bool)
	passes := []struct {
		enabled bool
		visit   func(*model.Model, *build.Index, *model.TypeDecl, map[[2]model.ID]bool)
	}{
		{d.kinds.Composition, d.composition},
		{d.kinds.Aggregation, d.aggregation},
		{d.kinds.Association, d.association},
	}
	for _, pass := range passes {
		if !pass.enabled {
			continue
		}
		for _, tid := range m.SortedTypeIDs() {
			if ctx.Err() != nil {
				m.Incomplete = true
				return
			}
			pass.visit(m, ix, m.Types[tid], claimed)
		}
	}
}

// importEdges emits one imports edge per resolved import binding.
func (d *Detector) importEdges(m *model.Model) {
	for _, id := range m.SortedModuleIDs() {
		mod := m.Modules[id]
		for _, imp := range mod.Imports {
			if imp.Resolved == "" {
				continue
			}
			if m.HasEdge(model.EdgeImports, mod.ID, imp.Resolved) {
				continue
			}
			m.AddEdge(model.Edge{
				Source:     mod.ID,
				Target:     imp.Resolved,
				Kind:       model.EdgeImports,
				Provenance: model.Provenance{File: mod.Path, Line: imp.Line},
			})
		}
	}
}

// composition: the owner's constructor assigns a freshly-constructed T to
// an attribute.
func (d *Detector) composition(m *model.Model, ix *build.Index, t *model.TypeDecl, claimed map[[2]model.ID]bool) {
	mod := m.Modules[t.Module]
	for _, aid := range t.Attributes {
		a := m.Attributes[aid]
		if a.AssignedNew == "" {
			continue
		}
		target := resolveTypeName(ix, t.Module, a.AssignedNew)
		if target == "" || target == t.ID {
			continue
		}
		pair := [2]model.ID{t.ID, target}
		if claimed[pair] {
			continue
		}
		claimed[pair] = true
		card, optional := attrCardinality(a, mod.Language)
		m.AddEdge(model.Edge{
			Source:      t.ID,
			Target:      target,
			Kind:        model.EdgeComposes,
			Cardinality: card,
			Optional:    optional,
			Provenance:  model.Provenance{File: mod.Path, Line: a.Line},
		})
	}
}

// aggregation: the attribute is assigned from a constructor parameter of
// the owner — a reference to an externally supplied instance.
func (d *Detector) aggregation(m *model.Model, ix *build.Index, t *model.TypeDecl, claimed map[[2]model.ID]bool) {
	mod := m.Modules[t.Module]
	for _, aid := range t.Attributes {
		a := m.Attributes[aid]
		if a.AssignedParam == "" {
			continue
		}
		target := attrTargetType(ix, a, mod.Language)
		if target == "" || target == t.ID {
			continue
		}
		pair := [2]model.ID{t.ID, target}
		if claimed[pair] {
			continue
		}
		claimed[pair] = true
		card, optional := attrCardinality(a, mod.Language)
		m.AddEdge(model.Edge{
			Source:      t.ID,
			Target:      target,
			Kind:        model.EdgeAggregates,
			Cardinality: card,
			Optional:    optional,
			Provenance:  model.Provenance{File: mod.Path, Line: a.Line},
		})
	}
}

// association: a method references T in a parameter type, return type, or
// local annotation, without the owner holding a field of T.
func (d *Detector) association(m *model.Model, ix *build.Index, t *model.TypeDecl, claimed map[[2]model.ID]bool) {
	mod := m.Modules[t.Module]

	fieldTypes := make(map[model.ID]bool)
	for _, aid := range t.Attributes {
		if target := attrTargetType(ix, m.Attributes[aid], mod.Language); target != "" {
			fieldTypes[target] = true
		}
	}

	emit := func(target model.ID, line int, card model.Cardinality, optional bool) {
		if target == "" || target == t.ID || fieldTypes[target] {
			return
		}
		pair := [2]model.ID{t.ID, target}
		if claimed[pair] {
			return
		}
		claimed[pair] = true
		m.AddEdge(model.Edge{
			Source:      t.ID,
			Target:      target,
			Kind:        model.EdgeAssociates,
			Cardinality: card,
			Optional:    optional,
			Provenance:  model.Provenance{File: mod.Path, Line: line},
		})
	}

	consider := func(ref model.Ref, line int) {
		if ref.Text == "" {
			return
		}
		expr := ParseTypeExpr(ref.Text, mod.Language)
		if expr.Name == "" {
			return
		}
		target := ref.Target
		if !ref.Resolved() {
			target = resolveTypeName(ix, t.Module, expr.Name)
		}
		if target == "" || target == model.External {
			return
		}
		card := model.CardinalityOne
		if expr.Many {
			card = model.CardinalityMany
		}
		emit(target, line, card, expr.Optional)
	}

	for _, rid := range t.Methods {
		r := m.Routines[rid]
		for _, p := range r.Params {
			consider(p.Type, r.Span.StartLine)
		}
		consider(r.Returns, r.Span.StartLine)
		for _, l := range r.Locals {
			consider(l.Type, l.Line)
		}
	}
}

// attrTargetType resolves the type an attribute holds, from its declared
// type first, then its constructor evidence.
func attrTargetType(ix *build.Index, a *model.Attribute, language string) model.ID {
	if a.Type.Resolved() {
		return a.Type.Target
	}
	if a.Type.Text != "" {
		expr := ParseTypeExpr(a.Type.Text, language)
		if expr.Name != "" {
			if id := resolveTypeName(ix, a.Module, expr.Name); id != "" {
				return id
			}
		}
	}
	if a.AssignedNew != "" {
		return resolveTypeName(ix, a.Module, a.AssignedNew)
	}
	return ""
}

// attrCardinality derives the cardinality hint from the declared type.
func attrCardinality(a *model.Attribute, language string) (model.Cardinality, bool) {
	if a.Type.Text == "" {
		return model.CardinalityOne, false
	}
	expr := ParseTypeExpr(a.Type.Text, language)
	if expr.Many {
		return model.CardinalityMany, expr.Optional
	}
	return model.CardinalityOne, expr.Optional
}

// resolveTypeName binds a textual type name from a module's viewpoint,
// returning only TypeDecl targets.
func resolveTypeName(ix *build.Index, moduleID model.ID, name string) model.ID {
	id := ix.ResolveName(moduleID, name)
	if id == "" || model.KindOf(id) != model.KindType {
		return ""
	}
	return id
}

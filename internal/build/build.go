// Package build merges per-file raw entity records into the project-wide
// semantic model: it assembles the namespace tree, assigns stable
// identifiers, resolves intra-project references, and seals cross-file
// links. Resolution failure is never fatal — unresolved references bind to
// the External sentinel so the downstream graph stays consistent.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

// ErrIdentifierCollision marks two entities claiming the same identifier
// even after disambiguation. Fatal: the pipeline aborts.
var ErrIdentifierCollision = errors.New("identifier collision")

// Builder constructs the semantic model from sorted file records.
type Builder struct {
	log *slog.Logger
}

// New creates a Builder.
func New(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Build consumes the full record stream (already sorted by relative path)
// and produces the sealed model plus the symbol index used by the later
// pipeline stages. Cancellation is cooperative at entity boundaries.
func (b *Builder) Build(ctx context.Context, root string, records []*frontend.FileRecord) (*model.Model, *Index, error) {
	m := model.NewModel(root)
	ix := newIndex(m)

	// Pass 1: materialise entities and assign identifiers.
	for _, rec := range records {
		if ctx.Err() != nil {
			m.Incomplete = true
			return m, ix, nil
		}
		if err := b.addFile(m, ix, rec); err != nil {
			return nil, nil, err
		}
	}

	// Pass 2: namespace tree and symbol tables need every module present.
	ix.buildTables()

	// Pass 3: resolve imports, then every textual reference.
	for _, id := range m.SortedModuleIDs() {
		if ctx.Err() != nil {
			m.Incomplete = true
			return m, ix, nil
		}
		b.resolveImports(m, ix, m.Modules[id])
	}
	ix.buildImportBindings()
	for _, id := range m.SortedModuleIDs() {
		if ctx.Err() != nil {
			m.Incomplete = true
			return m, ix, nil
		}
		b.sealModule(m, ix, m.Modules[id])
	}

	// Inheritance and implementation links become edges here; the
	// relationship detector adds the non-inheritance kinds later.
	b.breakInheritanceCycles(m)
	b.emitInheritanceEdges(m)

	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("model integrity: %w", err)
	}
	return m, ix, nil
}

// addFile materialises one file's entities.
func (b *Builder) addFile(m *model.Model, ix *Index, rec *frontend.FileRecord) error {
	qname, namespace := moduleQName(rec)
	modID := model.MakeID(model.KindModule, rec.RelPath, qname)
	if _, exists := m.Modules[modID]; exists {
		return fmt.Errorf("%w: module %s", ErrIdentifierCollision, modID)
	}
	mod := &model.Module{
		ID:         modID,
		Path:       rec.RelPath,
		Language:   rec.Language,
		Name:       rec.ModuleName,
		Namespace:  namespace,
		Doc:        rec.Doc,
		BestEffort: rec.BestEffort,
	}
	for _, imp := range rec.Imports {
		mod.Imports = append(mod.Imports, model.Import{
			Kind:     imp.Kind,
			Module:   imp.Module,
			Names:    imp.Names,
			RelDepth: imp.RelDepth,
			Line:     imp.Line,
		})
	}
	m.Modules[modID] = mod
	ix.moduleQNames[qname] = modID

	ids := newIDSpace(b, m, rec.RelPath)

	for ci := range rec.Constants {
		c := &rec.Constants[ci]
		aid, err := ids.claim(model.KindAttribute, c.Name)
		if err != nil {
			return err
		}
		m.Attributes[aid] = attrEntity(aid, c, mod.ID, mod.ID)
		mod.Constants = append(mod.Constants, aid)
	}

	for fi := range rec.Functions {
		f := &rec.Functions[fi]
		rid, err := ids.claim(model.KindRoutine, f.Name)
		if err != nil {
			return err
		}
		m.Routines[rid] = routineEntity(rid, f, mod.ID, mod.ID, typeQualified(rec.Language, qname, namespace, f.Name), rec.BestEffort)
		mod.Functions = append(mod.Functions, rid)
	}

	for ti := range rec.Types {
		t := &rec.Types[ti]
		tid, err := ids.claim(model.KindType, t.Name)
		if err != nil {
			return err
		}
		decl := &model.TypeDecl{
			ID:         tid,
			Name:       t.Name,
			Qualified:  typeQualified(rec.Language, qname, namespace, t.Name),
			Kind:       t.Kind,
			Module:     mod.ID,
			Span:       model.Span{StartLine: t.StartLine, EndLine: t.EndLine},
			Doc:        t.Doc,
			Visibility: t.Visibility,
			Abstract:   t.Abstract,
			Final:      t.Final,
			Decorators: t.Decorators,
			BestEffort: t.BestEffort || rec.BestEffort,
		}
		for _, base := range t.Bases {
			decl.Bases = append(decl.Bases, model.Ref{Text: base})
		}
		for _, impl := range t.Implements {
			decl.Implements = append(decl.Implements, model.Ref{Text: impl})
		}
		for _, trait := range t.Traits {
			decl.Traits = append(decl.Traits, model.Ref{Text: trait})
		}

		for mi := range t.Methods {
			meth := &t.Methods[mi]
			rid, err := ids.claim(model.KindRoutine, t.Name+"."+meth.Name)
			if err != nil {
				return err
			}
			m.Routines[rid] = routineEntity(rid, meth, decl.ID, mod.ID, decl.Qualified+"."+meth.Name, rec.BestEffort)
			decl.Methods = append(decl.Methods, rid)
		}
		for ai := range t.Attrs {
			attr := &t.Attrs[ai]
			aid, err := ids.claim(model.KindAttribute, t.Name+"."+attr.Name)
			if err != nil {
				return err
			}
			m.Attributes[aid] = attrEntity(aid, attr, decl.ID, mod.ID)
			decl.Attributes = append(decl.Attributes, aid)
		}
		for ci := range t.Constants {
			c := &t.Constants[ci]
			aid, err := ids.claim(model.KindAttribute, t.Name+"."+c.Name)
			if err != nil {
				return err
			}
			m.Attributes[aid] = attrEntity(aid, c, decl.ID, mod.ID)
			decl.Constants = append(decl.Constants, aid)
		}

		m.Types[tid] = decl
		mod.Types = append(mod.Types, tid)
	}
	return nil
}

func routineEntity(id model.ID, r *frontend.RoutineRecord, owner, module model.ID, qualified string, bestEffort bool) *model.Routine {
	rt := &model.Routine{
		ID:          id,
		Name:        r.Name,
		Qualified:   qualified,
		Kind:        r.Kind,
		Owner:       owner,
		Module:      module,
		Returns:     model.Ref{Text: r.Returns},
		Static:      r.Static,
		Abstract:    r.Abstract,
		Async:       r.Async,
		Generator:   r.Generator,
		Final:       r.Final,
		Property:    r.Property,
		ClassMethod: r.ClassMethod,
		Visibility:  r.Visibility,
		Span:        model.Span{StartLine: r.StartLine, EndLine: r.EndLine},
		Doc:         r.Doc,
		Decorators:  r.Decorators,
		CallSites:   r.Calls,
		BestEffort:  bestEffort,
	}
	for _, p := range r.Params {
		rt.Params = append(rt.Params, model.Param{
			Name:            p.Name,
			Type:            model.Ref{Text: p.Type},
			HasDefault:      p.HasDefault,
			Default:         p.Default,
			Variadic:        p.Variadic,
			KeywordVariadic: p.KeywordVariadic,
		})
	}
	for _, l := range r.Locals {
		rt.Locals = append(rt.Locals, model.TypedLocal{
			Name:        l.Name,
			Type:        model.Ref{Text: l.Type},
			Line:        l.Line,
			Constructed: l.Constructed,
		})
	}
	return rt
}

func attrEntity(id model.ID, a *frontend.AttrRecord, owner, module model.ID) *model.Attribute {
	return &model.Attribute{
		ID:            id,
		Name:          a.Name,
		Owner:         owner,
		Module:        module,
		Kind:          a.Kind,
		Type:          model.Ref{Text: a.Type},
		Default:       a.Default,
		Static:        a.Static,
		Visibility:    a.Visibility,
		Line:          a.Line,
		AssignedNew:   a.AssignedNew,
		AssignedParam: a.AssignedParam,
	}
}

// idSpace assigns identifiers within one file, applying the deterministic
// ordinal disambiguator on collision.
type idSpace struct {
	b       *Builder
	m       *model.Model
	relpath string
	taken   map[model.ID]int
}

func newIDSpace(b *Builder, m *model.Model, relpath string) *idSpace {
	return &idSpace{b: b, m: m, relpath: relpath, taken: make(map[model.ID]int)}
}

func (s *idSpace) claim(kind model.EntityKind, qualified string) (model.ID, error) {
	id := model.MakeID(kind, s.relpath, qualified)
	n, collided := s.taken[id]
	if !collided {
		s.taken[id] = 0
		return id, nil
	}
	// Ordinal within file; the original qualified name survives on the
	// entity itself.
	n++
	s.taken[id] = n
	dis := model.Disambiguate(id, n)
	if _, again := s.taken[dis]; again {
		return "", fmt.Errorf("%w: %s", ErrIdentifierCollision, dis)
	}
	s.taken[dis] = 0
	s.b.log.Warn("identifier collision disambiguated", "id", string(id), "ordinal", n)
	s.m.AddDiagnostic(model.Diagnostic{
		Category: model.DiagDisambiguated,
		Path:     s.relpath,
		Message:  fmt.Sprintf("duplicate %s %q renamed with ordinal %d", kind, qualified, n),
	})
	return dis, nil
}

// moduleQName derives the module's qualified name and namespace from its
// path and language conventions.
func moduleQName(rec *frontend.FileRecord) (qname, namespace string) {
	noExt := rec.RelPath
	if i := strings.LastIndexByte(noExt, '.'); i > 0 {
		noExt = noExt[:i]
	}
	switch rec.Language {
	case "python":
		parts := strings.Split(noExt, "/")
		if parts[len(parts)-1] == "__init__" {
			parts = parts[:len(parts)-1]
		}
		qname = strings.Join(parts, ".")
		if len(parts) > 1 {
			namespace = strings.Join(parts[:len(parts)-1], ".")
		}
		if qname == "" {
			qname = rec.ModuleName
		}
	case "php":
		namespace = rec.Namespace
		if namespace != "" {
			qname = namespace + "\\" + rec.ModuleName
		} else {
			qname = noExt
		}
	default: // javascript, typescript: effective module path
		qname = noExt
		if i := strings.LastIndexByte(noExt, '/'); i >= 0 {
			namespace = noExt[:i]
		}
	}
	return qname, namespace
}

// breakInheritanceCycles rebinds the reference that closes an inherits/
// implements cycle to External. Cycles only arise from mis-resolved or
// adversarial input; they must degrade, not abort, so the sealed subgraph
// stays a DAG within the project boundary.
func (b *Builder) breakInheritanceCycles(m *model.Model) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[model.ID]int)

	var visit func(id model.ID)
	visit = func(id model.ID) {
		color[id] = gray
		t := m.Types[id]
		if t == nil {
			color[id] = black
			return
		}
		lists := [][]model.Ref{t.Bases, t.Implements}
		for _, refs := range lists {
			for i := range refs {
				ref := &refs[i]
				if !ref.Resolved() {
					continue
				}
				switch color[ref.Target] {
				case gray:
					mod := m.Modules[t.Module]
					b.log.Warn("inheritance cycle broken", "type", string(t.ID), "ref", ref.Text)
					m.AddDiagnostic(model.Diagnostic{
						Category: model.DiagResolutionMiss,
						Path:     mod.Path,
						Line:     t.Span.StartLine,
						Message:  fmt.Sprintf("inheritance cycle through %q broken", ref.Text),
					})
					ref.Target = model.External
				case white:
					visit(ref.Target)
				}
			}
		}
		color[id] = black
	}

	for _, id := range m.SortedTypeIDs() {
		if color[id] == white {
			visit(id)
		}
	}
}

// emitInheritanceEdges adds inherits/implements/uses-trait edges from the
// sealed reference lists.
func (b *Builder) emitInheritanceEdges(m *model.Model) {
	for _, tid := range m.SortedTypeIDs() {
		t := m.Types[tid]
		mod := m.Modules[t.Module]
		prov := model.Provenance{File: mod.Path, Line: t.Span.StartLine}
		for _, ref := range t.Bases {
			m.AddEdge(model.Edge{Source: t.ID, Target: refTarget(ref), Kind: model.EdgeInherits, Provenance: prov})
		}
		for _, ref := range t.Implements {
			m.AddEdge(model.Edge{Source: t.ID, Target: refTarget(ref), Kind: model.EdgeImplements, Provenance: prov})
		}
		for _, ref := range t.Traits {
			m.AddEdge(model.Edge{Source: t.ID, Target: refTarget(ref), Kind: model.EdgeUsesTrait, Provenance: prov})
		}
	}
}

func refTarget(ref model.Ref) model.ID {
	if ref.Resolved() {
		return ref.Target
	}
	return model.External
}

// dedupeRefs coalesces duplicate references, preserving first-seen order.
func dedupeRefs(refs []model.Ref) []model.Ref {
	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		key := r.Text + "\x00" + string(r.Target)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

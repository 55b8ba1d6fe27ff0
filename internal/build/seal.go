package build

import (
	"fmt"
	"strings"

	"github.com/jward/understory/internal/model"
)

// resolveImports binds a module's import declarations to project modules.
// Imports that resolve to nothing inside the project produce no edge; they
// are recorded as an external-dependency annotation on the module.
func (b *Builder) resolveImports(m *model.Model, ix *Index, mod *model.Module) {
	qname, _ := moduleQNameOf(mod)
	for i := range mod.Imports {
		imp := &mod.Imports[i]
		var target model.ID
		switch mod.Language {
		case "python":
			target = ix.ResolveModule(pythonImportTarget(qname, mod, imp))
		case "php":
			// A use statement names a type; the import binds to the module
			// declaring it.
			name := strings.TrimPrefix(imp.Module, "\\")
			if tid, ok := ix.typesByQName[name]; ok {
				target = m.Types[tid].Module
			} else {
				target = ix.ResolveModule(name)
			}
		default: // javascript, typescript
			if imp.Kind == model.ImportRelative || strings.HasPrefix(imp.Module, ".") {
				target = ix.ResolveModulePath(mod.Path, imp.Module)
			}
		}
		if target != "" && target != mod.ID {
			imp.Resolved = target
		} else if target == "" {
			mod.ExternalDeps = appendUnique(mod.ExternalDeps, imp.Module)
		}
	}
}

// pythonImportTarget computes the qualified module name an import refers
// to, folding relative depth against the importing module's package.
func pythonImportTarget(qname string, mod *model.Module, imp *model.Import) string {
	if imp.Kind != model.ImportRelative {
		return imp.Module
	}
	// Depth 1 is the current package; each extra dot climbs one level.
	pkg := mod.Namespace
	for d := 1; d < imp.RelDepth; d++ {
		if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
			pkg = pkg[:i]
		} else {
			pkg = ""
		}
	}
	switch {
	case imp.Module == "":
		return pkg
	case pkg == "":
		return imp.Module
	default:
		return pkg + "." + imp.Module
	}
}

// sealModule rewrites the module's textual references to identifier
// references. Unresolved references bind to External with their original
// text preserved; each miss is recorded once per (file, name).
func (b *Builder) sealModule(m *model.Model, ix *Index, mod *model.Module) {
	missed := make(map[string]bool)
	miss := func(name string, line int) {
		if missed[name] {
			return
		}
		missed[name] = true
		m.AddDiagnostic(model.Diagnostic{
			Category: model.DiagResolutionMiss,
			Path:     mod.Path,
			Line:     line,
			Message:  fmt.Sprintf("unresolved reference %q", name),
		})
	}

	sealRef := func(ref *model.Ref, line int, report bool) {
		if ref.Text == "" || ref.Target != "" {
			return
		}
		if !isNameExpr(ref.Text, mod.Language) {
			return // complex type expression; the detector interprets it
		}
		if id := ix.ResolveName(mod.ID, ref.Text); id != "" && model.KindOf(id) == model.KindType {
			ref.Target = id
			return
		}
		ref.Target = model.External
		if report {
			miss(ref.Text, line)
		}
	}

	for _, tid := range mod.Types {
		t := m.Types[tid]
		for i := range t.Bases {
			sealRef(&t.Bases[i], t.Span.StartLine, true)
		}
		for i := range t.Implements {
			sealRef(&t.Implements[i], t.Span.StartLine, true)
		}
		for i := range t.Traits {
			sealRef(&t.Traits[i], t.Span.StartLine, true)
		}
		t.Bases = dedupeRefs(t.Bases)
		t.Implements = dedupeRefs(t.Implements)
		t.Traits = dedupeRefs(t.Traits)

		for _, rid := range t.Methods {
			b.sealRoutine(m, ix, mod, m.Routines[rid], sealRef)
		}
		for _, aid := range append(append([]model.ID{}, t.Attributes...), t.Constants...) {
			a := m.Attributes[aid]
			sealRef(&a.Type, a.Line, false)
		}
	}
	for _, rid := range mod.Functions {
		b.sealRoutine(m, ix, mod, m.Routines[rid], sealRef)
	}
}

func (b *Builder) sealRoutine(m *model.Model, ix *Index, mod *model.Module, r *model.Routine, sealRef func(*model.Ref, int, bool)) {
	for i := range r.Params {
		sealRef(&r.Params[i].Type, r.Span.StartLine, false)
	}
	sealRef(&r.Returns, r.Span.StartLine, false)
	for i := range r.Locals {
		sealRef(&r.Locals[i].Type, r.Locals[i].Line, false)
	}
}

// isNameExpr reports whether a type expression is a bare identifier or a
// qualified name chain — the forms the builder resolves directly. Anything
// else (generics, unions, nullables) is left to the detector.
func isNameExpr(s, language string) bool {
	if s == "" {
		return false
	}
	sep := byte('.')
	alt := byte('\\')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		case c == sep, language == "php" && c == alt:
		default:
			return false
		}
	}
	return true
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

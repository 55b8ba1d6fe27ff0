package build

import (
	"path"
	"strings"

	"github.com/jward/understory/internal/model"
)

// Index is the project-wide symbol table built alongside the model. The
// relationship detector and the flow analyzer resolve names through it
// using the same cascade the builder applied: file imports first, then the
// current namespace, then the project-wide tree.
type Index struct {
	m *model.Model

	moduleQNames  map[string]model.ID // qualified module name → module
	modulesByPath map[string]model.ID // relpath without extension → module

	typesByQName  map[string]model.ID
	typesBySimple map[string][]model.ID

	routinesByQName map[string]model.ID

	// bindings is the per-module local name table produced by import
	// resolution: local identifier → bound entity.
	bindings map[model.ID]map[string]model.ID
}

func newIndex(m *model.Model) *Index {
	return &Index{
		m:               m,
		moduleQNames:    make(map[string]model.ID),
		modulesByPath:   make(map[string]model.ID),
		typesByQName:    make(map[string]model.ID),
		typesBySimple:   make(map[string][]model.ID),
		routinesByQName: make(map[string]model.ID),
		bindings:        make(map[model.ID]map[string]model.ID),
	}
}

// buildTables fills the lookup tables once every module is materialised.
func (ix *Index) buildTables() {
	for _, id := range ix.m.SortedModuleIDs() {
		mod := ix.m.Modules[id]
		noExt := mod.Path
		if i := strings.LastIndexByte(noExt, '.'); i > 0 {
			noExt = noExt[:i]
		}
		ix.modulesByPath[noExt] = id
	}
	for _, id := range ix.m.SortedTypeIDs() {
		t := ix.m.Types[id]
		if _, taken := ix.typesByQName[t.Qualified]; !taken {
			ix.typesByQName[t.Qualified] = id
		}
		simple := t.Name
		if i := strings.LastIndexByte(simple, '.'); i >= 0 {
			simple = simple[i+1:]
		}
		ix.typesBySimple[simple] = append(ix.typesBySimple[simple], id)
		if simple != t.Name {
			ix.typesBySimple[t.Name] = append(ix.typesBySimple[t.Name], id)
		}
	}
	for _, id := range ix.m.SortedRoutineIDs() {
		r := ix.m.Routines[id]
		if _, taken := ix.routinesByQName[r.Qualified]; !taken {
			ix.routinesByQName[r.Qualified] = id
		}
	}
	for _, list := range ix.typesBySimple {
		model.SortIDs(list)
	}
}

// buildImportBindings derives each module's local-name table from its
// resolved imports.
func (ix *Index) buildImportBindings() {
	for _, id := range ix.m.SortedModuleIDs() {
		mod := ix.m.Modules[id]
		table := make(map[string]model.ID)
		for _, imp := range mod.Imports {
			if imp.Resolved == "" {
				continue
			}
			target := ix.m.Modules[imp.Resolved]
			if target == nil {
				continue
			}
			switch imp.Kind {
			case model.ImportModule:
				local := imp.Module
				if len(imp.Names) == 1 && imp.Names[0].Alias != "" {
					local = imp.Names[0].Alias
				}
				table[local] = imp.Resolved
			default:
				for _, n := range imp.Names {
					if n.Name == "*" && n.Alias != "" {
						// Namespace import: alias refers to the module.
						table[n.Alias] = imp.Resolved
						continue
					}
					local := n.Name
					if n.Alias != "" {
						local = n.Alias
					}
					if sym := ix.symbolInModule(imp.Resolved, n.Name); sym != "" {
						table[local] = sym
					} else {
						table[local] = imp.Resolved
					}
				}
			}
		}
		ix.bindings[id] = table
	}
}

// symbolInModule finds a type or module-level routine named name declared
// in the given module.
func (ix *Index) symbolInModule(moduleID model.ID, name string) model.ID {
	mod := ix.m.Modules[moduleID]
	if mod == nil {
		return ""
	}
	for _, tid := range mod.Types {
		if ix.m.Types[tid].Name == name {
			return tid
		}
	}
	for _, rid := range mod.Functions {
		if ix.m.Routines[rid].Name == name {
			return rid
		}
	}
	for _, aid := range mod.Constants {
		if ix.m.Attributes[aid].Name == name {
			return aid
		}
	}
	return ""
}

// ResolveName resolves a textual reference from the viewpoint of a
// module, returning the bound entity ID or "" when nothing matched. The
// cascade: (a) the file's import bindings, (b) the current file and
// namespace, (c) the project-wide tree when the simple name is unique.
func (ix *Index) ResolveName(moduleID model.ID, name string) model.ID {
	mod := ix.m.Modules[moduleID]
	if mod == nil || name == "" {
		return ""
	}
	name = strings.TrimPrefix(name, "\\")
	sep := "."
	if mod.Language == "php" {
		sep = "\\"
		name = strings.ReplaceAll(name, ".", "\\")
	}

	// (a) import bindings: exact local name, or a dotted chain whose head
	// is a bound module.
	if table := ix.bindings[moduleID]; table != nil {
		if target, ok := table[name]; ok {
			return target
		}
		// A dotted chain whose longest bound prefix is a module resolves
		// inside that module: "pkg.mod.Sym" via an "import pkg.mod".
		prefix := name
		for {
			i := strings.LastIndex(prefix, sep)
			if i < 0 {
				break
			}
			prefix = prefix[:i]
			if target, ok := table[prefix]; ok && model.KindOf(target) == model.KindModule {
				if sym := ix.symbolPath(target, name[len(prefix)+len(sep):], sep); sym != "" {
					return sym
				}
			}
		}
	}

	// (b) current file, then current namespace.
	qname, _ := moduleQNameOf(mod)
	if id, ok := ix.typesByQName[typeQualified(mod.Language, qname, mod.Namespace, name)]; ok {
		return id
	}
	if id, ok := ix.routinesByQName[typeQualified(mod.Language, qname, mod.Namespace, name)]; ok {
		return id
	}
	if mod.Namespace != "" {
		if id, ok := ix.typesByQName[mod.Namespace+sep+name]; ok {
			return id
		}
	}

	// Fully qualified reference.
	if id, ok := ix.typesByQName[name]; ok {
		return id
	}
	if id, ok := ix.moduleQNames[name]; ok {
		return id
	}

	// (c) unique project-wide simple name.
	if !strings.Contains(name, sep) {
		if list := ix.typesBySimple[name]; len(list) == 1 {
			return list[0]
		}
	}
	return ""
}

// symbolPath resolves the first segment of a dotted path inside a module.
// Deeper member chains (attribute of a class, etc.) resolve to the
// outermost symbol, which is as far as static resolution goes here.
func (ix *Index) symbolPath(moduleID model.ID, rest, sep string) model.ID {
	head, _, _ := strings.Cut(rest, sep)
	return ix.symbolInModule(moduleID, head)
}

// ResolveModule resolves a module reference (import target) to a module
// ID, or "".
func (ix *Index) ResolveModule(qname string) model.ID {
	if id, ok := ix.moduleQNames[qname]; ok {
		return id
	}
	return ""
}

// ResolveModulePath resolves a JS-style path (relative, no extension) to a
// module ID.
func (ix *Index) ResolveModulePath(fromPath, source string) model.ID {
	dir := path.Dir(fromPath)
	joined := path.Clean(path.Join(dir, source))
	if id, ok := ix.modulesByPath[joined]; ok {
		return id
	}
	// Directory import: index module.
	if id, ok := ix.modulesByPath[joined+"/index"]; ok {
		return id
	}
	return ""
}

// TypeDeclaring returns the TypeDecl owning a routine, or nil for
// module-level routines.
func (ix *Index) TypeDeclaring(r *model.Routine) *model.TypeDecl {
	if model.KindOf(r.Owner) != model.KindType {
		return nil
	}
	return ix.m.Types[r.Owner]
}

// MRO returns the method resolution order for a type: the type itself,
// then its bases left-to-right depth-first with duplicate suppression.
// Only project types appear; External bases end their branch.
func (ix *Index) MRO(typeID model.ID) []model.ID {
	var order []model.ID
	seen := make(map[model.ID]bool)
	var visit func(id model.ID)
	visit = func(id model.ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		order = append(order, id)
		t := ix.m.Types[id]
		if t == nil {
			return
		}
		for _, base := range t.Bases {
			if base.Resolved() {
				visit(base.Target)
			}
		}
	}
	visit(typeID)
	return order
}

// MethodOn finds a method by name on a type, walking the MRO. The note
// reports when an inherited or tie-broken candidate won.
func (ix *Index) MethodOn(typeID model.ID, name string) (model.ID, string) {
	for i, tid := range ix.MRO(typeID) {
		t := ix.m.Types[tid]
		if t == nil {
			continue
		}
		for _, rid := range t.Methods {
			if ix.m.Routines[rid].Name == name {
				if i == 0 {
					return rid, ""
				}
				return rid, "inherited from " + t.Name
			}
		}
	}
	return "", ""
}

// FunctionIn finds a module-level routine by name in a specific module.
func (ix *Index) FunctionIn(moduleID model.ID, name string) model.ID {
	mod := ix.m.Modules[moduleID]
	if mod == nil {
		return ""
	}
	for _, rid := range mod.Functions {
		if ix.m.Routines[rid].Name == name {
			return rid
		}
	}
	return ""
}

// Binding returns the entity bound to a local name in a module's import
// table, or "".
func (ix *Index) Binding(moduleID model.ID, name string) model.ID {
	if table := ix.bindings[moduleID]; table != nil {
		return table[name]
	}
	return ""
}

// moduleQNameOf recovers the qualified name a module was registered
// under.
func moduleQNameOf(mod *model.Module) (string, string) {
	// The qualified name is the ID's third component.
	parts := strings.SplitN(string(mod.ID), ":", 3)
	if len(parts) == 3 {
		return parts[2], mod.Namespace
	}
	return mod.Name, mod.Namespace
}

// typeQualified builds a type's qualified name: PHP qualifies against the
// namespace, the other languages against the module path.
func typeQualified(language, moduleQName, namespace, name string) string {
	if language == "php" {
		if namespace == "" {
			return name
		}
		return namespace + "\\" + name
	}
	if moduleQName == "" {
		return name
	}
	return moduleQName + "." + name
}

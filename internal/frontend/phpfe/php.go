// Package phpfe is the PHP front-end. The primary path is an in-process
// tree-sitter parse that understands namespaces, use imports, classes,
// interfaces, traits, visibility and doc-blocks. When the syntactic parse
// is unavailable or fails, a regex-based reader extracts a strict subset
// and marks everything it produces best-effort.
package phpfe

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/jward/understory/internal/docparse"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

// FrontEnd parses PHP source files.
type FrontEnd struct {
	opts          frontend.Options
	forceFallback bool
}

// Option configures the front-end.
type Option func(*FrontEnd)

// WithFallbackOnly forces the regex reader, as when the syntactic parse
// library is unavailable.
func WithFallbackOnly() Option {
	return func(fe *FrontEnd) { fe.forceFallback = true }
}

// New creates the PHP front-end.
func New(opts frontend.Options, fopts ...Option) *FrontEnd {
	fe := &FrontEnd{opts: opts}
	for _, o := range fopts {
		o(fe)
	}
	return fe
}

// Language returns the canonical language name.
func (fe *FrontEnd) Language() string { return "php" }

// ParseFile converts one PHP file into raw entity records.
func (fe *FrontEnd) ParseFile(ctx context.Context, relPath string, source []byte) (*frontend.FileRecord, error) {
	if fe.forceFallback {
		return fe.parseFallback(relPath, source)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fe.parseFallback(relPath, source)
	}
	defer tree.Close()

	root := tree.RootNode()
	rec := &frontend.FileRecord{
		RelPath:    relPath,
		Language:   "php",
		ModuleName: strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)),
	}

	state := &phpScan{fe: fe, source: source, rec: rec}
	state.program(root)
	return rec, nil
}

// phpScan carries the per-file traversal state: the current namespace
// qualifies every subsequently declared symbol.
type phpScan struct {
	fe        *FrontEnd
	source    []byte
	rec       *frontend.FileRecord
	namespace string
}

func (s *phpScan) program(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "namespace_definition":
			if name := firstChildOfType(child, "namespace_name"); name != nil {
				s.namespace = s.text(name)
				s.rec.Namespace = s.namespace
			}
			// Braced namespace bodies nest the declarations.
			if body := firstChildOfType(child, "declaration_list"); body != nil {
				s.declarations(body)
			}
		case "namespace_use_declaration":
			s.useImport(child)
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			s.typeDecl(child)
		case "function_definition":
			s.rec.Functions = append(s.rec.Functions, s.routine(child, false))
		case "const_declaration":
			s.rec.Constants = append(s.rec.Constants, s.constants(child, model.Public)...)
		}
	}
}

func (s *phpScan) declarations(body *sitter.Node) {
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			s.typeDecl(child)
		case "function_definition":
			s.rec.Functions = append(s.rec.Functions, s.routine(child, false))
		case "const_declaration":
			s.rec.Constants = append(s.rec.Constants, s.constants(child, model.Public)...)
		}
	}
}

// useImport reads a `use A\B\C as D;` declaration.
func (s *phpScan) useImport(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		clause := node.Child(i)
		if clause.Type() != "namespace_use_clause" {
			continue
		}
		var target, alias string
		for j := 0; j < int(clause.ChildCount()); j++ {
			gc := clause.Child(j)
			switch gc.Type() {
			case "qualified_name", "namespace_name", "name":
				if target == "" {
					target = s.text(gc)
				}
			case "namespace_aliasing_clause":
				if n := firstChildOfType(gc, "name"); n != nil {
					alias = s.text(n)
				}
			}
		}
		if target == "" {
			continue
		}
		short := target
		if k := strings.LastIndexByte(short, '\\'); k >= 0 {
			short = short[k+1:]
		}
		s.rec.Imports = append(s.rec.Imports, frontend.ImportRecord{
			Kind:   model.ImportNamed,
			Module: target,
			Names:  []model.ImportedName{{Name: short, Alias: alias}},
			Line:   line(node),
		})
	}
}

// typeDecl reads one class/interface/trait/enum declaration.
func (s *phpScan) typeDecl(node *sitter.Node) {
	tr := frontend.TypeRecord{
		StartLine:  line(node),
		EndLine:    endLine(node),
		Visibility: model.Public,
	}
	switch node.Type() {
	case "class_declaration":
		tr.Kind = model.TypeClass
	case "interface_declaration":
		tr.Kind = model.TypeInterface
	case "trait_declaration":
		tr.Kind = model.TypeTrait
	case "enum_declaration":
		tr.Kind = model.TypeEnum
	}

	if s.fe.opts.Docstrings {
		if db := precedingDocBlock(node, s.source); db != "" {
			tr.Doc = docparse.ParsePHPDoc(db)
		}
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "abstract_modifier":
			tr.Abstract = true
		case "final_modifier":
			tr.Final = true
		case "name":
			tr.Name = s.text(child)
		case "base_clause":
			tr.Bases = append(tr.Bases, s.names(child)...)
		case "class_interface_clause":
			tr.Implements = append(tr.Implements, s.names(child)...)
		case "declaration_list", "enum_declaration_list":
			body = child
		}
	}
	// Interfaces extend interfaces; the base clause is still inheritance.
	if body != nil {
		s.members(body, &tr)
	}
	s.rec.Types = append(s.rec.Types, tr)
}

func (s *phpScan) members(body *sitter.Node, tr *frontend.TypeRecord) {
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "use_declaration":
			tr.Traits = append(tr.Traits, s.names(child)...)
		case "method_declaration":
			m := s.routine(child, true)
			tr.Methods = append(tr.Methods, m)
			if m.Name == "__construct" {
				tr.Attrs = append(tr.Attrs, s.constructorAttrs(child, m)...)
			}
		case "property_declaration":
			if a := s.property(child); a != nil {
				tr.Attrs = append(tr.Attrs, *a)
			}
		case "const_declaration":
			vis := model.Public
			if v := firstChildOfType(child, "visibility_modifier"); v != nil {
				vis = visibilityOf(s.text(v))
			}
			tr.Constants = append(tr.Constants, s.constants(child, vis)...)
		case "enum_case":
			if n := firstChildOfType(child, "name"); n != nil {
				tr.Constants = append(tr.Constants, frontend.AttrRecord{
					Name:       s.text(n),
					Kind:       model.AttrConstant,
					Line:       line(child),
					Visibility: model.Public,
				})
			}
		}
	}
}

// routine reads a method_declaration or function_definition.
func (s *phpScan) routine(node *sitter.Node, method bool) frontend.RoutineRecord {
	rr := frontend.RoutineRecord{
		Kind:       model.RoutineFunction,
		StartLine:  line(node),
		EndLine:    endLine(node),
		Visibility: model.Public,
	}
	if method {
		rr.Kind = model.RoutineMethod
	}
	if s.fe.opts.Docstrings {
		if db := precedingDocBlock(node, s.source); db != "" {
			rr.Doc = docparse.ParsePHPDoc(db)
		}
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			rr.Visibility = visibilityOf(s.text(child))
		case "static_modifier":
			rr.Static = true
		case "abstract_modifier":
			rr.Abstract = true
		case "final_modifier":
			rr.Final = true
		case "name":
			rr.Name = s.text(child)
		case "formal_parameters":
			rr.Params = s.params(child)
		case "named_type", "optional_type", "primitive_type", "union_type", "type":
			if s.fe.opts.Types {
				rr.Returns = s.text(child)
			}
		case "compound_statement":
			body = child
		case "reference_modifier":
			// by-reference return, not modelled
		}
	}
	if body != nil {
		rr.Calls = s.callSites(body)
		rr.Locals = s.typedLocals(body)
		rr.Generator = containsYield(body)
	}
	return rr
}

func (s *phpScan) params(node *sitter.Node) []frontend.ParamRecord {
	var out []frontend.ParamRecord
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "simple_parameter", "property_promotion_parameter":
			p := frontend.ParamRecord{}
			seenEq := false
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "named_type", "optional_type", "primitive_type", "union_type", "type":
					if s.fe.opts.Types {
						p.Type = s.text(gc)
					}
				case "variable_name":
					p.Name = strings.TrimPrefix(s.text(gc), "$")
				case "=":
					seenEq = true
					p.HasDefault = true
				case "visibility_modifier", "readonly_modifier":
					// promoted constructor property
				default:
					if seenEq && p.Default == "" {
						p.Default = s.text(gc)
					}
				}
			}
			out = append(out, p)
		case "variadic_parameter":
			p := frontend.ParamRecord{Variadic: true}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "named_type", "optional_type", "primitive_type", "union_type", "type":
					if s.fe.opts.Types {
						p.Type = s.text(gc)
					}
				case "variable_name":
					p.Name = strings.TrimPrefix(s.text(gc), "$")
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// property reads a property_declaration into an attribute record.
func (s *phpScan) property(node *sitter.Node) *frontend.AttrRecord {
	a := &frontend.AttrRecord{Kind: model.AttrProperty, Line: line(node), Visibility: model.Public}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			a.Visibility = visibilityOf(s.text(child))
		case "static_modifier":
			a.Static = true
		case "named_type", "optional_type", "primitive_type", "union_type", "type":
			if s.fe.opts.Types {
				a.Type = s.text(child)
			}
		case "property_element":
			seenEq := false
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "variable_name":
					a.Name = strings.TrimPrefix(s.text(gc), "$")
				case "=":
					seenEq = true
				case "property_initializer":
					a.Default = strings.TrimSpace(strings.TrimPrefix(s.text(gc), "="))
				default:
					if seenEq && a.Default == "" {
						a.Default = s.text(gc)
					}
				}
			}
		}
	}
	if a.Name == "" {
		return nil
	}
	return a
}

// constants reads a const_declaration, class-level or top-level.
func (s *phpScan) constants(node *sitter.Node, vis model.Visibility) []frontend.AttrRecord {
	var out []frontend.AttrRecord
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "const_element" {
			continue
		}
		a := frontend.AttrRecord{Kind: model.AttrConstant, Line: line(child), Visibility: vis}
		seenEq := false
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "name":
				a.Name = s.text(gc)
			case "=":
				seenEq = true
			default:
				if seenEq && a.Default == "" {
					a.Default = s.text(gc)
				}
			}
		}
		if a.Name != "" {
			out = append(out, a)
		}
	}
	return out
}

// constructorAttrs scans the constructor for `$this->x = ...` assignments
// and promoted parameters.
func (s *phpScan) constructorAttrs(ctor *sitter.Node, m frontend.RoutineRecord) []frontend.AttrRecord {
	paramTypes := make(map[string]string, len(m.Params))
	for _, p := range m.Params {
		paramTypes[p.Name] = p.Type
	}

	var out []frontend.AttrRecord
	seen := make(map[string]bool)

	// Promoted constructor properties are attributes in their own right.
	if fp := firstChildOfType(ctor, "formal_parameters"); fp != nil {
		for i := 0; i < int(fp.ChildCount()); i++ {
			child := fp.Child(i)
			if child.Type() != "property_promotion_parameter" {
				continue
			}
			a := frontend.AttrRecord{Kind: model.AttrInstance, Line: line(child), Visibility: model.Public}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "visibility_modifier":
					a.Visibility = visibilityOf(s.text(gc))
				case "named_type", "optional_type", "primitive_type", "union_type", "type":
					if s.fe.opts.Types {
						a.Type = s.text(gc)
					}
				case "variable_name":
					a.Name = strings.TrimPrefix(s.text(gc), "$")
				}
			}
			if a.Name != "" && !seen[a.Name] {
				a.AssignedParam = a.Name
				seen[a.Name] = true
				out = append(out, a)
			}
		}
	}

	body := firstChildOfType(ctor, "compound_statement")
	if body == nil {
		return out
	}
	index := make(map[string]int)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "assignment_expression" {
				if a := s.thisAssignment(child, paramTypes); a != nil {
					if idx, dup := index[a.Name]; dup {
						if out[idx].AssignedNew == "" && a.AssignedNew != "" {
							out[idx].AssignedNew = a.AssignedNew
						}
						if out[idx].AssignedParam == "" && a.AssignedParam != "" {
							out[idx].AssignedParam = a.AssignedParam
						}
					} else if !seen[a.Name] {
						seen[a.Name] = true
						index[a.Name] = len(out)
						out = append(out, *a)
					}
				}
			}
			walk(child)
		}
	}
	walk(body)
	return out
}

// thisAssignment reads `$this->name = expr`.
func (s *phpScan) thisAssignment(assign *sitter.Node, paramTypes map[string]string) *frontend.AttrRecord {
	left := assign.Child(0)
	if left == nil || left.Type() != "member_access_expression" {
		return nil
	}
	obj := left.ChildByFieldName("object")
	name := left.ChildByFieldName("name")
	if obj == nil || name == nil || s.text(obj) != "$this" {
		return nil
	}
	a := &frontend.AttrRecord{
		Name:       s.text(name),
		Kind:       model.AttrInstance,
		Line:       line(assign),
		Visibility: model.Public,
	}

	var rhs *sitter.Node
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		if child.Type() == "=" {
			seenEq = true
			continue
		}
		if seenEq && rhs == nil {
			rhs = child
		}
	}
	if rhs == nil {
		return a
	}
	switch rhs.Type() {
	case "object_creation_expression":
		for i := 0; i < int(rhs.ChildCount()); i++ {
			gc := rhs.Child(i)
			if gc.Type() == "name" || gc.Type() == "qualified_name" {
				a.AssignedNew = s.text(gc)
				break
			}
		}
	case "variable_name":
		pname := strings.TrimPrefix(s.text(rhs), "$")
		if t, ok := paramTypes[pname]; ok {
			a.AssignedParam = pname
			if a.Type == "" {
				a.Type = t
			}
		}
	}
	return a
}

// callSites collects call expressions from a method body.
func (s *phpScan) callSites(body *sitter.Node) []model.CallSite {
	var out []model.CallSite
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "function_call_expression":
				if fn := child.ChildByFieldName("function"); fn != nil {
					out = append(out, model.CallSite{Callee: s.text(fn), Line: line(child)})
				}
			case "member_call_expression":
				obj := child.ChildByFieldName("object")
				name := child.ChildByFieldName("name")
				if name != nil {
					cs := model.CallSite{Line: line(child)}
					if obj != nil {
						recv := s.text(obj)
						if recv == "$this" {
							recv = "this"
						} else {
							recv = strings.TrimPrefix(recv, "$")
						}
						cs.Receiver = recv
						cs.Callee = cs.Receiver + "." + s.text(name)
					} else {
						cs.Callee = s.text(name)
					}
					out = append(out, cs)
				}
			case "scoped_call_expression":
				scope := child.ChildByFieldName("scope")
				name := child.ChildByFieldName("name")
				if scope != nil && name != nil {
					out = append(out, model.CallSite{
						Callee:   s.text(scope) + "." + s.text(name),
						Receiver: s.text(scope),
						Line:     line(child),
					})
				}
			}
			walk(child)
		}
	}
	walk(body)
	return out
}

// typedLocals records `$x = new T(...)` constructor assignments.
func (s *phpScan) typedLocals(body *sitter.Node) []frontend.LocalRecord {
	var out []frontend.LocalRecord
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "assignment_expression" {
				left := child.Child(0)
				if left != nil && left.Type() == "variable_name" {
					var rhs *sitter.Node
					seenEq := false
					for j := 0; j < int(child.ChildCount()); j++ {
						gc := child.Child(j)
						if gc.Type() == "=" {
							seenEq = true
							continue
						}
						if seenEq && rhs == nil {
							rhs = gc
						}
					}
					if rhs != nil && rhs.Type() == "object_creation_expression" {
						for j := 0; j < int(rhs.ChildCount()); j++ {
							gc := rhs.Child(j)
							if gc.Type() == "name" || gc.Type() == "qualified_name" {
								out = append(out, frontend.LocalRecord{
									Name:        strings.TrimPrefix(s.text(left), "$"),
									Type:        s.text(gc),
									Line:        line(child),
									Constructed: true,
								})
								break
							}
						}
					}
				}
			}
			walk(child)
		}
	}
	walk(body)
	return out
}

// names collects name/qualified_name children, for base and use clauses.
func (s *phpScan) names(node *sitter.Node) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "name" || child.Type() == "qualified_name" {
			out = append(out, s.text(child))
		}
	}
	return out
}

func (s *phpScan) text(node *sitter.Node) string {
	return string(s.source[node.StartByte():node.EndByte()])
}

// precedingDocBlock returns the /** ... */ comment immediately preceding a
// declaration, if any.
func precedingDocBlock(node *sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	txt := string(source[prev.StartByte():prev.EndByte()])
	if !strings.HasPrefix(txt, "/**") {
		return ""
	}
	return txt
}

func containsYield(body *sitter.Node) bool {
	found := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "yield_expression" {
				found = true
				return
			}
			if child.Type() == "anonymous_function_creation_expression" {
				continue
			}
			walk(child)
		}
	}
	walk(body)
	return found
}

func visibilityOf(s string) model.Visibility {
	switch s {
	case "private":
		return model.Private
	case "protected":
		return model.Protected
	default:
		return model.Public
	}
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return node.Child(i)
		}
	}
	return nil
}

func line(node *sitter.Node) int    { return int(node.StartPoint().Row) + 1 }
func endLine(node *sitter.Node) int { return int(node.EndPoint().Row) + 1 }

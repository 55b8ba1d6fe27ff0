// Package pythonfe is the Python front-end: a static syntactic parse over
// tree-sitter, no evaluation. It extracts classes (top-level and nested),
// methods and module functions with decorator-derived modifiers, instance
// and class attributes, module constants, the three import shapes, and
// leading docstrings.
package pythonfe

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/understory/internal/docparse"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

// FrontEnd parses Python source files.
type FrontEnd struct {
	opts frontend.Options
}

// New creates the Python front-end.
func New(opts frontend.Options) *FrontEnd {
	return &FrontEnd{opts: opts}
}

// Language returns the canonical language name.
func (fe *FrontEnd) Language() string { return "python" }

// ParseFile converts one Python file into raw entity records.
func (fe *FrontEnd) ParseFile(ctx context.Context, relPath string, source []byte) (*frontend.FileRecord, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &frontend.ParseError{Stage: model.StageParse, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	rec := &frontend.FileRecord{
		RelPath:    relPath,
		Language:   "python",
		ModuleName: strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)),
	}

	if fe.opts.Docstrings {
		if ds := blockDocstring(root, source); ds != "" {
			rec.Doc = docparse.ParseDocstring(ds)
		}
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			rec.Imports = append(rec.Imports, importPlain(child, source)...)
		case "import_from_statement":
			if imp, ok := importFrom(child, source); ok {
				rec.Imports = append(rec.Imports, imp)
			}
		case "class_definition":
			fe.collectClass(child, source, nil, "", rec)
		case "decorated_definition":
			decorators, def := splitDecorated(child, source)
			if def == nil {
				continue
			}
			switch def.Type() {
			case "class_definition":
				fe.collectClass(def, source, decorators, "", rec)
			case "function_definition":
				rec.Functions = append(rec.Functions, fe.routine(def, source, decorators, false))
			}
		case "function_definition":
			rec.Functions = append(rec.Functions, fe.routine(child, source, nil, false))
		case "expression_statement":
			if c := moduleConstant(child, source); c != nil {
				rec.Constants = append(rec.Constants, *c)
			}
		}
	}

	// Tree-sitter recovers aggressively; a file that produced nothing but
	// error nodes is a parse failure, not an empty module.
	if root.HasError() && len(rec.Types) == 0 && len(rec.Functions) == 0 &&
		len(rec.Imports) == 0 && len(rec.Constants) == 0 {
		return nil, &frontend.ParseError{Stage: model.StageParse, Msg: "no parseable statements"}
	}
	return rec, nil
}

// collectClass records a class and recurses into nested class definitions,
// which are emitted as separate records with dotted qualified names.
func (fe *FrontEnd) collectClass(node *sitter.Node, source []byte, decorators []model.Decorator, prefix string, rec *frontend.FileRecord) {
	tr, body := fe.typeDecl(node, source, decorators, prefix)
	rec.Types = append(rec.Types, tr)
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Type() {
		case "class_definition":
			fe.collectClass(stmt, source, nil, tr.Name, rec)
		case "decorated_definition":
			decs, def := splitDecorated(stmt, source)
			if def != nil && def.Type() == "class_definition" {
				fe.collectClass(def, source, decs, tr.Name, rec)
			}
		}
	}
}

// typeDecl extracts one class declaration. The returned body node lets the
// caller scan for nested classes.
func (fe *FrontEnd) typeDecl(node *sitter.Node, source []byte, decorators []model.Decorator, prefix string) (frontend.TypeRecord, *sitter.Node) {
	tr := frontend.TypeRecord{
		Kind:       model.TypeClass,
		StartLine:  line(node),
		EndLine:    endLine(node),
		Decorators: decorators,
		Visibility: model.Public,
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			tr.Name = text(child, source)
		case "argument_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				arg := child.Child(j)
				if arg.Type() == "identifier" || arg.Type() == "attribute" {
					tr.Bases = append(tr.Bases, text(arg, source))
				}
			}
		case "block":
			body = child
		}
	}
	if prefix != "" {
		tr.Name = prefix + "." + tr.Name
	}
	if strings.HasPrefix(lastSegment(tr.Name), "_") {
		tr.Visibility = model.Private
	}
	if body == nil {
		return tr, nil
	}

	if fe.opts.Docstrings {
		if ds := blockDocstring(body, source); ds != "" {
			tr.Doc = docparse.ParseDocstring(ds)
		}
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Type() {
		case "function_definition":
			tr.Methods = append(tr.Methods, fe.routine(stmt, source, nil, true))
		case "decorated_definition":
			decs, def := splitDecorated(stmt, source)
			if def != nil && def.Type() == "function_definition" {
				tr.Methods = append(tr.Methods, fe.routine(def, source, decs, true))
			}
		case "expression_statement":
			if a := classAttribute(stmt, source, fe.opts.Types); a != nil {
				tr.Attrs = append(tr.Attrs, *a)
			}
		}
	}

	// Instance attributes come from self.<name> assignments inside the
	// initialiser.
	for mi := range tr.Methods {
		if tr.Methods[mi].Name == "__init__" {
			tr.Attrs = append(tr.Attrs, fe.instanceAttrs(node, source, &tr.Methods[mi])...)
			break
		}
	}
	tr.Abstract = hasABCBase(tr.Bases) || hasAbstractMethod(tr.Methods)
	return tr, body
}

func hasABCBase(bases []string) bool {
	for _, b := range bases {
		if b == "ABC" || strings.HasSuffix(b, ".ABC") {
			return true
		}
	}
	return false
}

func hasAbstractMethod(methods []frontend.RoutineRecord) bool {
	for _, m := range methods {
		if m.Abstract {
			return true
		}
	}
	return false
}

// routine extracts one function or method definition.
func (fe *FrontEnd) routine(node *sitter.Node, source []byte, decorators []model.Decorator, method bool) frontend.RoutineRecord {
	rr := frontend.RoutineRecord{
		Kind:       model.RoutineFunction,
		StartLine:  line(node),
		EndLine:    endLine(node),
		Decorators: decorators,
		Visibility: model.Public,
	}
	if method {
		rr.Kind = model.RoutineMethod
	}
	for _, dec := range decorators {
		switch dec.Name {
		case "staticmethod":
			rr.Static = true
		case "classmethod":
			rr.ClassMethod = true
		case "property":
			rr.Property = true
		case "abstractmethod", "abc.abstractmethod", "abstractproperty":
			rr.Abstract = true
		}
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "async":
			rr.Async = true
		case "identifier":
			rr.Name = text(child, source)
		case "parameters":
			rr.Params = fe.params(child, source)
		case "type":
			if fe.opts.Types {
				rr.Returns = text(child, source)
			}
		case "block":
			body = child
		}
	}
	if strings.HasPrefix(rr.Name, "_") && !(strings.HasPrefix(rr.Name, "__") && strings.HasSuffix(rr.Name, "__")) {
		rr.Visibility = model.Private
	}

	// The implicit self/cls first parameter is omitted from the exported
	// list; its presence is recorded only through the owner flags.
	if method && !rr.Static && len(rr.Params) > 0 {
		if rr.Params[0].Name == "self" || (rr.ClassMethod && rr.Params[0].Name == "cls") || rr.Params[0].Name == "cls" {
			rr.Params = rr.Params[1:]
		}
	}

	if body != nil {
		if fe.opts.Docstrings {
			if ds := blockDocstring(body, source); ds != "" {
				rr.Doc = docparse.ParseDocstring(ds)
			}
		}
		rr.Generator = containsYield(body)
		rr.Calls = callSites(body, source)
		rr.Locals = typedLocals(body, source, fe.opts.Types)
	}
	return rr
}

// params reads a parameters node in declaration order.
func (fe *FrontEnd) params(node *sitter.Node, source []byte) []frontend.ParamRecord {
	var out []frontend.ParamRecord
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			out = append(out, frontend.ParamRecord{Name: text(child, source)})
		case "typed_parameter":
			p := frontend.ParamRecord{}
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier":
					p.Name = text(gc, source)
				case "type":
					if fe.opts.Types {
						p.Type = text(gc, source)
					}
				case "list_splat_pattern", "dictionary_splat_pattern":
					p.Name = splatName(gc, source)
					p.Variadic = gc.Type() == "list_splat_pattern"
					p.KeywordVariadic = gc.Type() == "dictionary_splat_pattern"
				}
			}
			out = append(out, p)
		case "default_parameter", "typed_default_parameter":
			p := frontend.ParamRecord{HasDefault: true}
			seenEq := false
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier":
					if p.Name == "" {
						p.Name = text(gc, source)
					}
				case "type":
					if fe.opts.Types {
						p.Type = text(gc, source)
					}
				case "=":
					seenEq = true
				default:
					if seenEq && p.Default == "" {
						p.Default = text(gc, source)
					}
				}
			}
			out = append(out, p)
		case "list_splat_pattern":
			out = append(out, frontend.ParamRecord{Name: splatName(child, source), Variadic: true})
		case "dictionary_splat_pattern":
			out = append(out, frontend.ParamRecord{Name: splatName(child, source), KeywordVariadic: true})
		}
	}
	return out
}

func splatName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "identifier" {
			return text(node.Child(i), source)
		}
	}
	return strings.TrimLeft(text(node, source), "*")
}

// classAttribute reads a class-level assignment: NAME = value, optionally
// annotated. Constants are all-caps names.
func classAttribute(stmt *sitter.Node, source []byte, withTypes bool) *frontend.AttrRecord {
	assign := firstChildOfType(stmt, "assignment")
	if assign == nil {
		return nil
	}
	var name, typeStr, value string
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = text(child, source)
			}
		case "type":
			if withTypes {
				typeStr = text(child, source)
			}
		case "=":
			seenEq = true
		default:
			if seenEq && value == "" {
				value = text(child, source)
			}
		}
	}
	if name == "" {
		return nil
	}
	a := &frontend.AttrRecord{
		Name:       name,
		Kind:       model.AttrClass,
		Type:       typeStr,
		Line:       line(assign),
		Visibility: model.Public,
	}
	if isUpperName(name) {
		a.Kind = model.AttrConstant
		a.Default = value
	}
	if strings.HasPrefix(name, "_") {
		a.Visibility = model.Private
	}
	return a
}

// moduleConstant reads a top-level assignment whose target is a single
// uppercase identifier.
func moduleConstant(stmt *sitter.Node, source []byte) *frontend.AttrRecord {
	assign := firstChildOfType(stmt, "assignment")
	if assign == nil {
		return nil
	}
	first := assign.Child(0)
	if first == nil || first.Type() != "identifier" {
		return nil
	}
	name := text(first, source)
	if !isUpperName(name) {
		return nil
	}
	var value string
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		if child.Type() == "=" {
			seenEq = true
			continue
		}
		if seenEq && value == "" && child.Type() != "type" {
			value = text(child, source)
		}
	}
	return &frontend.AttrRecord{
		Name:       name,
		Kind:       model.AttrConstant,
		Default:    value,
		Line:       line(assign),
		Visibility: model.Public,
	}
}

// instanceAttrs scans the initialiser for self.<name> assignments. The
// right-hand side is classified for the relationship detector: a
// constructor invocation sets AssignedNew, a bare parameter name sets
// AssignedParam. Composition evidence wins when both would apply.
func (fe *FrontEnd) instanceAttrs(classNode *sitter.Node, source []byte, init *frontend.RoutineRecord) []frontend.AttrRecord {
	body := initBody(classNode, source)
	if body == nil {
		return nil
	}
	paramNames := make(map[string]string, len(init.Params))
	for _, p := range init.Params {
		paramNames[p.Name] = p.Type
	}

	var out []frontend.AttrRecord
	seen := make(map[string]int)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "function_definition" || child.Type() == "class_definition" {
				continue
			}
			if child.Type() == "assignment" {
				if a := selfAssignment(child, source, paramNames, fe.opts.Types); a != nil {
					if idx, dup := seen[a.Name]; dup {
						// Reassignment: merge evidence so a locally
						// constructed attribute keeps its constructor
						// provenance even when later overwritten.
						if out[idx].AssignedNew == "" && a.AssignedNew != "" {
							out[idx].AssignedNew = a.AssignedNew
						}
						if out[idx].AssignedParam == "" && a.AssignedParam != "" {
							out[idx].AssignedParam = a.AssignedParam
						}
						if out[idx].Type == "" {
							out[idx].Type = a.Type
						}
					} else {
						seen[a.Name] = len(out)
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

// selfAssignment reads one `self.<name> = expr` statement.
func selfAssignment(assign *sitter.Node, source []byte, paramTypes map[string]string, withTypes bool) *frontend.AttrRecord {
	left := assign.Child(0)
	if left == nil || left.Type() != "attribute" {
		return nil
	}
	obj := left.ChildByFieldName("object")
	attr := left.ChildByFieldName("attribute")
	if obj == nil || attr == nil || text(obj, source) != "self" {
		return nil
	}

	a := &frontend.AttrRecord{
		Name:       text(attr, source),
		Kind:       model.AttrInstance,
		Line:       line(assign),
		Visibility: model.Public,
	}
	if strings.HasPrefix(a.Name, "_") {
		a.Visibility = model.Private
	}

	var rhs *sitter.Node
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		switch child.Type() {
		case "=":
			seenEq = true
		case "type":
			if withTypes {
				a.Type = text(child, source)
			}
		default:
			if seenEq && rhs == nil {
				rhs = child
			}
		}
	}
	if rhs == nil {
		return a
	}

	switch rhs.Type() {
	case "call":
		callee := rhs.ChildByFieldName("function")
		if callee != nil && (callee.Type() == "identifier" || callee.Type() == "attribute") {
			a.AssignedNew = text(callee, source)
		}
	case "identifier":
		name := text(rhs, source)
		if t, ok := paramTypes[name]; ok {
			a.AssignedParam = name
			if a.Type == "" && withTypes {
				a.Type = t
			}
		}
	}
	return a
}

// initBody finds the block node of __init__ inside a class definition.
func initBody(classNode *sitter.Node, source []byte) *sitter.Node {
	body := firstChildOfType(classNode, "block")
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		def := stmt
		if stmt.Type() == "decorated_definition" {
			def = firstChildOfType(stmt, "function_definition")
			if def == nil {
				continue
			}
		}
		if def.Type() != "function_definition" {
			continue
		}
		name := firstChildOfType(def, "identifier")
		if name != nil && text(name, source) == "__init__" {
			return firstChildOfType(def, "block")
		}
	}
	return nil
}

// callSites collects syntactic call expressions in a routine body,
// excluding those inside nested definitions.
func callSites(body *sitter.Node, source []byte) []model.CallSite {
	var out []model.CallSite
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "function_definition", "class_definition":
				continue
			case "call":
				fn := child.ChildByFieldName("function")
				if fn != nil {
					cs := model.CallSite{Callee: text(fn, source), Line: line(child)}
					if fn.Type() == "attribute" {
						if obj := fn.ChildByFieldName("object"); obj != nil {
							cs.Receiver = text(obj, source)
						}
					}
					out = append(out, cs)
				}
			}
			walk(child)
		}
	}
	walk(body)
	return out
}

// typedLocals collects annotated assignments and constructor assignments
// to plain local names.
func typedLocals(body *sitter.Node, source []byte, withTypes bool) []frontend.LocalRecord {
	var out []frontend.LocalRecord
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "function_definition" || child.Type() == "class_definition" {
				continue
			}
			if child.Type() == "assignment" {
				if lr := localAssignment(child, source, withTypes); lr != nil {
					out = append(out, *lr)
				}
			}
			walk(child)
		}
	}
	walk(body)
	return out
}

func localAssignment(assign *sitter.Node, source []byte, withTypes bool) *frontend.LocalRecord {
	left := assign.Child(0)
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	lr := &frontend.LocalRecord{Name: text(left, source), Line: line(assign)}

	var rhs *sitter.Node
	seenEq := false
	for i := 0; i < int(assign.ChildCount()); i++ {
		child := assign.Child(i)
		switch child.Type() {
		case "=":
			seenEq = true
		case "type":
			if withTypes {
				lr.Type = text(child, source)
			}
		default:
			if seenEq && rhs == nil {
				rhs = child
			}
		}
	}
	if lr.Type == "" && rhs != nil && rhs.Type() == "call" {
		callee := rhs.ChildByFieldName("function")
		if callee != nil && (callee.Type() == "identifier" || callee.Type() == "attribute") {
			name := text(callee, source)
			if startsUpper(lastSegment(name)) {
				lr.Type = name
				lr.Constructed = true
			}
		}
	}
	if lr.Type == "" {
		return nil
	}
	return lr
}

// importPlain reads `import a.b, c as d`.
func importPlain(node *sitter.Node, source []byte) []frontend.ImportRecord {
	var out []frontend.ImportRecord
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			out = append(out, frontend.ImportRecord{
				Kind:   model.ImportModule,
				Module: text(child, source),
				Line:   line(node),
			})
		case "aliased_import":
			var mod, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					mod = text(gc, source)
				case "identifier":
					alias = text(gc, source)
				}
			}
			out = append(out, frontend.ImportRecord{
				Kind:   model.ImportModule,
				Module: mod,
				Names:  []model.ImportedName{{Name: mod, Alias: alias}},
				Line:   line(node),
			})
		}
	}
	return out
}

// importFrom reads `from X import a, b as c` and relative variants.
func importFrom(node *sitter.Node, source []byte) (frontend.ImportRecord, bool) {
	imp := frontend.ImportRecord{Kind: model.ImportNamed, Line: line(node)}
	seenImportKw := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "relative_import":
			imp.Kind = model.ImportRelative
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					imp.RelDepth = len(text(gc, source))
				case "dotted_name":
					imp.Module = text(gc, source)
				}
			}
		case "import":
			seenImportKw = true
		case "dotted_name":
			if !seenImportKw {
				imp.Module = text(child, source)
			} else {
				imp.Names = append(imp.Names, model.ImportedName{Name: text(child, source)})
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					name = text(gc, source)
				case "identifier":
					alias = text(gc, source)
				}
			}
			imp.Names = append(imp.Names, model.ImportedName{Name: name, Alias: alias})
		case "wildcard_import":
			imp.Names = append(imp.Names, model.ImportedName{Name: "*"})
		}
	}
	if imp.Module == "" && imp.Kind != model.ImportRelative {
		return imp, false
	}
	return imp, true
}

// splitDecorated separates the decorators from the wrapped definition.
func splitDecorated(node *sitter.Node, source []byte) ([]model.Decorator, *sitter.Node) {
	var decorators []model.Decorator
	var def *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			if d, ok := decoratorOf(child, source); ok {
				decorators = append(decorators, d)
			}
		case "class_definition", "function_definition":
			def = child
		}
	}
	return decorators, def
}

func decoratorOf(node *sitter.Node, source []byte) (model.Decorator, bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier", "attribute":
			return model.Decorator{Name: text(child, source)}, true
		case "call":
			fn := child.ChildByFieldName("function")
			args := child.ChildByFieldName("arguments")
			if fn != nil {
				d := model.Decorator{Name: text(fn, source)}
				if args != nil {
					d.Args = strings.Trim(text(args, source), "()")
				}
				return d, true
			}
		}
	}
	return model.Decorator{}, false
}

// containsYield reports whether the body makes the routine a generator,
// ignoring nested definitions.
func containsYield(body *sitter.Node) bool {
	found := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "function_definition", "class_definition":
				continue
			case "yield":
				found = true
				return
			}
			walk(child)
		}
	}
	walk(body)
	return found
}

// blockDocstring returns the leading string literal of a module or block.
func blockDocstring(block *sitter.Node, source []byte) string {
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() == "comment" {
			continue
		}
		if child.Type() == "expression_statement" && child.ChildCount() > 0 {
			str := child.Child(0)
			if str.Type() == "string" {
				return stringContent(str, source)
			}
		}
		return ""
	}
	return ""
}

func stringContent(node *sitter.Node, source []byte) string {
	raw := text(node, source)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return strings.Trim(raw, `"'`)
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return node.Child(i)
		}
	}
	return nil
}

func text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int    { return int(node.StartPoint().Row) + 1 }
func endLine(node *sitter.Node) int { return int(node.EndPoint().Row) + 1 }

func isUpperName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func startsUpper(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

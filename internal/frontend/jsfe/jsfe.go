// Package jsfe is the JavaScript/TypeScript front-end. Parsing is
// delegated to an out-of-process Node helper that emits a normalised tree
// as structured data; this package converts the tree into raw entity
// records and parses JSDoc comments. When the helper cannot be launched
// the front-end is disabled and the pipeline proceeds for the other
// languages.
package jsfe

import (
	"context"
	"path"
	"strings"

	"github.com/jward/understory/internal/docparse"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

// fileTree is the helper's normalised per-file output.
type fileTree struct {
	Classes    []classTree   `json:"classes"`
	Functions  []funcTree    `json:"functions"`
	Interfaces []ifaceTree   `json:"interfaces"`
	Enums      []enumTree    `json:"enums"`
	TypeAliases []aliasTree  `json:"type_aliases"`
	Imports    []importTree  `json:"imports"`
	Constants  []constTree   `json:"constants"`
}

type decoratorTree struct {
	Name string `json:"name"`
	Args string `json:"args"`
}

type paramTree struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Default    string `json:"default"`
	HasDefault bool   `json:"has_default"`
	Rest       bool   `json:"rest"`
}

type callTree struct {
	Callee   string `json:"callee"`
	Receiver string `json:"receiver"`
	Line     int    `json:"line"`
}

type assignTree struct {
	Name      string `json:"name"`
	FromNew   string `json:"from_new"`
	FromParam string `json:"from_param"`
	Line      int    `json:"line"`
}

type memberTree struct {
	Kind          string          `json:"kind"`
	Name          string          `json:"name"`
	Static        bool            `json:"static"`
	Async         bool            `json:"async"`
	Generator     bool            `json:"generator"`
	Abstract      bool            `json:"abstract"`
	Property      bool            `json:"property"`
	Optional      bool            `json:"optional"`
	Accessibility string          `json:"accessibility"`
	Type          string          `json:"type"`
	Default       string          `json:"default"`
	Params        []paramTree     `json:"params"`
	ReturnType    string          `json:"return_type"`
	Doc           string          `json:"doc"`
	Decorators    []decoratorTree `json:"decorators"`
	Start         int             `json:"start"`
	End           int             `json:"end"`
	Calls         []callTree      `json:"calls"`
	Assignments   []assignTree    `json:"assignments"`
}

type classTree struct {
	Name       string          `json:"name"`
	Superclass string          `json:"superclass"`
	Implements []string        `json:"implements"`
	Abstract   bool            `json:"abstract"`
	Decorators []decoratorTree `json:"decorators"`
	Doc        string          `json:"doc"`
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Members    []memberTree    `json:"members"`
}

type funcTree struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Async      bool        `json:"async"`
	Generator  bool        `json:"generator"`
	Params     []paramTree `json:"params"`
	ReturnType string      `json:"return_type"`
	Doc        string      `json:"doc"`
	Start      int         `json:"start"`
	End        int         `json:"end"`
	Calls      []callTree  `json:"calls"`
}

type ifaceTree struct {
	Name    string       `json:"name"`
	Extends []string     `json:"extends"`
	Doc     string       `json:"doc"`
	Start   int          `json:"start"`
	End     int          `json:"end"`
	Members []memberTree `json:"members"`
}

type enumTree struct {
	Name    string `json:"name"`
	Doc     string `json:"doc"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Members []struct {
		Name string `json:"name"`
		Init string `json:"init"`
		Line int    `json:"line"`
	} `json:"members"`
}

type aliasTree struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
	Line int    `json:"line"`
}

type importTree struct {
	Source    string `json:"source"`
	Names     []struct {
		Name  string `json:"name"`
		Alias string `json:"alias"`
	} `json:"names"`
	Default   string `json:"default"`
	Namespace string `json:"namespace"`
	Line      int    `json:"line"`
}

type constTree struct {
	Name string `json:"name"`
	Init string `json:"init"`
	Line int    `json:"line"`
}

// FrontEnd converts helper trees into records for one language tag. Two
// instances (javascript, typescript) share the same helper process.
type FrontEnd struct {
	helper *Helper
	lang   string
	opts   frontend.Options
}

// New creates a front-end bound to a running helper.
func New(helper *Helper, lang string, opts frontend.Options) *FrontEnd {
	return &FrontEnd{helper: helper, lang: lang, opts: opts}
}

// Language returns the canonical language name.
func (fe *FrontEnd) Language() string { return fe.lang }

// ParseFile submits the file to the helper and maps the tree to records.
func (fe *FrontEnd) ParseFile(ctx context.Context, relPath string, source []byte) (*frontend.FileRecord, error) {
	tree, err := fe.helper.Parse(ctx, relPath, fe.lang, source)
	if err != nil {
		if pf, ok := err.(*parseFailure); ok {
			return nil, &frontend.ParseError{Stage: model.StageParse, Line: pf.line, Msg: pf.msg}
		}
		return nil, err
	}

	rec := &frontend.FileRecord{
		RelPath:    relPath,
		Language:   fe.lang,
		ModuleName: strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)),
	}

	for _, imp := range tree.Imports {
		ir := frontend.ImportRecord{
			Kind:   model.ImportNamed,
			Module: imp.Source,
			Line:   imp.Line,
		}
		if strings.HasPrefix(imp.Source, ".") {
			ir.Kind = model.ImportRelative
			ir.RelDepth = relDepth(imp.Source)
		}
		if imp.Default != "" {
			ir.Names = append(ir.Names, model.ImportedName{Name: "default", Alias: imp.Default})
		}
		if imp.Namespace != "" {
			ir.Names = append(ir.Names, model.ImportedName{Name: "*", Alias: imp.Namespace})
		}
		for _, n := range imp.Names {
			ir.Names = append(ir.Names, model.ImportedName{Name: n.Name, Alias: n.Alias})
		}
		rec.Imports = append(rec.Imports, ir)
	}

	for _, c := range tree.Classes {
		rec.Types = append(rec.Types, fe.classRecord(c))
	}
	for _, i := range tree.Interfaces {
		rec.Types = append(rec.Types, fe.interfaceRecord(i))
	}
	for _, e := range tree.Enums {
		tr := frontend.TypeRecord{
			Name:       e.Name,
			Kind:       model.TypeEnum,
			StartLine:  e.Start,
			EndLine:    e.End,
			Visibility: model.Public,
		}
		if fe.opts.Docstrings {
			tr.Doc = fe.doc(e.Doc).Doc
		}
		for _, m := range e.Members {
			tr.Constants = append(tr.Constants, frontend.AttrRecord{
				Name:       m.Name,
				Kind:       model.AttrConstant,
				Default:    m.Init,
				Line:       m.Line,
				Visibility: model.Public,
			})
		}
		rec.Types = append(rec.Types, tr)
	}
	for _, a := range tree.TypeAliases {
		tr := frontend.TypeRecord{
			Name:       a.Name,
			Kind:       model.TypeAlias,
			StartLine:  a.Line,
			EndLine:    a.Line,
			Visibility: model.Public,
		}
		if fe.opts.Docstrings {
			tr.Doc = fe.doc(a.Doc).Doc
		}
		rec.Types = append(rec.Types, tr)
	}
	for _, f := range tree.Functions {
		rec.Functions = append(rec.Functions, fe.funcRecord(f))
	}
	for _, c := range tree.Constants {
		rec.Constants = append(rec.Constants, frontend.AttrRecord{
			Name:       c.Name,
			Kind:       model.AttrConstant,
			Default:    c.Init,
			Line:       c.Line,
			Visibility: model.Public,
		})
	}
	return rec, nil
}

func (fe *FrontEnd) classRecord(c classTree) frontend.TypeRecord {
	tr := frontend.TypeRecord{
		Name:       c.Name,
		Kind:       model.TypeClass,
		StartLine:  c.Start,
		EndLine:    c.End,
		Abstract:   c.Abstract,
		Visibility: model.Public,
	}
	if c.Superclass != "" {
		tr.Bases = append(tr.Bases, c.Superclass)
	}
	tr.Implements = append(tr.Implements, c.Implements...)
	for _, d := range c.Decorators {
		tr.Decorators = append(tr.Decorators, model.Decorator{Name: d.Name, Args: d.Args})
	}
	jd := fe.doc(c.Doc)
	tr.Doc = jd.Doc
	if jd.Abstract {
		tr.Abstract = true
	}
	// JSDoc inheritance hints fill gaps the untyped syntax leaves open.
	if len(tr.Bases) == 0 {
		tr.Bases = append(tr.Bases, jd.Extends...)
	}
	if len(tr.Implements) == 0 {
		tr.Implements = append(tr.Implements, jd.Implements...)
	}

	// Declared property types, by name, for merging with constructor
	// assignment evidence.
	declared := make(map[string]int)
	for _, m := range c.Members {
		switch m.Kind {
		case "constructor", "method":
			tr.Methods = append(tr.Methods, fe.methodRecord(m))
		case "property":
			a := frontend.AttrRecord{
				Name:       m.Name,
				Kind:       model.AttrProperty,
				Static:     m.Static,
				Default:    m.Default,
				Line:       m.Start,
				Visibility: accessVisibility(m.Accessibility, m.Name),
			}
			if fe.opts.Types {
				a.Type = m.Type
			}
			declared[m.Name] = len(tr.Attrs)
			tr.Attrs = append(tr.Attrs, a)
		}
	}

	// Constructor assignments become instance attributes, or enrich the
	// matching declared property.
	for _, m := range c.Members {
		if m.Kind != "constructor" {
			continue
		}
		paramTypes := make(map[string]string, len(m.Params))
		for _, p := range m.Params {
			paramTypes[p.Name] = p.Type
		}
		for _, as := range m.Assignments {
			if idx, ok := declared[as.Name]; ok {
				if as.FromNew != "" {
					tr.Attrs[idx].AssignedNew = as.FromNew
				} else if as.FromParam != "" {
					tr.Attrs[idx].AssignedParam = as.FromParam
					if tr.Attrs[idx].Type == "" && fe.opts.Types {
						tr.Attrs[idx].Type = paramTypes[as.FromParam]
					}
				}
				continue
			}
			a := frontend.AttrRecord{
				Name:       as.Name,
				Kind:       model.AttrInstance,
				Line:       as.Line,
				Visibility: accessVisibility("", as.Name),
			}
			if as.FromNew != "" {
				a.AssignedNew = as.FromNew
			}
			if as.FromParam != "" {
				a.AssignedParam = as.FromParam
				if fe.opts.Types {
					a.Type = paramTypes[as.FromParam]
				}
			}
			declared[as.Name] = len(tr.Attrs)
			tr.Attrs = append(tr.Attrs, a)
		}
		break
	}
	return tr
}

func (fe *FrontEnd) interfaceRecord(i ifaceTree) frontend.TypeRecord {
	tr := frontend.TypeRecord{
		Name:       i.Name,
		Kind:       model.TypeInterface,
		StartLine:  i.Start,
		EndLine:    i.End,
		Visibility: model.Public,
	}
	tr.Bases = append(tr.Bases, i.Extends...)
	if fe.opts.Docstrings {
		tr.Doc = fe.doc(i.Doc).Doc
	}
	for _, m := range i.Members {
		switch m.Kind {
		case "method":
			mr := fe.methodRecord(m)
			mr.Abstract = true
			tr.Methods = append(tr.Methods, mr)
		case "property":
			a := frontend.AttrRecord{
				Name:       m.Name,
				Kind:       model.AttrProperty,
				Line:       m.Start,
				Visibility: model.Public,
			}
			if fe.opts.Types {
				a.Type = m.Type
			}
			tr.Attrs = append(tr.Attrs, a)
		}
	}
	return tr
}

func (fe *FrontEnd) methodRecord(m memberTree) frontend.RoutineRecord {
	rr := frontend.RoutineRecord{
		Name:       m.Name,
		Kind:       model.RoutineMethod,
		Static:     m.Static,
		Async:      m.Async,
		Generator:  m.Generator,
		Abstract:   m.Abstract,
		Property:   m.Property,
		StartLine:  m.Start,
		EndLine:    m.End,
		Visibility: accessVisibility(m.Accessibility, m.Name),
	}
	rr.Params = fe.paramRecords(m.Params)
	if fe.opts.Types {
		rr.Returns = m.ReturnType
	}
	for _, d := range m.Decorators {
		rr.Decorators = append(rr.Decorators, model.Decorator{Name: d.Name, Args: d.Args})
	}
	jd := fe.doc(m.Doc)
	rr.Doc = jd.Doc
	if jd.Async {
		rr.Async = true
	}
	if jd.Generator {
		rr.Generator = true
	}
	if jd.Static {
		rr.Static = true
	}
	if jd.Abstract {
		rr.Abstract = true
	}
	rr.Calls = callRecords(m.Calls)
	return rr
}

func (fe *FrontEnd) funcRecord(f funcTree) frontend.RoutineRecord {
	rr := frontend.RoutineRecord{
		Name:       f.Name,
		Kind:       model.RoutineFunction,
		Async:      f.Async,
		Generator:  f.Generator,
		StartLine:  f.Start,
		EndLine:    f.End,
		Visibility: accessVisibility("", f.Name),
	}
	if f.Kind == "arrow" {
		rr.Kind = model.RoutineArrow
	}
	rr.Params = fe.paramRecords(f.Params)
	if fe.opts.Types {
		rr.Returns = f.ReturnType
	}
	jd := fe.doc(f.Doc)
	rr.Doc = jd.Doc
	if jd.Async {
		rr.Async = true
	}
	if jd.Generator {
		rr.Generator = true
	}
	rr.Calls = callRecords(f.Calls)
	return rr
}

func (fe *FrontEnd) paramRecords(params []paramTree) []frontend.ParamRecord {
	var out []frontend.ParamRecord
	for _, p := range params {
		pr := frontend.ParamRecord{
			Name:       p.Name,
			HasDefault: p.HasDefault,
			Default:    p.Default,
			Variadic:   p.Rest,
		}
		if fe.opts.Types {
			pr.Type = p.Type
		}
		out = append(out, pr)
	}
	return out
}

func (fe *FrontEnd) doc(raw string) docparse.JSDoc {
	if raw == "" || !fe.opts.Docstrings {
		return docparse.JSDoc{}
	}
	return docparse.ParseJSDoc(raw)
}

// callRecords maps helper call sites, dropping constructor invocations —
// those feed relationship detection via the assignment evidence instead.
func callRecords(calls []callTree) []model.CallSite {
	var out []model.CallSite
	for _, c := range calls {
		if strings.HasPrefix(c.Callee, "new ") {
			continue
		}
		out = append(out, model.CallSite{Callee: c.Callee, Receiver: c.Receiver, Line: c.Line})
	}
	return out
}

func accessVisibility(accessibility, name string) model.Visibility {
	switch accessibility {
	case "private":
		return model.Private
	case "protected":
		return model.Protected
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		return model.Private
	}
	return model.Public
}

func relDepth(source string) int {
	depth := 0
	for strings.HasPrefix(source, "../") {
		depth++
		source = strings.TrimPrefix(source, "../")
	}
	if depth == 0 && strings.HasPrefix(source, "./") {
		depth = 1
	}
	return depth
}

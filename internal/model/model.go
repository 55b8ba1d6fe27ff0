// Package model defines the semantic model: the unified, cross-language
// representation of a project that the pipeline builds and downstream
// consumers read. Entities are created by the builder, edges are added by
// the relationship detector, traces by the flow analyzer; after the
// pipeline completes the model is read-only.
package model

// ID is a stable entity identifier of the form
// <kind>:<relpath>:<qualified-name>[:<ordinal>]. Identical inputs produce
// identical IDs across runs.
type ID string

// External is the sentinel target for references that resolve to neither a
// project entity nor a known entity of the language runtime.
const External ID = "external"

// EntityKind discriminates the four addressable entity families.
type EntityKind string

const (
	KindModule    EntityKind = "module"
	KindType      EntityKind = "type"
	KindRoutine   EntityKind = "routine"
	KindAttribute EntityKind = "attribute"
)

// TypeKind tags a TypeDecl.
type TypeKind string

const (
	TypeClass     TypeKind = "class"
	TypeInterface TypeKind = "interface"
	TypeTrait     TypeKind = "trait"
	TypeEnum      TypeKind = "enum"
	TypeAlias     TypeKind = "alias"
)

// RoutineKind tags a Routine. Async and generator are modifier flags, not
// kinds, since both combine freely with each kind.
type RoutineKind string

const (
	RoutineFunction RoutineKind = "function"
	RoutineMethod   RoutineKind = "method"
	RoutineArrow    RoutineKind = "arrow"
)

// AttrKind tags an Attribute.
type AttrKind string

const (
	AttrInstance AttrKind = "instance"
	AttrClass    AttrKind = "class"
	AttrProperty AttrKind = "property"
	AttrConstant AttrKind = "constant"
)

// Visibility as declared in the source. Languages without visibility
// keywords map the underscore convention onto public/private.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// Span is an inclusive line range within the owning module's file.
type Span struct {
	StartLine int
	EndLine   int
}

// Ref is a reference to another entity. Text preserves the original source
// form; Target is filled in when the builder seals the model, binding to a
// project entity ID or External.
type Ref struct {
	Text   string
	Target ID
}

// IsZero reports whether the reference is absent entirely.
func (r Ref) IsZero() bool { return r.Text == "" && r.Target == "" }

// Resolved reports whether the reference bound to a project entity.
func (r Ref) Resolved() bool { return r.Target != "" && r.Target != External }

// Doc is parsed documentation attached to a module, type, or routine.
type Doc struct {
	Text    string
	Params  []DocParam
	Returns string
	Throws  []string
}

// DocParam is one name→description pair extracted from a parameter section.
type DocParam struct {
	Name string
	Desc string
}

// Decorator is a raw decorator or annotation: name plus verbatim argument
// list, uninterpreted.
type Decorator struct {
	Name string
	Args string
}

// ImportKind distinguishes the three import shapes the front-ends record.
type ImportKind string

const (
	ImportModule   ImportKind = "module"   // import x.y
	ImportNamed    ImportKind = "named"    // from x import a, b / use X\Y / import {a} from "x"
	ImportRelative ImportKind = "relative" // from ..x import a
)

// ImportedName is a single name pulled in by a named import.
type ImportedName struct {
	Name  string
	Alias string
}

// Import records one import declaration on a module. Resolved is the target
// module's ID when the import binds inside the project, empty otherwise.
type Import struct {
	Kind     ImportKind
	Module   string
	Names    []ImportedName
	RelDepth int
	Line     int
	Resolved ID
}

// Module is a source file.
type Module struct {
	ID         ID
	Path       string // forward-slash relative path
	Language   string
	Name       string // detected module/package name
	Namespace  string
	Doc        Doc
	Imports    []Import
	Constants  []ID
	Functions  []ID
	Types      []ID
	BestEffort bool     // produced by a degraded front-end
	ExternalDeps []string // unresolved import targets, annotation only
}

// TypeDecl is a class, interface, trait, or enum declaration.
type TypeDecl struct {
	ID         ID
	Name       string
	Qualified  string
	Kind       TypeKind
	Module     ID
	Bases      []Ref
	Implements []Ref
	Traits     []Ref
	Methods    []ID
	Attributes []ID
	Constants  []ID
	Span       Span
	Doc        Doc
	Visibility Visibility
	Abstract   bool
	Final      bool
	Decorators []Decorator
	BestEffort bool
}

// Param is one declared routine parameter, in order.
type Param struct {
	Name       string
	Type       Ref
	HasDefault bool
	Default    string
	Variadic   bool // *args / ...$x / ...rest
	KeywordVariadic bool // **kwargs
}

// TypedLocal is a local variable with a syntactically evident type: an
// annotation or a constructor assignment inside the routine body.
type TypedLocal struct {
	Name string
	Type Ref
	Line int
	Constructed bool // assigned from a constructor invocation
}

// CallSite is one syntactic call expression inside a routine body.
type CallSite struct {
	Callee   string // verbatim callee expression
	Receiver string // receiver expression, "" for free calls
	Line     int
}

// Routine is a function, method, or bound arrow/lambda.
type Routine struct {
	ID         ID
	Name       string
	Qualified  string
	Kind       RoutineKind
	Owner      ID // module or TypeDecl
	Module     ID
	Params     []Param
	Returns    Ref
	Static     bool
	Abstract   bool
	Async      bool
	Generator  bool
	Final      bool
	Property   bool // @property / accessor
	ClassMethod bool
	Visibility Visibility
	Span       Span
	Doc        Doc
	Decorators []Decorator
	CallSites  []CallSite
	Locals     []TypedLocal
	BestEffort bool
}

// Attribute is a field, property, class-level variable, or constant owned
// by a TypeDecl, or a module-level constant.
type Attribute struct {
	ID         ID
	Name       string
	Owner      ID // TypeDecl, or Module for module-level constants
	Module     ID
	Kind       AttrKind
	Type       Ref
	Default    string // verbatim default/constant expression
	Static     bool
	Visibility Visibility
	Line       int

	// Constructor evidence for composition/aggregation inference: the type
	// expression constructed on the right-hand side of the initialiser
	// assignment, and the constructor parameter the attribute is assigned
	// from. At most one is set per rule priority.
	AssignedNew   string
	AssignedParam string
}

// Model is the project-wide semantic model.
type Model struct {
	Root        string // project root, for display only
	Modules     map[ID]*Module
	Types       map[ID]*TypeDecl
	Routines    map[ID]*Routine
	Attributes  map[ID]*Attribute
	Edges       []Edge
	Traces      []FlowTrace
	Diagnostics []Diagnostic
	Incomplete  bool // cancelled between phases
}

// NewModel returns an empty model.
func NewModel(root string) *Model {
	return &Model{
		Root:       root,
		Modules:    make(map[ID]*Module),
		Types:      make(map[ID]*TypeDecl),
		Routines:   make(map[ID]*Routine),
		Attributes: make(map[ID]*Attribute),
	}
}

// Has reports whether id names an entity in the model.
func (m *Model) Has(id ID) bool {
	if _, ok := m.Modules[id]; ok {
		return true
	}
	if _, ok := m.Types[id]; ok {
		return true
	}
	if _, ok := m.Routines[id]; ok {
		return true
	}
	_, ok := m.Attributes[id]
	return ok
}

// AddDiagnostic appends a diagnostic entry.
func (m *Model) AddDiagnostic(d Diagnostic) {
	m.Diagnostics = append(m.Diagnostics, d)
}

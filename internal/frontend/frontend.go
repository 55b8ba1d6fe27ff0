// Package frontend defines the capability contract shared by the language
// front-ends and the raw entity records they emit. Front-ends differ
// radically in how they obtain their output — in-process tree-sitter
// parse, regex fallback, out-of-process helper — but all converge on the
// same per-file record schema, which the model builder merges into the
// project-wide semantic model.
package frontend

import (
	"context"
	"fmt"

	"github.com/jward/understory/internal/model"
)

// Options toggles the optional capture passes.
type Options struct {
	Docstrings bool
	Types      bool
}

// FrontEnd converts one source file into raw entity records. A parse
// failure in one file never propagates beyond that file; implementations
// return a *ParseError so the pipeline can attribute the failure to a
// stage.
type FrontEnd interface {
	Language() string
	ParseFile(ctx context.Context, relPath string, source []byte) (*FileRecord, error)
}

// ParseError attributes a front-end failure to a pipeline stage.
type ParseError struct {
	Stage model.ParseStage
	Line  int
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Stage, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

// FileRecord is the complete raw output for one source file.
type FileRecord struct {
	RelPath    string
	Language   string
	ModuleName string
	Namespace  string
	Doc        model.Doc
	Imports    []ImportRecord
	Constants  []AttrRecord
	Functions  []RoutineRecord
	Types      []TypeRecord
	BestEffort bool
}

// ImportRecord is one import declaration, still textual.
type ImportRecord struct {
	Kind     model.ImportKind
	Module   string
	Names    []model.ImportedName
	RelDepth int
	Line     int
}

// TypeRecord is one class/interface/trait/enum declaration.
type TypeRecord struct {
	Name       string
	Kind       model.TypeKind
	Bases      []string
	Implements []string
	Traits     []string
	Methods    []RoutineRecord
	Attrs      []AttrRecord
	Constants  []AttrRecord
	StartLine  int
	EndLine    int
	Doc        model.Doc
	Visibility model.Visibility
	Abstract   bool
	Final      bool
	Decorators []model.Decorator
	BestEffort bool
}

// ParamRecord is one declared parameter, in order.
type ParamRecord struct {
	Name            string
	Type            string
	HasDefault      bool
	Default         string
	Variadic        bool
	KeywordVariadic bool
}

// LocalRecord is a typed local: an annotated variable or a constructor
// assignment inside a routine body.
type LocalRecord struct {
	Name        string
	Type        string
	Line        int
	Constructed bool
}

// RoutineRecord is one function, method, or bound arrow.
type RoutineRecord struct {
	Name        string
	Kind        model.RoutineKind
	Params      []ParamRecord
	Returns     string
	Static      bool
	Abstract    bool
	Async       bool
	Generator   bool
	Final       bool
	Property    bool
	ClassMethod bool
	Visibility  model.Visibility
	StartLine   int
	EndLine     int
	Doc         model.Doc
	Decorators  []model.Decorator
	Calls       []model.CallSite
	Locals      []LocalRecord
}

// AttrRecord is one attribute or constant.
type AttrRecord struct {
	Name       string
	Kind       model.AttrKind
	Type       string
	Default    string
	Static     bool
	Visibility model.Visibility
	Line       int

	// Initialiser evidence used by the relationship detector.
	AssignedNew   string // type constructed on the right-hand side
	AssignedParam string // constructor parameter assigned verbatim
}

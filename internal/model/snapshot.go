package model

// Snapshot is the serialisation form of a completed model: one top-level
// section per entity kind, a flat relationship list, and flows grouped by
// entry routine. All identifiers are strings, all line numbers positive,
// all paths forward-slash relative to the project root. Field order and
// section ordering are deterministic so two runs over the same input
// serialise byte-identically.
type Snapshot struct {
	Modules       []SnapModule     `json:"modules" yaml:"modules"`
	Types         []SnapType       `json:"types" yaml:"types"`
	Routines      []SnapRoutine    `json:"routines" yaml:"routines"`
	Attributes    []SnapAttribute  `json:"attributes" yaml:"attributes"`
	Relationships []SnapEdge       `json:"relationships" yaml:"relationships"`
	Flows         []SnapFlowEntry  `json:"flows" yaml:"flows"`
	Diagnostics   []SnapDiagnostic `json:"diagnostics" yaml:"diagnostics"`
	Summary       Summary          `json:"summary" yaml:"summary"`
	Incomplete    bool             `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

type SnapDoc struct {
	Text    string     `json:"text,omitempty" yaml:"text,omitempty"`
	Params  []DocParam `json:"params,omitempty" yaml:"params,omitempty"`
	Returns string     `json:"returns,omitempty" yaml:"returns,omitempty"`
	Throws  []string   `json:"throws,omitempty" yaml:"throws,omitempty"`
}

type SnapImport struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Module   string         `json:"module" yaml:"module"`
	Names    []ImportedName `json:"names,omitempty" yaml:"names,omitempty"`
	RelDepth int            `json:"rel_depth,omitempty" yaml:"rel_depth,omitempty"`
	Line     int            `json:"line" yaml:"line"`
	Resolved string         `json:"resolved,omitempty" yaml:"resolved,omitempty"`
}

type SnapModule struct {
	ID           string       `json:"id" yaml:"id"`
	Path         string       `json:"path" yaml:"path"`
	Language     string       `json:"language" yaml:"language"`
	Name         string       `json:"name" yaml:"name"`
	Namespace    string       `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Doc          *SnapDoc     `json:"doc,omitempty" yaml:"doc,omitempty"`
	Imports      []SnapImport `json:"imports,omitempty" yaml:"imports,omitempty"`
	Constants    []string     `json:"constants,omitempty" yaml:"constants,omitempty"`
	Functions    []string     `json:"functions,omitempty" yaml:"functions,omitempty"`
	Types        []string     `json:"types,omitempty" yaml:"types,omitempty"`
	BestEffort   bool         `json:"best_effort,omitempty" yaml:"best_effort,omitempty"`
	ExternalDeps []string     `json:"external_deps,omitempty" yaml:"external_deps,omitempty"`
}

type SnapRef struct {
	Text   string `json:"text" yaml:"text"`
	Target string `json:"target" yaml:"target"`
}

type SnapType struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Qualified  string      `json:"qualified" yaml:"qualified"`
	Kind       string      `json:"kind" yaml:"kind"`
	Module     string      `json:"module" yaml:"module"`
	Bases      []SnapRef   `json:"bases,omitempty" yaml:"bases,omitempty"`
	Implements []SnapRef   `json:"implements,omitempty" yaml:"implements,omitempty"`
	Traits     []SnapRef   `json:"traits,omitempty" yaml:"traits,omitempty"`
	Methods    []string    `json:"methods,omitempty" yaml:"methods,omitempty"`
	Attributes []string    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Constants  []string    `json:"constants,omitempty" yaml:"constants,omitempty"`
	StartLine  int         `json:"start_line" yaml:"start_line"`
	EndLine    int         `json:"end_line" yaml:"end_line"`
	Doc        *SnapDoc    `json:"doc,omitempty" yaml:"doc,omitempty"`
	Visibility string      `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Abstract   bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Final      bool        `json:"final,omitempty" yaml:"final,omitempty"`
	Decorators []Decorator `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	BestEffort bool        `json:"best_effort,omitempty" yaml:"best_effort,omitempty"`
}

type SnapParam struct {
	Name            string `json:"name" yaml:"name"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
	TypeTarget      string `json:"type_target,omitempty" yaml:"type_target,omitempty"`
	HasDefault      bool   `json:"has_default,omitempty" yaml:"has_default,omitempty"`
	Default         string `json:"default,omitempty" yaml:"default,omitempty"`
	Variadic        bool   `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	KeywordVariadic bool   `json:"keyword_variadic,omitempty" yaml:"keyword_variadic,omitempty"`
}

type SnapRoutine struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Qualified   string      `json:"qualified" yaml:"qualified"`
	Kind        string      `json:"kind" yaml:"kind"`
	Owner       string      `json:"owner" yaml:"owner"`
	Module      string      `json:"module" yaml:"module"`
	Params      []SnapParam `json:"params,omitempty" yaml:"params,omitempty"`
	Returns     *SnapRef    `json:"returns,omitempty" yaml:"returns,omitempty"`
	Static      bool        `json:"static,omitempty" yaml:"static,omitempty"`
	Abstract    bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Async       bool        `json:"async,omitempty" yaml:"async,omitempty"`
	Generator   bool        `json:"generator,omitempty" yaml:"generator,omitempty"`
	Final       bool        `json:"final,omitempty" yaml:"final,omitempty"`
	Property    bool        `json:"property,omitempty" yaml:"property,omitempty"`
	ClassMethod bool        `json:"classmethod,omitempty" yaml:"classmethod,omitempty"`
	Visibility  string      `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	StartLine   int         `json:"start_line" yaml:"start_line"`
	EndLine     int         `json:"end_line" yaml:"end_line"`
	Doc         *SnapDoc    `json:"doc,omitempty" yaml:"doc,omitempty"`
	Decorators  []Decorator `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	BestEffort  bool        `json:"best_effort,omitempty" yaml:"best_effort,omitempty"`
}

type SnapAttribute struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Owner      string `json:"owner" yaml:"owner"`
	Module     string `json:"module" yaml:"module"`
	Kind       string `json:"kind" yaml:"kind"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	TypeTarget string `json:"type_target,omitempty" yaml:"type_target,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	Static     bool   `json:"static,omitempty" yaml:"static,omitempty"`
	Visibility string `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Line       int    `json:"line" yaml:"line"`
}

type SnapEdge struct {
	Source      string `json:"source" yaml:"source"`
	Target      string `json:"target" yaml:"target"`
	Kind        string `json:"kind" yaml:"kind"`
	Cardinality string `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
	Optional    bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	File        string `json:"file" yaml:"file"`
	Line        int    `json:"line" yaml:"line"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
}

type SnapHop struct {
	Caller     string `json:"caller" yaml:"caller"`
	Callee     string `json:"callee" yaml:"callee"`
	CalleeText string `json:"callee_text,omitempty" yaml:"callee_text,omitempty"`
	Line       int    `json:"line" yaml:"line"`
	Note       string `json:"note,omitempty" yaml:"note,omitempty"`
}

type SnapTrace struct {
	Hops     []SnapHop `json:"hops" yaml:"hops"`
	Depth    int       `json:"depth" yaml:"depth"`
	Terminal string    `json:"terminal" yaml:"terminal"`
}

type SnapFlowEntry struct {
	RoutineID string      `json:"routine_id" yaml:"routine_id"`
	Traces    []SnapTrace `json:"traces" yaml:"traces"`
}

type SnapDiagnostic struct {
	Category string `json:"category" yaml:"category"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	FrontEnd string `json:"front_end,omitempty" yaml:"front_end,omitempty"`
	Stage    string `json:"stage,omitempty" yaml:"stage,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

func snapDoc(d Doc) *SnapDoc {
	if d.Text == "" && len(d.Params) == 0 && d.Returns == "" && len(d.Throws) == 0 {
		return nil
	}
	return &SnapDoc{Text: d.Text, Params: d.Params, Returns: d.Returns, Throws: d.Throws}
}

func snapRefs(refs []Ref) []SnapRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]SnapRef, len(refs))
	for i, r := range refs {
		out[i] = SnapRef{Text: r.Text, Target: string(r.Target)}
	}
	return out
}

func snapIDs(ids []ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// BuildSnapshot produces the deterministic serialisation form of the model.
// Edges and traces are re-sorted; entity sections iterate sorted IDs.
func (m *Model) BuildSnapshot() *Snapshot {
	m.SortEdges()
	m.SortTraces()

	snap := &Snapshot{Incomplete: m.Incomplete}

	for _, id := range m.SortedModuleIDs() {
		mod := m.Modules[id]
		sm := SnapModule{
			ID:           string(mod.ID),
			Path:         mod.Path,
			Language:     mod.Language,
			Name:         mod.Name,
			Namespace:    mod.Namespace,
			Doc:          snapDoc(mod.Doc),
			Constants:    snapIDs(mod.Constants),
			Functions:    snapIDs(mod.Functions),
			Types:        snapIDs(mod.Types),
			BestEffort:   mod.BestEffort,
			ExternalDeps: mod.ExternalDeps,
		}
		for _, imp := range mod.Imports {
			sm.Imports = append(sm.Imports, SnapImport{
				Kind:     string(imp.Kind),
				Module:   imp.Module,
				Names:    imp.Names,
				RelDepth: imp.RelDepth,
				Line:     imp.Line,
				Resolved: string(imp.Resolved),
			})
		}
		snap.Modules = append(snap.Modules, sm)
	}

	for _, id := range m.SortedTypeIDs() {
		t := m.Types[id]
		snap.Types = append(snap.Types, SnapType{
			ID:         string(t.ID),
			Name:       t.Name,
			Qualified:  t.Qualified,
			Kind:       string(t.Kind),
			Module:     string(t.Module),
			Bases:      snapRefs(t.Bases),
			Implements: snapRefs(t.Implements),
			Traits:     snapRefs(t.Traits),
			Methods:    snapIDs(t.Methods),
			Attributes: snapIDs(t.Attributes),
			Constants:  snapIDs(t.Constants),
			StartLine:  t.Span.StartLine,
			EndLine:    t.Span.EndLine,
			Doc:        snapDoc(t.Doc),
			Visibility: string(t.Visibility),
			Abstract:   t.Abstract,
			Final:      t.Final,
			Decorators: t.Decorators,
			BestEffort: t.BestEffort,
		})
	}

	for _, id := range m.SortedRoutineIDs() {
		r := m.Routines[id]
		sr := SnapRoutine{
			ID:          string(r.ID),
			Name:        r.Name,
			Qualified:   r.Qualified,
			Kind:        string(r.Kind),
			Owner:       string(r.Owner),
			Module:      string(r.Module),
			Static:      r.Static,
			Abstract:    r.Abstract,
			Async:       r.Async,
			Generator:   r.Generator,
			Final:       r.Final,
			Property:    r.Property,
			ClassMethod: r.ClassMethod,
			Visibility:  string(r.Visibility),
			StartLine:   r.Span.StartLine,
			EndLine:     r.Span.EndLine,
			Doc:         snapDoc(r.Doc),
			Decorators:  r.Decorators,
			BestEffort:  r.BestEffort,
		}
		for _, p := range r.Params {
			sr.Params = append(sr.Params, SnapParam{
				Name:            p.Name,
				Type:            p.Type.Text,
				TypeTarget:      string(p.Type.Target),
				HasDefault:      p.HasDefault,
				Default:         p.Default,
				Variadic:        p.Variadic,
				KeywordVariadic: p.KeywordVariadic,
			})
		}
		if !r.Returns.IsZero() {
			sr.Returns = &SnapRef{Text: r.Returns.Text, Target: string(r.Returns.Target)}
		}
		snap.Routines = append(snap.Routines, sr)
	}

	for _, id := range m.SortedAttributeIDs() {
		a := m.Attributes[id]
		snap.Attributes = append(snap.Attributes, SnapAttribute{
			ID:         string(a.ID),
			Name:       a.Name,
			Owner:      string(a.Owner),
			Module:     string(a.Module),
			Kind:       string(a.Kind),
			Type:       a.Type.Text,
			TypeTarget: string(a.Type.Target),
			Default:    a.Default,
			Static:     a.Static,
			Visibility: string(a.Visibility),
			Line:       a.Line,
		})
	}

	for _, e := range m.Edges {
		snap.Relationships = append(snap.Relationships, SnapEdge{
			Source:      string(e.Source),
			Target:      string(e.Target),
			Kind:        string(e.Kind),
			Cardinality: string(e.Cardinality),
			Optional:    e.Optional,
			File:        e.Provenance.File,
			Line:        e.Provenance.Line,
			Note:        e.Note,
		})
	}

	// Group traces by entry routine, preserving the sorted trace order.
	var current *SnapFlowEntry
	for _, t := range m.Traces {
		if current == nil || current.RoutineID != string(t.Entry) {
			snap.Flows = append(snap.Flows, SnapFlowEntry{RoutineID: string(t.Entry)})
			current = &snap.Flows[len(snap.Flows)-1]
		}
		st := SnapTrace{Depth: t.Depth, Terminal: string(t.Terminal)}
		for _, h := range t.Hops {
			st.Hops = append(st.Hops, SnapHop{
				Caller:     string(h.Caller),
				Callee:     string(h.Callee),
				CalleeText: h.CalleeText,
				Line:       h.Line,
				Note:       h.Note,
			})
		}
		current.Traces = append(current.Traces, st)
	}

	for _, d := range m.Diagnostics {
		snap.Diagnostics = append(snap.Diagnostics, SnapDiagnostic{
			Category: string(d.Category),
			Path:     d.Path,
			Line:     d.Line,
			FrontEnd: d.FrontEnd,
			Stage:    string(d.Stage),
			Message:  d.Message,
		})
	}

	snap.Summary = m.Summarize()
	return snap
}

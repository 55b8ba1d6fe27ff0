package understory

import (
	"encoding/json"

	"github.com/jward/understory/internal/model"
)

// AnalysisResult is the read-only product of a pipeline run: the full
// entity catalogue indexed by kind and identifier, the relationship
// multigraph, the flow traces grouped by entry routine, the diagnostics
// list, and the summary counters.
type AnalysisResult struct {
	m *model.Model
}

func newResult(m *model.Model) *AnalysisResult {
	return &AnalysisResult{m: m}
}

// Incomplete reports whether the run was cancelled between phases.
func (r *AnalysisResult) Incomplete() bool { return r.m.Incomplete }

// Modules returns every module, sorted by identifier.
func (r *AnalysisResult) Modules() []*Module {
	out := make([]*Module, 0, len(r.m.Modules))
	for _, id := range r.m.SortedModuleIDs() {
		out = append(out, r.m.Modules[id])
	}
	return out
}

// Types returns every type declaration, sorted by identifier.
func (r *AnalysisResult) Types() []*TypeDecl {
	out := make([]*TypeDecl, 0, len(r.m.Types))
	for _, id := range r.m.SortedTypeIDs() {
		out = append(out, r.m.Types[id])
	}
	return out
}

// Routines returns every routine, sorted by identifier.
func (r *AnalysisResult) Routines() []*Routine {
	out := make([]*Routine, 0, len(r.m.Routines))
	for _, id := range r.m.SortedRoutineIDs() {
		out = append(out, r.m.Routines[id])
	}
	return out
}

// Attributes returns every attribute, sorted by identifier.
func (r *AnalysisResult) Attributes() []*Attribute {
	out := make([]*Attribute, 0, len(r.m.Attributes))
	for _, id := range r.m.SortedAttributeIDs() {
		out = append(out, r.m.Attributes[id])
	}
	return out
}

// Module looks one module up by identifier.
func (r *AnalysisResult) Module(id ID) (*Module, bool) {
	mod, ok := r.m.Modules[id]
	return mod, ok
}

// Type looks one type declaration up by identifier.
func (r *AnalysisResult) Type(id ID) (*TypeDecl, bool) {
	t, ok := r.m.Types[id]
	return t, ok
}

// Routine looks one routine up by identifier.
func (r *AnalysisResult) Routine(id ID) (*Routine, bool) {
	rt, ok := r.m.Routines[id]
	return rt, ok
}

// Attribute looks one attribute up by identifier.
func (r *AnalysisResult) Attribute(id ID) (*Attribute, bool) {
	a, ok := r.m.Attributes[id]
	return a, ok
}

// Edges returns the whole relationship multigraph in sorted order.
func (r *AnalysisResult) Edges() []Edge {
	return append([]Edge(nil), r.m.Edges...)
}

// EdgesByKind returns the edges of one kind, in sorted order.
func (r *AnalysisResult) EdgesByKind(kind EdgeKind) []Edge {
	return r.m.EdgesByKind(kind)
}

// Traces returns every flow trace, ordered by entry routine then source
// line.
func (r *AnalysisResult) Traces() []FlowTrace {
	return append([]FlowTrace(nil), r.m.Traces...)
}

// TracesByEntry returns the traces rooted at one routine.
func (r *AnalysisResult) TracesByEntry(entry ID) []FlowTrace {
	return r.m.TracesByEntry(entry)
}

// Diagnostics returns the per-run error report.
func (r *AnalysisResult) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), r.m.Diagnostics...)
}

// Summary returns counts per entity kind, edge kind, terminal marker, and
// language.
func (r *AnalysisResult) Summary() Summary {
	return r.m.Summarize()
}

// Snapshot builds the deterministic serialisation form (§ persistence
// format): one top-level section per entity kind, a flat relationship
// list, and flows grouped by entry routine.
func (r *AnalysisResult) Snapshot() *Snapshot {
	return r.m.BuildSnapshot()
}

// MarshalJSON serialises the snapshot form. Two runs over identical input
// produce byte-identical output.
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

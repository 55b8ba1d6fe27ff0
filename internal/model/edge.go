package model

import "sort"

// EdgeKind classifies a relationship edge.
type EdgeKind string

const (
	EdgeInherits   EdgeKind = "inherits"
	EdgeImplements EdgeKind = "implements"
	EdgeUsesTrait  EdgeKind = "uses-trait"
	EdgeImports    EdgeKind = "imports"
	EdgeComposes   EdgeKind = "composes"
	EdgeAggregates EdgeKind = "aggregates"
	EdgeAssociates EdgeKind = "associates"
	EdgeCalls      EdgeKind = "calls"
)

// Cardinality hints on composition/aggregation/association edges.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Provenance records where an inferred fact was first observed.
type Provenance struct {
	File string
	Line int
}

// Edge is one directed relationship in the multigraph. Edges are stored in
// a flat table; entities hold no outgoing reference collections beyond the
// members they strictly own, so cyclic relationships cannot produce cyclic
// record structures.
type Edge struct {
	Source      ID
	Target      ID
	Kind        EdgeKind
	Cardinality Cardinality
	Optional    bool
	Provenance  Provenance
	Note        string
}

// AddEdge appends an edge to the model's edge table.
func (m *Model) AddEdge(e Edge) {
	m.Edges = append(m.Edges, e)
}

// HasEdge reports whether an edge with the given kind, source and target
// already exists. Rules fire at most once per (source, target) pair.
func (m *Model) HasEdge(kind EdgeKind, source, target ID) bool {
	for _, e := range m.Edges {
		if e.Kind == kind && e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// EdgesByKind returns all edges of the given kind, in stored order.
func (m *Model) EdgesByKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range m.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// SortEdges orders the edge table by (kind, source, target, line) so the
// serialised form is byte-identical across runs.
func (m *Model) SortEdges() {
	sort.SliceStable(m.Edges, func(i, j int) bool {
		a, b := m.Edges[i], m.Edges[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Provenance.Line < b.Provenance.Line
	})
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	m := NewModel("/proj")
	modID := MakeID(KindModule, "a.py", "a")
	m.Modules[modID] = &Module{ID: modID, Path: "a.py", Language: "python", Name: "a"}

	tA := MakeID(KindType, "a.py", "A")
	tB := MakeID(KindType, "a.py", "B")
	m.Types[tA] = &TypeDecl{ID: tA, Name: "A", Qualified: "a.A", Kind: TypeClass, Module: modID, Span: Span{1, 2}}
	m.Types[tB] = &TypeDecl{
		ID: tB, Name: "B", Qualified: "a.B", Kind: TypeClass, Module: modID,
		Bases: []Ref{{Text: "A", Target: tA}}, Span: Span{3, 4},
	}
	m.Modules[modID].Types = []ID{tA, tB}

	rID := MakeID(KindRoutine, "a.py", "B.run")
	m.Routines[rID] = &Routine{ID: rID, Name: "run", Kind: RoutineMethod, Owner: tB, Module: modID, Visibility: Public, Span: Span{3, 4}}
	m.Types[tB].Methods = []ID{rID}

	m.AddEdge(Edge{Source: tB, Target: tA, Kind: EdgeInherits, Provenance: Provenance{File: "a.py", Line: 3}})
	return m
}

func TestMakeID(t *testing.T) {
	t.Parallel()
	id := MakeID(KindType, "m/a.py", "A")
	assert.Equal(t, ID("type:m/a.py:A"), id)
	assert.Equal(t, KindType, KindOf(id))
	assert.Equal(t, "m/a.py", PathOf(id))
	assert.Equal(t, ID("type:m/a.py:A:2"), Disambiguate(id, 2))
}

func TestKindOf_External(t *testing.T) {
	t.Parallel()
	assert.Equal(t, EntityKind(""), KindOf(External))
}

func TestValidate_Passes(t *testing.T) {
	t.Parallel()
	require.NoError(t, sampleModel().Validate())
}

func TestValidate_InheritanceCycle(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	tA := ID("type:a.py:A")
	tB := ID("type:a.py:B")
	m.Types[tA].Bases = []Ref{{Text: "B", Target: tB}}
	require.Error(t, m.Validate())
}

func TestValidate_DoubleOwnership(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	rID := ID("routine:a.py:B.run")
	m.Types["type:a.py:A"].Methods = []ID{rID} // second owner
	require.Error(t, m.Validate())
}

func TestValidate_DanglingEdge(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	m.AddEdge(Edge{Source: "type:a.py:B", Target: "type:ghost.py:X", Kind: EdgeAssociates})
	require.Error(t, m.Validate())
}

func TestValidate_ExternalEndpointAllowed(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	m.AddEdge(Edge{Source: "type:a.py:B", Target: External, Kind: EdgeInherits})
	require.NoError(t, m.Validate())
}

func TestBuildSnapshot_Deterministic(t *testing.T) {
	t.Parallel()
	one, err := json.Marshal(sampleModel().BuildSnapshot())
	require.NoError(t, err)
	two, err := json.Marshal(sampleModel().BuildSnapshot())
	require.NoError(t, err)
	assert.Equal(t, one, two)
}

func TestBuildSnapshot_Sections(t *testing.T) {
	t.Parallel()
	snap := sampleModel().BuildSnapshot()

	require.Len(t, snap.Modules, 1)
	assert.Equal(t, "a.py", snap.Modules[0].Path)
	require.Len(t, snap.Types, 2)
	assert.Equal(t, "type:a.py:A", snap.Types[0].ID)
	require.Len(t, snap.Routines, 1)
	require.Len(t, snap.Relationships, 1)
	assert.Equal(t, "inherits", snap.Relationships[0].Kind)
	assert.Equal(t, 1, snap.Summary.Entities["routine"])
	assert.Equal(t, 1, snap.Summary.Edges["inherits"])
	assert.Equal(t, 1, snap.Summary.Languages["python"])
}

func TestSortEdges_Order(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	m.Edges = nil
	m.AddEdge(Edge{Source: "type:a.py:B", Target: External, Kind: EdgeInherits, Provenance: Provenance{Line: 9}})
	m.AddEdge(Edge{Source: "type:a.py:A", Target: External, Kind: EdgeAssociates, Provenance: Provenance{Line: 1}})
	m.AddEdge(Edge{Source: "type:a.py:A", Target: External, Kind: EdgeInherits, Provenance: Provenance{Line: 5}})
	m.SortEdges()

	assert.Equal(t, EdgeAssociates, m.Edges[0].Kind)
	assert.Equal(t, ID("type:a.py:A"), m.Edges[1].Source)
	assert.Equal(t, ID("type:a.py:B"), m.Edges[2].Source)
}

func TestTracesByEntryAndSort(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	rID := ID("routine:a.py:B.run")
	m.AddTrace(FlowTrace{Entry: rID, Hops: []Hop{{Caller: rID, Callee: External, Line: 9}}, Depth: 1, Terminal: TerminalUnresolved})
	m.AddTrace(FlowTrace{Entry: rID, Hops: []Hop{{Caller: rID, Callee: External, Line: 2}}, Depth: 1, Terminal: TerminalUnresolved})
	m.SortTraces()

	traces := m.TracesByEntry(rID)
	require.Len(t, traces, 2)
	assert.Equal(t, 2, traces[0].Hops[0].Line)
	assert.Equal(t, 9, traces[1].Hops[0].Line)
}

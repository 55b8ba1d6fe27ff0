package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/build"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

func analyze(t *testing.T, opts Options, records ...*frontend.FileRecord) *model.Model {
	t.Helper()
	m, ix, err := build.New(nil).Build(context.Background(), "/proj", records)
	require.NoError(t, err)
	New(opts, nil).Run(context.Background(), m, ix)
	m.SortTraces()
	return m
}

// fn builds a module-level function record with the given call sites.
func fn(name string, line int, calls ...string) frontend.RoutineRecord {
	rr := frontend.RoutineRecord{
		Name: name, Kind: model.RoutineFunction,
		Visibility: model.Public, StartLine: line, EndLine: line + 1,
	}
	for i, callee := range calls {
		rr.Calls = append(rr.Calls, model.CallSite{Callee: callee, Line: line + i})
	}
	return rr
}

func TestRun_DepthBoundedChain(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "chain.py", Language: "python", ModuleName: "chain",
		Functions: []frontend.RoutineRecord{
			fn("a", 1, "b"),
			fn("b", 10, "c"),
			fn("c", 20, "d"),
			fn("d", 30, "e"),
			fn("e", 40, "f"),
			fn("f", 50),
		},
	}
	m := analyze(t, Options{MaxDepth: 3, EntryPoints: []string{"a"}}, rec)

	traces := m.TracesByEntry("routine:chain.py:a")
	require.Len(t, traces, 1)
	tr := traces[0]

	require.Len(t, tr.Hops, 3)
	assert.Equal(t, model.ID("routine:chain.py:b"), tr.Hops[0].Callee)
	assert.Equal(t, model.ID("routine:chain.py:c"), tr.Hops[1].Callee)
	assert.Equal(t, model.ID("routine:chain.py:d"), tr.Hops[2].Callee)
	assert.Equal(t, model.TerminalDepthLimit, tr.Terminal)
}

func TestRun_LeafTerminal(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "leaf.py", Language: "python", ModuleName: "leaf",
		Functions: []frontend.RoutineRecord{
			fn("main", 1, "work"),
			fn("work", 10),
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"main"}}, rec)

	traces := m.TracesByEntry("routine:leaf.py:main")
	require.Len(t, traces, 1)
	assert.Equal(t, model.TerminalLeaf, traces[0].Terminal)
}

func TestRun_CycleBreak(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "loop.py", Language: "python", ModuleName: "loop",
		Functions: []frontend.RoutineRecord{
			fn("ping", 1, "pong"),
			fn("pong", 10, "ping"),
		},
	}
	m := analyze(t, Options{MaxDepth: 10, EntryPoints: []string{"ping"}}, rec)

	traces := m.TracesByEntry("routine:loop.py:ping")
	require.Len(t, traces, 1)
	tr := traces[0]
	assert.Equal(t, model.TerminalCycleBreak, tr.Terminal)
	// ping→pong, pong→ping, stop: the entry is already on the path.
	require.Len(t, tr.Hops, 2)
}

func TestRun_UnresolvedTerminal(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "ext.py", Language: "python", ModuleName: "ext",
		Functions: []frontend.RoutineRecord{
			fn("main", 1, "missing_helper"),
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"main"}}, rec)

	traces := m.TracesByEntry("routine:ext.py:main")
	require.Len(t, traces, 1)
	tr := traces[0]
	assert.Equal(t, model.TerminalUnresolved, tr.Terminal)
	require.Len(t, tr.Hops, 1)
	assert.Equal(t, model.External, tr.Hops[0].Callee)
	assert.Equal(t, "missing_helper", tr.Hops[0].CalleeText)
}

func TestRun_SelfDispatchWithInheritance(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "cls.py", Language: "python", ModuleName: "cls",
		Types: []frontend.TypeRecord{
			{Name: "Base", Kind: model.TypeClass, StartLine: 1, EndLine: 5,
				Methods: []frontend.RoutineRecord{{
					Name: "helper", Kind: model.RoutineMethod, Visibility: model.Public,
					StartLine: 2, EndLine: 3,
				}}},
			{Name: "Svc", Kind: model.TypeClass, StartLine: 6, EndLine: 12,
				Bases: []string{"Base"},
				Methods: []frontend.RoutineRecord{{
					Name: "run", Kind: model.RoutineMethod, Visibility: model.Public,
					StartLine: 7, EndLine: 9,
					Calls: []model.CallSite{{Callee: "self.helper", Receiver: "self", Line: 8}},
				}}},
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"Svc.run"}}, rec)

	traces := m.TracesByEntry("routine:cls.py:Svc.run")
	require.Len(t, traces, 1)
	hop := traces[0].Hops[0]
	assert.Equal(t, model.ID("routine:cls.py:Base.helper"), hop.Callee)
	assert.Equal(t, "inherited from Base", hop.Note)
}

func TestRun_ReceiverTypedByParameter(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "recv.py", Language: "python", ModuleName: "recv",
		Types: []frontend.TypeRecord{
			{Name: "Engine", Kind: model.TypeClass, StartLine: 1, EndLine: 5,
				Methods: []frontend.RoutineRecord{{
					Name: "start", Kind: model.RoutineMethod, Visibility: model.Public,
					StartLine: 2, EndLine: 3,
				}}},
		},
		Functions: []frontend.RoutineRecord{{
			Name: "boot", Kind: model.RoutineFunction, Visibility: model.Public,
			StartLine: 7, EndLine: 9,
			Params: []frontend.ParamRecord{{Name: "engine", Type: "Engine"}},
			Calls:  []model.CallSite{{Callee: "engine.start", Receiver: "engine", Line: 8}},
		}},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"boot"}}, rec)

	traces := m.TracesByEntry("routine:recv.py:boot")
	require.Len(t, traces, 1)
	assert.Equal(t, model.ID("routine:recv.py:Engine.start"), traces[0].Hops[0].Callee)
}

func TestRun_ReceiverTypedByAttribute(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "attr.py", Language: "python", ModuleName: "attr",
		Types: []frontend.TypeRecord{
			{Name: "Engine", Kind: model.TypeClass, StartLine: 1, EndLine: 5,
				Methods: []frontend.RoutineRecord{{
					Name: "start", Kind: model.RoutineMethod, Visibility: model.Public,
					StartLine: 2, EndLine: 3,
				}}},
			{Name: "Car", Kind: model.TypeClass, StartLine: 6, EndLine: 14,
				Attrs: []frontend.AttrRecord{{
					Name: "engine", Kind: model.AttrInstance, Line: 8, AssignedNew: "Engine",
				}},
				Methods: []frontend.RoutineRecord{{
					Name: "drive", Kind: model.RoutineMethod, Visibility: model.Public,
					StartLine: 10, EndLine: 12,
					Calls: []model.CallSite{{Callee: "self.engine.start", Receiver: "self.engine", Line: 11}},
				}}},
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"Car.drive"}}, rec)

	traces := m.TracesByEntry("routine:attr.py:Car.drive")
	require.Len(t, traces, 1)
	assert.Equal(t, model.ID("routine:attr.py:Engine.start"), traces[0].Hops[0].Callee)
}

func TestRun_LocalWinsOverImported(t *testing.T) {
	t.Parallel()
	lib := &frontend.FileRecord{
		RelPath: "m/lib.py", Language: "python", ModuleName: "lib",
		Functions: []frontend.RoutineRecord{fn("work", 1)},
	}
	app := &frontend.FileRecord{
		RelPath: "m/app.py", Language: "python", ModuleName: "app",
		Imports: []frontend.ImportRecord{{
			Kind: model.ImportRelative, Module: "lib", RelDepth: 1, Line: 1,
			Names: []model.ImportedName{{Name: "work"}},
		}},
		Functions: []frontend.RoutineRecord{
			fn("main", 3, "work"),
			fn("work", 10), // local helper shadows the import
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"main"}}, lib, app)

	traces := m.TracesByEntry("routine:m/app.py:main")
	require.Len(t, traces, 1)
	assert.Equal(t, model.ID("routine:m/app.py:work"), traces[0].Hops[0].Callee)
}

func TestRun_OneTracePerCallSite(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "multi.py", Language: "python", ModuleName: "multi",
		Functions: []frontend.RoutineRecord{
			fn("main", 1, "first", "second"),
			fn("first", 10),
			fn("second", 20),
		},
	}
	m := analyze(t, Options{MaxDepth: 5, EntryPoints: []string{"main"}}, rec)

	traces := m.TracesByEntry("routine:multi.py:main")
	require.Len(t, traces, 2)
	assert.Equal(t, model.ID("routine:multi.py:first"), traces[0].Hops[0].Callee)
	assert.Equal(t, model.ID("routine:multi.py:second"), traces[1].Hops[0].Callee)
}

func TestRun_PublicRoutinesAreDefaultEntries(t *testing.T) {
	t.Parallel()
	rec := &frontend.FileRecord{
		RelPath: "pub.py", Language: "python", ModuleName: "pub",
		Functions: []frontend.RoutineRecord{
			fn("visible", 1, "helper"),
			fn("helper", 10),
			{Name: "_hidden", Kind: model.RoutineFunction, Visibility: model.Private,
				StartLine: 20, EndLine: 21,
				Calls: []model.CallSite{{Callee: "helper", Line: 20}}},
		},
	}
	m := analyze(t, Options{MaxDepth: 5}, rec)

	assert.NotEmpty(t, m.TracesByEntry("routine:pub.py:visible"))
	assert.Empty(t, m.TracesByEntry("routine:pub.py:_hidden"))
}

func TestRun_DepthBoundProperty(t *testing.T) {
	t.Parallel()
	// No trace may contain more than MaxDepth hops, and every trace ends
	// in exactly one terminal marker.
	rec := &frontend.FileRecord{
		RelPath: "deep.py", Language: "python", ModuleName: "deep",
		Functions: []frontend.RoutineRecord{
			fn("r0", 1, "r1"), fn("r1", 10, "r2"), fn("r2", 20, "r3"),
			fn("r3", 30, "r4"), fn("r4", 40, "r5"), fn("r5", 50, "r0"),
		},
	}
	m := analyze(t, Options{MaxDepth: 4}, rec)

	require.NotEmpty(t, m.Traces)
	for _, tr := range m.Traces {
		assert.LessOrEqual(t, len(tr.Hops), 4)
		assert.NotEmpty(t, tr.Terminal)
	}
}

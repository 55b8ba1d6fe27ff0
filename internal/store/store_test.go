package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Modules: []model.SnapModule{{
			ID: "module:a.py:a", Path: "a.py", Language: "python", Name: "a",
			Imports: []model.SnapImport{{Kind: "module", Module: "os", Line: 1}},
		}},
		Types: []model.SnapType{{
			ID: "type:a.py:A", Module: "module:a.py:a", Name: "A",
			Qualified: "a.A", Kind: "class", StartLine: 3, EndLine: 9,
		}},
		Routines: []model.SnapRoutine{{
			ID: "routine:a.py:A.run", Owner: "type:a.py:A", Module: "module:a.py:a",
			Name: "run", Qualified: "a.A.run", Kind: "method",
			Params:    []model.SnapParam{{Name: "count", Type: "int"}},
			StartLine: 4, EndLine: 6,
		}},
		Attributes: []model.SnapAttribute{{
			ID: "attribute:a.py:A.size", Owner: "type:a.py:A", Module: "module:a.py:a",
			Name: "size", Kind: "instance", Line: 5,
		}},
		Relationships: []model.SnapEdge{{
			Source: "type:a.py:A", Target: "external", Kind: "inherits", File: "a.py", Line: 3,
		}},
		Flows: []model.SnapFlowEntry{{
			RoutineID: "routine:a.py:A.run",
			Traces: []model.SnapTrace{{
				Depth: 1, Terminal: "unresolved",
				Hops: []model.SnapHop{{
					Caller: "routine:a.py:A.run", Callee: "external",
					CalleeText: "mystery", Line: 5,
				}},
			}},
		}},
		Diagnostics: []model.SnapDiagnostic{{
			Category: "parse-failure", Path: "bad.py", Message: "boom",
		}},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestSaveSnapshot_RoundTripCounts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["modules"])
	assert.Equal(t, 1, counts["types"])
	assert.Equal(t, 1, counts["routines"])
	assert.Equal(t, 1, counts["attributes"])
	assert.Equal(t, 1, counts["relationships"])
	assert.Equal(t, 1, counts["flow_traces"])
	assert.Equal(t, 1, counts["diagnostics"])
}

func TestSaveSnapshot_Replaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["modules"], "second save must replace, not append")
}

func TestEdgesByKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	edges, err := s.EdgesByKind("inherits")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "type:a.py:A", edges[0].Source)
	assert.Equal(t, "external", edges[0].Target)

	none, err := s.EdgesByKind("composes")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTraceEntryIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot()))

	entries, err := s.TraceEntryIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"routine:a.py:A.run"}, entries)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("k", "v1"))
	require.NoError(t, s.SetMetadata("k", "v2"))
	v, err = s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

package understory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree materialises a fixture project under a temp root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

// pythonOnly disables the helper-backed front-ends so tests do not depend
// on a Node installation.
func pythonOnly() Config {
	off := false
	cfg := DefaultConfig()
	cfg.Languages = map[string]LanguageConfig{
		LangJavaScript: {Enabled: &off},
		LangTypeScript: {Enabled: &off},
	}
	return cfg
}

func TestAnalyze_SingleLanguageInheritance(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"shapes.py": "class A:\n    pass\n\nclass B(A):\n    pass\n",
	})

	result, err := Analyze(context.Background(), root, pythonOnly())
	require.NoError(t, err)

	types := result.Types()
	require.Len(t, types, 2)
	assert.Equal(t, "A", types[0].Name)
	assert.Equal(t, "B", types[1].Name)
	assert.Empty(t, types[0].Methods)
	assert.Empty(t, types[1].Methods)

	inherits := result.EdgesByKind(EdgeInherits)
	require.Len(t, inherits, 1)
	assert.Equal(t, ID("type:shapes.py:B"), inherits[0].Source)
	assert.Equal(t, ID("type:shapes.py:A"), inherits[0].Target)

	assert.Empty(t, result.EdgesByKind(EdgeComposes))
	assert.Empty(t, result.EdgesByKind(EdgeAggregates))
	assert.Empty(t, result.EdgesByKind(EdgeAssociates))
	assert.Empty(t, result.EdgesByKind(EdgeImports))
}

func TestAnalyze_CrossFileResolution(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"m/a.py": "class A:\n    pass\n",
		"m/b.py": "from .a import A\n\nclass B(A):\n    pass\n",
	})

	result, err := Analyze(context.Background(), root, pythonOnly())
	require.NoError(t, err)

	imports := result.EdgesByKind(EdgeImports)
	require.Len(t, imports, 1)
	assert.Equal(t, ID("module:m/b.py:m.b"), imports[0].Source)
	assert.Equal(t, ID("module:m/a.py:m.a"), imports[0].Target)

	inherits := result.EdgesByKind(EdgeInherits)
	require.Len(t, inherits, 1)
	assert.Equal(t, ID("type:m/a.py:A"), inherits[0].Target, "target must be A's identifier, not External")
}

func TestAnalyze_CompositionVsAggregation(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"cars.py": `class Engine:
    pass

class Driver:
    pass

class Car:
    def __init__(self, driver: Driver):
        self.engine = Engine()
        self.driver = driver
`,
	})

	result, err := Analyze(context.Background(), root, pythonOnly())
	require.NoError(t, err)

	composes := result.EdgesByKind(EdgeComposes)
	require.Len(t, composes, 1)
	assert.Equal(t, ID("type:cars.py:Car"), composes[0].Source)
	assert.Equal(t, ID("type:cars.py:Engine"), composes[0].Target)

	aggregates := result.EdgesByKind(EdgeAggregates)
	require.Len(t, aggregates, 1)
	assert.Equal(t, ID("type:cars.py:Driver"), aggregates[0].Target)

	assert.Empty(t, result.EdgesByKind(EdgeAssociates))
}

func TestAnalyze_DepthBoundedFlow(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"chain.py": `def a():
    b()

def b():
    c()

def c():
    d()

def d():
    e()

def e():
    f()

def f():
    pass
`,
	})

	cfg := pythonOnly()
	cfg.Flow.MaxDepth = 3
	cfg.Flow.EntryPoints = []string{"a"}

	result, err := Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	traces := result.TracesByEntry("routine:chain.py:a")
	require.Len(t, traces, 1)
	tr := traces[0]
	require.Len(t, tr.Hops, 3)
	assert.Equal(t, ID("routine:chain.py:b"), tr.Hops[0].Callee)
	assert.Equal(t, ID("routine:chain.py:c"), tr.Hops[1].Callee)
	assert.Equal(t, ID("routine:chain.py:d"), tr.Hops[2].Callee)
	assert.Equal(t, TerminalDepthLimit, tr.Terminal)
}

func TestAnalyze_DegradedWithoutHelper(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"app.ts":   "export class App {}\n",
		"other.ts": "export class Other {}\n",
		"ok.py":    "class Fine:\n    pass\n",
	})

	cfg := DefaultConfig()
	cfg.HelperCommand = []string{"/nonexistent/understory-js-helper"}

	result, err := Analyze(context.Background(), root, cfg)
	require.NoError(t, err, "helper unavailability must not fail the run")

	// No TS entities; python analysed normally.
	for _, typ := range result.Types() {
		assert.NotContains(t, string(typ.ID), ".ts:")
	}
	require.Len(t, result.Types(), 1)
	assert.Equal(t, "Fine", result.Types()[0].Name)

	var degraded int
	for _, d := range result.Diagnostics() {
		if d.Category == DiagHelperUnavailable {
			degraded++
		}
	}
	assert.Equal(t, 1, degraded)
}

func TestAnalyze_FaultTolerance(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"good.py":  "class Good:\n    pass\n",
		"other.py": "class Other:\n    pass\n",
	}
	root := writeTree(t, files)

	base, err := Analyze(context.Background(), root, pythonOnly())
	require.NoError(t, err)
	require.Len(t, base.Types(), 2)

	files["broken.py"] = "@@ ?? ++\n"
	root2 := writeTree(t, files)
	withBad, err := Analyze(context.Background(), root2, pythonOnly())
	require.NoError(t, err)

	// The catalogue shrinks by exactly the broken file's entities, with
	// exactly one parse-failure diagnostic.
	assert.Len(t, withBad.Types(), 2)
	var parseFailures int
	for _, d := range withBad.Diagnostics() {
		if d.Category == DiagParseFailure {
			parseFailures++
			assert.Equal(t, "broken.py", d.Path)
		}
	}
	assert.Equal(t, 1, parseFailures)
}

func TestAnalyze_Determinism(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/core.py": `"""Core module."""

from .util import helper

class Service:
    def run(self):
        helper()
`,
		"pkg/util.py": "def helper():\n    pass\n",
	})

	run := func() []byte {
		result, err := Analyze(context.Background(), root, pythonOnly())
		require.NoError(t, err)
		payload, err := json.Marshal(result)
		require.NoError(t, err)
		return payload
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "serialised results must be byte-identical across runs")
}

func TestAnalyze_SerialMatchesParallel(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"a.py": "class A:\n    pass\n",
		"b.py": "class B:\n    pass\n",
		"c.py": "class C:\n    pass\n",
	})

	parallel := pythonOnly()
	serial := pythonOnly()
	serial.Workers = 1

	r1, err := Analyze(context.Background(), root, parallel)
	require.NoError(t, err)
	r2, err := Analyze(context.Background(), root, serial)
	require.NoError(t, err)

	p1, err := json.Marshal(r1)
	require.NoError(t, err)
	p2, err := json.Marshal(r2)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestAnalyze_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Flow.MaxDepth = -1
	_, err := Analyze(context.Background(), t.TempDir(), cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestAnalyze_CancelledBeforeWalk(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Analyze(ctx, t.TempDir(), pythonOnly())
	require.NoError(t, err)
	assert.True(t, result.Incomplete())
}

func TestAnalyze_SummaryCounts(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"one.py": "class A:\n    pass\n\ndef go():\n    pass\n",
	})

	result, err := Analyze(context.Background(), root, pythonOnly())
	require.NoError(t, err)

	sum := result.Summary()
	assert.Equal(t, 1, sum.Entities["module"])
	assert.Equal(t, 1, sum.Entities["type"])
	assert.Equal(t, 1, sum.Entities["routine"])
	assert.Equal(t, 1, sum.Languages["python"])
}

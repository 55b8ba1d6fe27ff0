package jsfe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

func newTestFE(t *testing.T, lang string) *FrontEnd {
	t.Helper()
	return New(nil, lang, frontend.Options{Docstrings: true, Types: true})
}

func TestClassRecord_HeritageAndMembers(t *testing.T) {
	t.Parallel()
	fe := newTestFE(t, "typescript")

	tr := fe.classRecord(classTree{
		Name:       "Car",
		Superclass: "Vehicle",
		Implements: []string{"Driveable"},
		Start:      3,
		End:        30,
		Doc:        "/** A car. */",
		Members: []memberTree{
			{
				Kind: "constructor", Name: "constructor", Start: 5, End: 9,
				Params: []paramTree{{Name: "driver", Type: "Driver"}},
				Assignments: []assignTree{
					{Name: "engine", FromNew: "Engine", Line: 6},
					{Name: "driver", FromParam: "driver", Line: 7},
				},
			},
			{
				Kind: "method", Name: "start", Async: true, Start: 11, End: 14,
				ReturnType: "Promise<void>",
				Calls:      []callTree{{Callee: "this.ignite", Receiver: "this", Line: 12}},
			},
			{Kind: "property", Name: "odometer", Type: "number", Start: 4},
		},
	})

	assert.Equal(t, model.TypeClass, tr.Kind)
	assert.Equal(t, []string{"Vehicle"}, tr.Bases)
	assert.Equal(t, []string{"Driveable"}, tr.Implements)
	assert.Equal(t, "A car.", tr.Doc.Text)

	require.Len(t, tr.Methods, 2)
	start := tr.Methods[1]
	assert.Equal(t, "start", start.Name)
	assert.True(t, start.Async)
	assert.Equal(t, "Promise<void>", start.Returns)
	require.Len(t, start.Calls, 1)
	assert.Equal(t, "this.ignite", start.Calls[0].Callee)

	// odometer declared, engine and driver from the constructor.
	require.Len(t, tr.Attrs, 3)
	assert.Equal(t, "odometer", tr.Attrs[0].Name)
	assert.Equal(t, "number", tr.Attrs[0].Type)
	assert.Equal(t, "engine", tr.Attrs[1].Name)
	assert.Equal(t, "Engine", tr.Attrs[1].AssignedNew)
	assert.Equal(t, "driver", tr.Attrs[2].Name)
	assert.Equal(t, "driver", tr.Attrs[2].AssignedParam)
	assert.Equal(t, "Driver", tr.Attrs[2].Type)
}

func TestClassRecord_JSDocFallbackHeritage(t *testing.T) {
	t.Parallel()
	fe := newTestFE(t, "javascript")
	tr := fe.classRecord(classTree{
		Name: "Dog",
		Doc:  "/**\n * @extends Animal\n * @implements {Pet}\n */",
	})
	assert.Equal(t, []string{"Animal"}, tr.Bases)
	assert.Equal(t, []string{"Pet"}, tr.Implements)
}

func TestInterfaceRecord(t *testing.T) {
	t.Parallel()
	fe := newTestFE(t, "typescript")
	tr := fe.interfaceRecord(ifaceTree{
		Name:    "Driveable",
		Extends: []string{"Movable"},
		Members: []memberTree{
			{Kind: "method", Name: "drive", Params: []paramTree{{Name: "km", Type: "number"}}},
			{Kind: "property", Name: "wheels", Type: "number"},
		},
	})
	assert.Equal(t, model.TypeInterface, tr.Kind)
	assert.Equal(t, []string{"Movable"}, tr.Bases)
	require.Len(t, tr.Methods, 1)
	assert.True(t, tr.Methods[0].Abstract)
	require.Len(t, tr.Attrs, 1)
	assert.Equal(t, "wheels", tr.Attrs[0].Name)
}

func TestFuncRecord_ArrowAndFlags(t *testing.T) {
	t.Parallel()
	fe := newTestFE(t, "javascript")
	rr := fe.funcRecord(funcTree{
		Name: "fetchAll", Kind: "arrow", Async: true,
		Params: []paramTree{{Name: "ids", Rest: true}},
		Calls: []callTree{
			{Callee: "fetchOne", Line: 2},
			{Callee: "new Client", Line: 3}, // constructor calls are dropped
		},
	})
	assert.Equal(t, model.RoutineArrow, rr.Kind)
	assert.True(t, rr.Async)
	require.Len(t, rr.Params, 1)
	assert.True(t, rr.Params[0].Variadic)
	require.Len(t, rr.Calls, 1)
	assert.Equal(t, "fetchOne", rr.Calls[0].Callee)
}

func TestRelDepth(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, relDepth("./util"))
	assert.Equal(t, 2, relDepth("../../lib/util"))
	assert.Equal(t, 0, relDepth("lodash"))
}

func TestAccessVisibility(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.Private, accessVisibility("private", "x"))
	assert.Equal(t, model.Protected, accessVisibility("protected", "x"))
	assert.Equal(t, model.Private, accessVisibility("", "_hidden"))
	assert.Equal(t, model.Private, accessVisibility("", "#secret"))
	assert.Equal(t, model.Public, accessVisibility("", "open"))
}

func TestStartHelper_UnavailableCommand(t *testing.T) {
	t.Parallel()
	_, err := StartHelper(context.Background(),
		[]string{"/nonexistent/understory-helper"}, 0, nil)
	require.Error(t, err)
}

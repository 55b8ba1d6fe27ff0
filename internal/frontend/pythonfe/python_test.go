package pythonfe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

func parse(t *testing.T, source string) *frontend.FileRecord {
	t.Helper()
	fe := New(frontend.Options{Docstrings: true, Types: true})
	rec, err := fe.ParseFile(context.Background(), "pkg/mod.py", []byte(source))
	require.NoError(t, err)
	return rec
}

func TestParseFile_ClassesAndInheritance(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
class Base:
    """Base of everything."""

class Child(Base, mixins.Loggable):
    pass
`)
	require.Len(t, rec.Types, 2)
	base, child := rec.Types[0], rec.Types[1]
	assert.Equal(t, "Base", base.Name)
	assert.Equal(t, model.TypeClass, base.Kind)
	assert.Equal(t, "Base of everything.", base.Doc.Text)
	assert.Equal(t, "Child", child.Name)
	assert.Equal(t, []string{"Base", "mixins.Loggable"}, child.Bases)
}

func TestParseFile_MethodsAndDecorators(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
class Service:
    @staticmethod
    def helper():
        pass

    @classmethod
    def create(cls, name):
        pass

    @property
    def size(self):
        return self._size

    async def fetch(self, url: str) -> bytes:
        return await get(url)

    def scan(self):
        yield 1
`)
	require.Len(t, rec.Types, 1)
	methods := rec.Types[0].Methods
	require.Len(t, methods, 5)

	helper := methods[0]
	assert.True(t, helper.Static)
	assert.Empty(t, helper.Params)

	create := methods[1]
	assert.True(t, create.ClassMethod)
	// cls is implicit and omitted from the exported list.
	require.Len(t, create.Params, 1)
	assert.Equal(t, "name", create.Params[0].Name)

	size := methods[2]
	assert.True(t, size.Property)

	fetch := methods[3]
	assert.True(t, fetch.Async)
	require.Len(t, fetch.Params, 1)
	assert.Equal(t, "url", fetch.Params[0].Name)
	assert.Equal(t, "str", fetch.Params[0].Type)
	assert.Equal(t, "bytes", fetch.Returns)

	scan := methods[4]
	assert.True(t, scan.Generator)
}

func TestParseFile_Parameters(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
def run(a, b: int, c=1, d: str = "x", *args, **kwargs):
    pass
`)
	require.Len(t, rec.Functions, 1)
	params := rec.Functions[0].Params
	require.Len(t, params, 6)

	assert.Equal(t, frontend.ParamRecord{Name: "a"}, params[0])
	assert.Equal(t, frontend.ParamRecord{Name: "b", Type: "int"}, params[1])
	assert.Equal(t, "c", params[2].Name)
	assert.True(t, params[2].HasDefault)
	assert.Equal(t, "1", params[2].Default)
	assert.Equal(t, "d", params[3].Name)
	assert.Equal(t, "str", params[3].Type)
	assert.True(t, params[3].HasDefault)
	assert.Equal(t, `"x"`, params[3].Default)
	assert.True(t, params[4].Variadic)
	assert.Equal(t, "args", params[4].Name)
	assert.True(t, params[5].KeywordVariadic)
	assert.Equal(t, "kwargs", params[5].Name)
}

func TestParseFile_ImportShapes(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
import os.path
import numpy as np
from collections import OrderedDict, defaultdict as dd
from ..sibling import Thing
`)
	require.Len(t, rec.Imports, 4)

	assert.Equal(t, model.ImportModule, rec.Imports[0].Kind)
	assert.Equal(t, "os.path", rec.Imports[0].Module)

	assert.Equal(t, model.ImportModule, rec.Imports[1].Kind)
	assert.Equal(t, "numpy", rec.Imports[1].Module)
	require.Len(t, rec.Imports[1].Names, 1)
	assert.Equal(t, "np", rec.Imports[1].Names[0].Alias)

	named := rec.Imports[2]
	assert.Equal(t, model.ImportNamed, named.Kind)
	assert.Equal(t, "collections", named.Module)
	require.Len(t, named.Names, 2)
	assert.Equal(t, model.ImportedName{Name: "OrderedDict"}, named.Names[0])
	assert.Equal(t, model.ImportedName{Name: "defaultdict", Alias: "dd"}, named.Names[1])

	rel := rec.Imports[3]
	assert.Equal(t, model.ImportRelative, rel.Kind)
	assert.Equal(t, 2, rel.RelDepth)
	assert.Equal(t, "sibling", rel.Module)
	require.Len(t, rel.Names, 1)
	assert.Equal(t, "Thing", rel.Names[0].Name)
}

func TestParseFile_ModuleConstantsAndClassAttrs(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
MAX_DEPTH = 5
lowercase = 1

class Config:
    DEFAULT_TIMEOUT = 30
    retries: int = 3
`)
	require.Len(t, rec.Constants, 1)
	assert.Equal(t, "MAX_DEPTH", rec.Constants[0].Name)
	assert.Equal(t, model.AttrConstant, rec.Constants[0].Kind)
	assert.Equal(t, "5", rec.Constants[0].Default)

	require.Len(t, rec.Types, 1)
	attrs := rec.Types[0].Attrs
	require.Len(t, attrs, 2)
	assert.Equal(t, "DEFAULT_TIMEOUT", attrs[0].Name)
	assert.Equal(t, model.AttrConstant, attrs[0].Kind)
	assert.Equal(t, "retries", attrs[1].Name)
	assert.Equal(t, model.AttrClass, attrs[1].Kind)
	assert.Equal(t, "int", attrs[1].Type)
}

func TestParseFile_InstanceAttributes(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
class Car:
    def __init__(self, driver: Driver):
        self.engine = Engine()
        self.driver = driver
        self._odometer = 0
`)
	require.Len(t, rec.Types, 1)
	attrs := rec.Types[0].Attrs
	require.Len(t, attrs, 3)

	engine := attrs[0]
	assert.Equal(t, "engine", engine.Name)
	assert.Equal(t, model.AttrInstance, engine.Kind)
	assert.Equal(t, "Engine", engine.AssignedNew)
	assert.Empty(t, engine.AssignedParam)

	driver := attrs[1]
	assert.Equal(t, "driver", driver.Name)
	assert.Equal(t, "driver", driver.AssignedParam)
	assert.Equal(t, "Driver", driver.Type)

	odometer := attrs[2]
	assert.Equal(t, "_odometer", odometer.Name)
	assert.Equal(t, model.Private, odometer.Visibility)
}

func TestParseFile_ReassignmentKeepsConstructorEvidence(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
class Cache:
    def __init__(self, backend):
        self.store = Store()
        self.store = backend
`)
	attrs := rec.Types[0].Attrs
	require.Len(t, attrs, 1)
	assert.Equal(t, "Store", attrs[0].AssignedNew)
}

func TestParseFile_CallSitesAndLocals(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
def drive():
    car = Car()
    car.start()
    honk()
    helpers.beep()
`)
	require.Len(t, rec.Functions, 1)
	fn := rec.Functions[0]

	require.Len(t, fn.Locals, 1)
	assert.Equal(t, "car", fn.Locals[0].Name)
	assert.Equal(t, "Car", fn.Locals[0].Type)
	assert.True(t, fn.Locals[0].Constructed)

	var callees []string
	for _, c := range fn.Calls {
		callees = append(callees, c.Callee)
	}
	assert.Contains(t, callees, "car.start")
	assert.Contains(t, callees, "honk")
	assert.Contains(t, callees, "helpers.beep")
}

func TestParseFile_NestedClass(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
class Outer:
    class Inner:
        pass
`)
	require.Len(t, rec.Types, 2)
	assert.Equal(t, "Outer", rec.Types[0].Name)
	assert.Equal(t, "Outer.Inner", rec.Types[1].Name)
}

func TestParseFile_ModuleDocstring(t *testing.T) {
	t.Parallel()
	rec := parse(t, `"""Utilities for driving."""

def go():
    pass
`)
	assert.Equal(t, "Utilities for driving.", rec.Doc.Text)
}

func TestParseFile_InvalidSource(t *testing.T) {
	t.Parallel()
	fe := New(frontend.Options{})
	_, err := fe.ParseFile(context.Background(), "bad.py", []byte("@@ ?? ++"))
	require.Error(t, err)
	var pe *frontend.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.StageParse, pe.Stage)
}

func TestParseFile_PrivateVisibility(t *testing.T) {
	t.Parallel()
	rec := parse(t, `
def _hidden():
    pass

def __dunder__():
    pass

def visible():
    pass
`)
	require.Len(t, rec.Functions, 3)
	assert.Equal(t, model.Private, rec.Functions[0].Visibility)
	assert.Equal(t, model.Public, rec.Functions[1].Visibility)
	assert.Equal(t, model.Public, rec.Functions[2].Visibility)
}

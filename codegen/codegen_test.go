package codegen

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/fixture"
	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/wasm"
)

func generateFixture(t *testing.T, f fixture.Fixture, opts Options) []byte {
	t.Helper()
	fns, err := ir.BuildModule(f.Module)
	require.NoError(t, err)
	out, err := Generate(f.Module, fns, opts)
	require.NoError(t, err)
	return out
}

// TestGenerate_Deterministic regenerates every fixture and requires
// byte-identical output both times.
func TestGenerate_Deterministic(t *testing.T) {
	for _, f := range fixture.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			first := generateFixture(t, f, Options{})
			second := generateFixture(t, f, Options{})
			require.Equal(t, string(first), string(second))
			require.Contains(t, string(first), "package wasmout\n")
		})
	}
}

func TestGenerate_Golden(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: []byte{wasm.OpcodeI32Const, 42, wasm.OpcodeEnd}}},
		ExportSection:   map[string]*wasm.Export{"answer": {Name: "answer", Index: 0}},
	}
	fns, err := ir.BuildModule(m)
	require.NoError(t, err)
	out, err := Generate(m, fns, Options{})
	require.NoError(t, err)

	exp := `// Code generated from a WebAssembly module. DO NOT EDIT.

package wasmout

// Answer calls the exported function "answer".
func Answer() (int32, error) {
	return fn0()
}

func fn0() (int32, error) {
	var (
		v0 int32
		v1 int32
	)
	v1 = 42
	v0 = v1
	return v0, nil
}

`
	require.Equal(t, exp, string(out))
}

// TestGenerate_TypeChecks parses and type-checks the generated source for
// every fixture, resolving the runtime package from its sources in this
// repository. This catches emission bugs string assertions cannot: unused
// variables or labels, bad conversions, missing or stale imports.
func TestGenerate_TypeChecks(t *testing.T) {
	fset := token.NewFileSet()
	imp := &generatedImporter{fset: fset, fallback: importer.ForCompiler(fset, "source", nil)}

	for _, f := range fixture.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			src := generateFixture(t, f, Options{})

			file, err := parser.ParseFile(fset, "wasmout.go", src, 0)
			require.NoError(t, err)

			conf := types.Config{Importer: imp}
			_, err = conf.Check("wasmout", fset, []*ast.File{file}, nil)
			require.NoError(t, err)
		})
	}
}

const runtimeImportPath = "github.com/herkos-dev/herkos/runtime"

// generatedImporter resolves the runtime package the generated code links
// against from ../runtime, and everything else (math/bits and the runtime's
// own imports) through the source importer.
type generatedImporter struct {
	fset     *token.FileSet
	fallback types.Importer
	runtime  *types.Package
}

func (imp *generatedImporter) Import(path string) (*types.Package, error) {
	if path != runtimeImportPath {
		return imp.fallback.Import(path)
	}
	if imp.runtime != nil {
		return imp.runtime, nil
	}

	names, err := filepath.Glob(filepath.Join("..", "runtime", "*.go"))
	if err != nil {
		return nil, err
	}
	var files []*ast.File
	for _, name := range names {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(imp.fset, name, nil, 0)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	conf := types.Config{Importer: imp.fallback}
	pkg, err := conf.Check(runtimeImportPath, imp.fset, files, nil)
	if err != nil {
		return nil, err
	}
	imp.runtime = pkg
	return pkg, nil
}

func TestGenerate_MemoryModule(t *testing.T) {
	out := string(generateFixture(t, fixture.Memory(), Options{}))

	require.Contains(t, out, "func NewMemory() (*runtime.Memory, error)")
	// Module maximum of 4 pages is below the default cap and wins.
	require.Contains(t, out, "runtime.NewMemory(1, 4)")
	// The data segment {42, 0xff} is applied by the constructor.
	require.Contains(t, out, "mem.Initialize(1024, []byte{0x2a, 0xff})")
	// Every signature threads the memory.
	require.Contains(t, out, "mem *runtime.Memory")
	require.Contains(t, out, `"github.com/herkos-dev/herkos/runtime"`)
}

func TestGenerate_MaxPagesOption(t *testing.T) {
	out := string(generateFixture(t, fixture.Memory(), Options{MaxPages: 2}))
	require.Contains(t, out, "runtime.NewMemory(1, 2)")
}

func TestGenerate_NoMemory(t *testing.T) {
	out := string(generateFixture(t, fixture.Arith(), Options{}))

	require.NotContains(t, out, "NewMemory")
	require.NotContains(t, out, "mem *runtime.Memory")
	require.Contains(t, out, "func Add(a0 int32, a1 int32) (int32, error)")
	// Division traps come from the runtime helpers; clz and friends from
	// math/bits.
	require.Contains(t, out, `"github.com/herkos-dev/herkos/runtime"`)
	require.Contains(t, out, `"math/bits"`)
}

func TestGenerate_PackageName(t *testing.T) {
	out := string(generateFixture(t, fixture.Arith(), Options{PackageName: "calc"}))
	require.Contains(t, out, "package calc\n")
}

func TestGenerate_ExportCollision(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: []byte{wasm.OpcodeI32Const, 1, wasm.OpcodeEnd}}},
		ExportSection: map[string]*wasm.Export{
			"answer": {Name: "answer", Index: 0},
			"Answer": {Name: "Answer", Index: 0},
		},
	}
	fns, err := ir.BuildModule(m)
	require.NoError(t, err)
	out, err := Generate(m, fns, Options{})
	require.NoError(t, err)

	require.Contains(t, string(out), "func Answer() (int32, error)")
	require.Contains(t, string(out), "func Answer_0() (int32, error)")
}

func TestGenerate_LengthMismatch(t *testing.T) {
	m := fixture.Arith().Module
	_, err := Generate(m, nil, Options{})
	require.ErrorContains(t, err, "structured functions")
}

func TestExportName(t *testing.T) {
	for _, c := range []struct {
		in, exp string
	}{
		{in: "add", exp: "Add"},
		{in: "is_prime", exp: "Is_prime"},
		{in: "Already", exp: "Already"},
		{in: "2x", exp: "F2x"},
		{in: "a-b", exp: "A_b"},
		{in: "", exp: "F"},
	} {
		require.Equal(t, c.exp, exportName(c.in), c.in)
	}
}

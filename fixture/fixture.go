// Package fixture assembles small WebAssembly modules by hand, together with
// golden vectors for their exports. The modules exercise the full supported
// instruction subset: arithmetic with its traps, structured and branching
// control flow, calls, and linear memory.
//
// The fixtures feed tests at several levels: the binary codec round-trips
// them, the interpreter runs their vectors, and the verifier compares any
// other rendition of them against the same vectors.
package fixture

import (
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
)

// Fixture pairs an assembled module with the golden vectors for its exports.
// Vectors run in order against one instance, so later cases may observe
// memory written by earlier ones.
type Fixture struct {
	Name   string
	Module *wasm.Module
	Cases  []verify.Case
}

// All returns every fixture.
func All() []Fixture {
	return []Fixture{Arith(), Loops(), Memory()}
}

// funcDef declares one function for module: an export name (empty for an
// internal function), its signature, extra locals, and its body without the
// trailing end opcode.
type funcDef struct {
	name   string
	typ    *wasm.FunctionType
	locals []wasm.ValueType
	body   []byte
}

// module assembles a wasm.Module from function definitions, deduplicating
// signatures into the type section the way a compiler would.
func module(mem *wasm.MemoryType, data []*wasm.DataSegment, defs ...funcDef) *wasm.Module {
	m := &wasm.Module{
		MemorySection: mem,
		DataSection:   data,
		ExportSection: map[string]*wasm.Export{},
	}
	for i, def := range defs {
		typeIndex := -1
		for j, t := range m.TypeSection {
			if t.EqualTo(def.typ) {
				typeIndex = j
				break
			}
		}
		if typeIndex < 0 {
			typeIndex = len(m.TypeSection)
			m.TypeSection = append(m.TypeSection, def.typ)
		}
		m.FunctionSection = append(m.FunctionSection, wasm.Index(typeIndex))
		m.CodeSection = append(m.CodeSection, &wasm.Code{
			LocalTypes: def.locals,
			Body:       append(def.body, wasm.OpcodeEnd),
		})
		if def.name != "" {
			m.ExportSection[def.name] = &wasm.Export{Name: def.name, Index: wasm.Index(i)}
		}
	}
	return m
}

var (
	i32                = wasm.ValueTypeI32
	i64                = wasm.ValueTypeI64
	sigI32_I32         = &wasm.FunctionType{Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i32}}
	sigI32I32_I32      = &wasm.FunctionType{Params: []wasm.ValueType{i32, i32}, Results: []wasm.ValueType{i32}}
	sigI64I64_I64      = &wasm.FunctionType{Params: []wasm.ValueType{i64, i64}, Results: []wasm.ValueType{i64}}
	sigI64I64_I32      = &wasm.FunctionType{Params: []wasm.ValueType{i64, i64}, Results: []wasm.ValueType{i32}}
	sigI64_I32         = &wasm.FunctionType{Params: []wasm.ValueType{i64}, Results: []wasm.ValueType{i32}}
	sigI64_I64         = &wasm.FunctionType{Params: []wasm.ValueType{i64}, Results: []wasm.ValueType{i64}}
	sigI32_I64         = &wasm.FunctionType{Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i64}}
	sigNone_I32        = &wasm.FunctionType{Results: []wasm.ValueType{i32}}
	sigNone_None       = &wasm.FunctionType{}
	sigI32I32_None     = &wasm.FunctionType{Params: []wasm.ValueType{i32, i32}}
	sigI32I64_None     = &wasm.FunctionType{Params: []wasm.ValueType{i32, i64}}
	sigI32I32I32_I32   = &wasm.FunctionType{Params: []wasm.ValueType{i32, i32, i32}, Results: []wasm.ValueType{i32}}
)

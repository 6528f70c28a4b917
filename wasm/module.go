package wasm

import "fmt"

// Index is an offset into one of a module's index spaces, e.g. the function
// index space.
//
// See https://www.w3.org/TR/wasm-core-1/#indices%E2%91%A4
type Index = uint32

const (
	// MemoryPageSize is the size in bytes of one linear-memory page (64KiB).
	// See https://www.w3.org/TR/wasm-core-1/#page-size
	MemoryPageSize = 65536

	// MemoryMaxPages caps linear memory at 2^32 bytes, the full 32-bit
	// address space.
	MemoryMaxPages = 65536
)

// Module is the typed, immutable result of decoding a binary module. It is
// built once per compilation; later pipeline stages only read it.
//
// Only the sections exercised by the supported subset are represented: types,
// functions, a single optional memory, exports, code and data.
type Module struct {
	// TypeSection contains the unique function signatures referenced by
	// FunctionSection.
	TypeSection []*FunctionType

	// FunctionSection assigns a type index to each function in the code
	// section. FunctionSection[i] is the signature of CodeSection[i].
	FunctionSection []Index

	// MemorySection declares the module's linear memory, if any.
	MemorySection *MemoryType

	// ExportSection maps each export name to the function it exports. Names
	// are unique by construction of the map; the decoder rejects duplicates.
	ExportSection map[string]*Export

	// CodeSection contains one entry per function: its extra locals and its
	// instruction sequence.
	CodeSection []*Code

	// DataSection holds the active data segments copied into linear memory
	// before any function executes.
	DataSection []*DataSegment
}

// MemoryType declares the initial and optional maximum size of a linear
// memory, in pages.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// Export names a function in the module's function index space.
type Export struct {
	Name  string
	Index Index
}

// Code is one function body: the value types of its declared locals
// (parameters excluded) followed by its instruction sequence. Body always
// ends with OpcodeEnd.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
}

// DataSegment is an active data segment: Init is copied to linear memory at
// Offset during instantiation.
type DataSegment struct {
	Offset uint32
	Init   []byte
}

// TypeOfFunction returns the signature of the function at idx in the function
// index space.
func (m *Module) TypeOfFunction(idx Index) (*FunctionType, error) {
	if int(idx) >= len(m.FunctionSection) {
		return nil, fmt.Errorf("function index out of range: %d (have %d functions)", idx, len(m.FunctionSection))
	}
	typeIndex := m.FunctionSection[idx]
	if int(typeIndex) >= len(m.TypeSection) {
		return nil, fmt.Errorf("function %d: type index out of range: %d (have %d types)", idx, typeIndex, len(m.TypeSection))
	}
	return m.TypeSection[typeIndex], nil
}

// ExportedFunction resolves an export by name.
func (m *Module) ExportedFunction(name string) (*Export, bool) {
	e, ok := m.ExportSection[name]
	return e, ok
}

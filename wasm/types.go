package wasm

import "fmt"

// ValueType describes the type of a value on the operand stack, a local, or a
// result slot. This transpiler supports the integer subset of the WebAssembly
// 1.0 (MVP) value types.
//
// See https://www.w3.org/TR/wasm-core-1/#value-types%E2%91%A0
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e

	// valueTypeF32 and valueTypeF64 are recognized during decoding so that
	// floating-point modules are rejected as unsupported rather than
	// mis-decoded.
	valueTypeF32 ValueType = 0x7d
	valueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the spec-level name of t, e.g. "i32".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case valueTypeF32:
		return "f32"
	case valueTypeF64:
		return "f64"
	}
	return fmt.Sprintf("unknown (0x%x)", t)
}

// IsSupportedValueType returns true for value types in the supported integer
// subset.
func IsSupportedValueType(t ValueType) bool {
	return t == ValueTypeI32 || t == ValueTypeI64
}

// IsKnownValueType returns true for any value type defined by WebAssembly 1.0,
// including ones outside the supported subset.
func IsKnownValueType(t ValueType) bool {
	return IsSupportedValueType(t) || t == valueTypeF32 || t == valueTypeF64
}

// FunctionType is a possibly empty list of parameter types and a possibly
// empty list of result types.
//
// Note: result arity is kept as a list even though WebAssembly 1.0 allows at
// most one result, so that the IR layer doesn't bake in single-result
// assumptions.
type FunctionType struct {
	Params, Results []ValueType
}

func (t *FunctionType) String() (ret string) {
	for _, b := range t.Params {
		ret += ValueTypeName(b)
	}
	if len(t.Params) == 0 {
		ret += "null"
	}
	ret += "_"
	for _, b := range t.Results {
		ret += ValueTypeName(b)
	}
	if len(t.Results) == 0 {
		ret += "null"
	}
	return
}

// EqualTo returns true if u has the same parameter and result types as t.
func (t *FunctionType) EqualTo(u *FunctionType) bool {
	if len(t.Params) != len(u.Params) || len(t.Results) != len(u.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != u.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != u.Results[i] {
			return false
		}
	}
	return true
}

package fixture

import (
	"github.com/herkos-dev/herkos/runtime"
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
)

// binOp is a two-parameter function applying a single instruction.
func binOp(name string, sig *wasm.FunctionType, o wasm.Opcode) funcDef {
	return funcDef{name: name, typ: sig, body: cat(lget(0), lget(1), op(o))}
}

// unOp is a one-parameter function applying a single instruction.
func unOp(name string, sig *wasm.FunctionType, o wasm.Opcode) funcDef {
	return funcDef{name: name, typ: sig, body: cat(lget(0), op(o))}
}

// Arith covers the numeric instructions: wrapping arithmetic, the trapping
// divisions, shifts and rotates with masked counts, comparisons, bit
// counting, conversions, select and drop.
func Arith() Fixture {
	m := module(nil, nil,
		binOp("add", sigI32I32_I32, wasm.OpcodeI32Add),
		binOp("sub", sigI32I32_I32, wasm.OpcodeI32Sub),
		binOp("mul", sigI32I32_I32, wasm.OpcodeI32Mul),
		binOp("div_s", sigI32I32_I32, wasm.OpcodeI32DivS),
		binOp("div_u", sigI32I32_I32, wasm.OpcodeI32DivU),
		binOp("rem_s", sigI32I32_I32, wasm.OpcodeI32RemS),
		binOp("rem_u", sigI32I32_I32, wasm.OpcodeI32RemU),
		binOp("and", sigI32I32_I32, wasm.OpcodeI32And),
		binOp("or", sigI32I32_I32, wasm.OpcodeI32Or),
		binOp("xor", sigI32I32_I32, wasm.OpcodeI32Xor),
		binOp("shl", sigI32I32_I32, wasm.OpcodeI32Shl),
		binOp("shr_s", sigI32I32_I32, wasm.OpcodeI32ShrS),
		binOp("shr_u", sigI32I32_I32, wasm.OpcodeI32ShrU),
		binOp("rotl", sigI32I32_I32, wasm.OpcodeI32Rotl),
		binOp("rotr", sigI32I32_I32, wasm.OpcodeI32Rotr),
		binOp("add64", sigI64I64_I64, wasm.OpcodeI64Add),
		binOp("mul64", sigI64I64_I64, wasm.OpcodeI64Mul),
		binOp("div_s64", sigI64I64_I64, wasm.OpcodeI64DivS),
		binOp("rem_s64", sigI64I64_I64, wasm.OpcodeI64RemS),
		binOp("shr_u64", sigI64I64_I64, wasm.OpcodeI64ShrU),
		binOp("rotl64", sigI64I64_I64, wasm.OpcodeI64Rotl),
		binOp("lt_s", sigI32I32_I32, wasm.OpcodeI32LtS),
		binOp("lt_u", sigI32I32_I32, wasm.OpcodeI32LtU),
		binOp("gt_s", sigI32I32_I32, wasm.OpcodeI32GtS),
		binOp("ge_u", sigI32I32_I32, wasm.OpcodeI32GeU),
		binOp("le_s", sigI32I32_I32, wasm.OpcodeI32LeS),
		binOp("lt_u64", sigI64I64_I32, wasm.OpcodeI64LtU),
		binOp("ge_s64", sigI64I64_I32, wasm.OpcodeI64GeS),
		unOp("clz", sigI32_I32, wasm.OpcodeI32Clz),
		unOp("ctz", sigI32_I32, wasm.OpcodeI32Ctz),
		unOp("popcnt", sigI32_I32, wasm.OpcodeI32Popcnt),
		unOp("clz64", sigI64_I64, wasm.OpcodeI64Clz),
		unOp("ctz64", sigI64_I64, wasm.OpcodeI64Ctz),
		unOp("eqz", sigI32_I32, wasm.OpcodeI32Eqz),
		unOp("eqz64", sigI64_I32, wasm.OpcodeI64Eqz),
		unOp("wrap", sigI64_I32, wasm.OpcodeI32WrapI64),
		unOp("extend_s", sigI32_I64, wasm.OpcodeI64ExtendI32S),
		unOp("extend_u", sigI32_I64, wasm.OpcodeI64ExtendI32U),
		funcDef{
			name: "select_i32", typ: sigI32I32I32_I32,
			body: cat(lget(0), lget(1), lget(2), op(wasm.OpcodeSelect)),
		},
		funcDef{
			name: "drop42", typ: sigNone_I32,
			body: cat(i32c(7), op(wasm.OpcodeDrop), i32c(42)),
		},
		funcDef{
			name: "crash", typ: sigNone_None,
			body: op(wasm.OpcodeUnreachable),
		},
	)

	i32v, i64v := verify.I32, verify.I64
	divByZero := verify.Traps(runtime.TrapCodeIntegerDivideByZero)
	overflow := verify.Traps(runtime.TrapCodeIntegerOverflow)

	cases := []verify.Case{
		{Export: "add", Args: []uint64{i32v(2), i32v(3)}, Want: []uint64{i32v(5)}},
		{Export: "add", Args: []uint64{i32v(2147483647), i32v(1)}, Want: []uint64{i32v(-2147483648)}},
		{Export: "sub", Args: []uint64{i32v(3), i32v(5)}, Want: []uint64{i32v(-2)}},
		{Export: "sub", Args: []uint64{i32v(-2147483648), i32v(1)}, Want: []uint64{i32v(2147483647)}},
		{Export: "mul", Args: []uint64{i32v(123456), i32v(789)}, Want: []uint64{i32v(97406784)}},
		{Export: "mul", Args: []uint64{i32v(65536), i32v(65536)}, Want: []uint64{i32v(0)}},
		{Export: "div_s", Args: []uint64{i32v(-7), i32v(2)}, Want: []uint64{i32v(-3)}},
		{Export: "div_s", Args: []uint64{i32v(7), i32v(-2)}, Want: []uint64{i32v(-3)}},
		{Export: "div_s", Args: []uint64{i32v(1), i32v(0)}, Trap: divByZero},
		{Export: "div_s", Args: []uint64{i32v(-2147483648), i32v(-1)}, Trap: overflow},
		{Export: "div_u", Args: []uint64{i32v(-7), i32v(2)}, Want: []uint64{i32v(2147483644)}},
		{Export: "div_u", Args: []uint64{i32v(1), i32v(0)}, Trap: divByZero},
		{Export: "rem_s", Args: []uint64{i32v(-7), i32v(2)}, Want: []uint64{i32v(-1)}},
		{Export: "rem_s", Args: []uint64{i32v(-2147483648), i32v(-1)}, Want: []uint64{i32v(0)}},
		{Export: "rem_s", Args: []uint64{i32v(5), i32v(0)}, Trap: divByZero},
		{Export: "rem_u", Args: []uint64{i32v(-7), i32v(2)}, Want: []uint64{i32v(1)}},
		{Export: "rem_u", Args: []uint64{i32v(5), i32v(0)}, Trap: divByZero},
		{Export: "and", Args: []uint64{i32v(0xF0F0), i32v(0x0FF0)}, Want: []uint64{i32v(0x00F0)}},
		{Export: "or", Args: []uint64{i32v(0xF0F0), i32v(0x0FF0)}, Want: []uint64{i32v(0xFFF0)}},
		{Export: "xor", Args: []uint64{i32v(0xF0F0), i32v(0x0FF0)}, Want: []uint64{i32v(0xFF00)}},
		{Export: "shl", Args: []uint64{i32v(1), i32v(4)}, Want: []uint64{i32v(16)}},
		// Shift counts are masked modulo the bit width.
		{Export: "shl", Args: []uint64{i32v(1), i32v(33)}, Want: []uint64{i32v(2)}},
		{Export: "shr_s", Args: []uint64{i32v(-8), i32v(1)}, Want: []uint64{i32v(-4)}},
		{Export: "shr_u", Args: []uint64{i32v(-8), i32v(1)}, Want: []uint64{i32v(2147483644)}},
		{Export: "rotl", Args: []uint64{i32v(-2147483647), i32v(1)}, Want: []uint64{i32v(3)}},
		{Export: "rotr", Args: []uint64{i32v(1), i32v(1)}, Want: []uint64{i32v(-2147483648)}},
		{Export: "add64", Args: []uint64{i64v(9223372036854775807), i64v(1)}, Want: []uint64{i64v(-9223372036854775808)}},
		{Export: "mul64", Args: []uint64{i64v(3037000500), i64v(3037000500)}, Want: []uint64{i64v(-9223372036709301616)}},
		{Export: "div_s64", Args: []uint64{i64v(-9), i64v(2)}, Want: []uint64{i64v(-4)}},
		{Export: "div_s64", Args: []uint64{i64v(1), i64v(0)}, Trap: divByZero},
		{Export: "div_s64", Args: []uint64{i64v(-9223372036854775808), i64v(-1)}, Trap: overflow},
		{Export: "rem_s64", Args: []uint64{i64v(-9223372036854775808), i64v(-1)}, Want: []uint64{i64v(0)}},
		{Export: "shr_u64", Args: []uint64{i64v(-1), i64v(60)}, Want: []uint64{i64v(15)}},
		{Export: "rotl64", Args: []uint64{i64v(1), i64v(65)}, Want: []uint64{i64v(2)}},
		{Export: "lt_s", Args: []uint64{i32v(-1), i32v(1)}, Want: []uint64{i32v(1)}},
		{Export: "lt_u", Args: []uint64{i32v(-1), i32v(1)}, Want: []uint64{i32v(0)}},
		{Export: "gt_s", Args: []uint64{i32v(3), i32v(3)}, Want: []uint64{i32v(0)}},
		{Export: "ge_u", Args: []uint64{i32v(-1), i32v(0)}, Want: []uint64{i32v(1)}},
		{Export: "le_s", Args: []uint64{i32v(3), i32v(3)}, Want: []uint64{i32v(1)}},
		{Export: "lt_u64", Args: []uint64{i64v(-1), i64v(0)}, Want: []uint64{i32v(0)}},
		{Export: "ge_s64", Args: []uint64{i64v(-1), i64v(0)}, Want: []uint64{i32v(0)}},
		{Export: "clz", Args: []uint64{i32v(1)}, Want: []uint64{i32v(31)}},
		{Export: "clz", Args: []uint64{i32v(0)}, Want: []uint64{i32v(32)}},
		{Export: "ctz", Args: []uint64{i32v(8)}, Want: []uint64{i32v(3)}},
		{Export: "ctz", Args: []uint64{i32v(0)}, Want: []uint64{i32v(32)}},
		{Export: "popcnt", Args: []uint64{i32v(0xF0F0)}, Want: []uint64{i32v(8)}},
		{Export: "clz64", Args: []uint64{i64v(1)}, Want: []uint64{i64v(63)}},
		{Export: "ctz64", Args: []uint64{i64v(0)}, Want: []uint64{i64v(64)}},
		{Export: "eqz", Args: []uint64{i32v(0)}, Want: []uint64{i32v(1)}},
		{Export: "eqz", Args: []uint64{i32v(5)}, Want: []uint64{i32v(0)}},
		{Export: "eqz64", Args: []uint64{i64v(0)}, Want: []uint64{i32v(1)}},
		{Export: "wrap", Args: []uint64{i64v(4294967297)}, Want: []uint64{i32v(1)}},
		{Export: "extend_s", Args: []uint64{i32v(-1)}, Want: []uint64{i64v(-1)}},
		{Export: "extend_u", Args: []uint64{i32v(-1)}, Want: []uint64{i64v(4294967295)}},
		{Export: "select_i32", Args: []uint64{i32v(10), i32v(20), i32v(1)}, Want: []uint64{i32v(10)}},
		{Export: "select_i32", Args: []uint64{i32v(10), i32v(20), i32v(0)}, Want: []uint64{i32v(20)}},
		{Export: "drop42", Want: []uint64{i32v(42)}},
		{Export: "crash", Trap: verify.Traps(runtime.TrapCodeUnreachable)},
	}

	return Fixture{Name: "arith", Module: m, Cases: cases}
}

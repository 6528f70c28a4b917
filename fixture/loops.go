package fixture

import (
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
)

// Loops covers structured control flow: loops with conditional exits, if/else
// both as statements and as value producers, br_if carrying a value,
// br_table dispatch, early returns and calls between functions.
func Loops() Fixture {
	factorial := funcDef{
		name: "factorial", typ: sigI32_I32, locals: []wasm.ValueType{i32},
		body: cat(
			i32c(1), lset(1),
			block(btVoid),
			loop(btVoid),
			lget(0), i32c(1), op(wasm.OpcodeI32LeS), brIf(1),
			lget(1), lget(0), op(wasm.OpcodeI32Mul), lset(1),
			lget(0), i32c(1), op(wasm.OpcodeI32Sub), lset(0),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(1),
		),
	}

	gcd := funcDef{
		name: "gcd", typ: sigI32I32_I32, locals: []wasm.ValueType{i32},
		body: cat(
			block(btVoid),
			loop(btVoid),
			lget(1), op(wasm.OpcodeI32Eqz), brIf(1),
			lget(0), lget(1), op(wasm.OpcodeI32RemS), lset(2),
			lget(1), lset(0),
			lget(2), lset(1),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(0),
		),
	}

	isPrime := funcDef{
		name: "is_prime", typ: sigI32_I32, locals: []wasm.ValueType{i32},
		body: cat(
			lget(0), i32c(2), op(wasm.OpcodeI32LtS),
			ifOp(btVoid),
			i32c(0), op(wasm.OpcodeReturn),
			op(wasm.OpcodeEnd),
			i32c(2), lset(1),
			block(btVoid),
			loop(btVoid),
			lget(1), lget(1), op(wasm.OpcodeI32Mul), lget(0), op(wasm.OpcodeI32GtS), brIf(1),
			lget(0), lget(1), op(wasm.OpcodeI32RemS), op(wasm.OpcodeI32Eqz),
			ifOp(btVoid),
			i32c(0), op(wasm.OpcodeReturn),
			op(wasm.OpcodeEnd),
			lget(1), i32c(1), op(wasm.OpcodeI32Add), lset(1),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			i32c(1),
		),
	}

	collatz := funcDef{
		name: "collatz_steps", typ: sigI32_I32, locals: []wasm.ValueType{i32},
		body: cat(
			block(btVoid),
			loop(btVoid),
			lget(0), i32c(1), op(wasm.OpcodeI32Eq), brIf(1),
			lget(0), i32c(2), op(wasm.OpcodeI32RemS), op(wasm.OpcodeI32Eqz),
			ifOp(btVoid),
			lget(0), i32c(2), op(wasm.OpcodeI32DivS), lset(0),
			op(wasm.OpcodeElse),
			lget(0), i32c(3), op(wasm.OpcodeI32Mul), i32c(1), op(wasm.OpcodeI32Add), lset(0),
			op(wasm.OpcodeEnd),
			lget(1), i32c(1), op(wasm.OpcodeI32Add), lset(1),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(1),
		),
	}

	fib := funcDef{
		name: "fib_i64", typ: sigI32_I64, locals: []wasm.ValueType{i64, i64, i64},
		body: cat(
			i64c(1), lset(2),
			block(btVoid),
			loop(btVoid),
			lget(0), op(wasm.OpcodeI32Eqz), brIf(1),
			lget(1), lget(2), op(wasm.OpcodeI64Add), lset(3),
			lget(2), lset(1),
			lget(3), lset(2),
			lget(0), i32c(1), op(wasm.OpcodeI32Sub), lset(0),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(1),
		),
	}

	classify := funcDef{
		name: "classify", typ: sigI32_I32,
		body: cat(
			block(btVoid),
			block(btVoid),
			block(btVoid),
			lget(0),
			brTable([]uint32{0, 1}, 2),
			op(wasm.OpcodeEnd),
			i32c(10), op(wasm.OpcodeReturn),
			op(wasm.OpcodeEnd),
			i32c(20), op(wasm.OpcodeReturn),
			op(wasm.OpcodeEnd),
			i32c(30),
		),
	}

	abs := funcDef{
		name: "abs", typ: sigI32_I32,
		body: cat(
			lget(0), i32c(0), op(wasm.OpcodeI32LtS),
			ifOp(btI32),
			i32c(0), lget(0), op(wasm.OpcodeI32Sub),
			op(wasm.OpcodeElse),
			lget(0),
			op(wasm.OpcodeEnd),
		),
	}

	clamp0 := funcDef{
		name: "clamp0", typ: sigI32_I32,
		body: cat(
			block(btI32),
			lget(0),
			lget(0), i32c(0), op(wasm.OpcodeI32GeS),
			brIf(0),
			op(wasm.OpcodeDrop),
			i32c(0),
			op(wasm.OpcodeEnd),
		),
	}

	// sq is internal: sum_sq reaches it through call.
	sq := funcDef{
		typ:  sigI32_I32,
		body: cat(lget(0), lget(0), op(wasm.OpcodeI32Mul)),
	}
	sumSq := funcDef{
		name: "sum_sq", typ: sigI32I32_I32,
		body: cat(lget(0), call(9), lget(1), call(9), op(wasm.OpcodeI32Add)),
	}

	m := module(nil, nil,
		factorial, gcd, isPrime, collatz, fib, classify, abs, clamp0, sumSq, sq,
	)

	i32v, i64v := verify.I32, verify.I64
	cases := []verify.Case{
		{Export: "factorial", Args: []uint64{i32v(5)}, Want: []uint64{i32v(120)}},
		{Export: "factorial", Args: []uint64{i32v(0)}, Want: []uint64{i32v(1)}},
		{Export: "factorial", Args: []uint64{i32v(12)}, Want: []uint64{i32v(479001600)}},
		{Export: "gcd", Args: []uint64{i32v(48), i32v(18)}, Want: []uint64{i32v(6)}},
		{Export: "gcd", Args: []uint64{i32v(17), i32v(5)}, Want: []uint64{i32v(1)}},
		{Export: "gcd", Args: []uint64{i32v(0), i32v(9)}, Want: []uint64{i32v(9)}},
		{Export: "is_prime", Args: []uint64{i32v(17)}, Want: []uint64{i32v(1)}},
		{Export: "is_prime", Args: []uint64{i32v(1)}, Want: []uint64{i32v(0)}},
		{Export: "is_prime", Args: []uint64{i32v(2)}, Want: []uint64{i32v(1)}},
		{Export: "is_prime", Args: []uint64{i32v(9)}, Want: []uint64{i32v(0)}},
		{Export: "is_prime", Args: []uint64{i32v(7919)}, Want: []uint64{i32v(1)}},
		{Export: "collatz_steps", Args: []uint64{i32v(27)}, Want: []uint64{i32v(111)}},
		{Export: "collatz_steps", Args: []uint64{i32v(1)}, Want: []uint64{i32v(0)}},
		{Export: "collatz_steps", Args: []uint64{i32v(6)}, Want: []uint64{i32v(8)}},
		{Export: "fib_i64", Args: []uint64{i32v(0)}, Want: []uint64{i64v(0)}},
		{Export: "fib_i64", Args: []uint64{i32v(1)}, Want: []uint64{i64v(1)}},
		{Export: "fib_i64", Args: []uint64{i32v(10)}, Want: []uint64{i64v(55)}},
		{Export: "fib_i64", Args: []uint64{i32v(50)}, Want: []uint64{i64v(12586269025)}},
		{Export: "fib_i64", Args: []uint64{i32v(90)}, Want: []uint64{i64v(2880067194370816120)}},
		{Export: "classify", Args: []uint64{i32v(0)}, Want: []uint64{i32v(10)}},
		{Export: "classify", Args: []uint64{i32v(1)}, Want: []uint64{i32v(20)}},
		{Export: "classify", Args: []uint64{i32v(7)}, Want: []uint64{i32v(30)}},
		{Export: "classify", Args: []uint64{i32v(-1)}, Want: []uint64{i32v(30)}},
		{Export: "abs", Args: []uint64{i32v(-5)}, Want: []uint64{i32v(5)}},
		{Export: "abs", Args: []uint64{i32v(3)}, Want: []uint64{i32v(3)}},
		{Export: "clamp0", Args: []uint64{i32v(-5)}, Want: []uint64{i32v(0)}},
		{Export: "clamp0", Args: []uint64{i32v(7)}, Want: []uint64{i32v(7)}},
		{Export: "sum_sq", Args: []uint64{i32v(3), i32v(4)}, Want: []uint64{i32v(25)}},
	}

	return Fixture{Name: "loops", Module: m, Cases: cases}
}

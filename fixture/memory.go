package fixture

import (
	"github.com/herkos-dev/herkos/runtime"
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
)

// loadFn exports a single load at the given alignment and static offset.
func loadFn(name string, sig *wasm.FunctionType, o wasm.Opcode, align, offset uint32) funcDef {
	return funcDef{name: name, typ: sig, body: cat(lget(0), memOp(o, align, offset))}
}

// storeFn exports a single store of its second parameter.
func storeFn(name string, sig *wasm.FunctionType, o wasm.Opcode, align, offset uint32) funcDef {
	return funcDef{name: name, typ: sig, body: cat(lget(0), lget(1), memOp(o, align, offset))}
}

// Memory covers linear memory: every load and store width, static offsets,
// the bounds trap, size and grow, data segments, and two array algorithms
// over the heap.
func Memory() Fixture {
	arrayMax := funcDef{
		name: "array_max", typ: sigI32I32_I32, locals: []wasm.ValueType{i32, i32, i32},
		body: cat(
			lget(0), memOp(wasm.OpcodeI32Load, 2, 0), lset(2),
			i32c(1), lset(3),
			block(btVoid),
			loop(btVoid),
			lget(3), lget(1), op(wasm.OpcodeI32GeS), brIf(1),
			lget(0), lget(3), i32c(2), op(wasm.OpcodeI32Shl), op(wasm.OpcodeI32Add),
			memOp(wasm.OpcodeI32Load, 2, 0), lset(4),
			lget(4), lget(2),
			lget(4), lget(2), op(wasm.OpcodeI32GtS),
			op(wasm.OpcodeSelect), lset(2),
			lget(3), i32c(1), op(wasm.OpcodeI32Add), lset(3),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(2),
		),
	}

	// Classic in-place bubble sort of 32-bit values: l2=i, l3=j, l4/l5 the
	// compared pair.
	bubbleSort := funcDef{
		name: "bubble_sort", typ: sigI32I32_None, locals: []wasm.ValueType{i32, i32, i32, i32},
		body: cat(
			block(btVoid),
			loop(btVoid),
			lget(2), lget(1), i32c(1), op(wasm.OpcodeI32Sub), op(wasm.OpcodeI32GeS), brIf(1),
			i32c(0), lset(3),
			block(btVoid),
			loop(btVoid),
			lget(3), lget(1), i32c(1), op(wasm.OpcodeI32Sub), lget(2), op(wasm.OpcodeI32Sub), op(wasm.OpcodeI32GeS), brIf(1),
			lget(0), lget(3), i32c(2), op(wasm.OpcodeI32Shl), op(wasm.OpcodeI32Add),
			memOp(wasm.OpcodeI32Load, 2, 0), lset(4),
			lget(0), lget(3), i32c(1), op(wasm.OpcodeI32Add), i32c(2), op(wasm.OpcodeI32Shl), op(wasm.OpcodeI32Add),
			memOp(wasm.OpcodeI32Load, 2, 0), lset(5),
			lget(4), lget(5), op(wasm.OpcodeI32GtS),
			ifOp(btVoid),
			lget(0), lget(3), i32c(2), op(wasm.OpcodeI32Shl), op(wasm.OpcodeI32Add),
			lget(5), memOp(wasm.OpcodeI32Store, 2, 0),
			lget(0), lget(3), i32c(1), op(wasm.OpcodeI32Add), i32c(2), op(wasm.OpcodeI32Shl), op(wasm.OpcodeI32Add),
			lget(4), memOp(wasm.OpcodeI32Store, 2, 0),
			op(wasm.OpcodeEnd),
			lget(3), i32c(1), op(wasm.OpcodeI32Add), lset(3),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
			lget(2), i32c(1), op(wasm.OpcodeI32Add), lset(2),
			br(0),
			op(wasm.OpcodeEnd),
			op(wasm.OpcodeEnd),
		),
	}

	maxFour := uint32(4)
	m := module(
		&wasm.MemoryType{Min: 1, Max: &maxFour},
		[]*wasm.DataSegment{{Offset: 1024, Init: []byte{42, 0xff}}},
		loadFn("peek", sigI32_I32, wasm.OpcodeI32Load, 2, 0),
		loadFn("off_peek", sigI32_I32, wasm.OpcodeI32Load, 2, 4),
		loadFn("peek8_s", sigI32_I32, wasm.OpcodeI32Load8S, 0, 0),
		loadFn("peek8_u", sigI32_I32, wasm.OpcodeI32Load8U, 0, 0),
		loadFn("peek16_s", sigI32_I32, wasm.OpcodeI32Load16S, 1, 0),
		loadFn("peek16_u", sigI32_I32, wasm.OpcodeI32Load16U, 1, 0),
		loadFn("peek64", sigI32_I64, wasm.OpcodeI64Load, 3, 0),
		loadFn("peek8_s64", sigI32_I64, wasm.OpcodeI64Load8S, 0, 0),
		loadFn("peek32_u64", sigI32_I64, wasm.OpcodeI64Load32U, 2, 0),
		storeFn("poke", sigI32I32_None, wasm.OpcodeI32Store, 2, 0),
		storeFn("off_poke", sigI32I32_None, wasm.OpcodeI32Store, 2, 4),
		storeFn("poke8", sigI32I32_None, wasm.OpcodeI32Store8, 0, 0),
		storeFn("poke16", sigI32I32_None, wasm.OpcodeI32Store16, 1, 0),
		storeFn("poke64", sigI32I64_None, wasm.OpcodeI64Store, 3, 0),
		storeFn("poke32_64", sigI32I64_None, wasm.OpcodeI64Store32, 2, 0),
		funcDef{name: "msize", typ: sigNone_I32, body: memSize()},
		funcDef{name: "mgrow", typ: sigI32_I32, body: cat(lget(0), memGrow())},
		arrayMax,
		bubbleSort,
	)

	i32v, i64v := verify.I32, verify.I64
	oob := verify.Traps(runtime.TrapCodeMemoryOutOfBounds)

	cases := []verify.Case{
		// The data segment put {42, 0xff} at 1024.
		{Name: "data segment byte", Export: "peek8_u", Args: []uint64{i32v(1024)}, Want: []uint64{i32v(42)}},
		{Name: "data segment sign extend", Export: "peek8_s", Args: []uint64{i32v(1025)}, Want: []uint64{i32v(-1)}},
		{Name: "data segment zero extend", Export: "peek8_u", Args: []uint64{i32v(1025)}, Want: []uint64{i32v(255)}},
		{Name: "data segment 16-bit LE", Export: "peek16_u", Args: []uint64{i32v(1024)}, Want: []uint64{i32v(0xff2a)}},
		{Name: "data segment 16-bit sign", Export: "peek16_s", Args: []uint64{i32v(1024)}, Want: []uint64{i32v(-214)}},

		{Export: "poke", Args: []uint64{i32v(0), i32v(-1)}},
		{Export: "peek", Args: []uint64{i32v(0)}, Want: []uint64{i32v(-1)}},
		{Export: "peek8_u", Args: []uint64{i32v(3)}, Want: []uint64{i32v(255)}},
		{Export: "peek16_u", Args: []uint64{i32v(2)}, Want: []uint64{i32v(65535)}},

		{Export: "poke64", Args: []uint64{i32v(8), i64v(0x0102030405060708)}},
		{Name: "i64 store low word", Export: "peek", Args: []uint64{i32v(8)}, Want: []uint64{i32v(0x05060708)}},
		{Name: "i64 store high word", Export: "peek", Args: []uint64{i32v(12)}, Want: []uint64{i32v(0x01020304)}},
		{Export: "peek64", Args: []uint64{i32v(8)}, Want: []uint64{i64v(0x0102030405060708)}},
		{Export: "peek8_u", Args: []uint64{i32v(8)}, Want: []uint64{i32v(8)}},

		{Export: "poke8", Args: []uint64{i32v(100), i32v(128)}},
		{Name: "i64 byte sign extend", Export: "peek8_s64", Args: []uint64{i32v(100)}, Want: []uint64{i64v(-128)}},
		{Export: "poke", Args: []uint64{i32v(104), i32v(-1)}},
		{Name: "i64 word zero extend", Export: "peek32_u64", Args: []uint64{i32v(104)}, Want: []uint64{i64v(4294967295)}},
		{Export: "poke32_64", Args: []uint64{i32v(112), i64v(-1)}},
		{Name: "i64 store32 truncates", Export: "peek", Args: []uint64{i32v(112)}, Want: []uint64{i32v(-1)}},
		{Name: "i64 store32 stops at 4 bytes", Export: "peek", Args: []uint64{i32v(116)}, Want: []uint64{i32v(0)}},

		{Export: "off_poke", Args: []uint64{i32v(400), i32v(77)}},
		{Name: "static offset store", Export: "peek", Args: []uint64{i32v(404)}, Want: []uint64{i32v(77)}},
		{Name: "static offset load", Export: "off_peek", Args: []uint64{i32v(400)}, Want: []uint64{i32v(77)}},

		{Export: "poke", Args: []uint64{i32v(200), i32v(3)}},
		{Export: "poke", Args: []uint64{i32v(204), i32v(9)}},
		{Export: "poke", Args: []uint64{i32v(208), i32v(1)}},
		{Export: "poke", Args: []uint64{i32v(212), i32v(7)}},
		{Export: "array_max", Args: []uint64{i32v(200), i32v(4)}, Want: []uint64{i32v(9)}},
		{Name: "array_max single", Export: "array_max", Args: []uint64{i32v(200), i32v(1)}, Want: []uint64{i32v(3)}},

		{Export: "poke", Args: []uint64{i32v(240), i32v(5)}},
		{Export: "poke", Args: []uint64{i32v(244), i32v(3)}},
		{Export: "poke", Args: []uint64{i32v(248), i32v(4)}},
		{Export: "poke", Args: []uint64{i32v(252), i32v(1)}},
		{Export: "poke", Args: []uint64{i32v(256), i32v(2)}},
		{Export: "bubble_sort", Args: []uint64{i32v(240), i32v(5)}},
		{Name: "sorted[0]", Export: "peek", Args: []uint64{i32v(240)}, Want: []uint64{i32v(1)}},
		{Name: "sorted[1]", Export: "peek", Args: []uint64{i32v(244)}, Want: []uint64{i32v(2)}},
		{Name: "sorted[2]", Export: "peek", Args: []uint64{i32v(248)}, Want: []uint64{i32v(3)}},
		{Name: "sorted[3]", Export: "peek", Args: []uint64{i32v(252)}, Want: []uint64{i32v(4)}},
		{Name: "sorted[4]", Export: "peek", Args: []uint64{i32v(256)}, Want: []uint64{i32v(5)}},

		// One byte past the end is already out of bounds.
		{Name: "load straddles end", Export: "peek", Args: []uint64{i32v(65533)}, Trap: oob},
		{Name: "load at end", Export: "peek", Args: []uint64{i32v(65536)}, Trap: oob},
		{Name: "high address", Export: "peek", Args: []uint64{i32v(-4)}, Trap: oob},
		{Name: "offset pushes past end", Export: "off_peek", Args: []uint64{i32v(65530)}, Trap: oob},
		{Name: "store straddles end", Export: "poke64", Args: []uint64{i32v(65529), i64v(1)}, Trap: oob},
		{Name: "last full word", Export: "peek", Args: []uint64{i32v(65532)}, Want: []uint64{i32v(0)}},

		{Export: "msize", Want: []uint64{i32v(1)}},
		{Export: "mgrow", Args: []uint64{i32v(1)}, Want: []uint64{i32v(1)}},
		{Export: "msize", Want: []uint64{i32v(2)}},
		{Name: "grown pages are readable", Export: "peek", Args: []uint64{i32v(65533)}, Want: []uint64{i32v(0)}},
		{Name: "grow past declared max", Export: "mgrow", Args: []uint64{i32v(10)}, Want: []uint64{i32v(-1)}},
		{Export: "mgrow", Args: []uint64{i32v(2)}, Want: []uint64{i32v(2)}},
		{Export: "msize", Want: []uint64{i32v(4)}},
		{Name: "grow at max", Export: "mgrow", Args: []uint64{i32v(1)}, Want: []uint64{i32v(-1)}},
	}

	return Fixture{Name: "memory", Module: m, Cases: cases}
}

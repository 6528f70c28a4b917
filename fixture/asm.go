package fixture

import (
	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

// Block type immediates: no value, or a single result type.
const (
	btVoid byte = 0x40
	btI32  byte = byte(wasm.ValueTypeI32)
	btI64  byte = byte(wasm.ValueTypeI64)
)

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func op(codes ...wasm.Opcode) []byte { return codes }

func i32c(v int32) []byte {
	return append([]byte{wasm.OpcodeI32Const}, leb128.EncodeInt32(v)...)
}

func i64c(v int64) []byte {
	return append([]byte{wasm.OpcodeI64Const}, leb128.EncodeInt64(v)...)
}

func lget(i uint32) []byte {
	return append([]byte{wasm.OpcodeLocalGet}, leb128.EncodeUint32(i)...)
}

func lset(i uint32) []byte {
	return append([]byte{wasm.OpcodeLocalSet}, leb128.EncodeUint32(i)...)
}

func block(bt byte) []byte { return []byte{wasm.OpcodeBlock, bt} }
func loop(bt byte) []byte  { return []byte{wasm.OpcodeLoop, bt} }
func ifOp(bt byte) []byte  { return []byte{wasm.OpcodeIf, bt} }

func br(depth uint32) []byte {
	return append([]byte{wasm.OpcodeBr}, leb128.EncodeUint32(depth)...)
}

func brIf(depth uint32) []byte {
	return append([]byte{wasm.OpcodeBrIf}, leb128.EncodeUint32(depth)...)
}

// brTable encodes the targets followed by the default depth.
func brTable(depths []uint32, def uint32) []byte {
	out := append([]byte{wasm.OpcodeBrTable}, leb128.EncodeUint32(uint32(len(depths)))...)
	for _, d := range depths {
		out = append(out, leb128.EncodeUint32(d)...)
	}
	return append(out, leb128.EncodeUint32(def)...)
}

func call(i uint32) []byte {
	return append([]byte{wasm.OpcodeCall}, leb128.EncodeUint32(i)...)
}

// memOp encodes a load or store with its alignment exponent and static
// offset.
func memOp(o wasm.Opcode, align, offset uint32) []byte {
	out := append([]byte{o}, leb128.EncodeUint32(align)...)
	return append(out, leb128.EncodeUint32(offset)...)
}

func memSize() []byte { return []byte{wasm.OpcodeMemorySize, 0} }
func memGrow() []byte { return []byte{wasm.OpcodeMemoryGrow, 0} }

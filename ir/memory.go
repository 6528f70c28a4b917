package ir

import (
	"fmt"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

// memAccess describes how one load or store opcode touches linear memory:
// how many bytes, how a sub-word load extends, and which value type flows on
// the operand stack.
type memAccess struct {
	typ    wasm.ValueType
	width  byte
	signed bool
	store  bool
}

var memAccesses = map[wasm.Opcode]memAccess{
	wasm.OpcodeI32Load:    {typ: wasm.ValueTypeI32, width: 4},
	wasm.OpcodeI64Load:    {typ: wasm.ValueTypeI64, width: 8},
	wasm.OpcodeI32Load8S:  {typ: wasm.ValueTypeI32, width: 1, signed: true},
	wasm.OpcodeI32Load8U:  {typ: wasm.ValueTypeI32, width: 1},
	wasm.OpcodeI32Load16S: {typ: wasm.ValueTypeI32, width: 2, signed: true},
	wasm.OpcodeI32Load16U: {typ: wasm.ValueTypeI32, width: 2},
	wasm.OpcodeI64Load8S:  {typ: wasm.ValueTypeI64, width: 1, signed: true},
	wasm.OpcodeI64Load8U:  {typ: wasm.ValueTypeI64, width: 1},
	wasm.OpcodeI64Load16S: {typ: wasm.ValueTypeI64, width: 2, signed: true},
	wasm.OpcodeI64Load16U: {typ: wasm.ValueTypeI64, width: 2},
	wasm.OpcodeI64Load32S: {typ: wasm.ValueTypeI64, width: 4, signed: true},
	wasm.OpcodeI64Load32U: {typ: wasm.ValueTypeI64, width: 4},
	wasm.OpcodeI32Store:   {typ: wasm.ValueTypeI32, width: 4, store: true},
	wasm.OpcodeI64Store:   {typ: wasm.ValueTypeI64, width: 8, store: true},
	wasm.OpcodeI32Store8:  {typ: wasm.ValueTypeI32, width: 1, store: true},
	wasm.OpcodeI32Store16: {typ: wasm.ValueTypeI32, width: 2, store: true},
	wasm.OpcodeI64Store8:  {typ: wasm.ValueTypeI64, width: 1, store: true},
	wasm.OpcodeI64Store16: {typ: wasm.ValueTypeI64, width: 2, store: true},
	wasm.OpcodeI64Store32: {typ: wasm.ValueTypeI64, width: 4, store: true},
}

// memoryAccess translates one load or store. The static offset is carried on
// the node; the effective address (base + offset) mod 2^32 and the bounds
// condition effective+width <= size are evaluated where the access executes,
// so a single out-of-range byte already traps.
// See https://www.w3.org/TR/wasm-core-1/#memory-instructions%E2%91%A4
func (b *builder) memoryAccess(op wasm.Opcode) error {
	acc, ok := memAccesses[op]
	if !ok {
		return fmt.Errorf("%w: instruction %s", wasm.ErrUnsupportedFeature, wasm.InstructionName(op))
	}
	if b.m.MemorySection == nil {
		return fmt.Errorf("%s: unknown memory", wasm.InstructionName(op))
	}

	align, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("%s: read alignment: %w", wasm.InstructionName(op), err)
	}
	offset, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("%s: read offset: %w", wasm.InstructionName(op), err)
	}
	// The alignment is a hint, but it must not claim more than the access
	// width.
	if align >= 32 || 1<<align > uint32(acc.width) {
		return fmt.Errorf("%s: alignment 2^%d exceeds the access width %d",
			wasm.InstructionName(op), align, acc.width)
	}

	if acc.store {
		src, err := b.pop(op, acc.typ)
		if err != nil {
			return err
		}
		base, err := b.pop(op, wasm.ValueTypeI32)
		if err != nil {
			return err
		}
		b.emit(&MemoryStore{Width: acc.width, Base: base, Offset: offset, Src: src})
		return nil
	}

	base, err := b.pop(op, wasm.ValueTypeI32)
	if err != nil {
		return err
	}
	dest := b.newVar(acc.typ)
	b.emit(&MemoryLoad{
		Dest: dest, Type: acc.typ, Width: acc.width, Signed: acc.signed,
		Base: base, Offset: offset,
	})
	b.push(dest, acc.typ)
	return nil
}

// memoryIndex consumes the reserved memory index of memory.size/memory.grow,
// which must be zero while there is only one memory.
func (b *builder) memoryIndex(op wasm.Opcode) error {
	if b.m.MemorySection == nil {
		return fmt.Errorf("%s: unknown memory", wasm.InstructionName(op))
	}
	index, err := b.br.ReadByte()
	if err != nil {
		return fmt.Errorf("%s: read memory index: %w", wasm.InstructionName(op), err)
	}
	if index != 0 {
		return fmt.Errorf("%s: invalid memory index: %d", wasm.InstructionName(op), index)
	}
	return nil
}

package ir

import (
	"fmt"

	"github.com/herkos-dev/herkos/wasm"
)

type binaryDesc struct {
	typ wasm.ValueType
	op  BinOp
}

type compareDesc struct {
	typ wasm.ValueType
	op  CmpOp
}

type unaryDesc struct {
	typ    wasm.ValueType
	result wasm.ValueType
	op     UnOp
}

var binaryOps = map[wasm.Opcode]binaryDesc{
	wasm.OpcodeI32Add:  {wasm.ValueTypeI32, BinOpAdd},
	wasm.OpcodeI32Sub:  {wasm.ValueTypeI32, BinOpSub},
	wasm.OpcodeI32Mul:  {wasm.ValueTypeI32, BinOpMul},
	wasm.OpcodeI32DivS: {wasm.ValueTypeI32, BinOpDivS},
	wasm.OpcodeI32DivU: {wasm.ValueTypeI32, BinOpDivU},
	wasm.OpcodeI32RemS: {wasm.ValueTypeI32, BinOpRemS},
	wasm.OpcodeI32RemU: {wasm.ValueTypeI32, BinOpRemU},
	wasm.OpcodeI32And:  {wasm.ValueTypeI32, BinOpAnd},
	wasm.OpcodeI32Or:   {wasm.ValueTypeI32, BinOpOr},
	wasm.OpcodeI32Xor:  {wasm.ValueTypeI32, BinOpXor},
	wasm.OpcodeI32Shl:  {wasm.ValueTypeI32, BinOpShl},
	wasm.OpcodeI32ShrS: {wasm.ValueTypeI32, BinOpShrS},
	wasm.OpcodeI32ShrU: {wasm.ValueTypeI32, BinOpShrU},
	wasm.OpcodeI32Rotl: {wasm.ValueTypeI32, BinOpRotl},
	wasm.OpcodeI32Rotr: {wasm.ValueTypeI32, BinOpRotr},
	wasm.OpcodeI64Add:  {wasm.ValueTypeI64, BinOpAdd},
	wasm.OpcodeI64Sub:  {wasm.ValueTypeI64, BinOpSub},
	wasm.OpcodeI64Mul:  {wasm.ValueTypeI64, BinOpMul},
	wasm.OpcodeI64DivS: {wasm.ValueTypeI64, BinOpDivS},
	wasm.OpcodeI64DivU: {wasm.ValueTypeI64, BinOpDivU},
	wasm.OpcodeI64RemS: {wasm.ValueTypeI64, BinOpRemS},
	wasm.OpcodeI64RemU: {wasm.ValueTypeI64, BinOpRemU},
	wasm.OpcodeI64And:  {wasm.ValueTypeI64, BinOpAnd},
	wasm.OpcodeI64Or:   {wasm.ValueTypeI64, BinOpOr},
	wasm.OpcodeI64Xor:  {wasm.ValueTypeI64, BinOpXor},
	wasm.OpcodeI64Shl:  {wasm.ValueTypeI64, BinOpShl},
	wasm.OpcodeI64ShrS: {wasm.ValueTypeI64, BinOpShrS},
	wasm.OpcodeI64ShrU: {wasm.ValueTypeI64, BinOpShrU},
	wasm.OpcodeI64Rotl: {wasm.ValueTypeI64, BinOpRotl},
	wasm.OpcodeI64Rotr: {wasm.ValueTypeI64, BinOpRotr},
}

var compareOps = map[wasm.Opcode]compareDesc{
	wasm.OpcodeI32Eq:  {wasm.ValueTypeI32, CmpOpEq},
	wasm.OpcodeI32Ne:  {wasm.ValueTypeI32, CmpOpNe},
	wasm.OpcodeI32LtS: {wasm.ValueTypeI32, CmpOpLtS},
	wasm.OpcodeI32LtU: {wasm.ValueTypeI32, CmpOpLtU},
	wasm.OpcodeI32GtS: {wasm.ValueTypeI32, CmpOpGtS},
	wasm.OpcodeI32GtU: {wasm.ValueTypeI32, CmpOpGtU},
	wasm.OpcodeI32LeS: {wasm.ValueTypeI32, CmpOpLeS},
	wasm.OpcodeI32LeU: {wasm.ValueTypeI32, CmpOpLeU},
	wasm.OpcodeI32GeS: {wasm.ValueTypeI32, CmpOpGeS},
	wasm.OpcodeI32GeU: {wasm.ValueTypeI32, CmpOpGeU},
	wasm.OpcodeI64Eq:  {wasm.ValueTypeI64, CmpOpEq},
	wasm.OpcodeI64Ne:  {wasm.ValueTypeI64, CmpOpNe},
	wasm.OpcodeI64LtS: {wasm.ValueTypeI64, CmpOpLtS},
	wasm.OpcodeI64LtU: {wasm.ValueTypeI64, CmpOpLtU},
	wasm.OpcodeI64GtS: {wasm.ValueTypeI64, CmpOpGtS},
	wasm.OpcodeI64GtU: {wasm.ValueTypeI64, CmpOpGtU},
	wasm.OpcodeI64LeS: {wasm.ValueTypeI64, CmpOpLeS},
	wasm.OpcodeI64LeU: {wasm.ValueTypeI64, CmpOpLeU},
	wasm.OpcodeI64GeS: {wasm.ValueTypeI64, CmpOpGeS},
	wasm.OpcodeI64GeU: {wasm.ValueTypeI64, CmpOpGeU},
}

var unaryOps = map[wasm.Opcode]unaryDesc{
	wasm.OpcodeI32Eqz:    {wasm.ValueTypeI32, wasm.ValueTypeI32, UnOpEqz},
	wasm.OpcodeI64Eqz:    {wasm.ValueTypeI64, wasm.ValueTypeI32, UnOpEqz},
	wasm.OpcodeI32Clz:    {wasm.ValueTypeI32, wasm.ValueTypeI32, UnOpClz},
	wasm.OpcodeI32Ctz:    {wasm.ValueTypeI32, wasm.ValueTypeI32, UnOpCtz},
	wasm.OpcodeI32Popcnt: {wasm.ValueTypeI32, wasm.ValueTypeI32, UnOpPopcnt},
	wasm.OpcodeI64Clz:    {wasm.ValueTypeI64, wasm.ValueTypeI64, UnOpClz},
	wasm.OpcodeI64Ctz:    {wasm.ValueTypeI64, wasm.ValueTypeI64, UnOpCtz},
	wasm.OpcodeI64Popcnt: {wasm.ValueTypeI64, wasm.ValueTypeI64, UnOpPopcnt},

	wasm.OpcodeI32WrapI64:    {wasm.ValueTypeI64, wasm.ValueTypeI32, UnOpWrapI64},
	wasm.OpcodeI64ExtendI32S: {wasm.ValueTypeI32, wasm.ValueTypeI64, UnOpExtendI32S},
	wasm.OpcodeI64ExtendI32U: {wasm.ValueTypeI32, wasm.ValueTypeI64, UnOpExtendI32U},
}

// numeric translates the integer arithmetic, comparison and conversion
// opcodes. Both operand order and evaluation order follow the stack: the
// right operand is on top.
func (b *builder) numeric(op wasm.Opcode) error {
	if d, ok := binaryOps[op]; ok {
		rhs, err := b.pop(op, d.typ)
		if err != nil {
			return err
		}
		lhs, err := b.pop(op, d.typ)
		if err != nil {
			return err
		}
		dest := b.newVar(d.typ)
		b.emit(&Binary{Dest: dest, Op: d.op, Type: d.typ, LHS: lhs, RHS: rhs})
		b.push(dest, d.typ)
		return nil
	}
	if d, ok := compareOps[op]; ok {
		rhs, err := b.pop(op, d.typ)
		if err != nil {
			return err
		}
		lhs, err := b.pop(op, d.typ)
		if err != nil {
			return err
		}
		dest := b.newVar(wasm.ValueTypeI32)
		b.emit(&Compare{Dest: dest, Op: d.op, Type: d.typ, LHS: lhs, RHS: rhs})
		b.push(dest, wasm.ValueTypeI32)
		return nil
	}
	if d, ok := unaryOps[op]; ok {
		operand, err := b.pop(op, d.typ)
		if err != nil {
			return err
		}
		dest := b.newVar(d.result)
		b.emit(&Unary{Dest: dest, Op: d.op, Type: d.typ, Operand: operand})
		b.push(dest, d.result)
		return nil
	}
	return fmt.Errorf("%w: instruction %s", wasm.ErrUnsupportedFeature, wasm.InstructionName(op))
}

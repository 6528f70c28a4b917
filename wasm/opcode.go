package wasm

// Opcode is a single-byte WebAssembly instruction opcode.
//
// Only the control, parametric, variable, integer memory-access and integer
// numeric opcodes exercised by the supported subset are listed. Anything else
// found in a function body is reported by the IR builder as unsupported.
//
// See https://www.w3.org/TR/wasm-core-1/#a7-index-of-instructions
type Opcode = byte

const (
	// Control instructions.
	OpcodeUnreachable Opcode = 0x00
	OpcodeNop         Opcode = 0x01
	OpcodeBlock       Opcode = 0x02
	OpcodeLoop        Opcode = 0x03
	OpcodeIf          Opcode = 0x04
	OpcodeElse        Opcode = 0x05
	OpcodeEnd         Opcode = 0x0b
	OpcodeBr          Opcode = 0x0c
	OpcodeBrIf        Opcode = 0x0d
	OpcodeBrTable     Opcode = 0x0e
	OpcodeReturn      Opcode = 0x0f
	OpcodeCall        Opcode = 0x10

	// Parametric instructions.
	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b

	// Variable instructions.
	OpcodeLocalGet Opcode = 0x20
	OpcodeLocalSet Opcode = 0x21
	OpcodeLocalTee Opcode = 0x22

	// Memory instructions.
	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeI32Load8S  Opcode = 0x2c
	OpcodeI32Load8U  Opcode = 0x2d
	OpcodeI32Load16S Opcode = 0x2e
	OpcodeI32Load16U Opcode = 0x2f
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	// Constants.
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42

	// i32 comparisons.
	OpcodeI32Eqz Opcode = 0x45
	OpcodeI32Eq  Opcode = 0x46
	OpcodeI32Ne  Opcode = 0x47
	OpcodeI32LtS Opcode = 0x48
	OpcodeI32LtU Opcode = 0x49
	OpcodeI32GtS Opcode = 0x4a
	OpcodeI32GtU Opcode = 0x4b
	OpcodeI32LeS Opcode = 0x4c
	OpcodeI32LeU Opcode = 0x4d
	OpcodeI32GeS Opcode = 0x4e
	OpcodeI32GeU Opcode = 0x4f

	// i64 comparisons.
	OpcodeI64Eqz Opcode = 0x50
	OpcodeI64Eq  Opcode = 0x51
	OpcodeI64Ne  Opcode = 0x52
	OpcodeI64LtS Opcode = 0x53
	OpcodeI64LtU Opcode = 0x54
	OpcodeI64GtS Opcode = 0x55
	OpcodeI64GtU Opcode = 0x56
	OpcodeI64LeS Opcode = 0x57
	OpcodeI64LeU Opcode = 0x58
	OpcodeI64GeS Opcode = 0x59
	OpcodeI64GeU Opcode = 0x5a

	// i32 numeric.
	OpcodeI32Clz    Opcode = 0x67
	OpcodeI32Ctz    Opcode = 0x68
	OpcodeI32Popcnt Opcode = 0x69
	OpcodeI32Add    Opcode = 0x6a
	OpcodeI32Sub    Opcode = 0x6b
	OpcodeI32Mul    Opcode = 0x6c
	OpcodeI32DivS   Opcode = 0x6d
	OpcodeI32DivU   Opcode = 0x6e
	OpcodeI32RemS   Opcode = 0x6f
	OpcodeI32RemU   Opcode = 0x70
	OpcodeI32And    Opcode = 0x71
	OpcodeI32Or     Opcode = 0x72
	OpcodeI32Xor    Opcode = 0x73
	OpcodeI32Shl    Opcode = 0x74
	OpcodeI32ShrS   Opcode = 0x75
	OpcodeI32ShrU   Opcode = 0x76
	OpcodeI32Rotl   Opcode = 0x77
	OpcodeI32Rotr   Opcode = 0x78

	// i64 numeric.
	OpcodeI64Clz    Opcode = 0x79
	OpcodeI64Ctz    Opcode = 0x7a
	OpcodeI64Popcnt Opcode = 0x7b
	OpcodeI64Add    Opcode = 0x7c
	OpcodeI64Sub    Opcode = 0x7d
	OpcodeI64Mul    Opcode = 0x7e
	OpcodeI64DivS   Opcode = 0x7f
	OpcodeI64DivU   Opcode = 0x80
	OpcodeI64RemS   Opcode = 0x81
	OpcodeI64RemU   Opcode = 0x82
	OpcodeI64And    Opcode = 0x83
	OpcodeI64Or     Opcode = 0x84
	OpcodeI64Xor    Opcode = 0x85
	OpcodeI64Shl    Opcode = 0x86
	OpcodeI64ShrS   Opcode = 0x87
	OpcodeI64ShrU   Opcode = 0x88
	OpcodeI64Rotl   Opcode = 0x89
	OpcodeI64Rotr   Opcode = 0x8a

	// Conversions.
	OpcodeI32WrapI64    Opcode = 0xa7
	OpcodeI64ExtendI32S Opcode = 0xac
	OpcodeI64ExtendI32U Opcode = 0xad
)

var instructionNames = map[Opcode]string{
	OpcodeUnreachable:   "unreachable",
	OpcodeNop:           "nop",
	OpcodeBlock:         "block",
	OpcodeLoop:          "loop",
	OpcodeIf:            "if",
	OpcodeElse:          "else",
	OpcodeEnd:           "end",
	OpcodeBr:            "br",
	OpcodeBrIf:          "br_if",
	OpcodeBrTable:       "br_table",
	OpcodeReturn:        "return",
	OpcodeCall:          "call",
	OpcodeDrop:          "drop",
	OpcodeSelect:        "select",
	OpcodeLocalGet:      "local.get",
	OpcodeLocalSet:      "local.set",
	OpcodeLocalTee:      "local.tee",
	OpcodeI32Load:       "i32.load",
	OpcodeI64Load:       "i64.load",
	OpcodeI32Load8S:     "i32.load8_s",
	OpcodeI32Load8U:     "i32.load8_u",
	OpcodeI32Load16S:    "i32.load16_s",
	OpcodeI32Load16U:    "i32.load16_u",
	OpcodeI64Load8S:     "i64.load8_s",
	OpcodeI64Load8U:     "i64.load8_u",
	OpcodeI64Load16S:    "i64.load16_s",
	OpcodeI64Load16U:    "i64.load16_u",
	OpcodeI64Load32S:    "i64.load32_s",
	OpcodeI64Load32U:    "i64.load32_u",
	OpcodeI32Store:      "i32.store",
	OpcodeI64Store:      "i64.store",
	OpcodeI32Store8:     "i32.store8",
	OpcodeI32Store16:    "i32.store16",
	OpcodeI64Store8:     "i64.store8",
	OpcodeI64Store16:    "i64.store16",
	OpcodeI64Store32:    "i64.store32",
	OpcodeMemorySize:    "memory.size",
	OpcodeMemoryGrow:    "memory.grow",
	OpcodeI32Const:      "i32.const",
	OpcodeI64Const:      "i64.const",
	OpcodeI32Eqz:        "i32.eqz",
	OpcodeI32Eq:         "i32.eq",
	OpcodeI32Ne:         "i32.ne",
	OpcodeI32LtS:        "i32.lt_s",
	OpcodeI32LtU:        "i32.lt_u",
	OpcodeI32GtS:        "i32.gt_s",
	OpcodeI32GtU:        "i32.gt_u",
	OpcodeI32LeS:        "i32.le_s",
	OpcodeI32LeU:        "i32.le_u",
	OpcodeI32GeS:        "i32.ge_s",
	OpcodeI32GeU:        "i32.ge_u",
	OpcodeI64Eqz:        "i64.eqz",
	OpcodeI64Eq:         "i64.eq",
	OpcodeI64Ne:         "i64.ne",
	OpcodeI64LtS:        "i64.lt_s",
	OpcodeI64LtU:        "i64.lt_u",
	OpcodeI64GtS:        "i64.gt_s",
	OpcodeI64GtU:        "i64.gt_u",
	OpcodeI64LeS:        "i64.le_s",
	OpcodeI64LeU:        "i64.le_u",
	OpcodeI64GeS:        "i64.ge_s",
	OpcodeI64GeU:        "i64.ge_u",
	OpcodeI32Clz:        "i32.clz",
	OpcodeI32Ctz:        "i32.ctz",
	OpcodeI32Popcnt:     "i32.popcnt",
	OpcodeI32Add:        "i32.add",
	OpcodeI32Sub:        "i32.sub",
	OpcodeI32Mul:        "i32.mul",
	OpcodeI32DivS:       "i32.div_s",
	OpcodeI32DivU:       "i32.div_u",
	OpcodeI32RemS:       "i32.rem_s",
	OpcodeI32RemU:       "i32.rem_u",
	OpcodeI32And:        "i32.and",
	OpcodeI32Or:         "i32.or",
	OpcodeI32Xor:        "i32.xor",
	OpcodeI32Shl:        "i32.shl",
	OpcodeI32ShrS:       "i32.shr_s",
	OpcodeI32ShrU:       "i32.shr_u",
	OpcodeI32Rotl:       "i32.rotl",
	OpcodeI32Rotr:       "i32.rotr",
	OpcodeI64Clz:        "i64.clz",
	OpcodeI64Ctz:        "i64.ctz",
	OpcodeI64Popcnt:     "i64.popcnt",
	OpcodeI64Add:        "i64.add",
	OpcodeI64Sub:        "i64.sub",
	OpcodeI64Mul:        "i64.mul",
	OpcodeI64DivS:       "i64.div_s",
	OpcodeI64DivU:       "i64.div_u",
	OpcodeI64RemS:       "i64.rem_s",
	OpcodeI64RemU:       "i64.rem_u",
	OpcodeI64And:        "i64.and",
	OpcodeI64Or:         "i64.or",
	OpcodeI64Xor:        "i64.xor",
	OpcodeI64Shl:        "i64.shl",
	OpcodeI64ShrS:       "i64.shr_s",
	OpcodeI64ShrU:       "i64.shr_u",
	OpcodeI64Rotl:       "i64.rotl",
	OpcodeI64Rotr:       "i64.rotr",
	OpcodeI32WrapI64:    "i32.wrap_i64",
	OpcodeI64ExtendI32S: "i64.extend_i32_s",
	OpcodeI64ExtendI32U: "i64.extend_i32_u",
}

// InstructionName returns the spec-level name of op, e.g. "i32.add", or a
// hex rendering for opcodes outside the supported subset.
func InstructionName(op Opcode) string {
	if name, ok := instructionNames[op]; ok {
		return name
	}
	return "unknown (0x" + hexByte(op) + ")"
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

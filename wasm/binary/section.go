package binary

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

func decodeTypeSection(r io.Reader) ([]*wasm.FunctionType, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	result := make([]*wasm.FunctionType, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeFunctionType(r); err != nil {
			return nil, fmt.Errorf("read %d-th type: %w", i, err)
		}
	}
	return result, nil
}

func decodeFunctionType(r io.Reader) (*wasm.FunctionType, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	if b[0] != 0x60 {
		return nil, fmt.Errorf("%w: %#x != 0x60", wasm.ErrInvalidByte, b[0])
	}

	s, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter count: %w", err)
	}

	paramTypes, err := decodeValueTypes(r, s)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter types: %w", err)
	}

	s, _, err = leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("could not read result count: %w", err)
	} else if s > 1 {
		return nil, fmt.Errorf("%w: multi-value results", wasm.ErrUnsupportedFeature)
	}

	resultTypes, err := decodeValueTypes(r, s)
	if err != nil {
		return nil, fmt.Errorf("could not read result types: %w", err)
	}

	return &wasm.FunctionType{
		Params:  paramTypes,
		Results: resultTypes,
	}, nil
}

func decodeValueTypes(r io.Reader, num uint32) ([]wasm.ValueType, error) {
	// A zero-length vector decodes as nil so a decoded module compares equal
	// to one built without explicit empty slices, and re-encodes identically.
	if num == 0 {
		return nil, nil
	}

	buf := make([]wasm.ValueType, num)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	for _, v := range buf {
		if wasm.IsSupportedValueType(v) {
			continue
		}
		if wasm.IsKnownValueType(v) {
			return nil, fmt.Errorf("%w: value type %s", wasm.ErrUnsupportedFeature, wasm.ValueTypeName(v))
		}
		return nil, fmt.Errorf("invalid value type: 0x%x", v)
	}
	return buf, nil
}

func decodeFunctionSection(r io.Reader) ([]wasm.Index, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	result := make([]wasm.Index, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("get type index: %w", err)
		}
	}
	return result, nil
}

func decodeMemorySection(r io.Reader) (*wasm.MemoryType, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if vs > 1 {
		return nil, fmt.Errorf("%w: multiple memories", wasm.ErrUnsupportedFeature)
	} else if vs == 0 {
		return nil, nil
	}

	ret, err := decodeMemoryType(r)
	if err != nil {
		return nil, fmt.Errorf("read memory type: %w", err)
	}
	return ret, nil
}

// decodeMemoryType reads the limits of a linear memory, in 64KiB pages.
// See https://www.w3.org/TR/wasm-core-1/#limits%E2%91%A6
func decodeMemoryType(r io.Reader) (*wasm.MemoryType, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	ret := &wasm.MemoryType{}
	switch b[0] {
	case 0x00:
		var err error
		if ret.Min, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read min of limit: %w", err)
		}
	case 0x01:
		var err error
		if ret.Min, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read min of limit: %w", err)
		}
		m, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read max of limit: %w", err)
		}
		ret.Max = &m
	default:
		return nil, fmt.Errorf("%w for limits: %#x != 0x00 or 0x01", wasm.ErrInvalidByte, b[0])
	}

	if ret.Min > wasm.MemoryMaxPages {
		return nil, fmt.Errorf("memory min must be at most %d pages: %d", wasm.MemoryMaxPages, ret.Min)
	}
	if ret.Max != nil {
		if *ret.Max > wasm.MemoryMaxPages {
			return nil, fmt.Errorf("memory max must be at most %d pages: %d", wasm.MemoryMaxPages, *ret.Max)
		}
		if *ret.Max < ret.Min {
			return nil, fmt.Errorf("memory max %d is less than min %d", *ret.Max, ret.Min)
		}
	}
	return ret, nil
}

func decodeExportSection(r io.Reader) (map[string]*wasm.Export, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	exportSection := make(map[string]*wasm.Export, vs)
	for i := uint32(0); i < vs; i++ {
		name, err := decodeUTF8(r, "export name")
		if err != nil {
			return nil, fmt.Errorf("read export[%d]: %w", i, err)
		}

		b := make([]byte, 1)
		if _, err = io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("read export[%d] kind: %w", i, err)
		}

		index, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read export[%d] index: %w", i, err)
		}

		switch b[0] {
		case exportKindFunc:
			if _, ok := exportSection[name]; ok {
				return nil, fmt.Errorf("export[%d] has multiple exports with the same name %q", i, name)
			}
			exportSection[name] = &wasm.Export{Name: name, Index: index}
		case exportKindTable, exportKindMemory, exportKindGlobal:
			// Decoded for framing, but only function exports produce code.
		default:
			return nil, fmt.Errorf("%w: invalid byte for exportdesc: %#x", wasm.ErrInvalidByte, b[0])
		}
	}
	return exportSection, nil
}

func decodeCodeSection(r io.Reader) ([]*wasm.Code, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	result := make([]*wasm.Code, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeCode(r); err != nil {
			return nil, fmt.Errorf("read %d-th code segment: %w", i, err)
		}
	}
	return result, nil
}

func decodeDataSection(r io.Reader) ([]*wasm.DataSegment, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	result := make([]*wasm.DataSegment, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeDataSegment(r); err != nil {
			return nil, fmt.Errorf("read data segment: %w", err)
		}
	}
	return result, nil
}

func decodeDataSegment(r io.Reader) (*wasm.DataSegment, error) {
	memoryIndex, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read memory index: %w", err)
	}
	if memoryIndex != 0 {
		return nil, fmt.Errorf("%w: memory index must be zero: %d", wasm.ErrUnsupportedFeature, memoryIndex)
	}

	offset, err := decodeConstI32Expr(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}

	b := make([]byte, vs)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read init of segment: %w", err)
	}
	return &wasm.DataSegment{Offset: uint32(offset), Init: b}, nil
}

// decodeConstI32Expr reads the only constant-expression shape active data
// segments use in the supported subset: `i32.const N; end`.
func decodeConstI32Expr(r io.Reader) (int32, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, fmt.Errorf("read opcode: %w", err)
	}
	if b[0] != wasm.OpcodeI32Const {
		return 0, fmt.Errorf("%w: offset expression opcode %s", wasm.ErrUnsupportedFeature, wasm.InstructionName(b[0]))
	}

	v, _, err := leb128.DecodeInt32(r)
	if err != nil {
		return 0, fmt.Errorf("read i32.const value: %w", err)
	}

	if _, err := io.ReadFull(r, b); err != nil {
		return 0, fmt.Errorf("read end opcode: %w", err)
	}
	if b[0] != wasm.OpcodeEnd {
		return 0, fmt.Errorf("constant expression did not end with \"end\" opcode: 0x%x", b[0])
	}
	return v, nil
}

func decodeUTF8(r io.Reader, context string) (string, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", fmt.Errorf("read size of %s: %w", context, err)
	}

	buf := make([]byte, vs)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read bytes of %s: %w", context, err)
	}

	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%s must be valid utf8", context)
	}
	return string(buf), nil
}

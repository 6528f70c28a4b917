package binary

import (
	"fmt"
	"io"
	"math"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

func decodeCode(r io.Reader) (*wasm.Code, error) {
	ss, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get the size of code: %w", err)
	}

	r = io.LimitReader(r, int64(ss))

	// Locals are run-length encoded: count, then type.
	ls, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get the size of locals: %w", err)
	}

	var nums []uint64
	var types []wasm.ValueType
	var sum uint64
	b := make([]byte, 1)
	for i := uint32(0); i < ls; i++ {
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read n of locals: %w", err)
		}
		sum += uint64(n)
		nums = append(nums, uint64(n))

		if _, err = io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("read type of local: %w", err)
		}
		switch vt := wasm.ValueType(b[0]); {
		case wasm.IsSupportedValueType(vt):
			types = append(types, vt)
		case wasm.IsKnownValueType(vt):
			return nil, fmt.Errorf("%w: local type %s", wasm.ErrUnsupportedFeature, wasm.ValueTypeName(vt))
		default:
			return nil, fmt.Errorf("invalid local type: 0x%x", vt)
		}
	}

	if sum > math.MaxUint32 {
		return nil, fmt.Errorf("too many locals: %d", sum)
	}

	var localTypes []wasm.ValueType
	for i, num := range nums {
		t := types[i]
		for j := uint64(0); j < num; j++ {
			localTypes = append(localTypes, t)
		}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if len(body) == 0 || body[len(body)-1] != wasm.OpcodeEnd {
		return nil, fmt.Errorf("expression does not end with \"end\" opcode")
	}

	return &wasm.Code{
		Body:       body,
		LocalTypes: localTypes,
	}, nil
}
